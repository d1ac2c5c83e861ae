package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowvana/flowlight/internal/flows"
	"github.com/flowvana/flowlight/internal/formula"
	"github.com/flowvana/flowlight/internal/search"
)

// SpaceInfo describes one configured search space.
type SpaceInfo struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	// Fields are the item fields the navigation formulas read.
	Fields   []string `json:"fields,omitempty"`
	Selected bool     `json:"selected,omitempty"`
}

// SpaceList is the output of `spaces list`.
type SpaceList struct {
	Hook   string      `json:"hook"`
	Spaces []SpaceInfo `json:"spaces"`
}

// ListSpaces describes the hook's spaces in order.
func ListSpaces(h *search.Hook) SpaceList {
	sel := h.SelectedSpace()
	out := SpaceList{Hook: h.ID, Spaces: []SpaceInfo{}}
	for _, sp := range h.Spaces() {
		cfg := sp.Config()
		out.Spaces = append(out.Spaces, SpaceInfo{
			ID:          cfg.ID,
			Name:        cfg.Name,
			Description: cfg.Description,
			URL:         cfg.URL,
			Fields:      formulaFields(cfg),
			Selected:    sp == sel,
		})
	}
	return out
}

func formulaFields(cfg search.SpaceConfig) []string {
	var out []string
	seen := map[string]bool{}
	for _, tmpl := range []string{cfg.NavigationURLFormula, cfg.NavigationTitleFormula} {
		for _, f := range formula.Placeholders(tmpl) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Render implements Renderable.
func (l SpaceList) Render() string {
	s := Styles
	if len(l.Spaces) == 0 {
		return s.Dim.Render("No search spaces configured")
	}
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Search spaces"))
	for _, sp := range l.Spaces {
		sb.WriteString("\n  ")
		sb.WriteString(s.Bullet.Render("•"))
		sb.WriteString(" ")
		sb.WriteString(s.Key.Render("/" + sp.Name))
		if sp.ID != "" {
			sb.WriteString(s.Dim.Render(" [" + sp.ID + "]"))
		}
		if sp.Description != "" {
			sb.WriteString(s.Dim.Render("  " + sp.Description))
		}
	}
	return sb.String()
}

// SearchOutput is the output of a space query or a flow search.
type SearchOutput struct {
	Space   string          `json:"space,omitempty"`
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Error   *Error          `json:"error,omitempty"`
}

// Render implements Renderable.
func (o SearchOutput) Render() string {
	return RenderResults(o.Results, o.Error)
}

// RenderResults formats search results as title, description and URL.
func RenderResults(results []search.Result, e *Error) string {
	s := Styles
	if e != nil {
		return s.Error.Render(e.Message)
	}
	if len(results) == 0 {
		return s.Dim.Render("No results")
	}
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.Header.Render(r.Title))
		sb.WriteString("\n  ")
		sb.WriteString(s.Dim.Render(r.Description))
		sb.WriteString("\n  ")
		sb.WriteString(s.Link.Render(r.URL))
	}
	return sb.String()
}

// QuerySpace runs text against the named space.
func QuerySpace(ctx context.Context, h *search.Hook, name, text string) (SearchOutput, error) {
	out := SearchOutput{Space: name, Query: text, Results: []search.Result{}}
	sp := h.FindSpace(name)
	if sp == nil {
		err := fmt.Errorf("search space %q not found", name)
		out.Error = newError(ErrCodeNoSpace, err)
		return out, err
	}
	out.Space = sp.Name()
	results, err := sp.QueryErr(ctx, text)
	out.Results = results
	if err != nil {
		out.Error = newError(ErrCodeBackend, err)
		return out, err
	}
	return out, nil
}

// SearchFlows runs the free-text flow search.
func SearchFlows(ctx context.Context, rt *Runtime, text string) (SearchOutput, error) {
	out := SearchOutput{Query: text, Results: []search.Result{}}
	results, err := rt.QueryFlows(ctx, text)
	if err != nil {
		out.Error = newError(ErrCodeBackend, err)
		return out, err
	}
	if results != nil {
		out.Results = results
	}
	return out, nil
}

// FlowList is the output of `flows list` and `flows find`.
type FlowList struct {
	Flows []flows.Summary `json:"flows"`
}

// ListFlows summarizes fs in order.
func ListFlows(fs []*flows.Flow) FlowList {
	out := FlowList{Flows: make([]flows.Summary, 0, len(fs))}
	for _, f := range fs {
		out.Flows = append(out.Flows, f.Summary())
	}
	return out
}

// Render implements Renderable.
func (l FlowList) Render() string {
	s := Styles
	if len(l.Flows) == 0 {
		return s.Dim.Render("No flows registered")
	}
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Flows"))
	for _, f := range l.Flows {
		sb.WriteString("\n  ")
		sb.WriteString(s.Bullet.Render("•"))
		sb.WriteString(" ")
		sb.WriteString(s.Key.Render(f.Name))
		if f.Description != "" {
			sb.WriteString(s.Dim.Render("  " + f.Description))
		}
		if n := inputCount(f.Inputs); n > 0 {
			sb.WriteString(s.Dim.Render(fmt.Sprintf(" (%d inputs)", n)))
		}
	}
	return sb.String()
}

func inputCount(inputs map[string]any) int {
	if props, ok := inputs["properties"].(map[string]any); ok {
		return len(props)
	}
	return len(inputs)
}
