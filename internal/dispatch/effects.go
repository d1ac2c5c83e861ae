package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowvana/flowlight/internal/search"
)

// Effect is an instruction for the presentation layer.
type Effect interface {
	effect()
}

// OpenDropdown shows (or refreshes) the space picker.
type OpenDropdown struct {
	Items  []*search.Space
	Active int
}

// SetActive moves the dropdown highlight.
type SetActive struct {
	Index int
}

// CloseDropdown hides the space picker.
type CloseDropdown struct{}

// ShowLoading shows a loading indicator for a space query.
type ShowLoading struct {
	Space *search.Space
}

// ShowResults replaces the results panel.
type ShowResults struct {
	Results []search.Result
}

// HideResults hides the results panel.
type HideResults struct{}

// ShowSuggestions shows the suggestion chips.
type ShowSuggestions struct{}

// HideSuggestions hides the suggestion chips.
type HideSuggestions struct{}

// SetBuffer replaces the input text and caret (rune offset).
type SetBuffer struct {
	Text  string
	Caret int
}

func (OpenDropdown) effect()    {}
func (SetActive) effect()       {}
func (CloseDropdown) effect()   {}
func (ShowLoading) effect()     {}
func (ShowResults) effect()     {}
func (HideResults) effect()     {}
func (ShowSuggestions) effect() {}
func (HideSuggestions) effect() {}
func (SetBuffer) effect()       {}
func (Request) effect()         {}

// RequestKind says which search a Request runs.
type RequestKind int

const (
	FlowSearch RequestKind = iota
	SpaceQuery
)

func (k RequestKind) String() string {
	if k == SpaceQuery {
		return "space"
	}
	return "flows"
}

// Request asks the caller to run a search and report back with
// Dispatcher.Complete(Gen, ...). A non-zero Delay is a trailing-edge
// debounce: wait, then run only if the dispatcher still considers Gen
// current.
type Request struct {
	Gen   uint64
	Kind  RequestKind
	Space *search.Space
	Query string
	Delay time.Duration
}

// FlowSearcher runs the plain free-text search.
type FlowSearcher interface {
	QueryFlows(ctx context.Context, query string) ([]search.Result, error)
}

// Do runs the request.
func (r Request) Do(ctx context.Context, flows FlowSearcher) ([]search.Result, error) {
	switch r.Kind {
	case SpaceQuery:
		if r.Space == nil {
			return nil, errors.New("space query without a space")
		}
		return r.Space.QueryErr(ctx, r.Query)
	case FlowSearch:
		if flows == nil {
			return nil, errors.New("no flow searcher configured")
		}
		return flows.QueryFlows(ctx, r.Query)
	}
	return nil, fmt.Errorf("unknown request kind %d", r.Kind)
}

func (r Request) same(o *Request) bool {
	return o != nil && r.Kind == o.Kind && r.Space == o.Space && r.Query == o.Query
}
