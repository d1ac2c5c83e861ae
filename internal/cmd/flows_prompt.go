package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"

	"github.com/flowvana/flowlight/internal/flows"
)

// promptInputs asks for each property of the flow's input schema. Values
// already in current pre-fill the form; answers that parse as JSON are
// decoded unless the property is declared as a string.
func promptInputs(flow *flows.Flow, current map[string]any) (map[string]any, error) {
	schema := flow.InputSchema()
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return current, nil
	}

	required := map[string]bool{}
	switch r := schema["required"].(type) {
	case []string:
		for _, n := range r {
			required[n] = true
		}
	case []any:
		for _, n := range r {
			if s, ok := n.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)

	answers := make([]string, len(names))
	fields := make([]huh.Field, 0, len(names))
	for i, name := range names {
		prop, _ := props[name].(map[string]any)
		if v, ok := current[name]; ok {
			answers[i] = inputString(v)
		}

		title := name
		if required[name] {
			title += " *"
		}
		field := huh.NewInput().
			Title(title).
			Value(&answers[i])
		if desc, ok := prop["description"].(string); ok {
			field = field.Description(desc)
		}
		if typ, ok := prop["type"].(string); ok {
			field = field.Placeholder(typ)
		}
		if required[name] {
			field = field.Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("required")
				}
				return nil
			})
		}
		fields = append(fields, field)
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title(flow.Name).Description(flow.Description))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, fmt.Errorf("cancelled")
		}
		return nil, err
	}

	out := make(map[string]any, len(current)+len(names))
	for k, v := range current {
		out[k] = v
	}
	for i, name := range names {
		prop, _ := props[name].(map[string]any)
		if answers[i] == "" {
			delete(out, name)
			continue
		}
		out[name] = decodeAnswer(answers[i], prop)
	}
	return out, nil
}

func inputString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func decodeAnswer(s string, prop map[string]any) any {
	if typ, _ := prop["type"].(string); typ == "string" {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
