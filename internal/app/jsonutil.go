// Package app - jsonutil.go normalizes decoded values and parses flow inputs.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// NormalizeJSON converts v to its JSON-decoded form (map[string]any, []any,
// float64, string, bool or nil). Values already in that form are returned
// as-is.
func NormalizeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.(type) {
	case map[string]any, []any, string, float64, bool:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ToStringMap converts v to map[string]any, going through JSON for structs
// and typed maps.
func ToStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	norm, err := NormalizeJSON(v)
	if err != nil {
		return nil, false
	}
	m, ok := norm.(map[string]any)
	return m, ok
}

// ParseInputs merges flow inputs from, in increasing precedence, a JSON or
// YAML file, a JSON object literal and key=value pairs. Values in pairs are
// decoded as JSON when they parse, otherwise kept as strings.
func ParseInputs(file, literal string, pairs []string) (map[string]any, error) {
	out := map[string]any{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
		var raw any
		ext := strings.ToLower(filepath.Ext(file))
		if ext == ".yaml" || ext == ".yml" {
			err = yaml.Unmarshal(data, &raw)
		} else {
			err = json.Unmarshal(data, &raw)
		}
		if err != nil {
			return nil, fmt.Errorf("parse inputs file %s: %w", file, err)
		}
		m, ok := ToStringMap(raw)
		if !ok {
			return nil, fmt.Errorf("inputs file %s must contain an object", file)
		}
		for k, v := range m {
			out[k] = v
		}
	}

	if strings.TrimSpace(literal) != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(literal), &m); err != nil {
			return nil, fmt.Errorf("parse --input: %w", err)
		}
		for k, v := range m {
			out[k] = v
		}
	}

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid input %q (expected key=value)", p)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			out[k] = decoded
		} else {
			out[k] = v
		}
	}
	return out, nil
}
