// Package jsonpath resolves dotted/bracketed path expressions such as
// $.a.b[0]['c d'] against decoded JSON values.
//
// Values are the normalized JSON forms produced by encoding/json:
// map[string]any, []any, float64, string, bool and nil. Other Go values are
// normalized on demand.
package jsonpath

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var (
	leadingIdent = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
	segmentToken = regexp.MustCompile(`(?:\.([A-Za-z_$][\w$]*))|\[['"]([^'"]+)['"]\]|\[(\d+)\]`)
)

// Segments splits a path expression into its keys.
//
// A leading "$" and then a leading "." are dropped. A remainder without any
// "." or "[" is a single bare key. Otherwise an optional leading identifier
// is taken, followed by every .ident, ['key'] and [N] token found in the
// rest; characters that belong to no token are skipped.
func Segments(path string) []string {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, ".")

	if !strings.ContainsAny(p, ".[") {
		return []string{p}
	}

	var segs []string
	rest := p
	if first := leadingIdent.FindString(p); first != "" {
		segs = append(segs, first)
		rest = p[len(first):]
	}
	for _, m := range segmentToken.FindAllStringSubmatch(rest, -1) {
		switch {
		case m[1] != "":
			segs = append(segs, m[1])
		case m[2] != "":
			segs = append(segs, m[2])
		default:
			segs = append(segs, m[3])
		}
	}
	return segs
}

// Lookup walks path through value and returns the value found there.
// ok is false when any step hits nil, a missing key, an out-of-range index
// or a primitive.
func Lookup(value any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := normalize(value)
	for _, seg := range Segments(path) {
		if cur == nil {
			return nil, false
		}
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Resolve is Lookup converted to text for template substitution.
// It never fails: anything unresolvable becomes "".
func Resolve(value any, path string) string {
	v, ok := Lookup(value, path)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Stringify converts a JSON value to its substitution text. Objects and
// arrays become compact JSON, numbers use the shortest decimal form, nil
// becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Truthy reports whether v would count as a present value in a boolean
// context: non-nil, non-empty string, non-zero number, true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return true
}

func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	}
	return nil, false
}

// normalize converts typed Go values (structs, typed maps and slices) into
// the generic JSON shapes step understands.
func normalize(v any) any {
	switch v.(type) {
	case nil, map[string]any, []any, string, float64, bool:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
