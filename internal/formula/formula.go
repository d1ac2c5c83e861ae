// Package formula expands ${...} placeholders in navigation templates
// against a JSON data item.
//
// Three placeholder shapes are recognized, in this order:
//
//	${data['$.some.path']}   bracketed path, passed verbatim to the resolver
//	${data.some.path[0]}     everything after "data." is the path
//	${some.path}             convenience form without the "data" prefix
//
// Placeholders that match none of the shapes are left as literal text.
package formula

import (
	"regexp"
	"strings"

	"github.com/flowvana/flowlight/internal/jsonpath"
)

var (
	// placeholder matches the three shapes as alternatives, tried in the
	// order listed above at each position.
	placeholder = regexp.MustCompile(`\$\{(?:data\['([^']+)'\]|data\.([^}]+)|([^}]+))\}`)
	barePath    = regexp.MustCompile(`\$\{([^}]+)\}`)
	dataPrefix  = regexp.MustCompile(`^\s*data(\.|\[)`)
)

// Render expands every recognized placeholder in template using data.
// An empty template renders as "". Expansion is a single left-to-right
// pass, so resolved values are never scanned again.
func Render(template string, data any) string {
	if template == "" {
		return ""
	}
	if !strings.Contains(template, "${") {
		return template
	}

	var sb strings.Builder
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(template, -1) {
		sb.WriteString(template[last:m[0]])
		last = m[1]
		switch {
		case m[2] >= 0:
			sb.WriteString(jsonpath.Resolve(data, template[m[2]:m[3]]))
		case m[4] >= 0:
			sb.WriteString(jsonpath.Resolve(data, template[m[4]:m[5]]))
		default:
			path := template[m[6]:m[7]]
			if dataPrefix.MatchString(path) {
				sb.WriteString(template[m[0]:m[1]])
				continue
			}
			sb.WriteString(jsonpath.Resolve(data, path))
		}
	}
	sb.WriteString(template[last:])
	return sb.String()
}

// Placeholders lists the raw placeholder bodies found in template, in
// order of appearance.
func Placeholders(template string) []string {
	matches := barePath.FindAllStringSubmatch(template, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
