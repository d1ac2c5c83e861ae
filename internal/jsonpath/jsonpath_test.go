package jsonpath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		value string
		path  string
		want  string
	}{
		{"dotted", `{"a":{"b":1}}`, "$.a.b", "1"},
		{"array index", `{"a":[1,2,3]}`, "a[1]", "2"},
		{"null root", `null`, "$.x", ""},
		{"quoted key with space", `{"a":{"x y":5}}`, "a['x y']", "5"},
		{"double quoted key", `{"a":{"x.y":"dot"}}`, `a["x.y"]`, "dot"},
		{"bare identifier", `{"project_id":"p-1"}`, "project_id", "p-1"},
		{"dollar only prefix", `{"id":42}`, "$id", "42"},
		{"bare key with odd chars", `{"a-b":"x"}`, "a-b", "x"},
		{"object serialized", `{"a":{"b":[1,"two"]}}`, "a", `{"b":[1,"two"]}`},
		{"array serialized", `{"a":[true,null]}`, "$.a", `[true,null]`},
		{"missing key", `{"a":1}`, "$.b", ""},
		{"through primitive", `{"a":1}`, "a.b.c", ""},
		{"index out of range", `{"a":[1]}`, "a[3]", ""},
		{"explicit null", `{"a":null}`, "a", ""},
		{"false kept", `{"ok":false}`, "ok", "false"},
		{"zero kept", `{"n":0}`, "n", "0"},
		{"float", `{"n":1.5}`, "n", "1.5"},
		{"large int", `{"n":1234567890}`, "n", "1234567890"},
		{"nested index and key", `{"a":[{"c d":"deep"}]}`, "$.a[0]['c d']", "deep"},
		{"numeric key on object", `{"a":{"0":"zero"}}`, "a[0]", "zero"},
		{"no html escaping", `{"a":{"u":"<b>&"}}`, "a", `{"u":"<b>&"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(decode(t, tt.value), tt.path))
		})
	}
}

func TestResolveNeverPanics(t *testing.T) {
	values := []any{nil, 1.0, "s", true, []any{}, map[string]any{}, struct{ A int }{A: 1}}
	paths := []string{"", "$", "$.", "[", "]", "a[", "a['", "a[x]", "..", "$..a", "[0][0]"}
	for _, v := range values {
		for _, p := range paths {
			assert.NotPanics(t, func() { Resolve(v, p) })
		}
	}
}

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "0", "c d"}, Segments("$.a.b[0]['c d']"))
	assert.Equal(t, []string{"a"}, Segments("$.a"))
	assert.Equal(t, []string{"plain"}, Segments("plain"))
	assert.Equal(t, []string{"weird.key"}, Segments("['weird.key']"))
}

func TestLookupReturnsRawValue(t *testing.T) {
	v, ok := Lookup(decode(t, `{"data":{"items":[{"id":1},{"id":2}]}}`), "$.data.items")
	require.True(t, ok)
	items, isSlice := v.([]any)
	require.True(t, isSlice)
	assert.Len(t, items, 2)

	_, ok = Lookup(decode(t, `{"data":null}`), "$.data")
	assert.False(t, ok)
}

func TestLookupNormalizesStructs(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	v := struct {
		Items []item `json:"items"`
	}{Items: []item{{Name: "first"}}}
	assert.Equal(t, "first", Resolve(v, "items[0].name"))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(false))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(map[string]any{}))
	assert.True(t, Truthy(2.0))
}
