package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flowvana/flowlight/internal/search"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHook(t *testing.T, max int) *search.Hook {
	t.Helper()
	h := search.NewHook(search.HookConfig{MaxSpacesShown: max})
	require.NoError(t, h.InitializeSpaces([]search.SpaceConfig{
		{ID: "sh-docs", Name: "Docs", URL: "https://docs.example.com/?q=${query}"},
		{ID: "sh-dogs", Name: "Dogs", URL: "https://dogs.example.com/?q=${query}"},
		{ID: "sh-tix", Name: "Tickets", URL: "https://tickets.example.com/?q=${query}"},
		{ID: "sh-help", Name: "Help Center", URL: "https://help.example.com/?q=${query}"},
	}))
	return h
}

func find[T Effect](effects []Effect) (T, bool) {
	for _, e := range effects {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func names(spaces []*search.Space) []string {
	out := make([]string, len(spaces))
	for i, s := range spaces {
		out[i] = s.Name()
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		caret  int
		want   State
	}{
		{"empty", "", 0, State{Mode: ModeIdle}},
		{"plain text", "hello", 5, State{Mode: ModeIdle, Text: "hello"}},
		{"slash alone", "/", 1, State{Mode: ModePicking, Token: "/", TokenStart: 0, TokenEnd: 1}},
		{"slash filter lowercased", "/Do", 3, State{Mode: ModePicking, Token: "/Do", TokenEnd: 3, Filter: "do"}},
		{"querying", "/docs  hello world ", 19, State{Mode: ModeQuerying, SpaceName: "docs", Query: "hello world"}},
		{"querying empty query", "/docs ", 6, State{Mode: ModeQuerying, SpaceName: "docs"}},
		{"caret inside token", "/docs hello", 3, State{Mode: ModePicking, Token: "/do", TokenEnd: 3, Filter: "do"}},
		{"slash token mid buffer without global", "hi /do", 6, State{Mode: ModeIdle, Text: "hi /do"}},
		{"slash word after text", "a /b", 4, State{Mode: ModeIdle, Text: "a /b"}},
		{"caret mid query after committed space", "/Docs hello world", 9, State{Mode: ModeQuerying, SpaceName: "Docs", Query: "hello world"}},
		{"caret back on committed space", "/Docs hello", 5, State{Mode: ModePicking, Token: "/Docs", TokenEnd: 5, Filter: "docs"}},
		{"newline separates tokens", "/docs\n/ti", 9, State{Mode: ModePicking, Token: "/ti", TokenStart: 6, TokenEnd: 9, Filter: "ti"}},
		{"caret clamped high", "ab", 99, State{Mode: ModeIdle, Text: "ab"}},
		{"caret clamped low", "/x", -3, State{Mode: ModeQuerying, SpaceName: "x"}},
		{"runes not bytes", "/é", 2, State{Mode: ModePicking, Token: "/é", TokenEnd: 2, Filter: "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.buffer, tt.caret))
		})
	}
}

func TestSlashAloneShowsAllSpacesUpToMax(t *testing.T) {
	d := New(newHook(t, 3))
	effects := d.Input("/", 1)

	open, ok := find[OpenDropdown](effects)
	require.True(t, ok)
	assert.Equal(t, []string{"Docs", "Dogs", "Tickets"}, names(open.Items))
	assert.Equal(t, 0, open.Active)

	_, ok = find[HideSuggestions](effects)
	assert.True(t, ok)
	assert.Equal(t, ModePicking, d.State().Mode)
}

func TestSlashFilterMatchesNameOrID(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("/", 1)

	open, ok := find[OpenDropdown](d.Input("/do", 3))
	require.True(t, ok)
	assert.Equal(t, []string{"Docs", "Dogs"}, names(open.Items))

	open, ok = find[OpenDropdown](d.Input("/sh-t", 5))
	require.True(t, ok)
	assert.Equal(t, []string{"Tickets"}, names(open.Items))

	effects := d.Input("/zzz", 4)
	_, ok = find[CloseDropdown](effects)
	assert.True(t, ok)
	_, _, isOpen := d.Dropdown()
	assert.False(t, isOpen)
}

func TestUnchangedStateEmitsNothing(t *testing.T) {
	d := New(newHook(t, 6))
	require.NotEmpty(t, d.Input("/do", 3))
	assert.Nil(t, d.Input("/do", 3))
}

func TestArrowKeysWrap(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("/do", 3)

	handled, effects := d.Key(KeyUp)
	assert.True(t, handled)
	assert.Equal(t, []Effect{SetActive{Index: 1}}, effects)

	_, effects = d.Key(KeyDown)
	assert.Equal(t, []Effect{SetActive{Index: 0}}, effects)

	_, effects = d.Key(KeyDown)
	assert.Equal(t, []Effect{SetActive{Index: 1}}, effects)
}

func TestKeysIgnoredWhenClosed(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("hello", 5)
	handled, effects := d.Key(KeyEnter)
	assert.False(t, handled)
	assert.Nil(t, effects)
}

func TestEnterCommitsThenQuery(t *testing.T) {
	hook := newHook(t, 6)
	d := New(hook)
	d.Input("/do", 3)
	d.Key(KeyDown)

	handled, effects := d.Key(KeyEnter)
	require.True(t, handled)
	assert.Equal(t, []Effect{SetBuffer{Text: "/Dogs ", Caret: 6}, CloseDropdown{}}, effects)
	assert.Equal(t, "Dogs", hook.SelectedSpace().Name())

	assert.Nil(t, d.Input("/Dogs ", 6), "committed buffer is already classified")

	effects = d.Input("/Dogs hello", 11)
	loading, ok := find[ShowLoading](effects)
	require.True(t, ok)
	assert.Same(t, hook.SelectedSpace(), loading.Space)

	req, ok := find[Request](effects)
	require.True(t, ok)
	assert.Equal(t, SpaceQuery, req.Kind)
	assert.Equal(t, "hello", req.Query)
	assert.Same(t, hook.SelectedSpace(), req.Space)
	assert.Zero(t, req.Delay)
}

func TestCommitKeepsTextAfterCaret(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("/ti rest", 3)
	effects := d.Commit(0)
	assert.Equal(t, SetBuffer{Text: "/Tickets  rest", Caret: 9}, effects[0])
}

func TestCommitOutOfRange(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("/do", 3)
	assert.Nil(t, d.Commit(5))
	assert.Nil(t, d.Commit(-1))
}

func TestEscapeClosesWithoutTouchingSelectionOrBuffer(t *testing.T) {
	hook := newHook(t, 6)
	d := New(hook)
	prior := hook.FindSpace("Tickets")
	hook.SetSelectedSpace(prior)

	d.Input("/do", 3)
	handled, effects := d.Key(KeyEscape)
	assert.True(t, handled)
	assert.Equal(t, []Effect{CloseDropdown{}}, effects)
	assert.Same(t, prior, hook.SelectedSpace())
	_, ok := find[SetBuffer](effects)
	assert.False(t, ok)
}

func TestQueryResolvesByNameWhenNothingSelected(t *testing.T) {
	hook := newHook(t, 6)
	d := New(hook)

	req, ok := find[Request](d.Input("/DOCS find me", 13))
	require.True(t, ok)
	assert.Equal(t, "Docs", req.Space.Name())
	assert.Equal(t, "find me", req.Query)
	assert.Same(t, req.Space, hook.SelectedSpace())
}

func TestQueryReresolvesStaleSelection(t *testing.T) {
	hook := newHook(t, 6)
	d := New(hook)

	foreign, err := search.NewSpace(search.SpaceConfig{Name: "Docs", URL: "https://elsewhere"})
	require.NoError(t, err)
	hook.SetSelectedSpace(foreign)

	req, ok := find[Request](d.Input("/docs x", 7))
	require.True(t, ok)
	assert.NotSame(t, foreign, req.Space)
	assert.True(t, hook.Contains(req.Space))
}

func TestQuerySelectedSpaceWithSpacesInName(t *testing.T) {
	hook := newHook(t, 6)
	d := New(hook)
	d.Input("/he", 3)
	d.Commit(0)

	req, ok := find[Request](d.Input("/Help Center billing", 20))
	require.True(t, ok)
	assert.Equal(t, "Help Center", req.Space.Name())
	assert.Equal(t, "billing", req.Query)
}

func TestQueryEmptyOrUnknownHidesResults(t *testing.T) {
	d := New(newHook(t, 6))

	effects := d.Input("/docs ", 6)
	_, ok := find[HideResults](effects)
	assert.True(t, ok)
	_, ok = find[Request](effects)
	assert.False(t, ok)

	effects = d.Input("/nowhere hello", 14)
	_, ok = find[HideResults](effects)
	assert.True(t, ok)
	_, ok = find[Request](effects)
	assert.False(t, ok)
}

func TestIdleShortInputShowsSuggestions(t *testing.T) {
	d := New(newHook(t, 6))
	effects := d.Input(" a ", 3)
	assert.Equal(t, []Effect{HideResults{}, ShowSuggestions{}}, effects)
}

func TestIdleSearchIsDebounced(t *testing.T) {
	d := New(newHook(t, 6))
	effects := d.Input("deploy", 6)

	assert.Equal(t, HideSuggestions{}, effects[0])
	req, ok := find[Request](effects)
	require.True(t, ok)
	assert.Equal(t, FlowSearch, req.Kind)
	assert.Equal(t, "deploy", req.Query)
	assert.Equal(t, 300*time.Millisecond, req.Delay)
	assert.True(t, d.Current(req.Gen))

	next, ok := find[Request](d.Input("deploy p", 8))
	require.True(t, ok)
	assert.False(t, d.Current(req.Gen))
	assert.True(t, d.Current(next.Gen))
}

func TestSlashWordInPlainTextSearchesFlows(t *testing.T) {
	d := New(newHook(t, 6))
	effects := d.Input("hello /do", 9)

	_, ok := find[OpenDropdown](effects)
	assert.False(t, ok)
	req, ok := find[Request](effects)
	require.True(t, ok)
	assert.Equal(t, FlowSearch, req.Kind)
	assert.Equal(t, "hello /do", req.Query)
	assert.Equal(t, ModeIdle, d.State().Mode)

	effects = d.Input("a /b", 4)
	_, ok = find[OpenDropdown](effects)
	assert.False(t, ok)
	assert.Equal(t, ModeIdle, d.State().Mode)
}

func TestIdenticalPendingRequestNotReissued(t *testing.T) {
	d := New(newHook(t, 6))
	_, ok := find[Request](d.Input("deploy", 6))
	require.True(t, ok)

	_, ok = find[Request](d.Input("deploy ", 7))
	assert.False(t, ok, "trailing space does not change the query")
}

func TestLeavingIdleClosesDropdown(t *testing.T) {
	d := New(newHook(t, 6))
	d.Input("/", 1)
	effects := d.Input("", 0)
	assert.Equal(t, CloseDropdown{}, effects[0])
}

func TestCompleteDropsStaleResults(t *testing.T) {
	d := New(newHook(t, 6))
	first, _ := find[Request](d.Input("/docs a", 7))
	second, _ := find[Request](d.Input("/docs ab", 8))
	require.NotEqual(t, first.Gen, second.Gen)

	results := []search.Result{{URL: "u", Title: "t", Description: "d"}}
	assert.Nil(t, d.Complete(first.Gen, results, nil))
	assert.Equal(t, []Effect{ShowResults{Results: results}}, d.Complete(second.Gen, results, nil))
	assert.Nil(t, d.Complete(second.Gen, results, nil), "already applied")
}

func TestCompleteAfterEnteringPickingIsDropped(t *testing.T) {
	d := New(newHook(t, 6))
	req, _ := find[Request](d.Input("deploy", 6))
	d.Input("/", 1)
	assert.Nil(t, d.Complete(req.Gen, []search.Result{{Title: "late"}}, nil))
}

func TestCompleteEmptyOrErrorHidesResults(t *testing.T) {
	d := New(newHook(t, 6))
	req, _ := find[Request](d.Input("deploy", 6))
	assert.Equal(t, []Effect{HideResults{}}, d.Complete(req.Gen, nil, nil))

	req, _ = find[Request](d.Input("deploy again", 12))
	assert.Equal(t, []Effect{HideResults{}}, d.Complete(req.Gen, nil, errors.New("boom")))
}

type fakeFlows struct {
	query string
}

func (f *fakeFlows) QueryFlows(_ context.Context, q string) ([]search.Result, error) {
	f.query = q
	return []search.Result{{Title: "Deploy", URL: "/flows/deploy"}}, nil
}

func TestRequestDo(t *testing.T) {
	flows := &fakeFlows{}
	results, err := Request{Kind: FlowSearch, Query: "dep"}.Do(context.Background(), flows)
	require.NoError(t, err)
	assert.Equal(t, "dep", flows.query)
	assert.Len(t, results, 1)

	_, err = Request{Kind: FlowSearch, Query: "dep"}.Do(context.Background(), nil)
	assert.Error(t, err)

	// No auth config: the space soft-fails before any network call.
	space, err := search.NewSpace(search.SpaceConfig{Name: "Docs", URL: "http://127.0.0.1:1/?q=${query}"})
	require.NoError(t, err)
	results, err = Request{Kind: SpaceQuery, Space: space, Query: "x"}.Do(context.Background(), nil)
	assert.Empty(t, results)
	assert.ErrorIs(t, err, search.ErrAuthTokenMissing)
}
