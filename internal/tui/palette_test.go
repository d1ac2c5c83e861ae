package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/flows"
	"github.com/flowvana/flowlight/internal/search"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	cfg := &app.Config{
		Spaces: []search.SpaceConfig{
			{Name: "Docs", URL: "https://docs.invalid/?q=${query}", Description: "Product docs"},
			{Name: "Tickets", URL: "https://tickets.invalid/?q=${query}"},
		},
		Flows: []flows.Config{{Name: "deploy", Steps: []flows.StepConfig{{Name: "s", Fn: "echo"}}}},
	}
	rt, err := app.NewRuntime(cfg, app.Context{}, app.RuntimeOptions{})
	require.NoError(t, err)
	m := newModel(context.Background(), rt, Options{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func typeText(m *model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func currentGen(m *model) (uint64, bool) {
	for g := uint64(1); g < 100; g++ {
		if m.disp.Current(g) {
			return g, true
		}
	}
	return 0, false
}

func TestPalettePickAndCommitSpace(t *testing.T) {
	m := newTestModel(t)
	assert.True(t, m.suggestionsVisible)

	typeText(m, "/")
	require.True(t, m.dropdownOpen)
	assert.Len(t, m.dropdownItems, 2)
	assert.False(t, m.suggestionsVisible)
	assert.Contains(t, m.View(), "/Docs")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.dropdownActive)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.dropdownOpen)
	assert.Equal(t, "/Tickets ", m.input.Value())
	assert.Equal(t, len("/Tickets "), m.input.Position())
	require.NotNil(t, m.rt.Hook.SelectedSpace())
	assert.Equal(t, "Tickets", m.rt.Hook.SelectedSpace().Name())
}

func TestPaletteEscapeClosesDropdownOnly(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "/do")
	require.True(t, m.dropdownOpen)
	assert.Len(t, m.dropdownItems, 1)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.dropdownOpen)
	assert.Equal(t, "/do", m.input.Value())
}

func TestPaletteEnterAfterEscapeKeepsToken(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "/do")
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.dropdownOpen)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.waitingChat)
	assert.Empty(t, m.entries)
	assert.Equal(t, "/do", m.input.Value())
}

func TestPaletteSlashWordInTextIsChat(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "hello /do")
	assert.False(t, m.dropdownOpen)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.True(t, m.waitingChat)
	require.Len(t, m.entries, 1)
	assert.Equal(t, "hello /do", m.entries[0].text)
}

func TestPaletteDropsStaleResults(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "/docs r")
	assert.True(t, m.resultsVisible)
	assert.Equal(t, app.StatusLoading, m.resultStatus)
	stale, ok := currentGen(m)
	require.True(t, ok)

	typeText(m, "e")
	fresh, ok := currentGen(m)
	require.True(t, ok)
	require.NotEqual(t, stale, fresh)

	m.Update(resultsMsg{gen: stale, results: []search.Result{{Title: "old"}}})
	assert.Empty(t, m.results)

	m.Update(resultsMsg{gen: fresh, results: []search.Result{{Title: "Reset", URL: "https://docs/reset"}}})
	require.Len(t, m.results, 1)
	assert.Equal(t, app.StatusOK, m.resultStatus)
	assert.Contains(t, m.View(), "Reset")

	m.Update(resultsMsg{gen: fresh, results: nil})
	assert.Len(t, m.results, 1, "a completed generation is not applied twice")
}

func TestPaletteChat(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "hi there")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.True(t, m.waitingChat)
	assert.Equal(t, "", m.input.Value())
	require.Len(t, m.entries, 1)
	assert.Equal(t, app.RoleUser, m.entries[0].role)

	m.Update(chatReplyMsg{reply: app.Message{Role: app.RoleAssistant, Kind: app.ReplyCompletion, Text: "Hello **there**"}})
	assert.False(t, m.waitingChat)
	require.Len(t, m.entries, 2)
	assert.Contains(t, m.entries[1].text, "Hello")
}

func TestPaletteFlowRunOutput(t *testing.T) {
	m := newTestModel(t)
	out, err := app.RunFlow(context.Background(), m.rt, "deploy", map[string]any{"env": "prod"})
	require.NoError(t, err)

	m.Update(flowRunMsg{out: out})
	require.Len(t, m.entries, 1)
	assert.Contains(t, m.entries[0].text, "Flow deploy finished")
	assert.Contains(t, m.entries[0].body, "prod")
}

func TestPaletteSuggestionTab(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, app.DefaultSuggestions[0], m.input.Value())
}

func TestHighlightOutput(t *testing.T) {
	assert.Equal(t, "", highlightOutput(""))
	assert.Contains(t, highlightOutput(`{"a": 1}`), "a")
	assert.Contains(t, highlightOutput("plain text"), "plain text")
}
