// Package tui implements the interactive palette: a single input that
// chats with the assistant, searches flows and, after "/", searches a
// configured space.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/dispatch"
	"github.com/flowvana/flowlight/internal/search"
)

type model struct {
	ctx    context.Context
	rt     *app.Runtime
	chat   *app.ChatSession
	disp   *dispatch.Dispatcher
	logger *zap.Logger

	width  int
	height int

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	// Mirrors of what the dispatcher asked us to show.
	dropdownOpen   bool
	dropdownItems  []*search.Space
	dropdownActive int

	resultsVisible bool
	results        []search.Result
	resultCursor   int
	resultStatus   string
	loadingSpace   string

	suggestionsVisible bool
	suggestions        []string
	suggestionIdx      int

	// Chat state
	waitingChat bool
	entries     []transcriptEntry

	statusMsg string

	renderer      *glamour.TermRenderer
	rendererWidth int
}

// transcriptEntry is one rendered block in the transcript pane.
type transcriptEntry struct {
	role string
	text string
	// body is pre-rendered content (highlighted JSON) shown under text.
	body string
	err  bool
}

// Options configures the palette.
type Options struct {
	Logger *zap.Logger
}

func newModel(ctx context.Context, rt *app.Runtime, opts Options) *model {
	logger := opts.Logger
	if logger == nil {
		logger = rt.Logger
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = rt.Config.InputPlaceholder()
	ti.Prompt = "› "
	ti.CharLimit = 2048
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &model{
		ctx:                ctx,
		rt:                 rt,
		chat:               app.NewChatSession(rt),
		disp:               dispatch.New(rt.Hook, dispatch.WithLogger(logger)),
		logger:             logger,
		input:              ti,
		spinner:            sp,
		viewport:           viewport.New(0, 0),
		suggestions:        rt.Config.SuggestionList(),
		suggestionsVisible: true,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// RunPalette runs the palette until the user quits.
func RunPalette(ctx context.Context, rt *app.Runtime, opts Options) error {
	m := newModel(ctx, rt, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// busy reports whether the spinner should animate.
func (m *model) busy() bool {
	return m.waitingChat || m.resultStatus == app.StatusLoading
}

func (m *model) selectedResult() (search.Result, bool) {
	if !m.resultsVisible || m.resultCursor < 0 || m.resultCursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.resultCursor], true
}
