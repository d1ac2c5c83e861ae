package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/dispatch"
)

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = clampMin(msg.Width-6, 10)
		m.syncViewport()
		return m, nil

	case debounceMsg:
		if !m.disp.Current(msg.req.Gen) {
			return m, nil
		}
		m.resultStatus = app.StatusLoading
		return m, m.runRequest(msg.req)

	case resultsMsg:
		if msg.err != nil {
			m.logger.Debug("search failed", zap.Uint64("gen", msg.gen), zap.Error(msg.err))
		}
		return m, m.apply(m.disp.Complete(msg.gen, msg.results, msg.err))

	case chatReplyMsg:
		return m.handleChatReply(msg)

	case flowRunMsg:
		return m.handleFlowRun(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if key, ok := dropdownKey(msg); ok {
		if handled, effects := m.disp.Key(key); handled {
			return m, m.apply(effects)
		}
	}

	switch msg.String() {
	case "esc":
		if m.resultsVisible {
			m.resultsVisible = false
			return m, nil
		}
		if m.input.Value() != "" {
			return m, m.setBuffer("", 0)
		}
		return m, tea.Quit

	case "up":
		if m.resultsVisible && len(m.results) > 0 {
			m.resultCursor = (m.resultCursor - 1 + len(m.results)) % len(m.results)
			return m, nil
		}
		return m, m.scroll(msg)

	case "down":
		if m.resultsVisible && len(m.results) > 0 {
			m.resultCursor = (m.resultCursor + 1) % len(m.results)
			return m, nil
		}
		return m, m.scroll(msg)

	case "tab":
		if m.suggestionsVisible && len(m.suggestions) > 0 && m.chat.Empty() {
			s := m.suggestions[m.suggestionIdx%len(m.suggestions)]
			m.suggestionIdx++
			return m, m.setBuffer(s, len([]rune(s)))
		}
		return m, nil

	case "pgup", "pgdown":
		return m, m.scroll(msg)

	case "ctrl+o":
		return m, m.activateResult()

	case "ctrl+y":
		return m, m.copySelectedURL()

	case "enter":
		return m, m.submit()
	}

	before, pos := m.input.Value(), m.input.Position()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before && m.input.Position() == pos {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.apply(m.disp.Input(m.input.Value(), m.input.Position())))
}

func (m *model) scroll(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// dropdownKey maps keys the dispatcher navigates with while the picker is open.
func dropdownKey(msg tea.KeyMsg) (dispatch.Key, bool) {
	switch msg.String() {
	case "up", "ctrl+p":
		return dispatch.KeyUp, true
	case "down", "ctrl+n":
		return dispatch.KeyDown, true
	case "enter", "tab":
		return dispatch.KeyEnter, true
	case "esc":
		return dispatch.KeyEscape, true
	}
	return 0, false
}

// submit handles Enter outside the picker: a space query opens the
// highlighted result, an unfinished slash token is left alone, anything
// else goes to the assistant.
func (m *model) submit() tea.Cmd {
	switch m.disp.State().Mode {
	case dispatch.ModeQuerying:
		return m.activateResult()
	case dispatch.ModePicking:
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waitingChat {
		return nil
	}
	m.waitingChat = true
	m.suggestionsVisible = false
	m.entries = append(m.entries, transcriptEntry{role: app.RoleUser, text: text})
	m.syncViewport()
	return tea.Batch(m.setBuffer("", 0), m.sendChatCmd(text), m.spinner.Tick)
}

// activateResult runs a flow result, or copies any other result's URL.
func (m *model) activateResult() tea.Cmd {
	r, ok := m.selectedResult()
	if !ok {
		return nil
	}
	if name, isFlow := strings.CutPrefix(r.URL, app.FlowURLScheme); isFlow {
		m.statusMsg = "Running " + name + "..."
		return m.runFlowCmd(name)
	}
	return m.copySelectedURL()
}

func (m *model) copySelectedURL() tea.Cmd {
	r, ok := m.selectedResult()
	if !ok {
		return nil
	}
	if err := clipboard.WriteAll(r.URL); err != nil {
		m.statusMsg = "Copy failed: " + err.Error()
	} else {
		m.statusMsg = "Copied " + r.URL
	}
	return clearStatusAfter(2 * time.Second)
}

// setBuffer replaces the input and lets the dispatcher react.
func (m *model) setBuffer(text string, caret int) tea.Cmd {
	m.input.SetValue(text)
	m.input.SetCursor(caret)
	return m.apply(m.disp.Input(text, caret))
}

// apply carries out dispatcher effects and returns the commands they need.
func (m *model) apply(effects []dispatch.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		switch e := e.(type) {
		case dispatch.OpenDropdown:
			m.dropdownOpen = true
			m.dropdownItems = e.Items
			m.dropdownActive = e.Active
		case dispatch.SetActive:
			m.dropdownActive = e.Index
		case dispatch.CloseDropdown:
			m.dropdownOpen = false
			m.dropdownItems = nil
			m.dropdownActive = 0
		case dispatch.ShowLoading:
			m.resultsVisible = true
			m.results = nil
			m.resultStatus = app.StatusLoading
			m.loadingSpace = e.Space.Name()
			cmds = append(cmds, m.spinner.Tick)
		case dispatch.ShowResults:
			m.resultsVisible = true
			m.results = e.Results
			m.resultCursor = 0
			m.resultStatus = app.StatusOK
		case dispatch.HideResults:
			m.resultsVisible = false
			m.results = nil
			m.resultCursor = 0
			m.resultStatus = app.StatusIdle
		case dispatch.ShowSuggestions:
			m.suggestionsVisible = true
		case dispatch.HideSuggestions:
			m.suggestionsVisible = false
		case dispatch.SetBuffer:
			m.input.SetValue(e.Text)
			m.input.SetCursor(e.Caret)
		case dispatch.Request:
			cmds = append(cmds, m.requestCmd(e))
		}
	}
	if len(effects) > 0 {
		m.syncViewport()
	}
	return tea.Batch(cmds...)
}

func (m *model) handleChatReply(msg chatReplyMsg) (tea.Model, tea.Cmd) {
	m.waitingChat = false
	if msg.err != nil {
		m.logger.Warn("chat failed", zap.Error(msg.err))
	}
	entry := transcriptEntry{role: app.RoleAssistant, text: msg.reply.Text, err: msg.reply.Err != nil}
	if msg.reply.Kind == app.ReplyCompletion {
		entry.text = m.renderMarkdown(msg.reply.Text)
	}
	m.entries = append(m.entries, entry)
	m.syncViewport()
	return m, nil
}

func (m *model) handleFlowRun(msg flowRunMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	entry := transcriptEntry{role: app.RoleAssistant}
	if msg.err != nil {
		entry.text = "Flow " + msg.out.Flow + " failed: " + msg.err.Error()
		entry.err = true
	} else {
		entry.text = "Flow " + msg.out.Flow + " finished in " + msg.out.Elapsed
	}
	if len(msg.out.Steps) > 0 {
		if b, err := app.FormatOutput(msg.out.Steps, app.OutputFormatJSON); err == nil {
			entry.body = highlightOutput(string(b))
		}
	}
	m.entries = append(m.entries, entry)
	m.syncViewport()
	return m, nil
}

func clampMin(n, lo int) int {
	if n < lo {
		return lo
	}
	return n
}
