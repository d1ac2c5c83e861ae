package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/dispatch"
	"github.com/flowvana/flowlight/internal/search"
)

// requestTimeout bounds each search request.
const requestTimeout = 15 * time.Second

// debounceMsg fires when a debounced request's delay has elapsed.
type debounceMsg struct {
	req dispatch.Request
}

// resultsMsg carries the outcome of a search request.
type resultsMsg struct {
	gen     uint64
	results []search.Result
	err     error
}

type chatReplyMsg struct {
	reply app.Message
	err   error
}

type flowRunMsg struct {
	out app.FlowRunOutput
	err error
}

// clearStatusMsg is sent after a delay to clear the status line.
type clearStatusMsg struct{}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// requestCmd runs req, waiting out its debounce first.
func (m *model) requestCmd(req dispatch.Request) tea.Cmd {
	if req.Delay > 0 {
		return tea.Tick(req.Delay, func(time.Time) tea.Msg {
			return debounceMsg{req: req}
		})
	}
	return m.runRequest(req)
}

func (m *model) runRequest(req dispatch.Request) tea.Cmd {
	parent := m.ctx
	rt := m.rt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		results, err := req.Do(ctx, rt)
		return resultsMsg{gen: req.Gen, results: results, err: err}
	}
}

func (m *model) sendChatCmd(text string) tea.Cmd {
	parent := m.ctx
	chat := m.chat
	return func() tea.Msg {
		reply, err := chat.Send(parent, text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (m *model) runFlowCmd(name string) tea.Cmd {
	parent := m.ctx
	rt := m.rt
	return func() tea.Msg {
		out, err := app.RunFlow(parent, rt, name, nil)
		return flowRunMsg{out: out, err: err}
	}
}
