package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/flowvana/flowlight/internal/app"
	"github.com/flowvana/flowlight/internal/dispatch"
)

var (
	titleCaser = cases.Title(language.English)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// maxResultsShown caps the results panel height.
const maxResultsShown = 5

func (m *model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}

	var blocks []string
	blocks = append(blocks, m.viewport.View())
	if r := m.viewResults(); r != "" {
		blocks = append(blocks, r)
	}
	if d := m.viewDropdown(); d != "" {
		blocks = append(blocks, d)
	}
	blocks = append(blocks, inputStyle.Width(clampMin(m.width-4, 10)).Render(m.input.View()))
	if s := m.viewSuggestions(); s != "" {
		blocks = append(blocks, s)
	}
	blocks = append(blocks, m.viewFooter())
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// chromeHeight is the number of lines used by everything but the transcript.
func (m *model) chromeHeight() int {
	h := 3 + 1 // input box, footer
	if r := m.viewResults(); r != "" {
		h += lipgloss.Height(r)
	}
	if d := m.viewDropdown(); d != "" {
		h += lipgloss.Height(d)
	}
	if s := m.viewSuggestions(); s != "" {
		h += lipgloss.Height(s)
	}
	return h
}

// syncViewport resizes the transcript pane and refreshes its content.
func (m *model) syncViewport() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = clampMin(m.height-m.chromeHeight(), 1)
	m.viewport.SetContent(m.viewTranscript())
	m.viewport.GotoBottom()
}

func (m *model) viewTranscript() string {
	s := app.Styles
	if len(m.entries) == 0 && !m.waitingChat {
		return s.Dim.Render("Ask a question, or type / to search a space.")
	}
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch {
		case e.role == app.RoleUser:
			sb.WriteString(s.User.Render("you"))
		default:
			sb.WriteString(s.Assistant.Render("flowlight"))
		}
		sb.WriteString("\n")
		if e.err {
			sb.WriteString(s.Error.Render(e.text))
		} else {
			sb.WriteString(e.text)
		}
		if e.body != "" {
			sb.WriteString("\n")
			sb.WriteString(outputBoxStyle.Render(e.body))
		}
	}
	if m.waitingChat {
		sb.WriteString("\n\n")
		sb.WriteString(m.spinner.View() + s.Dim.Render(" Thinking..."))
	}
	return sb.String()
}

func (m *model) viewResults() string {
	if !m.resultsVisible {
		return ""
	}
	s := app.Styles
	if m.resultStatus == app.StatusLoading {
		label := "Searching"
		if m.loadingSpace != "" {
			label += " " + m.loadingSpace
		}
		return panelStyle.Render(m.spinner.View() + s.Dim.Render(" "+label+"..."))
	}
	if len(m.results) == 0 {
		return ""
	}

	start := 0
	if m.resultCursor >= maxResultsShown {
		start = m.resultCursor - maxResultsShown + 1
	}
	end := min(start+maxResultsShown, len(m.results))

	var lines []string
	for i := start; i < end; i++ {
		r := m.results[i]
		title := r.Title
		if i == m.resultCursor {
			title = s.Selected.Render(title)
		} else {
			title = s.Header.Render(title)
		}
		lines = append(lines, title+"  "+s.Dim.Render(r.Description))
		lines = append(lines, "  "+s.Link.Render(r.URL))
	}
	if len(m.results) > maxResultsShown {
		lines = append(lines, s.Dim.Render(fmt.Sprintf("%d of %d", m.resultCursor+1, len(m.results))))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewDropdown() string {
	if !m.dropdownOpen || len(m.dropdownItems) == 0 {
		return ""
	}
	s := app.Styles
	lines := make([]string, 0, len(m.dropdownItems))
	for i, sp := range m.dropdownItems {
		style := s.Key
		if i == m.dropdownActive {
			style = s.Selected
		}
		label := style.Render("/" + titleCaser.String(sp.Name()))
		if desc := sp.Description(); desc != "" {
			label += "  " + s.Dim.Render(desc)
		}
		lines = append(lines, label)
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewSuggestions() string {
	if !m.suggestionsVisible || len(m.suggestions) == 0 || !m.chat.Empty() {
		return ""
	}
	chips := make([]string, 0, len(m.suggestions))
	for _, s := range m.suggestions {
		chips = append(chips, app.Styles.Chip.Render(s))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m *model) viewFooter() string {
	s := app.Styles
	var help string
	switch {
	case m.dropdownOpen:
		help = keyHelp(keyHelpPicking...)
	case m.disp.State().Mode == dispatch.ModeQuerying:
		help = keyHelp(keyHelpQuerying...)
	default:
		help = keyHelp(keyHelpIdle...)
	}
	footer := s.Dim.Render(help)
	if m.statusMsg != "" {
		footer += "   " + s.Success.Render(m.statusMsg)
	}
	return footer
}
