package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown renders assistant completions. The renderer is rebuilt
// when the wrap width changes; on any failure the raw text is shown.
func (m *model) renderMarkdown(text string) string {
	width := clampMin(m.width-8, 40)
	if m.renderer == nil || m.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		m.renderer = r
		m.rendererWidth = width
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
