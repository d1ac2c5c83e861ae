package tui

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// outputBoxStyle frames flow output in the transcript.
var outputBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("8")).
	Padding(0, 1)

var (
	chromaStyle     = styles.Get("dracula")
	chromaFormatter = formatters.Get("terminal256")
	plainOutput     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func init() {
	if chromaStyle == nil {
		chromaStyle = styles.Fallback
	}
	if chromaFormatter == nil {
		chromaFormatter = formatters.Fallback
	}
}

// highlightOutput colours JSON output; anything else is shown plain.
func highlightOutput(input string) string {
	if input == "" {
		return input
	}
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return plainOutput.Render(input)
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		return plainOutput.Render(input)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, input)
	if err != nil {
		return plainOutput.Render(input)
	}
	var buf bytes.Buffer
	if err := chromaFormatter.Format(&buf, chromaStyle, iterator); err != nil {
		return plainOutput.Render(input)
	}
	return buf.String()
}
