package app

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the text styles shared by command output and the palette.
// NO_COLOR (https://no-color.org/) turns them all into plain styles.
var Styles = initStyles()

type styles struct {
	Header  lipgloss.Style
	Key     lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Bullet  lipgloss.Style

	// Link renders result URLs.
	Link lipgloss.Style
	// Selected marks the active dropdown row.
	Selected lipgloss.Style
	// Chip renders suggestion chips.
	Chip lipgloss.Style
	// User and Assistant prefix transcript lines.
	User      lipgloss.Style
	Assistant lipgloss.Style
}

func initStyles() styles {
	if os.Getenv("NO_COLOR") != "" {
		plain := lipgloss.NewStyle()
		return styles{
			Header: plain, Key: plain, Dim: plain, Success: plain, Warning: plain,
			Error: plain, Bullet: plain, Link: plain, Selected: plain.Reverse(true),
			Chip: plain, User: plain, Assistant: plain,
		}
	}

	return styles{
		Header:    lipgloss.NewStyle().Bold(true),
		Key:       lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // Cyan
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")), // Gray
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // Green
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // Yellow
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // Red
		Bullet:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Link:      lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Underline(true),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")),
		Chip:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	}
}
