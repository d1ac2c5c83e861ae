package tui

import "strings"

type keyHelpEntry struct {
	key   string
	label string
}

func keyHelp(keys ...keyHelpEntry) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.key+": "+k.label)
	}
	return strings.Join(parts, "   ")
}

var keyHelpPicking = []keyHelpEntry{
	{key: "↑/↓", label: "choose space"},
	{key: "enter/tab", label: "select"},
	{key: "esc", label: "close"},
}

var keyHelpQuerying = []keyHelpEntry{
	{key: "↑/↓", label: "results"},
	{key: "enter", label: "open"},
	{key: "ctrl+y", label: "copy url"},
	{key: "esc", label: "clear"},
}

var keyHelpIdle = []keyHelpEntry{
	{key: "enter", label: "send"},
	{key: "/", label: "search a space"},
	{key: "ctrl+o", label: "run/open result"},
	{key: "tab", label: "suggestion"},
	{key: "ctrl+c", label: "quit"},
}
