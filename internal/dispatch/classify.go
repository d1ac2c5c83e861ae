// Package dispatch turns an editable input buffer into slash-command
// effects: picking a search space from a dropdown, querying the chosen
// space, or running the plain free-text search.
//
// Classify is a pure function of buffer and caret. Dispatcher keeps the
// previous classification and emits effects only when it changes.
package dispatch

import (
	"regexp"
	"strings"
)

// Mode is the dispatcher's input mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModePicking
	ModeQuerying
)

func (m Mode) String() string {
	switch m {
	case ModePicking:
		return "picking"
	case ModeQuerying:
		return "querying"
	default:
		return "idle"
	}
}

// State is the classification of a buffer. Only the fields belonging to
// Mode are set.
type State struct {
	Mode Mode

	// Idle
	Text string

	// Picking. TokenStart and TokenEnd are rune offsets of the slash token.
	Token      string
	TokenStart int
	TokenEnd   int
	Filter     string

	// Querying
	SpaceName string
	Query     string
}

var queryLine = regexp.MustCompile(`^/(\S+)\s*(.*)$`)

// Classify computes the input mode for buffer with the caret at the given
// rune offset. Out-of-range carets are clamped.
func Classify(buffer string, caret int) State {
	runes := []rune(buffer)
	if caret < 0 {
		caret = 0
	}
	if caret > len(runes) {
		caret = len(runes)
	}

	before := runes[:caret]
	start := 0
	for i := len(before) - 1; i >= 0; i-- {
		if before[i] == ' ' || before[i] == '\n' {
			start = i + 1
			break
		}
	}
	token := string(before[start:])

	global := strings.HasPrefix(buffer, "/")
	slashToken := strings.HasPrefix(token, "/")

	if !global {
		return State{Mode: ModeIdle, Text: buffer}
	}
	if slashToken {
		return State{
			Mode:       ModePicking,
			Token:      token,
			TokenStart: start,
			TokenEnd:   caret,
			Filter:     strings.ToLower(strings.TrimPrefix(token, "/")),
		}
	}

	st := State{Mode: ModeQuerying}
	if m := queryLine.FindStringSubmatch(buffer); m != nil {
		st.SpaceName = m[1]
		st.Query = strings.TrimSpace(m[2])
	}
	return st
}
