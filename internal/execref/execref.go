// Package execref parses and runs "exec:" command references used by
// command-backed flow steps.
package execref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/shlex"
)

// Scheme prefixes a command reference.
const Scheme = "exec:"

var errInvalid = errors.New("invalid exec reference")

// Parse extracts argv from a command reference. The "exec:" prefix is
// optional; the rest is split shell-style so quoted arguments survive.
func Parse(raw string) ([]string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), Scheme))
	if rest == "" {
		return nil, errInvalid
	}
	args, err := shlex.Split(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalid, err)
	}
	if len(args) == 0 {
		return nil, errInvalid
	}
	return args, nil
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Run executes argv with input encoded as JSON on stdin. Stdout that
// parses as JSON is returned decoded; any other output is returned as a
// trimmed string.
func Run(ctx context.Context, argv []string, input any) (any, error) {
	if len(argv) == 0 {
		return nil, errInvalid
	}
	stdin, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Command: argv[0], Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, err
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, nil
	}
	if out[0] == '{' || out[0] == '[' {
		var parsed any
		if json.Unmarshal([]byte(out), &parsed) == nil {
			return parsed, nil
		}
	}
	return out, nil
}
