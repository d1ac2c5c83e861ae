package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowvana/flowlight/internal/cmd"
)

type exitCoder interface {
	error
	ExitCode() int
	UseStderr() bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.NewRoot().ExecuteContext(ctx)
	stop()
	os.Exit(report(err))
}

// report prints err the way its ExitResult asks and returns the exit code.
// Plain errors (cobra flag errors and the like) are usage errors.
func report(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		if msg := ec.Error(); msg != "" {
			if ec.UseStderr() {
				fmt.Fprintln(os.Stderr, msg)
			} else {
				fmt.Fprintln(os.Stdout, msg)
			}
		}
		return ec.ExitCode()
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 2
}
