package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"keywatch/internal/sessionbus"
)

// errInterrupted marks failures caused by the user aborting an interactive
// step; it maps to the conventional interrupt exit code.
var errInterrupted = errors.New("interrupted")

const (
	exitGeneral       = 1
	exitNoSubscribe   = 2
	exitInterruptCode = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	code := exitCode(err)
	if code != exitInterruptCode {
		fmt.Fprintln(os.Stderr, err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled):
		return exitInterruptCode
	case errors.Is(err, sessionbus.ErrNoEndpoint):
		return exitNoSubscribe
	default:
		return exitGeneral
	}
}
