package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"keywatch/internal/sessionbus"
)

func TestExitCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"generic failure", errors.New("boom"), exitGeneral},
		{"no endpoint", fmt.Errorf("subscribe: %w", sessionbus.ErrNoEndpoint), exitNoSubscribe},
		{"interrupted prompt", fmt.Errorf("%w: password prompt aborted", errInterrupted), exitInterruptCode},
		{"canceled context", context.Canceled, exitInterruptCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
