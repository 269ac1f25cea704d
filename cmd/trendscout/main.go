// Package main is the entry point for the trendscout CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	os.Exit(exitCode(err))
}

// Exit codes.
const (
	exitOK     = 0
	exitRun    = 1
	exitConfig = 2
)

// configError marks failures that happen before any work starts.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	var ce *configError
	if errors.As(err, &ce) {
		return exitConfig
	}
	return exitRun
}
