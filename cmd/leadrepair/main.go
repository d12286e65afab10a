// leadrepair validates sales lead records, repairs the invalid ones and sorts
// every record into a quality bucket.
//
// Usage:
//
//	leadrepair clean INPUT [-o outputs] [-c 0.8] [--repairer gemini|rules] [--sqlite runs.db]
//	leadrepair generate [-o examples/sample_leads.csv] [-s 50] [--seed N]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/palantir/lead-repair-pipeline/pkg/pipeline/redact"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and maps the outcome to an exit code: run failures
// exit 1, everything rejected before a run starts exits 2.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	_, _ = fmt.Fprintf(stderr, "error: %s\n", redact.Secrets(err.Error()))

	var re *runError
	if errors.As(err, &re) {
		return exitFailure
	}
	return exitUsage
}

// runError marks a failure that happened after arguments and configuration
// were accepted.
type runError struct {
	err error
}

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }
