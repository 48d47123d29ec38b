// File: cmd/gridclick/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/gridclick/cmd"
	"github.com/xkilldash9x/gridclick/internal/observability"
)

const crashLogFile = "gridclick-crash.log"

// Swapped in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	// Ctrl+C disarms everything by cancelling the sampling loop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return
	default:
		osExit(1)
	}
}

// handlePanic flushes logs, records the stack and exits non-zero. A crash
// must never leave the pointer driver running unattended.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	report := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(crashLogFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to write crash log: %v\n%s\n", err, report)
	} else {
		fmt.Fprintf(os.Stderr, "gridclick crashed; details written to %s\n", crashLogFile)
	}
	osExit(2)
}
