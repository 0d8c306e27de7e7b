package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/cli"
	"github.com/veganchecker/vcadmin/pkg/version"
)

// Exit codes.
const (
	exitOK           = 0
	exitError        = 1
	exitAccessDenied = 3
	exitAborted      = 4
	exitInterrupted  = 130
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.String())
	return root.ExecuteContext(ctx)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, backend.ErrNotAdmin):
		return exitAccessDenied
	case errors.Is(err, cli.ErrNotConfirmed):
		return exitAborted
	default:
		return exitError
	}
}
