// Package main provides the traitctl CLI, which describes, shows and watches
// the configurable classes of a traitkit application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "traitctl:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage")

// exitCode classifies err: bad input and rejected values are user errors,
// everything else is a system error.
func exitCode(err error) int {
	for _, target := range []error{
		errUsage,
		traits.ErrUnknownTrait,
		traits.ErrTypeMismatch,
		traits.ErrValidationRejected,
		traits.ErrReadOnly,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
