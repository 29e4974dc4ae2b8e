// Command bullboard-admin inspects and operates BullMQ queues from a terminal
// using the same services as the board.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	apperrors "github.com/target/bullboard/internal/errors"
)

// Exit codes by error category.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitNotFound    = 3
	exitConflict    = 4
	exitUnavailable = 5
	exitCanceled    = 130
)

func main() {
	cmd := newRootCommand(newCommandContext())
	if err := cmd.Execute(); err != nil {
		code := exitCode(err)
		if code != exitCanceled {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func exitCode(err error) int {
	switch {
	case apperrors.IsCanceled(err) || errors.Is(err, context.Canceled):
		return exitCanceled
	case apperrors.IsValidation(err):
		return exitUsage
	case apperrors.IsNotFound(err):
		return exitNotFound
	case apperrors.IsConflict(err):
		return exitConflict
	case apperrors.IsUnavailable(err) || apperrors.IsTimeout(err):
		return exitUnavailable
	default:
		return exitFailure
	}
}
