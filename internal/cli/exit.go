package cli

import (
	"context"
	"errors"
)

// Exit codes of the slnlint binary.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 2
)

// ExitCodeDoc describes one exit code.
type ExitCodeDoc struct {
	Code    int
	Meaning string
}

// ExitCodes lists every exit code in ascending order.
var ExitCodes = []ExitCodeDoc{
	{ExitOK, "Every check passed and every fix was applied"},
	{ExitFailure, "A check failed, a fix was skipped or an error occurred. Errors are printed to stderr, failed checks only to stdout"},
	{ExitCancelled, "Interrupted by SIGINT or SIGTERM"},
}

// ExitCode maps the error returned by ExecuteContext to an exit code.
func ExitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return ExitCancelled
	default:
		return ExitFailure
	}
}
