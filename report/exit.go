package report

import (
	"context"
	"errors"

	"github.com/Lzww0608/scru64/conformance"
)

// Process exit codes
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitFatal      = 2
	ExitUsage      = 3
)

// Verdict maps the outcome of a run to an exit code. runErr is the error
// returned by conformance.Pipeline.Run.
func Verdict(snap conformance.Snapshot, runErr error, threshold uint64, failOnEmpty bool) int {
	switch {
	case runErr == nil,
		errors.Is(runErr, conformance.ErrHalted),
		errors.Is(runErr, context.Canceled):
	default:
		return ExitFatal
	}

	if errors.Is(runErr, conformance.ErrHalted) || snap.Failed(threshold) {
		return ExitViolations
	}
	if failOnEmpty && snap.Decoded == 0 {
		return ExitViolations
	}
	return ExitOK
}
