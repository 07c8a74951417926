package extractor

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

type Kind int

const (
	// KindSystem covers start failures, cancellation and undecodable output.
	KindSystem Kind = iota
	// KindTimeout means the wall-clock limit fired and the process tree was killed.
	KindTimeout
	// KindProcess means the tool exited non-zero; Stderr holds its diagnostics.
	KindProcess
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindProcess:
		return "process"
	default:
		return "system"
	}
}

// Error is the only error type returned across the process boundary.
type Error struct {
	Kind   Kind
	Op     string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the client-facing text for an analysis failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindTimeout:
		return "Analysis timed out. Try again."
	case KindProcess:
		return "Extractor Error: " + e.Stderr
	default:
		if e.Err != nil {
			return "System Error: " + e.Err.Error()
		}
		return "System Error: unknown failure"
	}
}

// AsError extracts an *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindTimeout
}
