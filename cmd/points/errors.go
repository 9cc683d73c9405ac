package points

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrUnknownViolation = errors.New("unknown_violation")
	ErrInvalidDelta     = errors.New("invalid_delta")
	ErrInvalidConfig    = errors.New("invalid_config")
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
// Kind MUST be one of the sentinel kinds when applicable; Msg may include
// human-readable context.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// IsUnknownViolation reports whether err represents ErrUnknownViolation.
func IsUnknownViolation(err error) bool { return errors.Is(err, ErrUnknownViolation) }

// IsInvalidDelta reports whether err represents ErrInvalidDelta.
func IsInvalidDelta(err error) bool { return errors.Is(err, ErrInvalidDelta) }
