package discipline

import (
	"errors"
	"fmt"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput   = errors.New("invalid_input")
	ErrInvalidPoints  = errors.New("invalid_points")
	ErrAlreadyDecided = errors.New("already_decided")
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
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

// IsInvalidPoints reports whether err represents ErrInvalidPoints.
func IsInvalidPoints(err error) bool { return errors.Is(err, ErrInvalidPoints) }

// IsAlreadyDecided reports whether err represents ErrAlreadyDecided.
func IsAlreadyDecided(err error) bool { return errors.Is(err, ErrAlreadyDecided) }

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
