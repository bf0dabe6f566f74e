package signaling

import (
	"errors"
	"fmt"
)

// Error categories. Every *Error wraps exactly one of them.
var (
	ErrTransportInit   = errors.New("transport-init-failure")
	ErrNoActiveSession = errors.New("no-active-session")
	ErrInvalidAnswer   = errors.New("invalid-answer")
)

// Error is returned by every signaling operation. None of them are fatal.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsClientError reports whether err should be answered with a client error.
func IsClientError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
