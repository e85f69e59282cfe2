package cloud

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by how callers should react to it.
type ErrorKind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown ErrorKind = iota
	// KindClient is a 4xx response. Retrying cannot help.
	KindClient
	// KindExhausted is a transient failure that outlived its retry budget.
	KindExhausted
	// KindTimeout is a poll loop that passed its deadline.
	KindTimeout
	// KindTerminal is a remote resource that reported a failed state.
	KindTerminal
	// KindNotFound means a required resource does not exist.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindClient:
		return "client error"
	case KindExhausted:
		return "retries exhausted"
	case KindTimeout:
		return "timeout"
	case KindTerminal:
		return "terminal failure"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind ErrorKind
	// Op describes what was being attempted, e.g. "GET /instances".
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: HTTP %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns a classified error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
