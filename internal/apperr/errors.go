package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the transport layer can map it to a status
// code without inspecting message text.
type Kind int

const (
	Validation Kind = iota + 1
	Conflict
	NotFound
	Empty
	InsufficientStock
	InconsistentState
	Busy
	StoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Empty:
		return "empty"
	case InsufficientStock:
		return "insufficient_stock"
	case InconsistentState:
		return "inconsistent_state"
	case Busy:
		return "busy"
	case StoreUnavailable:
		return "store_unavailable"
	}
	return "unknown"
}

// Error is a classified error. Business-rule errors carry no wrapped cause;
// StoreUnavailable wraps the underlying driver error unmodified.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error without losing it.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or 0 if err carries no classification.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
