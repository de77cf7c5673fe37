package model

import "fmt"

// Error is a failure datum. It flows downstream through the same path as rows
// and is never returned as a Go error.
type Error struct {
	Message string
	Label   string
	cause   error
}

// NewError creates an Error value, cause may be nil.
func NewError(message string, cause error) *Error {
	return &Error{Message: message, cause: cause}
}

// Cause returns the wrapped cause, if any.
func (e *Error) Cause() error {
	return e.cause
}

// WithLabel returns a copy of e labelled with the name of the host that produced it.
func (e *Error) WithLabel(label string) *Error {
	cp := *e
	cp.Label = label

	return &cp
}

func (e *Error) String() string {
	msg := e.Message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}

	if e.Label != "" {
		return fmt.Sprintf("Error(%s: %s)", e.Label, msg)
	}

	return fmt.Sprintf("Error(%s)", msg)
}
