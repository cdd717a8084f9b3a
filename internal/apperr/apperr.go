// Package apperr defines the error kinds shared by the scraping job core.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of the layer that produced it.
type Kind string

const (
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"
	KindAlreadyRunning       Kind = "ALREADY_RUNNING"
	KindConfigurationMissing Kind = "CONFIGURATION_MISSING"
	KindRemoteCallFailed     Kind = "REMOTE_CALL_FAILED"
	KindCancelled            Kind = "CANCELLED"
	KindNotFound             Kind = "NOT_FOUND"
	KindRunnerFailure        Kind = "RUNNER_FAILURE"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrAlreadyRunning       = &Error{Kind: KindAlreadyRunning}
	ErrConfigurationMissing = &Error{Kind: KindConfigurationMissing}
	ErrRemoteCallFailed     = &Error{Kind: KindRemoteCallFailed}
	ErrCancelled            = &Error{Kind: KindCancelled}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrRunnerFailure        = &Error{Kind: KindRunnerFailure}
)

// Error is a kinded error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Detail returns the innermost message worth showing to a caller.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
