// internal/errs/errors.go
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the request surface. The set is closed:
// every error leaving the queue or session layer carries exactly one kind.
type Kind int

const (
	KindValidation Kind = iota // malformed or missing request fields; no retry
	KindNotFound               // unknown session or player; no retry
	KindAuthorization          // caller is not a participant
	KindConflict               // state precondition failed (e.g. answering a completed session)
	KindTransientStore         // durable store or cache unavailable; caller may retry the request
)

// Error is a classified application error wrapping an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the Kind of err, or KindTransientStore for unclassified
// errors so unknown failures surface as retryable rather than client faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransientStore
}

// Is lets errors.Is match two classified errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func TransientStore(message string, cause error) *Error {
	return &Error{Kind: KindTransientStore, Message: message, Cause: cause}
}
