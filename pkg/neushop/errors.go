package neushop

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the backend client.
type Kind string

const (
	// KindTransport covers network failures.
	KindTransport Kind = "transport"
	// KindRemote covers non-2xx answers from the backend.
	KindRemote Kind = "remote"
	// KindPayload covers bodies that are not JSON or have an unexpected shape.
	KindPayload Kind = "payload"
	// KindValidation covers input rejected before any request was issued.
	KindValidation Kind = "validation"
)

// Error is the typed error returned by Client implementations. Remote carries
// the {"error": ...} field of a backend answer when one was sent.
type Error struct {
	Kind       Kind
	Op         string
	Path       string
	StatusCode int
	Message    string
	Remote     string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("neushop: %s %s: %s (%d): %s", e.Op, e.Path, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("neushop: %s %s: %s: %s", e.Op, e.Path, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the failure kind of err, defaulting to KindTransport for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindTransport
}

// RemoteMessage returns the structured error message sent by the backend.
// Raw bodies and status texts are not returned.
func RemoteMessage(err error) string {
	var target *Error
	if errors.As(err, &target) && target.Kind == KindRemote {
		return target.Remote
	}
	return ""
}

// NewValidationError reports input rejected before contacting the backend.
func NewValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}
