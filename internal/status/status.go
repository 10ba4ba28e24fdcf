package status

import (
	"errors"
	"fmt"
)

// Kinds of failure a portal operation can report. Match them with errors.Is.
var (
	ErrValidation                = errors.New("validation: invalid input")
	ErrBackendRejected           = errors.New("backend: request rejected")
	ErrNetwork                   = errors.New("network: request did not complete")
	ErrPaymentVerificationFailed = errors.New("payment: verification failed")
	ErrBookingNotFound           = errors.New("booking: reference not found")
	ErrNotFound                  = errors.New("resource: not found")
	ErrUpstreamProvider          = errors.New("upstream: provider failure")
	ErrUnauthorized              = errors.New("auth: unauthorized")

	ErrInFlight          = errors.New("request already in flight")
	ErrInvalidTransition = errors.New("workflow: invalid transition")
	ErrPollTimeout       = errors.New("payment: polling bound reached")
)

// Error carries a user-facing message alongside its kind.
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	if e.Field != "" {
		msg = fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
	} else {
		msg = fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func Rejected(message string) *Error {
	return &Error{Kind: ErrBackendRejected, Message: message}
}

func Network(err error) *Error {
	return &Error{Kind: ErrNetwork, Message: "Network error, please check your connection and try again.", Err: err}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: ErrUpstreamProvider, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func BookingNotFound(reference string) *Error {
	return &Error{Kind: ErrBookingNotFound, Message: fmt.Sprintf("no booking with reference %q", reference)}
}

func VerificationFailed(message string, err error) *Error {
	return &Error{Kind: ErrPaymentVerificationFailed, Message: message, Err: err}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// Message returns the text a user should see for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	switch {
	case errors.Is(err, ErrInFlight):
		return "A request is already in progress."
	case errors.Is(err, ErrPollTimeout):
		return "Payment is still processing. Please check again shortly."
	case errors.Is(err, ErrInvalidTransition):
		return "This action is not available right now."
	}
	return "Something went wrong. Please try again."
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Field
	}
	return ""
}
