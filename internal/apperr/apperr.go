// Package apperr defines the recoverable error taxonomy shared by services
// and handlers. Every error carries a Kind so transport code can map it to a
// status without string matching.
package apperr

import "fmt"

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
)

// Error is the single error type crossing the service boundary.
// Code is a stable machine-readable identifier (e.g. "donation_not_found").
type Error struct {
	Kind      Kind
	Code      string
	Field     string            // validation: offending field
	Current   string            // invalid_state: state the entity is in
	Attempted string            // invalid_state: transition that was tried
	Details   map[string]string // extra context for the response body
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		if e.Field != "" {
			return fmt.Sprintf("%s: field %q %s", e.Kind, e.Field, e.Code)
		}
	case KindInvalidState:
		if e.Current != "" {
			return fmt.Sprintf("%s: %s (current=%s attempted=%s)", e.Kind, e.Code, e.Current, e.Attempted)
		}
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func InvalidState(code, current, attempted string) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Current: current, Attempted: attempted}
}

func Validation(field, code string) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field}
}

func ValidationDetails(details map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Details: details}
}

func Unauthorized(code string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code}
}

// KindOf extracts the Kind from err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
