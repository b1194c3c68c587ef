// Package apperror defines the failure taxonomy shared by services,
// middleware and the HTTP error handler.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidationFailed   Kind = "ValidationFailed"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindConflict           Kind = "Conflict"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindForbidden          Kind = "Forbidden"
	KindNotFound           Kind = "NotFound"
	KindStorageFailure     Kind = "StorageFailure"
)

// FieldError is a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Message: "validation failed", Fields: fields}
}

func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "Email or password does not match.")
}

func Conflict(msg string) *Error { return New(KindConflict, msg) }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Storage(msg string, cause error) *Error {
	return Wrap(KindStorageFailure, msg, cause)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindStorageFailure for any other non-nil error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
