// Package apperr defines the error taxonomy shared by the engine and the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
)

// Error is an application error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Upstream wraps a datastore or transport failure, keeping its native message.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUpstream for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusCode maps an error to the HTTP status the API responds with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to the caller.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindUpstream && appErr.Err != nil {
			return appErr.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
