// Package apperr defines the small error taxonomy shared by the store, the
// compliance rules and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. The HTTP layer maps each kind to a
// status code and a stable snake_case code.
type Kind string

const (
	KindMissingField    Kind = "missing_field"
	KindInvalidFormat   Kind = "invalid_format"
	KindUnknownCategory Kind = "unknown_category"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal_error"
)

// Sentinels usable with errors.Is.
var (
	ErrMissingField    = &Error{Kind: KindMissingField}
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat}
	ErrUnknownCategory = &Error{Kind: KindUnknownCategory}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

// Error is a classified error with an optional offending field.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field, Message: "required"}
}

func InvalidFormat(field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidFormat, Field: field, Message: fmt.Sprintf(format, args...)}
}

func UnknownCategory(field, value string) *Error {
	return &Error{Kind: KindUnknownCategory, Field: field, Message: fmt.Sprintf("unknown value %q", value)}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
