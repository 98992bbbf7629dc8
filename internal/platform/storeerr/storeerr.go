package storeerr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies store and lifecycle failures into the small taxonomy the
// rest of the system branches on. Backend-specific errors never cross the
// repo boundary unclassified.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindConstraintViolation Kind = "constraint_violation"
	KindInvalidTransition   Kind = "invalid_transition"
	KindBackendUnavailable  Kind = "backend_unavailable"
	KindPartialSync         Kind = "partial_sync_failure"
	KindDeliveryFailure     Kind = "notification_delivery_failure"
)

// Codes for constraint violations that callers present differently.
const (
	CodeDuplicateRequest = "duplicate_request"
	CodeCourseFull       = "course_full"
	CodeEmailExists      = "email_exists"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Code)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// CodeOf returns the constraint code of err, or "" when err carries none.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsNotFound(err error) bool            { return KindOf(err) == KindNotFound }
func IsConstraintViolation(err error) bool { return KindOf(err) == KindConstraintViolation }
func IsInvalidTransition(err error) bool   { return KindOf(err) == KindInvalidTransition }
func IsBackendUnavailable(err error) bool  { return KindOf(err) == KindBackendUnavailable }

// FromGorm normalizes gorm errors. Unrecognized errors are treated as the
// backend being unavailable rather than leaking driver details upward.
func FromGorm(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Err: fmt.Errorf("%s: %w", op, err)}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConstraintViolation, Err: fmt.Errorf("%s: %w", op, err)}
	default:
		return &Error{Kind: KindBackendUnavailable, Err: fmt.Errorf("%s: %w", op, err)}
	}
}
