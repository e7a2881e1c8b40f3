package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies application errors so callers can react
// differently: inline form errors, silent denial, or terminal-state
// messaging.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindState         ErrorKind = "STATE"
	KindInternal      ErrorKind = "INTERNAL"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	HTTPStatus int
	Fields     map[string]string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError carries a field→message mapping for inline display.
func NewValidationError(fields map[string]string) error {
	return &DomainError{
		Kind:       KindValidation,
		Code:       "VALIDATION_FAILED",
		Message:    "validation failed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Fields:     fields,
	}
}

// NewFieldError is a single-field validation error.
func NewFieldError(field, message string) error {
	return NewValidationError(map[string]string{field: message})
}

// NewAuthorizationError denies without detail. The message never says
// why, so a denied caller cannot probe for ticket existence.
func NewAuthorizationError() error {
	return &DomainError{
		Kind:       KindAuthorization,
		Code:       "NOT_PERMITTED",
		Message:    "not permitted",
		HTTPStatus: http.StatusForbidden,
	}
}

// NewInvalidTransition reports an illegal status edge.
func NewInvalidTransition(from, to string) error {
	return &DomainError{
		Kind:       KindState,
		Code:       "INVALID_TRANSITION",
		Message:    fmt.Sprintf("cannot move ticket from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
	}
}

// NewTerminalState reports mutation of a completed/cancelled ticket.
func NewTerminalState(status string) error {
	return &DomainError{
		Kind:       KindState,
		Code:       "TICKET_TERMINAL",
		Message:    "this ticket can no longer be modified",
		HTTPStatus: http.StatusConflict,
		Err:        fmt.Errorf("ticket status %s is terminal", status),
	}
}

// NewStateError reports other illegal-state conditions.
func NewStateError(code, message string) error {
	return &DomainError{
		Kind:       KindState,
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewNotFound reports a missing resource as a state error.
func NewNotFound(resource string) error {
	return &DomainError{
		Kind:       KindState,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewUnauthorized(message string) error {
	return &DomainError{
		Kind:       KindAuthorization,
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewConflict(message string) error {
	return &DomainError{
		Kind:       KindState,
		Code:       "CONFLICT",
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsAuthorization reports whether err is an authorization denial.
func IsAuthorization(err error) bool { return kindOf(err) == KindAuthorization }

// IsState reports whether err is an illegal-state error.
func IsState(err error) bool { return kindOf(err) == KindState }

func kindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// FieldErrors extracts the field→message mapping, or nil.
func FieldErrors(err error) map[string]string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	internal := NewInternalError(err)
	de, _ := internal.(*DomainError)
	return de
}
