// Package apperrors provides structured errors with HTTP status mapping and
// the user-facing messages shown to shop staff.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	TypeValidation   ErrorType = "validation"
	TypeNotFound     ErrorType = "not_found"
	TypeConflict     ErrorType = "conflict"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeForbidden    ErrorType = "forbidden"
	TypeRateLimited  ErrorType = "rate_limited"
	TypeTimeout      ErrorType = "timeout"
	TypeExternal     ErrorType = "external"
	TypeInternal     ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error   { return newError(TypeValidation, message, nil) }
func UnauthorizedError(message string) *Error { return newError(TypeUnauthorized, message, nil) }
func RateLimitedError(message string) *Error  { return newError(TypeRateLimited, message, nil) }

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// AsStructuredError converts any error into a structured Error. Domain
// sentinel errors keep their category; anything unknown becomes internal.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return newError(TypeValidation, verr.Message, err).WithContext("field", verr.Field)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return newError(TypeNotFound, err.Error(), err)
	case errors.Is(err, domain.ErrDuplicateCedula),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicateOrderNumber),
		errors.Is(err, domain.ErrCustomerHasOrders):
		return newError(TypeConflict, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrProfileInactive):
		return newError(TypeUnauthorized, err.Error(), err)
	case errors.Is(err, domain.ErrForbidden):
		return newError(TypeForbidden, err.Error(), err)
	case errors.Is(err, domain.ErrInviteExpired),
		errors.Is(err, domain.ErrInviteUsed),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return newError(TypeValidation, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(TypeTimeout, err.Error(), err)
	}

	return InternalError("internal server error", err)
}

// ToResponse builds the client payload. In production the message is the
// classified Spanish text and the error is the bare status text; domain
// messages may carry other records' data.
func ToResponse(err error, production bool) (int, ErrorResponse) {
	structured := AsStructuredError(err)
	status := structured.HTTPStatus()

	text := structured.Message
	if production {
		text = http.StatusText(status)
	}
	return status, ErrorResponse{
		Error:   text,
		Type:    structured.Type,
		Message: UserMessage(err, production),
		Context: structured.Context,
	}
}
