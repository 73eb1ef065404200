package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrDuplicateOrderNumber    = errors.New("order number already exists")
	ErrDuplicateCedula         = errors.New("customer with this cedula already exists")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrForbidden               = errors.New("forbidden")
	ErrInviteExpired           = errors.New("invite expired")
	ErrInviteUsed              = errors.New("invite already used")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrProfileInactive         = errors.New("profile is inactive")
	ErrCustomerHasOrders       = errors.New("customer has service orders")
)

// ValidationError describes a single invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationError reports an invalid input field from outside the domain.
func NewValidationError(field, message string) error {
	return invalid(field, message)
}
