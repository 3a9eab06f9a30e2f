package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the services matches exactly one of
// these through errors.Is; the HTTP layer maps them to status codes.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCartLineNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrUserExists       = fmt.Errorf("username or email already registered: %w", ErrConflict)
	// ErrCartLineExists signals a lost race on the (user, product) unique key.
	ErrCartLineExists = fmt.Errorf("cart line already exists: %w", ErrConflict)
)

// InputError describes a rejected field. It matches ErrInvalidInput.
type InputError struct {
	Reason string
}

// NewInputError builds an InputError with a formatted reason.
func NewInputError(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
