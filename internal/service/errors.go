package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the addressed resource does not exist or is not visible to the caller
	ErrNotFound = errors.New("not found")
	// ErrCustomerMissing means an identity has no customer profile where one is required
	ErrCustomerMissing = errors.New("no customer profile for identity")
)

// ValidationError is a rejected input. Nothing was mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError is a request that would break a referential rule
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflict(message string) error {
	return &ConflictError{Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
