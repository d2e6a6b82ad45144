package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrConflict signals that a write would break a uniqueness constraint.
	ErrConflict = errors.New("repository: record already exists")
)

// ConflictError names the field that clashed. It matches ErrConflict with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "a customer with this email or phone number already exists"
	}
	return fmt.Sprintf("%s is already registered", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
