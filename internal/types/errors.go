package types

import "fmt"

// ValidationError indicates locally detected invalid input. It never reaches
// the remote service and never causes a rollback.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// DuplicateError builds the ValidationError raised when an entry collides
// with an existing one under its natural key.
func DuplicateError(category Category, label string) *ValidationError {
	return &ValidationError{
		Field:   string(category),
		Message: fmt.Sprintf("%q already exists", label),
	}
}
