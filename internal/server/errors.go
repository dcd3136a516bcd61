// Package server provides the HTTP REST API for the profile service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/profile-wizard/internal/db"
	"github.com/jonathan/profile-wizard/internal/types"
)

// ErrInvalidID indicates a path parameter that is not a UUID.
type ErrInvalidID struct {
	Kind  string
	Value string
}

func (e *ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid %s ID: %q", e.Kind, e.Value)
}

// ErrInvalidBody indicates a request body that could not be decoded.
type ErrInvalidBody struct {
	Cause error
}

func (e *ErrInvalidBody) Error() string {
	return fmt.Sprintf("invalid request body: %v", e.Cause)
}

func (e *ErrInvalidBody) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalidID   *ErrInvalidID
		invalidBody *ErrInvalidBody
		validation  *types.ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalidID), errors.As(err, &invalidBody), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
