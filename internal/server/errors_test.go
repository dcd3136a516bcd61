package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/profile-wizard/internal/db"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestErrInvalidID(t *testing.T) {
	err := &ErrInvalidID{Kind: "skill", Value: "abc"}
	assert.Equal(t, `invalid skill ID: "abc"`, err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrInvalidBody(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &ErrInvalidBody{Cause: cause}
	assert.Equal(t, "invalid request body: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "Nil error",
			err:      nil,
			expected: http.StatusOK,
		},
		{
			name:     "ValidationError",
			err:      &types.ValidationError{Field: "name", Message: "is required"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "ErrInvalidBody",
			err:      &ErrInvalidBody{Cause: errors.New("bad json")},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Wrapped ErrNotFound",
			err:      fmt.Errorf("skill 123: %w", db.ErrNotFound),
			expected: http.StatusNotFound,
		},
		{
			name:     "Wrapped ErrConflict",
			err:      fmt.Errorf("skill %q: %w", "Go", db.ErrConflict),
			expected: http.StatusConflict,
		},
		{
			name:     "Unknown error",
			err:      assert.AnError,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
