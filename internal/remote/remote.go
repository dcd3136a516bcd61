// Package remote defines the contract of the remote profile service and an
// HTTP client for it.
package remote

import (
	"context"
	"errors"
	"fmt"
)

// Service is the remote contract for one mutable collection. Create must be
// idempotent by natural key.
type Service[T any] interface {
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id string, v T) (T, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
}

// Op names a remote operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpList   Op = "list"
)

// MutationError reports a network failure or a server rejection.
type MutationError struct {
	Op         Op
	Resource   string
	StatusCode int
	Cause      error
}

func (e *MutationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s %s failed with status %d: %v", e.Op, e.Resource, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("remote %s %s failed: %v", e.Op, e.Resource, e.Cause)
}

func (e *MutationError) Unwrap() error {
	return e.Cause
}

// AsMutationError wraps err in a MutationError unless it already is one.
func AsMutationError(op Op, resource string, err error) *MutationError {
	if err == nil {
		return nil
	}
	var me *MutationError
	if errors.As(err, &me) {
		return me
	}
	return &MutationError{Op: op, Resource: resource, Cause: err}
}
