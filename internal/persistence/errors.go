package persistence

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when no record exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// LocalPersistenceError wraps a failed read or write of the local snapshot.
// It never blocks editing; the scheduler reports it and retries on the next
// change.
type LocalPersistenceError struct {
	Op    string
	Key   string
	Cause error
}

func (e *LocalPersistenceError) Error() string {
	return fmt.Sprintf("local persistence %s failed for %s: %v", e.Op, e.Key, e.Cause)
}

func (e *LocalPersistenceError) Unwrap() error {
	return e.Cause
}
