package remote

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/types"
)

// ErrNotFound is returned by Memory for unknown ids.
var ErrNotFound = errors.New("not found")

// Memory is an in-process Service used by the demo command and tests. Calls
// can be made to fail on demand.
type Memory[T types.Entry[T]] struct {
	mu       sync.Mutex
	resource string
	items    []T
	calls    map[Op]int
	failNext map[Op]error
	// Gate, when set, is received from before each mutation returns, so tests
	// can hold a call in flight.
	Gate chan struct{}
}

// NewMemory creates an empty in-memory service named resource.
func NewMemory[T types.Entry[T]](resource string, seed ...T) *Memory[T] {
	return &Memory[T]{
		resource: resource,
		items:    slices.Clone(seed),
		calls:    make(map[Op]int),
		failNext: make(map[Op]error),
	}
}

var _ Service[types.SkillEntry] = (*Memory[types.SkillEntry])(nil)

// FailNext makes the next call of op return err.
func (m *Memory[T]) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = err
}

// Calls returns how many times op was invoked.
func (m *Memory[T]) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Items returns the stored entries.
func (m *Memory[T]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

func (m *Memory[T]) enter(ctx context.Context, op Op) error {
	if m.Gate != nil && op != OpList {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return AsMutationError(op, m.resource, ctx.Err())
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if err, ok := m.failNext[op]; ok {
		delete(m.failNext, op)
		return AsMutationError(op, m.resource, err)
	}
	return nil
}

// Create stores v, or returns the existing entry with the same natural key.
func (m *Memory[T]) Create(ctx context.Context, v T) (T, error) {
	if err := m.enter(ctx, OpCreate); err != nil {
		var zero T
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.NaturalKey() == v.NaturalKey() {
			return it, nil
		}
	}
	stored := v.WithIDs("", uuid.NewString())
	m.items = append(m.items, stored)
	return stored, nil
}

// Update replaces the entry with server id.
func (m *Memory[T]) Update(ctx context.Context, id string, v T) (T, error) {
	if err := m.enter(ctx, OpUpdate); err != nil {
		var zero T
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.IndexFunc(m.items, func(it T) bool { return it.ServerID() == id })
	if idx < 0 {
		var zero T
		return zero, AsMutationError(OpUpdate, m.resource, ErrNotFound)
	}
	m.items[idx] = v.WithIDs("", id)
	return m.items[idx], nil
}

// Delete removes the entry with server id.
func (m *Memory[T]) Delete(ctx context.Context, id string) error {
	if err := m.enter(ctx, OpDelete); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.IndexFunc(m.items, func(it T) bool { return it.ServerID() == id })
	if idx < 0 {
		return AsMutationError(OpDelete, m.resource, ErrNotFound)
	}
	m.items = slices.Delete(m.items, idx, idx+1)
	return nil
}

// List returns every stored entry.
func (m *Memory[T]) List(ctx context.Context) ([]T, error) {
	if err := m.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return m.Items(), nil
}
