package optimistic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/remote"
	"github.com/jonathan/profile-wizard/internal/state"
	"github.com/jonathan/profile-wizard/internal/types"
)

// Outcome is passed to hooks once a mutation has finished.
type Outcome[T any] struct {
	Op       remote.Op
	Category types.Category
	// Index is the position of the entry when the mutation was applied.
	Index int
	// Value is the entry as committed. For creates it carries the
	// server-assigned id.
	Value T
	// Prior is the replaced or removed entry. Zero for creates.
	Prior T
	// Before is the aggregate immediately before the optimistic apply.
	Before types.Profile
}

// Hooks receive coordinator outcomes. Either may be nil.
type Hooks[T any] struct {
	OnCommit   func(Outcome[T])
	OnRollback func(Outcome[T], error)
}

// Options configures a Coordinator.
type Options[T types.Entry[T]] struct {
	// Remote is the remote contract for the collection. Nil makes every
	// mutation local only.
	Remote remote.Service[T]
	// Validate checks a single entry.
	Validate func(T) error
	// Normalize is applied to every value before validation.
	Normalize func(T) T
	Hooks     Hooks[T]
	// NewID generates local ids. Defaults to uuid.NewString.
	NewID func() string
}

// Coordinator runs add, update and remove of one collection through a Runner.
type Coordinator[T types.Entry[T]] struct {
	runner *Runner
	lens   state.Lens[T]
	opts   Options[T]
}

// New creates a coordinator for the collection selected by lens.
func New[T types.Entry[T]](runner *Runner, lens state.Lens[T], opts Options[T]) *Coordinator[T] {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Coordinator[T]{runner: runner, lens: lens, opts: opts}
}

// Category returns the collection this coordinator mutates.
func (c *Coordinator[T]) Category() types.Category { return c.lens.Category }

// Add validates v, rejects it if its natural key is taken, appends it and
// creates it remotely.
func (c *Coordinator[T]) Add(ctx context.Context, v T) (T, error) {
	v = c.prepareValue(v).WithIDs(c.opts.NewID(), "")
	localID := v.ID()

	var (
		created T
		index   int
	)
	cmd := Command{
		Name: "create " + string(c.lens.Category),
		// Adds of the same natural key queue behind each other, so a
		// duplicate is judged against the settled outcome of the first.
		Key: "add:" + string(c.lens.Category) + ":" + v.NaturalKey(),
		Prepare: func(cur types.Profile) (state.Action, state.Action, error) {
			if err := c.check(cur, v, ""); err != nil {
				return nil, nil, err
			}
			index = len(c.lens.Get(cur))
			return state.Append[T]{Lens: c.lens, Value: v},
				state.RemoveByID[T]{Lens: c.lens, ID: localID}, nil
		},
		Commit: func() state.Action {
			if created.ServerID() == "" {
				return nil
			}
			return state.ReplaceByID[T]{Lens: c.lens, ID: localID, Value: v.WithIDs(localID, created.ServerID())}
		},
	}
	if c.opts.Remote != nil {
		cmd.Remote = func(ctx context.Context) error {
			out, err := c.opts.Remote.Create(ctx, v)
			if err != nil {
				return remote.AsMutationError(remote.OpCreate, string(c.lens.Category), err)
			}
			created = out
			return nil
		}
	}

	res, err := c.runner.Run(ctx, cmd)
	out := Outcome[T]{Op: remote.OpCreate, Category: c.lens.Category, Index: index, Value: v, Before: res.Before}
	if res.RemoteErr != nil {
		c.rolledBack(out, err)
		return v, err
	}
	if err != nil {
		return v, err
	}
	if created.ServerID() != "" {
		out.Value = v.WithIDs(localID, created.ServerID())
	}
	c.committed(out)
	return out.Value, nil
}

// Update replaces the entry at index with v, keeping its identifiers.
func (c *Coordinator[T]) Update(ctx context.Context, index int, v T) (T, error) {
	current, err := c.at(index)
	if err != nil {
		return v, err
	}
	localID := current.ID()
	v = c.prepareValue(v)

	var (
		prior     T
		pos       int
		committed T
	)
	cmd := Command{
		Name: "update " + string(c.lens.Category),
		Key:  localID,
		Prepare: func(cur types.Profile) (state.Action, state.Action, error) {
			pos = c.lens.IndexOf(cur, localID)
			if pos < 0 {
				return nil, nil, fmt.Errorf("%s %s: %w", c.lens.Category, localID, state.ErrEntryNotFound)
			}
			prior = c.lens.Get(cur)[pos]
			v = v.WithIDs(localID, prior.ServerID())
			if err := c.check(cur, v, localID); err != nil {
				return nil, nil, err
			}
			committed = v
			return state.ReplaceByID[T]{Lens: c.lens, ID: localID, Value: v},
				state.ReplaceByID[T]{Lens: c.lens, ID: localID, Value: prior}, nil
		},
		Commit: func() state.Action {
			if committed.ServerID() == v.ServerID() {
				return nil
			}
			return state.ReplaceByID[T]{Lens: c.lens, ID: localID, Value: committed}
		},
	}
	if c.opts.Remote != nil {
		cmd.Remote = func(ctx context.Context) error {
			// Entries never acknowledged by the server are upserted.
			if v.ServerID() == "" {
				out, err := c.opts.Remote.Create(ctx, v)
				if err != nil {
					return remote.AsMutationError(remote.OpCreate, string(c.lens.Category), err)
				}
				committed = v.WithIDs(localID, out.ServerID())
				return nil
			}
			if _, err := c.opts.Remote.Update(ctx, v.ServerID(), v); err != nil {
				return remote.AsMutationError(remote.OpUpdate, string(c.lens.Category), err)
			}
			return nil
		}
	}

	res, err := c.runner.Run(ctx, cmd)
	out := Outcome[T]{Op: remote.OpUpdate, Category: c.lens.Category, Index: pos, Value: committed, Prior: prior, Before: res.Before}
	if res.RemoteErr != nil {
		c.rolledBack(out, err)
		return v, err
	}
	if err != nil {
		return v, err
	}
	c.committed(out)
	return committed, nil
}

// Remove deletes the entry at index.
func (c *Coordinator[T]) Remove(ctx context.Context, index int) error {
	current, err := c.at(index)
	if err != nil {
		return err
	}
	localID := current.ID()

	var (
		prior T
		pos   int
	)
	cmd := Command{
		Name: "delete " + string(c.lens.Category),
		Key:  localID,
		Prepare: func(cur types.Profile) (state.Action, state.Action, error) {
			pos = c.lens.IndexOf(cur, localID)
			if pos < 0 {
				return nil, nil, fmt.Errorf("%s %s: %w", c.lens.Category, localID, state.ErrEntryNotFound)
			}
			prior = c.lens.Get(cur)[pos]
			return state.RemoveByID[T]{Lens: c.lens, ID: localID},
				state.InsertAt[T]{Lens: c.lens, Index: pos, Value: prior}, nil
		},
	}
	if c.opts.Remote != nil {
		cmd.Remote = func(ctx context.Context) error {
			if prior.ServerID() == "" {
				return nil
			}
			if err := c.opts.Remote.Delete(ctx, prior.ServerID()); err != nil {
				return remote.AsMutationError(remote.OpDelete, string(c.lens.Category), err)
			}
			return nil
		}
	}

	res, err := c.runner.Run(ctx, cmd)
	out := Outcome[T]{Op: remote.OpDelete, Category: c.lens.Category, Index: pos, Prior: prior, Before: res.Before}
	if res.RemoteErr != nil {
		c.rolledBack(out, err)
		return err
	}
	if err != nil {
		return err
	}
	c.committed(out)
	return nil
}

func (c *Coordinator[T]) prepareValue(v T) T {
	if c.opts.Normalize != nil {
		v = c.opts.Normalize(v)
	}
	return v
}

// check validates v and rejects natural-key collisions with entries other
// than selfID.
func (c *Coordinator[T]) check(cur types.Profile, v T, selfID string) error {
	if c.opts.Validate != nil {
		if err := c.opts.Validate(v); err != nil {
			return err
		}
	}
	key := v.NaturalKey()
	for _, existing := range c.lens.Get(cur) {
		if existing.ID() != selfID && existing.NaturalKey() == key {
			return types.DuplicateError(c.lens.Category, v.Label())
		}
	}
	return nil
}

func (c *Coordinator[T]) at(index int) (T, error) {
	list := c.lens.Get(c.runner.store.Profile())
	if index < 0 || index >= len(list) {
		var zero T
		return zero, &state.IndexError{Category: c.lens.Category, Index: index, Len: len(list)}
	}
	return list[index], nil
}

func (c *Coordinator[T]) committed(out Outcome[T]) {
	if c.opts.Hooks.OnCommit != nil {
		c.opts.Hooks.OnCommit(out)
	}
}

func (c *Coordinator[T]) rolledBack(out Outcome[T], err error) {
	if c.opts.Hooks.OnRollback != nil {
		c.opts.Hooks.OnRollback(out, err)
	}
}
