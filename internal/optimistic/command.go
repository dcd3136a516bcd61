// Package optimistic applies profile mutations immediately, reconciles them
// with the remote service, and rolls them back when the remote call fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/jonathan/profile-wizard/internal/state"
	"github.com/jonathan/profile-wizard/internal/types"
	"go.uber.org/zap"
)

// Command is one optimistic mutation expressed as closures.
type Command struct {
	// Name is used in logs, e.g. "create skills".
	Name string
	// Key serializes commands touching the same entity.
	Key string
	// Prepare inspects the current aggregate under the store lock. It
	// validates and returns the action to apply now plus the action that
	// undoes it. An error aborts the command before anything is applied.
	Prepare func(current types.Profile) (apply, undo state.Action, err error)
	// Remote performs the remote call. Nil means the mutation is local only.
	Remote func(ctx context.Context) error
	// Commit returns an optional follow-up action applied after a
	// successful remote call, e.g. recording a server-assigned id.
	Commit func() state.Action
}

// Result describes a finished command.
type Result struct {
	// Before is the aggregate immediately before the optimistic apply.
	Before types.Profile
	// Applied is the aggregate right after the optimistic apply.
	Applied types.Profile
	// RemoteErr is set when the remote call failed and the command was
	// rolled back.
	RemoteErr error
}

// ErrRollbackFailed is joined to the remote error when the undo action could
// not be applied.
var ErrRollbackFailed = errors.New("rollback failed")

// Runner executes commands against a store.
type Runner struct {
	store   *state.Store
	tracker *Tracker
	locks   *keyLocks
	logger  *zap.Logger
}

// NewRunner creates a runner. All coordinators of a session share one runner
// so the tracker sees every in-flight mutation.
func NewRunner(store *state.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:   store,
		tracker: newTracker(),
		locks:   newKeyLocks(),
		logger:  logger,
	}
}

// Store returns the underlying state container.
func (r *Runner) Store() *state.Store { return r.store }

// InFlight reports how many commands are waiting on the remote service.
func (r *Runner) InFlight() int { return r.tracker.len() }

// Committed returns the aggregate with every in-flight mutation undone: the
// state the remote service has acknowledged plus local-only edits.
func (r *Runner) Committed() types.Profile {
	var out types.Profile
	r.store.View(func(p types.Profile) {
		out = r.tracker.committed(p)
	})
	return out
}

// Run executes cmd: prepare and apply, call remote, then commit or roll back.
// A Prepare error is returned as is with nothing applied. A remote error is
// returned after the rollback and also recorded in the Result.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	unlock := r.locks.lock(cmd.Key)
	defer unlock()

	var (
		seq  uint64
		undo state.Action
	)
	before, applied, err := r.store.Transact(func(current types.Profile) (state.Action, error) {
		apply, u, err := cmd.Prepare(current)
		if err != nil || apply == nil {
			return nil, err
		}
		undo = u
		seq = r.tracker.begin(undo)
		return apply, nil
	})
	if err != nil {
		if seq != 0 {
			r.tracker.end(seq)
		}
		return Result{Before: before, Applied: before}, err
	}
	res := Result{Before: before, Applied: applied}
	if seq == 0 {
		return res, nil
	}

	var remoteErr error
	if cmd.Remote != nil {
		remoteErr = cmd.Remote(ctx)
	}

	if remoteErr == nil {
		_, _, err := r.store.Transact(func(types.Profile) (state.Action, error) {
			r.tracker.end(seq)
			if cmd.Commit == nil {
				return nil, nil
			}
			return cmd.Commit(), nil
		})
		if err != nil {
			r.logger.Warn("commit reconciliation failed", zap.String("command", cmd.Name), zap.Error(err))
		}
		return res, nil
	}

	r.logger.Warn("remote mutation failed, rolling back",
		zap.String("command", cmd.Name),
		zap.String("key", cmd.Key),
		zap.Error(remoteErr))

	res.RemoteErr = remoteErr
	_, _, err = r.store.Transact(func(types.Profile) (state.Action, error) {
		r.tracker.end(seq)
		return undo, nil
	})
	if err != nil {
		r.logger.Error("rollback failed", zap.String("command", cmd.Name), zap.Error(err))
		return res, errors.Join(remoteErr, fmt.Errorf("%w: %w", ErrRollbackFailed, err))
	}
	return res, remoteErr
}

// Tracker records the undo action of every in-flight command. It is only
// mutated inside store transactions.
type Tracker struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]state.Action
}

func newTracker() *Tracker {
	return &Tracker{pending: make(map[uint64]state.Action)}
}

func (t *Tracker) begin(undo state.Action) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.pending[t.next] = undo
	return t.next
}

func (t *Tracker) end(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, seq)
}

func (t *Tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// committed undoes pending commands newest first.
func (t *Tracker) committed(p types.Profile) types.Profile {
	t.mu.Lock()
	seqs := make([]uint64, 0, len(t.pending))
	for s := range t.pending {
		seqs = append(seqs, s)
	}
	slices.Sort(seqs)
	undos := make([]state.Action, len(seqs))
	for i, s := range seqs {
		undos[len(seqs)-1-i] = t.pending[s]
	}
	t.mu.Unlock()

	for _, u := range undos {
		if next, err := state.Reduce(p, u); err == nil {
			p = next
		}
	}
	return p
}

// keyLocks serializes work per entity key.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func (k *keyLocks) lock(keys ...string) func() {
	keys = slices.Clone(keys)
	sort.Strings(keys)
	keys = slices.Compact(keys)

	held := make([]*keyLock, 0, len(keys))
	for _, key := range keys {
		k.mu.Lock()
		l, ok := k.locks[key]
		if !ok {
			l = &keyLock{}
			k.locks[key] = l
		}
		l.refs++
		k.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			k.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(k.locks, keys[i])
			}
			k.mu.Unlock()
		}
	}
}
