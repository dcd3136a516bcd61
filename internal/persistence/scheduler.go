// Package persistence debounces snapshot writes of a wizard session and
// recovers the snapshot when a session starts.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jonathan/profile-wizard/internal/clock"
	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/schemas"
	"github.com/jonathan/profile-wizard/internal/types"
	"go.uber.org/zap"
)

// Default timings.
const (
	DefaultDebounce     = 3 * time.Second
	DefaultSavedDisplay = 2 * time.Second
)

// Status is the save indicator shown to the user.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Producer returns the payload to persist. It is called at write time, not
// when the write is scheduled.
type Producer func() types.SnapshotPayload

// Toaster receives persistence failures.
type Toaster interface {
	Toast(m notify.Message) notify.Message
}

// Options configures a Scheduler. Zero values fall back to defaults.
type Options struct {
	Debounce     time.Duration
	SavedDisplay time.Duration
	Clock        clock.Clock
	Logger       *zap.Logger
	Toaster      Toaster
}

// Recovered is the mutable part of a snapshot restored on session start.
type Recovered struct {
	Profile     types.Profile
	Progress    types.ProgressState
	CurrentStep int
	SavedAt     time.Time
}

// Scheduler coalesces bursts of changes into a single snapshot write.
type Scheduler struct {
	store Store
	key   string
	opts  Options

	mu         sync.Mutex
	producer   Producer
	timer      clock.Timer
	timerSeq   uint64
	savedTimer clock.Timer
	status     Status
	lastErr    error
	generation uint64
	loaded     bool
	stopped    bool

	// writeMu keeps writes in order.
	writeMu sync.Mutex
}

// NewScheduler creates a scheduler writing to store under key.
func NewScheduler(store Store, key string, opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SavedDisplay <= 0 {
		opts.SavedDisplay = DefaultSavedDisplay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Scheduler{store: store, key: key, opts: opts, status: StatusIdle}
}

// Key returns the storage key.
func (s *Scheduler) Key() string { return s.key }

// Schedule records producer as the latest source and restarts the quiet
// period. Only the last producer of a burst is invoked.
func (s *Scheduler) Schedule(producer Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.producer = producer
	s.cancelTimerLocked()
	seq := s.timerSeq
	s.timer = s.opts.Clock.AfterFunc(s.opts.Debounce, func() { s.fire(seq) })
}

// cancelTimerLocked stops the pending debounce timer. A callback that
// already expired sees a newer sequence and does nothing.
func (s *Scheduler) cancelTimerLocked() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if s.stopped || seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	p := s.producer
	s.mu.Unlock()

	if p != nil {
		_ = s.write(context.Background(), p)
	}
}

// ForceSave cancels the pending timer and writes the latest producer now.
// It is a no-op if nothing was ever scheduled.
func (s *Scheduler) ForceSave(ctx context.Context) error {
	s.mu.Lock()
	s.cancelTimerLocked()
	p := s.producer
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return s.write(ctx, p)
}

// Teardown flushes the latest producer synchronously and stops all timers.
func (s *Scheduler) Teardown(ctx context.Context) error {
	err := s.ForceSave(ctx)
	s.Stop()
	return err
}

// Stop cancels pending timers. Later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelTimerLocked()
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
}

// Status returns the current save indicator.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError returns the error of the most recent failed write, cleared by
// the next successful one.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scheduler) write(ctx context.Context, p Producer) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.setStatus(StatusSaving)

	snap := types.PersistedSnapshot{
		Key:       s.key,
		Payload:   p(),
		Timestamp: s.opts.Clock.Now().UTC(),
	}
	data, err := json.Marshal(snap)
	if err == nil {
		err = s.store.Save(ctx, s.key, data)
	}
	if err != nil {
		return s.failed("save", err)
	}

	s.mu.Lock()
	s.status = StatusSaved
	s.lastErr = nil
	s.generation++
	gen := s.generation
	if s.savedTimer != nil {
		s.savedTimer.Stop()
	}
	if !s.stopped {
		s.savedTimer = s.opts.Clock.AfterFunc(s.opts.SavedDisplay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.generation == gen && s.status == StatusSaved {
				s.status = StatusIdle
			}
		})
	}
	s.mu.Unlock()

	s.opts.Logger.Debug("snapshot saved", zap.String("key", s.key), zap.Int("bytes", len(data)))
	return nil
}

func (s *Scheduler) failed(op string, cause error) error {
	perr := &LocalPersistenceError{Op: op, Key: s.key, Cause: cause}

	s.mu.Lock()
	s.status = StatusError
	s.lastErr = perr
	s.generation++
	s.mu.Unlock()

	s.opts.Logger.Warn("snapshot write failed", zap.String("key", s.key), zap.Error(cause))
	if s.opts.Toaster != nil {
		s.opts.Toaster.Toast(notify.Message{
			Category:    notify.CategoryPersistence,
			Text:        "Could not save your draft locally",
			Description: "Your changes are kept and will be saved on the next edit.",
			Icon:        "alert",
		})
	}
	return perr
}

func (s *Scheduler) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// LoadOnInit reads the stored snapshot once per session. Mutable fields of
// the snapshot are overlaid on initial; initial.Identity always wins. It
// reports false when there is nothing to recover, when the record fails
// schema validation, or on any call after the first.
func (s *Scheduler) LoadOnInit(ctx context.Context, initial types.Profile) (Recovered, bool, error) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return Recovered{}, false, nil
	}
	s.loaded = true
	s.mu.Unlock()

	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return Recovered{}, false, nil
	}
	if err != nil {
		s.opts.Logger.Warn("snapshot load failed", zap.String("key", s.key), zap.Error(err))
		return Recovered{}, false, &LocalPersistenceError{Op: "load", Key: s.key, Cause: err}
	}

	rec, err := decodeSnapshot(data, s.key, initial)
	if err != nil {
		s.opts.Logger.Warn("discarding unreadable snapshot", zap.String("key", s.key), zap.Error(err))
		return Recovered{}, false, &LocalPersistenceError{Op: "load", Key: s.key, Cause: err}
	}
	s.opts.Logger.Info("snapshot recovered",
		zap.String("key", s.key),
		zap.Time("saved_at", rec.SavedAt),
		zap.Int("step", rec.CurrentStep))
	return rec, true, nil
}

// Inspect reads and validates the record for key without overlaying it.
func Inspect(ctx context.Context, store Store, key string) (types.PersistedSnapshot, error) {
	data, err := store.Load(ctx, key)
	if err != nil {
		return types.PersistedSnapshot{}, err
	}
	if err := schemas.ValidateSnapshot(data); err != nil {
		return types.PersistedSnapshot{}, err
	}
	return unmarshalSnapshot(data)
}

// InspectFile validates and decodes a snapshot file copied out of a store.
func InspectFile(path string) (types.PersistedSnapshot, error) {
	if err := schemas.ValidateSnapshotFile(path); err != nil {
		return types.PersistedSnapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PersistedSnapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return unmarshalSnapshot(data)
}

func unmarshalSnapshot(data []byte) (types.PersistedSnapshot, error) {
	var snap types.PersistedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.PersistedSnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snap.Payload.Progress.Milestones = types.NewMilestoneSet(snap.Payload.Milestones...)
	return snap, nil
}

func decodeSnapshot(data []byte, key string, initial types.Profile) (Recovered, error) {
	if err := schemas.ValidateSnapshot(data); err != nil {
		return Recovered{}, err
	}
	var snap types.PersistedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Recovered{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Key != key {
		return Recovered{}, fmt.Errorf("snapshot key %q does not match %q", snap.Key, key)
	}

	profile := snap.Payload.Profile.Clone()
	profile.Identity = initial.Identity

	progress := snap.Payload.Progress
	progress.Milestones = types.NewMilestoneSet(snap.Payload.Milestones...)

	return Recovered{
		Profile:     profile,
		Progress:    progress,
		CurrentStep: snap.Payload.CurrentStep,
		SavedAt:     snap.Timestamp,
	}, nil
}
