// Package session wires the state container, the optimistic coordinators,
// the progress engine, the wizard and the persistence scheduler into one
// editing session. It is the only API a front end talks to.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/clock"
	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/optimistic"
	"github.com/jonathan/profile-wizard/internal/persistence"
	"github.com/jonathan/profile-wizard/internal/progress"
	"github.com/jonathan/profile-wizard/internal/remote"
	"github.com/jonathan/profile-wizard/internal/state"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/jonathan/profile-wizard/internal/wizard"
	"go.uber.org/zap"
)

// Remotes holds the remote services of the collections that sync with the
// server. A nil service makes that collection local only.
type Remotes struct {
	Skills      remote.Service[types.SkillEntry]
	Experiences remote.Service[types.ExperienceEntry]
}

// Options configures a Session. Zero durations fall back to component
// defaults.
type Options struct {
	Identity  types.Identity
	Snapshots persistence.Store
	Remotes   Remotes

	Clock  clock.Clock
	Logger *zap.Logger
	// Seed drives every randomized message choice.
	Seed uint64

	Debounce          time.Duration
	SavedDisplay      time.Duration
	HighlightDuration time.Duration
	ToastDuration     time.Duration

	// Progress defaults to progress.DefaultConfig().
	Progress   *progress.Config
	StepPoints int
}

// Session is one user's wizard session.
type Session struct {
	identity types.Identity
	remotes  Remotes
	logger   *zap.Logger

	store     *state.Store
	runner    *optimistic.Runner
	queue     *notify.Queue
	engine    *progress.Engine
	machine   *wizard.Machine
	scheduler *persistence.Scheduler

	skills         *optimistic.Coordinator[types.SkillEntry]
	experiences    *optimistic.Coordinator[types.ExperienceEntry]
	education      *optimistic.Coordinator[types.EducationEntry]
	certifications *optimistic.Coordinator[types.CertificationEntry]
}

// New builds a session. Call Start before editing.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Snapshots == nil {
		opts.Snapshots = persistence.NewMemoryStore()
	}
	cfg := progress.DefaultConfig()
	if opts.Progress != nil {
		cfg = *opts.Progress
	}
	logger := opts.Logger.With(zap.String("user_id", opts.Identity.UserID.String()))

	s := &Session{
		identity: opts.Identity,
		remotes:  opts.Remotes,
		logger:   logger,
		store:    state.NewStore(types.Profile{Identity: opts.Identity}),
	}
	s.runner = optimistic.NewRunner(s.store, logger.Named("optimistic"))
	s.queue = notify.New(notify.Options{
		HighlightDuration: opts.HighlightDuration,
		ToastDuration:     opts.ToastDuration,
		Clock:             opts.Clock,
		Logger:            logger.Named("notify"),
	})
	picker := progress.NewPicker(opts.Seed)
	s.engine = progress.NewEngine(cfg, s.queue, picker, logger.Named("progress"))
	s.machine = wizard.New(wizard.Options{
		StepPoints: opts.StepPoints,
		Picker:     picker,
		Rewards:    s.engine,
		Notifier:   s.queue,
		Logger:     logger.Named("wizard"),
	})
	s.scheduler = persistence.NewScheduler(opts.Snapshots, types.SnapshotKey(opts.Identity), persistence.Options{
		Debounce:     opts.Debounce,
		SavedDisplay: opts.SavedDisplay,
		Clock:        opts.Clock,
		Logger:       logger.Named("persistence"),
		Toaster:      s.queue,
	})

	s.skills = optimistic.New(s.runner, state.Skills, optimistic.Options[types.SkillEntry]{
		Remote:   opts.Remotes.Skills,
		Validate: func(v types.SkillEntry) error { return v.Validate() },
		Hooks:    hooks[types.SkillEntry](s),
	})
	s.experiences = optimistic.New(s.runner, state.Experiences, optimistic.Options[types.ExperienceEntry]{
		Remote:    opts.Remotes.Experiences,
		Validate:  func(v types.ExperienceEntry) error { return v.Validate() },
		Normalize: types.ExperienceEntry.Normalize,
		Hooks:     hooks[types.ExperienceEntry](s),
	})
	s.education = optimistic.New(s.runner, state.Education, optimistic.Options[types.EducationEntry]{
		Validate: func(v types.EducationEntry) error { return v.Validate() },
		Hooks:    hooks[types.EducationEntry](s),
	})
	s.certifications = optimistic.New(s.runner, state.Certifications, optimistic.Options[types.CertificationEntry]{
		Validate: func(v types.CertificationEntry) error { return v.Validate() },
		Hooks:    hooks[types.CertificationEntry](s),
	})

	s.store.Subscribe(func(types.Profile) { s.scheduleSave() })
	return s
}

// StartResult reports what Start found.
type StartResult struct {
	// Recovered is set when a draft from a previous session was restored.
	Recovered bool
	// Merged counts server entries added to the local aggregate.
	Merged int
}

// Start recovers the previous draft and merges the server's entries into
// it. A failed remote listing is returned but leaves the session usable with
// its local state.
func (s *Session) Start(ctx context.Context) (StartResult, error) {
	var res StartResult

	rec, ok, err := s.scheduler.LoadOnInit(ctx, types.Profile{Identity: s.identity})
	if err != nil {
		s.queue.Toast(notify.Message{
			Category:    notify.CategoryPersistence,
			Text:        "Could not restore your previous draft",
			Description: err.Error(),
		})
	}
	if ok {
		if _, err := s.store.Dispatch(state.Restore{Profile: rec.Profile}); err != nil {
			return res, fmt.Errorf("failed to restore draft: %w", err)
		}
		s.engine.Restore(rec.Progress)
		s.machine.Restore(rec.CurrentStep)
		res.Recovered = true
	}

	merged, err := s.reconcile(ctx)
	res.Merged = merged
	if err != nil {
		s.logger.Warn("initial remote listing failed", zap.Error(err))
		s.queue.Toast(notify.Message{
			Category:    notify.CategoryRemote,
			Text:        "Could not load your saved entries from the server",
			Description: err.Error(),
		})
		return res, fmt.Errorf("failed to list remote entries: %w", err)
	}
	s.logger.Info("session started", zap.Bool("recovered", res.Recovered), zap.Int("merged", res.Merged))
	return res, nil
}

// Profile returns the aggregate as currently shown, in-flight changes
// included.
func (s *Session) Profile() types.Profile { return s.store.Profile() }

// Committed returns the aggregate without unacknowledged changes.
func (s *Session) Committed() types.Profile { return s.runner.Committed() }

// Progress returns the gamification state.
func (s *Session) Progress() types.ProgressState { return s.engine.State() }

// Step returns the current wizard step.
func (s *Session) Step() int { return s.machine.Current() }

// Steps returns the wizard steps.
func (s *Session) Steps() []wizard.Step { return s.machine.Steps() }

// Notifications exposes the notification queue for subscribers.
func (s *Session) Notifications() *notify.Queue { return s.queue }

// SaveStatus returns the draft save indicator.
func (s *Session) SaveStatus() persistence.Status { return s.scheduler.Status() }

// AddSkill adds a skill.
func (s *Session) AddSkill(ctx context.Context, v types.SkillEntry) (types.SkillEntry, error) {
	out, err := s.skills.Add(ctx, v)
	return out, s.reportValidation(err)
}

// UpdateSkill replaces the skill at index.
func (s *Session) UpdateSkill(ctx context.Context, index int, v types.SkillEntry) (types.SkillEntry, error) {
	out, err := s.skills.Update(ctx, index, v)
	return out, s.reportValidation(err)
}

// RemoveSkill removes the skill at index.
func (s *Session) RemoveSkill(ctx context.Context, index int) error {
	return s.skills.Remove(ctx, index)
}

// AddExperience adds an experience.
func (s *Session) AddExperience(ctx context.Context, v types.ExperienceEntry) (types.ExperienceEntry, error) {
	out, err := s.experiences.Add(ctx, v)
	return out, s.reportValidation(err)
}

// UpdateExperience replaces the experience at index.
func (s *Session) UpdateExperience(ctx context.Context, index int, v types.ExperienceEntry) (types.ExperienceEntry, error) {
	out, err := s.experiences.Update(ctx, index, v)
	return out, s.reportValidation(err)
}

// RemoveExperience removes the experience at index.
func (s *Session) RemoveExperience(ctx context.Context, index int) error {
	return s.experiences.Remove(ctx, index)
}

// AddEducation adds an education entry.
func (s *Session) AddEducation(ctx context.Context, v types.EducationEntry) (types.EducationEntry, error) {
	out, err := s.education.Add(ctx, v)
	return out, s.reportValidation(err)
}

// UpdateEducation replaces the education entry at index.
func (s *Session) UpdateEducation(ctx context.Context, index int, v types.EducationEntry) (types.EducationEntry, error) {
	out, err := s.education.Update(ctx, index, v)
	return out, s.reportValidation(err)
}

// RemoveEducation removes the education entry at index.
func (s *Session) RemoveEducation(ctx context.Context, index int) error {
	return s.education.Remove(ctx, index)
}

// AddCertification adds a certification.
func (s *Session) AddCertification(ctx context.Context, v types.CertificationEntry) (types.CertificationEntry, error) {
	out, err := s.certifications.Add(ctx, v)
	return out, s.reportValidation(err)
}

// UpdateCertification replaces the certification at index.
func (s *Session) UpdateCertification(ctx context.Context, index int, v types.CertificationEntry) (types.CertificationEntry, error) {
	out, err := s.certifications.Update(ctx, index, v)
	return out, s.reportValidation(err)
}

// RemoveCertification removes the certification at index.
func (s *Session) RemoveCertification(ctx context.Context, index int) error {
	return s.certifications.Remove(ctx, index)
}

// SetStatement replaces the free-text statement. It is local only.
func (s *Session) SetStatement(text string) {
	_, _ = s.store.Dispatch(state.SetStatement{Text: text})
}

// GoTo navigates to step k.
func (s *Session) GoTo(k int) (wizard.Transition, error) {
	return s.navigate(func(p types.Profile) (wizard.Transition, error) { return s.machine.GoTo(p, k) })
}

// Next moves to the following step.
func (s *Session) Next() (wizard.Transition, error) {
	return s.navigate(s.machine.Next)
}

// Back moves to the previous step.
func (s *Session) Back() (wizard.Transition, error) {
	return s.navigate(s.machine.Back)
}

func (s *Session) navigate(move func(types.Profile) (wizard.Transition, error)) (wizard.Transition, error) {
	tr, err := move(s.store.Profile())
	if err != nil {
		var navErr *wizard.NavigationError
		if errors.As(err, &navErr) && navErr.Blocking != "" {
			s.queue.Toast(notify.Message{
				Category:    notify.CategoryValidation,
				Text:        "Finish the current step first",
				Description: navErr.Reason,
			})
		}
		return tr, err
	}
	if tr.From != tr.To {
		s.scheduleSave()
	}
	return tr, nil
}

// ForceSave writes the draft immediately.
func (s *Session) ForceSave(ctx context.Context) error {
	s.scheduleSave()
	return s.scheduler.ForceSave(ctx)
}

// Close flushes the draft and stops every timer.
func (s *Session) Close(ctx context.Context) error {
	err := s.scheduler.Teardown(ctx)
	s.queue.Close()
	return err
}

func (s *Session) snapshot() types.SnapshotPayload {
	prog := s.engine.State()
	return types.SnapshotPayload{
		Profile:     s.runner.Committed(),
		Progress:    prog,
		Milestones:  prog.Milestones.List(),
		CurrentStep: s.machine.Current(),
	}
}

func (s *Session) scheduleSave() {
	s.scheduler.Schedule(s.snapshot)
}

func (s *Session) reportValidation(err error) error {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		s.queue.Toast(notify.Message{
			Category:    notify.CategoryValidation,
			Text:        ve.Message,
			Description: ve.Field,
		})
	}
	return err
}

func hooks[T types.Entry[T]](s *Session) optimistic.Hooks[T] {
	return optimistic.Hooks[T]{
		OnCommit: func(o optimistic.Outcome[T]) {
			switch o.Op {
			case remote.OpCreate:
				s.engine.RecordAdd(o.Category, o.Value.Label())
				s.success(o.Category, o.Value.Label()+" added")
			case remote.OpUpdate:
				s.success(o.Category, o.Value.Label()+" updated")
			case remote.OpDelete:
				s.engine.RecordRemove(o.Category)
				s.success(o.Category, o.Prior.Label()+" removed")
			}
			s.scheduleSave()
		},
		OnRollback: func(o optimistic.Outcome[T], err error) {
			label := o.Value.Label()
			if o.Op == remote.OpDelete {
				label = o.Prior.Label()
			}
			s.queue.Toast(notify.Message{
				Category:    notify.CategoryRemote,
				Text:        fmt.Sprintf("Could not %s %s", o.Op, label),
				Description: err.Error(),
				Context:     map[string]string{"category": string(o.Category)},
			})
		},
	}
}

func (s *Session) success(category types.Category, text string) {
	s.queue.Highlight(notify.Message{
		Category: notify.CategorySuccess,
		Text:     text,
		Icon:     "check",
		Context:  map[string]string{"category": string(category)},
	})
}

func newLocalID() string { return uuid.NewString() }
