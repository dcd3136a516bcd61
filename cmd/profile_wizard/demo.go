package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/clock"
	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/observability"
	"github.com/jonathan/profile-wizard/internal/remote"
	"github.com/jonathan/profile-wizard/internal/session"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/jonathan/profile-wizard/internal/wizard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type demoOptions struct {
	failExperience bool
}

func newDemoCmd(a *app) *cobra.Command {
	var opts demoOptions

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted wizard session",
		Long: `Run a scripted wizard session end to end: recover any previous draft, add
entries, navigate the steps and save. Without --remote-url the session syncs
against an in-process fake of the profile service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, a, opts)
		},
	}

	demoCmd.Flags().String("user", "", "User UUID (random when empty)")
	demoCmd.Flags().String("remote-url", "", "Base URL of a running profile service")
	demoCmd.Flags().Uint64("seed", 0, "Seed for message selection")
	demoCmd.Flags().BoolVar(&opts.failExperience, "fail-experience", false, "Make the fake service reject the experience create")

	return demoCmd
}

// lockedWriter serializes writes from timer goroutines and the script.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runDemo(cmd *cobra.Command, a *app, opts demoOptions) error {
	ctx := cmd.Context()
	out := &lockedWriter{w: cmd.OutOrStdout()}
	printer := observability.NewPrinter(out)

	identity := types.Identity{UserID: uuid.New(), Name: "Demo User", Email: "demo@example.com"}
	if a.cfg.Session.UserID != "" {
		id, err := uuid.Parse(a.cfg.Session.UserID)
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", a.cfg.Session.UserID, err)
		}
		identity.UserID = id
	}

	store, release, err := openSnapshotStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer release()

	var (
		remotes        session.Remotes
		fakeExperience *remote.Memory[types.ExperienceEntry]
	)
	if url := a.cfg.Session.RemoteURL; url != "" {
		client := remote.NewClient(url, identity.UserID, remote.WithLogger(a.logger))
		remotes.Skills = remote.NewResource[types.SkillEntry](client, "skills")
		remotes.Experiences = remote.NewResource[types.ExperienceEntry](client, "experiences")
	} else {
		fakeExperience = remote.NewMemory[types.ExperienceEntry]("experiences")
		remotes.Skills = remote.NewMemory("skills", types.SkillEntry{Name: "Go", Version: "1.22", RemoteID: uuid.NewString()})
		remotes.Experiences = fakeExperience
	}

	progressCfg := a.cfg.ProgressEngine()
	sess := session.New(session.Options{
		Identity:          identity,
		Snapshots:         store,
		Remotes:           remotes,
		Clock:             clock.Real{},
		Logger:            a.logger,
		Seed:              a.cfg.Session.Seed,
		Debounce:          a.cfg.Session.Debounce,
		SavedDisplay:      a.cfg.Session.SavedDisplay,
		HighlightDuration: a.cfg.Session.HighlightDuration,
		ToastDuration:     a.cfg.Session.ToastDuration,
		Progress:          &progressCfg,
		StepPoints:        a.cfg.Wizard.StepPoints,
	})
	sess.Notifications().Subscribe(func(ev notify.Event) { printer.PrintEvent(ev) })

	fmt.Fprintf(out, "Session for user %s (snapshots: %s)\n", identity.UserID, a.cfg.Snapshot.Backend)

	res, err := sess.Start(ctx)
	if err != nil {
		a.logger.Warn("starting without server entries", zap.Error(err))
	}
	if res.Recovered {
		fmt.Fprintln(out, "Recovered previous draft")
	}
	if res.Merged > 0 {
		fmt.Fprintf(out, "Merged %d entries from the server\n", res.Merged)
	}

	script := []struct {
		name string
		run  func() error
	}{
		{"add skill", func() error {
			_, err := sess.AddSkill(ctx, types.SkillEntry{Name: "React", Version: "18", Level: "advanced"})
			return err
		}},
		{"add duplicate skill", func() error {
			_, err := sess.AddSkill(ctx, types.SkillEntry{Name: "react", Version: "18"})
			return err
		}},
		{"jump to education", func() error {
			_, err := sess.GoTo(2)
			return err
		}},
		{"finish skills", func() error {
			_, err := sess.Next()
			return err
		}},
		{"add experience", func() error {
			if opts.failExperience && fakeExperience != nil {
				fakeExperience.FailNext(remote.OpCreate, errors.New("service unavailable"))
			}
			_, err := sess.AddExperience(ctx, types.ExperienceEntry{
				Company:      "Acme",
				Position:     "Software Engineer",
				StartDate:    "2021-03",
				Current:      true,
				Technologies: []string{"Go", "PostgreSQL"},
			})
			return err
		}},
		{"finish experience", func() error {
			_, err := sess.Next()
			return err
		}},
		{"add education", func() error {
			_, err := sess.AddEducation(ctx, types.EducationEntry{
				Institution: "State University",
				Degree:      "BSc Computer Science",
				Year:        "2019",
			})
			return err
		}},
		{"finish education", func() error {
			_, err := sess.Next()
			return err
		}},
		{"write statement", func() error {
			sess.SetStatement("Backend engineer who enjoys building reliable systems.")
			return nil
		}},
	}

	for _, s := range script {
		if err := s.run(); err != nil {
			if !expectedFailure(err) {
				return closeWith(ctx, sess, fmt.Errorf("%s: %w", s.name, err))
			}
			a.logger.Debug("step refused", zap.String("step", s.name), zap.Error(err))
		}
	}

	if err := sess.ForceSave(ctx); err != nil {
		a.logger.Warn("draft save failed", zap.Error(err))
	}

	printer.PrintProfile(sess.Profile())
	printer.PrintProgress(sess.Progress())
	printer.PrintOutline(sess.Outline())
	fmt.Fprintf(out, "Step %d/%d, save status: %s\n", sess.Step()+1, len(sess.Steps()), sess.SaveStatus())

	return closeWith(ctx, sess, nil)
}

// expectedFailure reports errors the wizard surfaces to the user as
// notifications rather than aborting the session.
func expectedFailure(err error) bool {
	var (
		ve     *types.ValidationError
		me     *remote.MutationError
		navErr *wizard.NavigationError
	)
	return errors.As(err, &ve) || errors.As(err, &me) || errors.As(err, &navErr)
}

func closeWith(ctx context.Context, sess *session.Session, err error) error {
	if cerr := sess.Close(ctx); cerr != nil && err == nil {
		err = fmt.Errorf("failed to save draft: %w", cerr)
	}
	return err
}
