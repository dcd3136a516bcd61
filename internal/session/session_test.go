package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/clock"
	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/persistence"
	"github.com/jonathan/profile-wizard/internal/remote"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/jonathan/profile-wizard/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testIdentity = types.Identity{
	UserID: uuid.MustParse("0b6d3f5c-8a41-4c07-b2a9-6f1de4c0a111"),
	Name:   "Ana",
	Email:  "ana@example.com",
}

type fixture struct {
	session     *Session
	clock       *clock.Fake
	skills      *remote.Memory[types.SkillEntry]
	experiences *remote.Memory[types.ExperienceEntry]
	snapshots   *persistence.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:       clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		skills:      remote.NewMemory[types.SkillEntry]("skills"),
		experiences: remote.NewMemory[types.ExperienceEntry]("experiences"),
		snapshots:   persistence.NewMemoryStore(),
	}
	f.session = f.open(t)
	return f
}

// open starts another session over the fixture's remote and snapshot store.
func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s := New(Options{
		Identity:  testIdentity,
		Snapshots: f.snapshots,
		Remotes:   Remotes{Skills: f.skills, Experiences: f.experiences},
		Clock:     f.clock,
		Seed:      42,
	})
	_, err := s.Start(context.Background())
	require.NoError(t, err)
	return s
}

func (f *fixture) stored(t *testing.T) types.PersistedSnapshot {
	t.Helper()
	data, err := f.snapshots.Load(context.Background(), types.SnapshotKey(testIdentity))
	require.NoError(t, err)
	var snap types.PersistedSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func toastCategories(q *notify.Queue) []string {
	var out []string
	for _, m := range q.Toasts() {
		out = append(out, m.Category)
	}
	return out
}

func react() types.SkillEntry {
	return types.SkillEntry{Name: "React", Level: "alto", Version: "18"}
}

func backendJob() types.ExperienceEntry {
	return types.ExperienceEntry{Company: "Acme", Position: "Backend Engineer", StartDate: "2021-04", Current: true}
}

func TestSession_AddFirstSkill(t *testing.T) {
	f := newFixture(t)
	s := f.session

	_, err := s.AddSkill(context.Background(), react())
	require.NoError(t, err)

	require.Len(t, s.Profile().Skills, 1)
	assert.NotEmpty(t, s.Profile().Skills[0].RemoteID)
	assert.Equal(t, 10+20, s.Progress().Score)
	assert.Equal(t, 1, s.Progress().Streaks.Skills)

	latest, ok := s.Notifications().Latest()
	require.True(t, ok)
	assert.Contains(t, latest.Text, "React")
}

func TestSession_DuplicateSkillRejectedLocally(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	_, err := s.AddSkill(ctx, react())
	require.NoError(t, err)
	before := s.Profile()

	_, err = s.AddSkill(ctx, types.SkillEntry{Name: "react", Version: "18"})

	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 1, f.skills.Calls(remote.OpCreate))
	assert.Empty(t, cmp.Diff(before, s.Profile()))
	assert.Contains(t, toastCategories(s.Notifications()), notify.CategoryValidation)
}

func TestSession_FailedExperienceRollsBack(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	before := s.Profile()
	streak := s.Progress().Streaks.Experiences
	f.experiences.FailNext(remote.OpCreate, errors.New("connection reset"))

	_, err := s.AddExperience(ctx, backendJob())

	var me *remote.MutationError
	require.True(t, errors.As(err, &me))
	assert.Empty(t, cmp.Diff(before, s.Profile()))
	assert.Equal(t, streak, s.Progress().Streaks.Experiences)
	assert.Contains(t, toastCategories(s.Notifications()), notify.CategoryRemote)

	f.clock.Advance(persistence.DefaultDebounce)
	assert.Empty(t, f.stored(t).Payload.Profile.Experiences)
}

func TestSession_InFlightMutationNeverPersisted(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()
	f.experiences.Gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.AddExperience(ctx, backendJob())
		done <- err
	}()
	require.Eventually(t, func() bool { return len(s.Profile().Experiences) == 1 }, time.Second, time.Millisecond)

	s.SetStatement("Backend engineer")
	require.NoError(t, s.ForceSave(ctx))
	snap := f.stored(t)
	assert.Equal(t, "Backend engineer", snap.Payload.Profile.Statement)
	assert.Empty(t, snap.Payload.Profile.Experiences)

	f.experiences.Gate <- struct{}{}
	require.NoError(t, <-done)
	require.NoError(t, s.ForceSave(ctx))
	assert.Len(t, f.stored(t).Payload.Profile.Experiences, 1)
}

func TestSession_TypingBurstWritesOnce(t *testing.T) {
	f := newFixture(t)
	s := f.session
	saves := f.snapshots.Saves()

	s.SetStatement("a")
	f.clock.Advance(200 * time.Millisecond)
	s.SetStatement("ab")
	f.clock.Advance(200 * time.Millisecond)
	s.SetStatement("abc")

	f.clock.Advance(persistence.DefaultDebounce - time.Millisecond)
	assert.Equal(t, saves, f.snapshots.Saves())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, saves+1, f.snapshots.Saves())
	assert.Equal(t, "abc", f.stored(t).Payload.Profile.Statement)
}

func TestSession_JumpRefusedWithoutEntries(t *testing.T) {
	f := newFixture(t)
	s := f.session

	_, err := s.GoTo(2)

	var navErr *wizard.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, 0, s.Step())
	assert.Contains(t, toastCategories(s.Notifications()), notify.CategoryValidation)
}

func TestSession_BackAtFirstStepIsRefusedQuietly(t *testing.T) {
	f := newFixture(t)
	s := f.session

	_, err := s.Back()

	var navErr *wizard.NavigationError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, 0, s.Step())
	assert.Empty(t, s.Notifications().Toasts())
}

func TestSession_Outline(t *testing.T) {
	f := newFixture(t)
	s := f.session

	_, err := s.AddSkill(context.Background(), react())
	require.NoError(t, err)

	outline := s.Outline()
	require.Len(t, outline, 4)
	assert.True(t, outline[0].Current)
	assert.True(t, outline[0].Complete)
	assert.True(t, outline[1].Reachable)
	assert.False(t, outline[3].Reachable)
}

func TestSession_NavigationRewardsAndPersistsStep(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	_, err := s.AddSkill(ctx, react())
	require.NoError(t, err)
	tr, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, tr.To)
	assert.Equal(t, 40, s.Progress().Score)

	f.clock.Advance(persistence.DefaultDebounce)
	snap := f.stored(t)
	assert.Equal(t, 1, snap.Payload.CurrentStep)
	assert.Contains(t, snap.Payload.Milestones, "Skills completed")
}

func TestSession_RemoveResetsStreak(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	_, err := s.AddSkill(ctx, react())
	require.NoError(t, err)
	_, err = s.AddSkill(ctx, types.SkillEntry{Name: "Go"})
	require.NoError(t, err)
	score := s.Progress().Score

	require.NoError(t, s.RemoveSkill(ctx, 0))
	assert.Len(t, s.Profile().Skills, 1)
	assert.Zero(t, s.Progress().Streaks.Skills)
	assert.Equal(t, score, s.Progress().Score)
	assert.Len(t, f.skills.Items(), 1)
}

func TestSession_LocalOnlyCollections(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	_, err := s.AddEducation(ctx, types.EducationEntry{Institution: "UNAM", Degree: "BSc", Year: "2016"})
	require.NoError(t, err)
	_, err = s.AddCertification(ctx, types.CertificationEntry{Name: "CKA", Issuer: "CNCF", Year: "2023"})
	require.NoError(t, err)
	_, err = s.UpdateCertification(ctx, 0, types.CertificationEntry{Name: "CKAD", Issuer: "CNCF", Year: "2024"})
	require.NoError(t, err)

	_, err = s.AddEducation(ctx, types.EducationEntry{Institution: "UNAM", Degree: "MSc", Year: "1850"})
	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))

	p := s.Profile()
	require.Len(t, p.Education, 1)
	require.Len(t, p.Certifications, 1)
	assert.Equal(t, "CKAD", p.Certifications[0].Name)
	assert.Equal(t, 1, s.Progress().Streaks.Education)
	assert.Equal(t, 1, s.Progress().Streaks.Certifications)

	require.NoError(t, s.RemoveEducation(ctx, 0))
	assert.Empty(t, s.Profile().Education)
}

func TestSession_UpdateExperienceNormalizesCurrent(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	_, err := s.AddExperience(ctx, backendJob())
	require.NoError(t, err)

	job := backendJob()
	job.EndDate = "2024-01"
	job.Achievements = "Cut p99 latency in half"
	updated, err := s.UpdateExperience(ctx, 0, job)
	require.NoError(t, err)
	assert.Empty(t, updated.EndDate)
	assert.Equal(t, "Cut p99 latency in half", f.experiences.Items()[0].Achievements)

	require.NoError(t, s.RemoveExperience(ctx, 0))
	assert.Empty(t, f.experiences.Items())
}

func TestSession_RecoversPreviousDraft(t *testing.T) {
	f := newFixture(t)
	first := f.session
	ctx := context.Background()

	_, err := first.AddSkill(ctx, react())
	require.NoError(t, err)
	_, err = first.Next()
	require.NoError(t, err)
	first.SetStatement("Frontend developer")
	require.NoError(t, first.Close(ctx))

	second := New(Options{
		Identity:  testIdentity,
		Snapshots: f.snapshots,
		Remotes:   Remotes{Skills: f.skills, Experiences: f.experiences},
		Clock:     f.clock,
		Seed:      42,
	})
	res, err := second.Start(ctx)
	require.NoError(t, err)
	defer second.Close(ctx)

	assert.True(t, res.Recovered)
	assert.Zero(t, res.Merged)
	assert.Empty(t, cmp.Diff(first.Profile(), second.Profile()))
	assert.Equal(t, first.Progress().Score, second.Progress().Score)
	assert.True(t, first.Progress().Milestones.Equal(second.Progress().Milestones))
	assert.Equal(t, 1, second.Step())
}

func TestSession_StartMergesServerEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A draft written while offline: the skill never reached the server.
	offline := New(Options{Identity: testIdentity, Snapshots: f.snapshots, Clock: f.clock})
	_, err := offline.Start(ctx)
	require.NoError(t, err)
	_, err = offline.AddSkill(ctx, types.SkillEntry{Name: "go", Level: "expert"})
	require.NoError(t, err)
	require.NoError(t, offline.Close(ctx))

	goSrv, err := f.skills.Create(ctx, types.SkillEntry{Name: "Go", Level: "beginner"})
	require.NoError(t, err)
	_, err = f.skills.Create(ctx, types.SkillEntry{Name: "Rust"})
	require.NoError(t, err)

	s := New(Options{
		Identity:  testIdentity,
		Snapshots: f.snapshots,
		Remotes:   Remotes{Skills: f.skills, Experiences: f.experiences},
		Clock:     f.clock,
	})
	res, err := s.Start(ctx)
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.True(t, res.Recovered)
	assert.Equal(t, 1, res.Merged)
	skills := s.Profile().Skills
	require.Len(t, skills, 2)
	assert.Equal(t, "expert", skills[0].Level, "local entry wins")
	assert.Equal(t, goSrv.RemoteID, skills[0].RemoteID, "local entry adopts the server id")
	assert.Equal(t, "Rust", skills[1].Name)
	assert.NotEmpty(t, skills[1].LocalID)
}

func TestSession_StartSurvivesRemoteListFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.experiences.FailNext(remote.OpList, errors.New("503"))

	s := New(Options{
		Identity:  testIdentity,
		Snapshots: f.snapshots,
		Remotes:   Remotes{Skills: f.skills, Experiences: f.experiences},
		Clock:     f.clock,
	})
	_, err := s.Start(ctx)
	require.Error(t, err)
	defer s.Close(ctx)

	assert.Contains(t, toastCategories(s.Notifications()), notify.CategoryRemote)
	_, err = s.AddSkill(ctx, react())
	assert.NoError(t, err)
}

func TestSession_PersistenceFailureDoesNotBlockEditing(t *testing.T) {
	f := newFixture(t)
	s := f.session
	f.snapshots.SetErr(errors.New("quota exceeded"))

	s.SetStatement("draft")
	f.clock.Advance(persistence.DefaultDebounce)
	assert.Equal(t, persistence.StatusError, s.SaveStatus())
	assert.Contains(t, toastCategories(s.Notifications()), notify.CategoryPersistence)

	_, err := s.AddSkill(context.Background(), react())
	require.NoError(t, err)

	f.snapshots.SetErr(nil)
	f.clock.Advance(persistence.DefaultDebounce)
	assert.Equal(t, persistence.StatusSaved, s.SaveStatus())
	assert.Len(t, f.stored(t).Payload.Profile.Skills, 1)
}
