package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/jonathan/profile-wizard/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(types.Profile{
		Identity:  types.Identity{Name: "Ada Lovelace", Email: "ada@example.com"},
		Statement: "Engineer",
		Skills: []types.SkillEntry{
			{Name: "Go"}, {Name: "React", Version: "18"}, {Name: "SQL"},
			{Name: "Rust"}, {Name: "Python"}, {Name: "Kotlin"}, {Name: "Zig"},
		},
		Experiences: []types.ExperienceEntry{{Company: "Acme", Position: "Engineer"}},
	})
	output := buf.String()

	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "Ada Lovelace")
	assert.Contains(t, output, "Skills (7):")
	assert.Contains(t, output, "React 18")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Engineer @ Acme")
	assert.NotContains(t, output, "Education")
}

func TestPrintProfile_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(types.Profile{})

	assert.Contains(t, buf.String(), "(empty profile)")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(types.ProgressState{
		Score:      30,
		Milestones: types.NewMilestoneSet("First skill on the board"),
		Streaks:    types.Streaks{Skills: 1},
	})
	output := buf.String()

	assert.Contains(t, output, "Score:  30/100 [######..............]")
	assert.Contains(t, output, "skills 1")
	assert.Contains(t, output, "First skill on the board")
}

func TestPrintProgress_NoMilestones(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgress(types.ProgressState{Score: 10})

	assert.Contains(t, buf.String(), "Milestones: none yet")
}

func TestPrintOutline(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutline([]wizard.StepStatus{
		{Title: "Skills", Complete: true, Reachable: true},
		{Title: "Experience", Reachable: true, Current: true},
		{Title: "Education", Complete: true},
	})
	output := buf.String()

	assert.Contains(t, output, "STEPS")
	assert.Contains(t, output, "1. [x] Skills ")
	assert.Contains(t, output, "2. [ ] Experience (current)")
	assert.Contains(t, output, "3. [x] Education (locked)")
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.PrintSnapshot(types.PersistedSnapshot{
		Key: "profile-wizard:123",
		Payload: types.SnapshotPayload{
			Profile:     types.Profile{Skills: []types.SkillEntry{{Name: "Go"}}},
			Progress:    types.ProgressState{Score: 40},
			Milestones:  []string{"Skills completed"},
			CurrentStep: 1,
		},
		Timestamp: saved,
	}, saved.Add(90*time.Second))
	output := buf.String()

	assert.Contains(t, output, "profile-wizard:123")
	assert.Contains(t, output, "1m30s ago")
	assert.Contains(t, output, "Step:   1")
	assert.Contains(t, output, "Skills completed")
	assert.Equal(t, 3, strings.Count(output, "┌"))
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvent(notify.Event{
		Kind:    notify.EventShown,
		Channel: notify.ChannelHighlight,
		Message: notify.Message{Category: notify.CategorySuccess, Text: "React 18 added"},
	})
	p.PrintEvent(notify.Event{
		Kind:    notify.EventShown,
		Channel: notify.ChannelToast,
		Message: notify.Message{Category: notify.CategoryRemote, Text: "Could not add experience", Description: "status 500"},
	})
	p.PrintEvent(notify.Event{Kind: notify.EventExpired, Channel: notify.ChannelToast})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "✔ [success] React 18 added", lines[0])
	assert.Equal(t, "! [remote_error] Could not add experience (status 500)", lines[1])
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(types.Profile{
		Statement: "A very long personal statement that certainly does not fit inside the box width",
	})
	output := buf.String()

	assert.Contains(t, output, "┌")
	assert.Contains(t, output, "└")
	assert.Contains(t, output, "...")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	verbose, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(-1))
}
