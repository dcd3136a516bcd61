// Package observability provides logger construction and formatted output
// for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/jonathan/profile-wizard/internal/wizard"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func writeList(sb *strings.Builder, heading string, labels []string) {
	if len(labels) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s (%d):\n", heading, len(labels)))
	count := min(len(labels), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", labels[i]))
	}
	if len(labels) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(labels)-maxItemsToShow))
	}
}

func labels[T interface{ Label() string }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label()
	}
	return out
}

// PrintProfile outputs a human-readable summary of a profile.
func (p *Printer) PrintProfile(profile types.Profile) {
	var sb strings.Builder

	if profile.Identity.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:   %s\n", profile.Identity.Name))
	}
	if profile.Identity.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:  %s\n", profile.Identity.Email))
	}
	if s := strings.TrimSpace(profile.Statement); s != "" {
		sb.WriteString(fmt.Sprintf("About:  %s\n", s))
	}

	writeList(&sb, "Skills", labels(profile.Skills))
	writeList(&sb, "Experience", labels(profile.Experiences))
	writeList(&sb, "Education", labels(profile.Education))
	writeList(&sb, "Certifications", labels(profile.Certifications))

	content := strings.TrimSuffix(sb.String(), "\n")
	if content == "" {
		content = "(empty profile)"
	}
	p.printBox("PROFILE", content)
}

// PrintProgress outputs the score, streaks and milestones.
func (p *Printer) PrintProgress(state types.ProgressState) {
	var sb strings.Builder

	filled := min(max(state.Score, 0), types.MaxScore) * 20 / types.MaxScore
	sb.WriteString(fmt.Sprintf("Score: %3d/%d [%s%s]\n", state.Score, types.MaxScore,
		strings.Repeat("#", filled), strings.Repeat(".", 20-filled)))
	sb.WriteString(fmt.Sprintf("Streaks: skills %d, experiences %d, education %d, certifications %d\n",
		state.Streaks.Skills, state.Streaks.Experiences, state.Streaks.Education, state.Streaks.Certifications))

	milestones := state.Milestones.List()
	if len(milestones) == 0 {
		sb.WriteString("Milestones: none yet")
	} else {
		sb.WriteString(fmt.Sprintf("Milestones (%d):\n", len(milestones)))
		for _, m := range milestones {
			sb.WriteString(fmt.Sprintf("  ★ %s\n", m))
		}
	}

	p.printBox("PROGRESS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutline outputs one line per wizard step.
func (p *Printer) PrintOutline(steps []wizard.StepStatus) {
	var sb strings.Builder
	for i, s := range steps {
		mark := " "
		if s.Complete {
			mark = "x"
		}
		line := fmt.Sprintf("%d. [%s] %s", i+1, mark, s.Title)
		switch {
		case s.Current:
			line += " (current)"
		case !s.Reachable:
			line += " (locked)"
		}
		sb.WriteString(line + "\n")
	}
	p.printBox("STEPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSnapshot outputs a persisted draft: key, age, step and content.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSnapshot(snap types.PersistedSnapshot, now time.Time) {
	age := now.Sub(snap.Timestamp).Round(time.Second)
	content := fmt.Sprintf("Key:    %s\nSaved:  %s (%s ago)\nStep:   %d",
		snap.Key, snap.Timestamp.Format(time.RFC3339), age, snap.Payload.CurrentStep)
	p.printBox("SNAPSHOT", content)

	profile := snap.Payload.Profile
	p.PrintProfile(profile)

	progress := snap.Payload.Progress.Clone()
	for _, m := range snap.Payload.Milestones {
		progress.Milestones.Add(m)
	}
	p.PrintProgress(progress)
}

// PrintEvent prints a single notification event on one line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(ev notify.Event) {
	if ev.Kind != notify.EventShown {
		return
	}
	marker := "✔"
	if ev.Channel == notify.ChannelToast {
		marker = "!"
	}
	line := fmt.Sprintf("%s [%s] %s", marker, ev.Message.Category, ev.Message.Text)
	if ev.Message.Description != "" {
		line += " (" + ev.Message.Description + ")"
	}
	fmt.Fprintln(p.out, line)
}
