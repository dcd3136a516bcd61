// Package wizard tracks the current step of the profile wizard and decides
// which navigation is legal.
package wizard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/progress"
	"github.com/jonathan/profile-wizard/internal/types"
	"go.uber.org/zap"
)

// DefaultStepPoints is awarded for every accepted forward transition.
const DefaultStepPoints = 10

// Step is one page of the wizard.
type Step struct {
	Key   string
	Title string
	// Complete is a pure predicate over the aggregate.
	Complete func(p types.Profile) bool
}

// DefaultSteps returns skills, experience, education and review.
// Education is optional and always complete.
func DefaultSteps() []Step {
	return []Step{
		{Key: "skills", Title: "Skills", Complete: func(p types.Profile) bool { return len(p.Skills) > 0 }},
		{Key: "experience", Title: "Experience", Complete: func(p types.Profile) bool { return len(p.Experiences) > 0 }},
		{Key: "education", Title: "Education", Complete: func(types.Profile) bool { return true }},
		{Key: "review", Title: "Review", Complete: func(p types.Profile) bool { return strings.TrimSpace(p.Statement) != "" }},
	}
}

// DefaultCompletionMessages is the pool a forward transition picks from.
var DefaultCompletionMessages = []string{
	"Nice work, on to the next step",
	"Step done, keep the momentum",
	"Great progress",
	"That section looks solid",
}

// Rewarder receives score increments and milestones.
type Rewarder interface {
	AddProgress(points int, milestone string) bool
}

// Highlighter shows the completion message.
type Highlighter interface {
	Highlight(m notify.Message) notify.Message
}

// Options configures a Machine. Zero values fall back to defaults.
type Options struct {
	Steps      []Step
	StepPoints int
	Messages   []string
	Picker     *progress.Picker
	Rewards    Rewarder
	Notifier   Highlighter
	Logger     *zap.Logger
}

// NavigationError is returned when a transition is refused.
type NavigationError struct {
	From   int
	To     int
	Reason string
	// Blocking is the title of the incomplete step that refused the move.
	// It is empty when To is not a step at all.
	Blocking string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("cannot navigate from step %d to step %d: %s", e.From, e.To, e.Reason)
}

// Transition describes an accepted navigation.
type Transition struct {
	From    int
	To      int
	Forward bool
	// Message is the completion message shown for a forward transition.
	Message string
	// Milestones lists the step milestones newly added by this transition.
	Milestones []string
}

// Machine is the wizard state machine. It starts at step 0 and has no
// terminal state.
type Machine struct {
	opts Options

	mu      sync.Mutex
	current int
}

// New creates a machine at step 0.
func New(opts Options) *Machine {
	if len(opts.Steps) == 0 {
		opts.Steps = DefaultSteps()
	}
	if opts.StepPoints == 0 {
		opts.StepPoints = DefaultStepPoints
	}
	if len(opts.Messages) == 0 {
		opts.Messages = DefaultCompletionMessages
	}
	if opts.Picker == nil {
		opts.Picker = progress.NewPicker(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Machine{opts: opts}
}

// Current returns the current step index.
func (m *Machine) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Steps returns the configured steps.
func (m *Machine) Steps() []Step {
	out := make([]Step, len(m.opts.Steps))
	copy(out, m.opts.Steps)
	return out
}

// Completed evaluates every step predicate against p.
func (m *Machine) Completed(p types.Profile) []bool {
	out := make([]bool, len(m.opts.Steps))
	for i, s := range m.opts.Steps {
		out[i] = s.Complete(p)
	}
	return out
}

// StepStatus is one row of the wizard outline.
type StepStatus struct {
	Key       string
	Title     string
	Complete  bool
	Reachable bool
	Current   bool
}

// Outline reports, for every step, whether it is complete, whether GoTo
// would accept it now and whether it is the current one.
func (m *Machine) Outline(p types.Profile) []StepStatus {
	done := m.Completed(p)
	current := m.Current()
	out := make([]StepStatus, len(m.opts.Steps))
	for i, s := range m.opts.Steps {
		out[i] = StepStatus{
			Key:       s.Key,
			Title:     s.Title,
			Complete:  done[i],
			Reachable: m.CanNavigate(p, i),
			Current:   i == current,
		}
	}
	return out
}

// CanNavigate reports whether GoTo(p, k) would be accepted.
func (m *Machine) CanNavigate(p types.Profile, k int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check(p, m.current, k) == nil
}

func (m *Machine) check(p types.Profile, from, to int) error {
	if to < 0 || to >= len(m.opts.Steps) {
		return &NavigationError{From: from, To: to, Reason: "no such step"}
	}
	if to <= from {
		return nil
	}
	if to == from+1 && m.opts.Steps[from].Complete(p) {
		return nil
	}
	for i := 0; i < to; i++ {
		if !m.opts.Steps[i].Complete(p) {
			title := m.opts.Steps[i].Title
			return &NavigationError{From: from, To: to, Reason: fmt.Sprintf("step %q is not complete", title), Blocking: title}
		}
	}
	return nil
}

// GoTo moves to step k if the navigation rule allows it. Forward moves
// award points, add a milestone per passed step and show a completion
// message.
func (m *Machine) GoTo(p types.Profile, k int) (Transition, error) {
	m.mu.Lock()
	from := m.current
	if err := m.check(p, from, k); err != nil {
		m.mu.Unlock()
		m.opts.Logger.Debug("navigation refused", zap.Int("from", from), zap.Int("to", k), zap.Error(err))
		return Transition{From: from, To: from}, err
	}
	m.current = k
	m.mu.Unlock()

	tr := Transition{From: from, To: k, Forward: k > from}
	if !tr.Forward {
		return tr, nil
	}

	for i := from; i < k; i++ {
		milestone := m.opts.Steps[i].Title + " completed"
		points := 0
		if i == from {
			points = m.opts.StepPoints
		}
		if m.reward(points, milestone) {
			tr.Milestones = append(tr.Milestones, milestone)
		}
	}
	tr.Message = m.opts.Picker.Pick(m.opts.Messages)
	if m.opts.Notifier != nil {
		m.opts.Notifier.Highlight(notify.Message{
			Category: notify.CategoryStep,
			Text:     tr.Message,
			Icon:     "check",
			Context:  map[string]string{"step": m.opts.Steps[k].Key},
		})
	}
	m.opts.Logger.Info("wizard advanced", zap.Int("from", from), zap.Int("to", k))
	return tr, nil
}

// Next moves one step forward.
func (m *Machine) Next(p types.Profile) (Transition, error) {
	return m.GoTo(p, m.Current()+1)
}

// Back moves one step backward. It is refused at step 0.
func (m *Machine) Back(p types.Profile) (Transition, error) {
	return m.GoTo(p, m.Current()-1)
}

// Restore sets the step from a recovered snapshot without rewards. Out of
// range values are clamped.
func (m *Machine) Restore(step int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = max(0, min(step, len(m.opts.Steps)-1))
}

func (m *Machine) reward(points int, milestone string) bool {
	if m.opts.Rewards == nil {
		return false
	}
	return m.opts.Rewards.AddProgress(points, milestone)
}
