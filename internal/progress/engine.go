// Package progress owns the gamified score, the milestone set and the
// per-category streak counters of a wizard session.
package progress

import (
	"fmt"
	"sync"

	"github.com/jonathan/profile-wizard/internal/notify"
	"github.com/jonathan/profile-wizard/internal/types"
	"go.uber.org/zap"
)

// Highlighter receives milestone notifications.
type Highlighter interface {
	Highlight(m notify.Message) notify.Message
}

// Threshold is a streak count that earns a bonus and a celebratory
// milestone. Pool entries take the category's singular label via %s.
type Threshold struct {
	Count int
	Bonus int
	Pool  []string
}

// Config tunes the engine.
type Config struct {
	Baseline   int
	AddPoints  int
	Thresholds []Threshold
}

// DefaultThresholds are the streak milestones of the wizard.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Count: 1, Bonus: 15, Pool: []string{"First %s on the board", "Your first %s is in"}},
		{Count: 3, Bonus: 10, Pool: []string{"Three %ss and counting", "%s hat-trick"}},
		{Count: 5, Bonus: 10, Pool: []string{"Five %ss strong", "High five: five %ss"}},
		{Count: 8, Bonus: 10, Pool: []string{"Eight %ss, impressive range", "%s collector: eight in a row"}},
		{Count: 10, Bonus: 15, Pool: []string{"Ten %ss, a complete picture", "%s master: ten added"}},
	}
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{Baseline: 10, AddPoints: 5, Thresholds: DefaultThresholds()}
}

// Engine tracks ProgressState. It is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	state    types.ProgressState
	notifier Highlighter
	picker   *Picker
	logger   *zap.Logger
}

// NewEngine creates an engine at the configured baseline score.
func NewEngine(cfg Config, notifier Highlighter, picker *Picker, logger *zap.Logger) *Engine {
	if picker == nil {
		picker = NewPicker(1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		state:    types.ProgressState{Score: clamp(cfg.Baseline)},
		notifier: notifier,
		picker:   picker,
		logger:   logger,
	}
}

// Picker exposes the engine's random source so other components share one
// seeded sequence.
func (e *Engine) Picker() *Picker { return e.picker }

// AddProgress raises the score by points, capped at 100, and records the
// milestone if it is new. Negative points are ignored. It reports whether the
// milestone was added.
func (e *Engine) AddProgress(points int, milestone string) bool {
	e.mu.Lock()
	if points > 0 {
		e.state.Score = clamp(e.state.Score + points)
	}
	added := e.state.Milestones.Add(milestone)
	score := e.state.Score
	e.mu.Unlock()

	if added {
		e.logger.Info("milestone reached", zap.String("milestone", milestone), zap.Int("score", score))
		e.highlight(notify.Message{
			Category: notify.CategoryMilestone,
			Text:     milestone,
			Icon:     "trophy",
			Context:  map[string]string{"score": fmt.Sprint(score)},
		})
	}
	return added
}

// RecordAdd registers a successful addition in category. subject names the
// added entry for logging.
func (e *Engine) RecordAdd(category types.Category, subject string) {
	e.mu.Lock()
	streak := e.state.Streaks.Get(category) + 1
	e.state.Streaks = e.state.Streaks.Set(category, streak)
	e.mu.Unlock()

	e.logger.Debug("streak advanced",
		zap.String("category", string(category)),
		zap.String("subject", subject),
		zap.Int("streak", streak))

	e.AddProgress(e.cfg.AddPoints, "")
	for _, th := range e.cfg.Thresholds {
		if th.Count != streak {
			continue
		}
		pool := make([]string, len(th.Pool))
		for i, tmpl := range th.Pool {
			pool[i] = fmt.Sprintf(tmpl, singular(category))
		}
		e.AddProgress(th.Bonus, e.picker.Pick(pool))
	}
}

// RecordRemove resets the category's streak to zero, whatever remains in the
// collection.
func (e *Engine) RecordRemove(category types.Category) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Streaks = e.state.Streaks.Set(category, 0)
}

// State returns a copy of the current state.
func (e *Engine) State() types.ProgressState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Score returns the current score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// Restore replaces the state with one recovered from a snapshot.
func (e *Engine) Restore(s types.ProgressState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s = s.Clone()
	s.Score = clamp(s.Score)
	e.state = s
}

func (e *Engine) highlight(m notify.Message) {
	if e.notifier != nil {
		e.notifier.Highlight(m)
	}
}

func clamp(score int) int {
	return max(0, min(score, types.MaxScore))
}

func singular(c types.Category) string {
	switch c {
	case types.CategorySkills:
		return "skill"
	case types.CategoryExperiences:
		return "experience"
	case types.CategoryCertifications:
		return "certification"
	default:
		return string(c)
	}
}
