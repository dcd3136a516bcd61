// Package notify implements the notification queue: a single-slot highlight
// channel where the newest message wins, and an independent toast channel for
// operational errors. Both self-expire.
package notify

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/jonathan/profile-wizard/internal/clock"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Default display durations.
const (
	DefaultHighlightDuration = 4 * time.Second
	DefaultToastDuration     = 6 * time.Second
)

// Channel identifies where a message is shown.
type Channel string

const (
	ChannelHighlight Channel = "highlight"
	ChannelToast     Channel = "toast"
)

// Message categories used across the engine.
const (
	CategorySuccess     = "success"
	CategoryMilestone   = "milestone"
	CategoryStep        = "step"
	CategoryValidation  = "validation"
	CategoryRemote      = "remote_error"
	CategoryPersistence = "persistence_error"
)

// Message is a single notification.
type Message struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Text        string            `json:"text"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon"`
	Timestamp   time.Time         `json:"timestamp"`
	Context     map[string]string `json:"context,omitempty"`
}

// EventKind tells subscribers whether a message appeared or went away.
type EventKind string

const (
	EventShown   EventKind = "shown"
	EventExpired EventKind = "expired"
)

// Event is delivered to subscribers.
type Event struct {
	Kind    EventKind
	Channel Channel
	Message Message
}

// Options configures a Queue. Zero values fall back to defaults.
type Options struct {
	HighlightDuration time.Duration
	ToastDuration     time.Duration
	Clock             clock.Clock
	Logger            *zap.Logger
}

// Queue holds the latest highlight and the live toasts.
type Queue struct {
	mu sync.Mutex

	clock             clock.Clock
	logger            *zap.Logger
	highlightDuration time.Duration
	toastDuration     time.Duration
	entropy           *ulid.MonotonicEntropy

	highlight      *Message
	highlightTimer clock.Timer
	toasts         []Message
	toastTimers    map[string]clock.Timer
	subscribers    []func(Event)
}

// New creates a Queue.
func New(opts Options) *Queue {
	if opts.HighlightDuration <= 0 {
		opts.HighlightDuration = DefaultHighlightDuration
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		clock:             opts.Clock,
		logger:            opts.Logger,
		highlightDuration: opts.HighlightDuration,
		toastDuration:     opts.ToastDuration,
		entropy:           ulid.Monotonic(rand.Reader, 0),
		toastTimers:       make(map[string]clock.Timer),
	}
}

// Subscribe registers fn for every shown/expired event. Callbacks run outside
// the queue lock.
func (q *Queue) Subscribe(fn func(Event)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribers = append(q.subscribers, fn)
}

// Highlight replaces the current highlight with m. The replaced message
// disappears immediately.
func (q *Queue) Highlight(m Message) Message {
	q.mu.Lock()
	m = q.stamp(m)
	if q.highlightTimer != nil {
		q.highlightTimer.Stop()
	}
	msg := m
	q.highlight = &msg
	id := m.ID
	q.highlightTimer = q.clock.AfterFunc(q.highlightDuration, func() { q.expireHighlight(id) })
	subs := q.subscribersLocked()
	q.mu.Unlock()

	q.logger.Debug("highlight", zap.String("id", m.ID), zap.String("category", m.Category), zap.String("text", m.Text))
	publish(subs, Event{Kind: EventShown, Channel: ChannelHighlight, Message: m})
	return m
}

// Toast adds m to the toast channel. It never touches the highlight slot.
func (q *Queue) Toast(m Message) Message {
	q.mu.Lock()
	m = q.stamp(m)
	if m.Icon == "" {
		m.Icon = "alert"
	}
	q.toasts = append(q.toasts, m)
	id := m.ID
	q.toastTimers[id] = q.clock.AfterFunc(q.toastDuration, func() { q.expireToast(id) })
	subs := q.subscribersLocked()
	q.mu.Unlock()

	q.logger.Info("toast", zap.String("id", m.ID), zap.String("category", m.Category), zap.String("text", m.Text))
	publish(subs, Event{Kind: EventShown, Channel: ChannelToast, Message: m})
	return m
}

// Latest returns the current highlight, if one is showing.
func (q *Queue) Latest() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.highlight == nil {
		return Message{}, false
	}
	return *q.highlight, true
}

// Toasts returns the live toasts, oldest first.
func (q *Queue) Toasts() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// DismissToast removes a toast before it expires.
func (q *Queue) DismissToast(id string) bool {
	return q.expireToast(id)
}

// Close stops every pending expiry timer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.highlightTimer != nil {
		q.highlightTimer.Stop()
		q.highlightTimer = nil
	}
	for id, t := range q.toastTimers {
		t.Stop()
		delete(q.toastTimers, id)
	}
}

func (q *Queue) expireHighlight(id string) {
	q.mu.Lock()
	if q.highlight == nil || q.highlight.ID != id {
		q.mu.Unlock()
		return
	}
	m := *q.highlight
	q.highlight = nil
	q.highlightTimer = nil
	subs := q.subscribersLocked()
	q.mu.Unlock()

	publish(subs, Event{Kind: EventExpired, Channel: ChannelHighlight, Message: m})
}

func (q *Queue) expireToast(id string) bool {
	q.mu.Lock()
	idx := -1
	for i, t := range q.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	m := q.toasts[idx]
	q.toasts = append(q.toasts[:idx], q.toasts[idx+1:]...)
	if t, ok := q.toastTimers[id]; ok {
		t.Stop()
		delete(q.toastTimers, id)
	}
	subs := q.subscribersLocked()
	q.mu.Unlock()

	publish(subs, Event{Kind: EventExpired, Channel: ChannelToast, Message: m})
	return true
}

// stamp assigns id and timestamp. Caller holds q.mu.
func (q *Queue) stamp(m Message) Message {
	now := q.clock.Now()
	m.ID = ulid.MustNew(ulid.Timestamp(now), q.entropy).String()
	m.Timestamp = now
	return m
}

func (q *Queue) subscribersLocked() []func(Event) {
	if len(q.subscribers) == 0 {
		return nil
	}
	out := make([]func(Event), len(q.subscribers))
	copy(out, q.subscribers)
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
