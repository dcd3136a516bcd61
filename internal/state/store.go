package state

import (
	"sync"

	"github.com/jonathan/profile-wizard/internal/types"
)

// Store serializes every change to the aggregate. It plays the role of the
// single event loop: no two actions ever interleave.
type Store struct {
	mu        sync.Mutex
	profile   types.Profile
	listeners []func(types.Profile)
}

// NewStore creates a store holding initial.
func NewStore(initial types.Profile) *Store {
	return &Store{profile: initial.Clone()}
}

// Profile returns a copy of the current aggregate.
func (s *Store) Profile() types.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// View runs fn with a copy of the aggregate while holding the store lock, so
// fn observes the aggregate together with anything updated in Transact
// decisions.
func (s *Store) View(fn func(current types.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.profile.Clone())
}

// Subscribe registers fn to run after every successful change.
func (s *Store) Subscribe(fn func(types.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Dispatch applies a to the current aggregate.
func (s *Store) Dispatch(a Action) (types.Profile, error) {
	_, next, err := s.Transact(func(types.Profile) (Action, error) { return a, nil })
	return next, err
}

// Transact lets decide inspect the current aggregate and choose an action
// while no other change can run. A nil action leaves the store untouched.
// It returns the aggregate before and after the change.
func (s *Store) Transact(decide func(current types.Profile) (Action, error)) (prior, next types.Profile, err error) {
	s.mu.Lock()
	prior = s.profile.Clone()
	a, err := decide(prior.Clone())
	if err != nil || a == nil {
		s.mu.Unlock()
		return prior, prior, err
	}
	next, err = Reduce(s.profile, a)
	if err != nil {
		s.mu.Unlock()
		return prior, prior, err
	}
	s.profile = next
	listeners := append([]func(types.Profile){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}
	return prior, next.Clone(), nil
}
