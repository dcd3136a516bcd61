// Package state holds the profile aggregate behind a reducer: every change is
// an Action, a pure function from one profile to the next.
package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jonathan/profile-wizard/internal/types"
)

// ErrEntryNotFound is returned when an action targets an id that is absent.
var ErrEntryNotFound = errors.New("entry not found")

// Action transforms a profile. Apply receives a private copy and may modify
// it freely.
type Action interface {
	Apply(p types.Profile) (types.Profile, error)
}

// Reduce applies a to a copy of p. p itself is never modified. The result is
// canonical: empty collections are nil.
func Reduce(p types.Profile, a Action) (types.Profile, error) {
	next, err := a.Apply(p.Clone())
	if err != nil {
		return p, err
	}
	return next.Clone(), nil
}

// IndexError reports an index outside a collection.
type IndexError struct {
	Category types.Category
	Index    int
	Len      int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0,%d)", e.Category, e.Index, e.Len)
}

// Lens names one collection of the profile.
type Lens[T types.Entry[T]] struct {
	Category types.Category
	Get      func(p types.Profile) []T
	Set      func(p *types.Profile, v []T)
}

// IndexOf returns the position of the entry with the given local id, or -1.
func (l Lens[T]) IndexOf(p types.Profile, id string) int {
	return slices.IndexFunc(l.Get(p), func(e T) bool { return e.ID() == id })
}

// Lenses for every profile collection.
var (
	Skills = Lens[types.SkillEntry]{
		Category: types.CategorySkills,
		Get:      func(p types.Profile) []types.SkillEntry { return p.Skills },
		Set:      func(p *types.Profile, v []types.SkillEntry) { p.Skills = v },
	}
	Experiences = Lens[types.ExperienceEntry]{
		Category: types.CategoryExperiences,
		Get:      func(p types.Profile) []types.ExperienceEntry { return p.Experiences },
		Set:      func(p *types.Profile, v []types.ExperienceEntry) { p.Experiences = v },
	}
	Education = Lens[types.EducationEntry]{
		Category: types.CategoryEducation,
		Get:      func(p types.Profile) []types.EducationEntry { return p.Education },
		Set:      func(p *types.Profile, v []types.EducationEntry) { p.Education = v },
	}
	Certifications = Lens[types.CertificationEntry]{
		Category: types.CategoryCertifications,
		Get:      func(p types.Profile) []types.CertificationEntry { return p.Certifications },
		Set:      func(p *types.Profile, v []types.CertificationEntry) { p.Certifications = v },
	}
)

// Append adds Value at the end of the collection.
type Append[T types.Entry[T]] struct {
	Lens  Lens[T]
	Value T
}

func (a Append[T]) Apply(p types.Profile) (types.Profile, error) {
	a.Lens.Set(&p, append(a.Lens.Get(p), a.Value))
	return p, nil
}

// InsertAt places Value at Index, clamped to the collection bounds.
type InsertAt[T types.Entry[T]] struct {
	Lens  Lens[T]
	Index int
	Value T
}

func (a InsertAt[T]) Apply(p types.Profile) (types.Profile, error) {
	list := a.Lens.Get(p)
	idx := max(0, min(a.Index, len(list)))
	a.Lens.Set(&p, slices.Insert(list, idx, a.Value))
	return p, nil
}

// ReplaceByID overwrites the entry whose local id is ID.
type ReplaceByID[T types.Entry[T]] struct {
	Lens  Lens[T]
	ID    string
	Value T
}

func (a ReplaceByID[T]) Apply(p types.Profile) (types.Profile, error) {
	idx := a.Lens.IndexOf(p, a.ID)
	if idx < 0 {
		return p, fmt.Errorf("%s %s: %w", a.Lens.Category, a.ID, ErrEntryNotFound)
	}
	a.Lens.Get(p)[idx] = a.Value
	return p, nil
}

// RemoveByID deletes the entry whose local id is ID.
type RemoveByID[T types.Entry[T]] struct {
	Lens Lens[T]
	ID   string
}

func (a RemoveByID[T]) Apply(p types.Profile) (types.Profile, error) {
	idx := a.Lens.IndexOf(p, a.ID)
	if idx < 0 {
		return p, fmt.Errorf("%s %s: %w", a.Lens.Category, a.ID, ErrEntryNotFound)
	}
	a.Lens.Set(&p, slices.Delete(a.Lens.Get(p), idx, idx+1))
	return p, nil
}

// SetCollection replaces the whole collection.
type SetCollection[T types.Entry[T]] struct {
	Lens   Lens[T]
	Values []T
}

func (a SetCollection[T]) Apply(p types.Profile) (types.Profile, error) {
	a.Lens.Set(&p, slices.Clone(a.Values))
	return p, nil
}

// SetStatement replaces the free-text statement.
type SetStatement struct {
	Text string
}

func (a SetStatement) Apply(p types.Profile) (types.Profile, error) {
	p.Statement = a.Text
	return p, nil
}

// Batch applies actions in order and stops at the first error.
type Batch []Action

func (b Batch) Apply(p types.Profile) (types.Profile, error) {
	var err error
	for _, a := range b {
		if p, err = a.Apply(p); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Restore replaces every mutable field with those of Profile. The identity
// of the current aggregate is kept.
type Restore struct {
	Profile types.Profile
}

func (a Restore) Apply(p types.Profile) (types.Profile, error) {
	next := a.Profile.Clone()
	next.Identity = p.Identity
	return next, nil
}
