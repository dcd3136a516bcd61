package types

import "encoding/json"

// MaxScore is the upper bound of ProgressState.Score.
const MaxScore = 100

// Streaks counts consecutive successful additions per category.
type Streaks struct {
	Skills         int `json:"skills"`
	Experiences    int `json:"experiences"`
	Education      int `json:"education"`
	Certifications int `json:"certifications"`
}

// Get returns the streak for a category.
func (s Streaks) Get(c Category) int {
	switch c {
	case CategorySkills:
		return s.Skills
	case CategoryExperiences:
		return s.Experiences
	case CategoryEducation:
		return s.Education
	case CategoryCertifications:
		return s.Certifications
	}
	return 0
}

// Set returns a copy with the category's streak replaced.
func (s Streaks) Set(c Category, n int) Streaks {
	if n < 0 {
		n = 0
	}
	switch c {
	case CategorySkills:
		s.Skills = n
	case CategoryExperiences:
		s.Experiences = n
	case CategoryEducation:
		s.Education = n
	case CategoryCertifications:
		s.Certifications = n
	}
	return s
}

// MilestoneSet is an append-only, insertion-ordered set of milestone strings.
// The zero value is empty and ready to use.
type MilestoneSet struct {
	order []string
	index map[string]struct{}
}

// NewMilestoneSet builds a set from a list, dropping duplicates.
func NewMilestoneSet(items ...string) MilestoneSet {
	var m MilestoneSet
	for _, it := range items {
		m.Add(it)
	}
	return m
}

// Add inserts a milestone and reports whether it was new.
func (m *MilestoneSet) Add(milestone string) bool {
	if milestone == "" {
		return false
	}
	if m.index == nil {
		m.index = make(map[string]struct{})
	}
	if _, ok := m.index[milestone]; ok {
		return false
	}
	m.index[milestone] = struct{}{}
	m.order = append(m.order, milestone)
	return true
}

// Has reports whether the milestone is present.
func (m MilestoneSet) Has(milestone string) bool {
	_, ok := m.index[milestone]
	return ok
}

// Len returns the number of milestones.
func (m MilestoneSet) Len() int { return len(m.order) }

// List returns the milestones in insertion order.
func (m MilestoneSet) List() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Equal reports whether both sets hold the same milestones in the same order.
func (m MilestoneSet) Equal(o MilestoneSet) bool {
	if len(m.order) != len(o.order) {
		return false
	}
	for i := range m.order {
		if m.order[i] != o.order[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m MilestoneSet) Clone() MilestoneSet { return NewMilestoneSet(m.order...) }

// MarshalJSON encodes the set as an array.
func (m MilestoneSet) MarshalJSON() ([]byte, error) { return json.Marshal(m.List()) }

// UnmarshalJSON decodes an array, dropping duplicates.
func (m *MilestoneSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*m = NewMilestoneSet(items...)
	return nil
}

// ProgressState is the gamification state of a session.
type ProgressState struct {
	Score      int          `json:"score"`
	Milestones MilestoneSet `json:"-"`
	Streaks    Streaks      `json:"streaks"`
}

// Clone returns an independent copy.
func (p ProgressState) Clone() ProgressState {
	p.Milestones = p.Milestones.Clone()
	return p
}
