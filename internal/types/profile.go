// Package types provides type definitions for structured data used throughout the profile wizard.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/google/uuid"
)

// Identity holds the server-authoritative fields of a profile. They are never
// edited in a session and always win over a recovered snapshot.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

// Profile is the aggregate being edited in a wizard session.
type Profile struct {
	Identity       Identity             `json:"identity"`
	Statement      string               `json:"statement"`
	Skills         []SkillEntry         `json:"skills"`
	Experiences    []ExperienceEntry    `json:"experiences"`
	Education      []EducationEntry     `json:"education"`
	Certifications []CertificationEntry `json:"certifications"`
}

// Clone returns a copy of the profile that shares no slices with p. Empty
// collections come back as nil.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = cloneSlice(p.Skills)
	out.Education = cloneSlice(p.Education)
	out.Certifications = cloneSlice(p.Certifications)
	out.Experiences = nil
	if len(p.Experiences) > 0 {
		out.Experiences = make([]ExperienceEntry, len(p.Experiences))
		for i, e := range p.Experiences {
			out.Experiences[i] = e.clone()
		}
	}
	return out
}

// SkillEntry is a single skill with an optional version (e.g. "React 18").
type SkillEntry struct {
	LocalID  string `json:"local_id"`
	RemoteID string `json:"remote_id,omitempty"`
	Name     string `json:"name" validate:"required,max=100"`
	Level    string `json:"level,omitempty" validate:"max=40"`
	Version  string `json:"version,omitempty" validate:"max=40"`
}

// SkillKey returns the natural key of a skill: lowercased name plus version.
func SkillKey(name, version string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.TrimSpace(version)
}

// ID returns the client-assigned identifier.
func (s SkillEntry) ID() string { return s.LocalID }

// ServerID returns the server-assigned identifier, if any.
func (s SkillEntry) ServerID() string { return s.RemoteID }

// NaturalKey returns the (name, version) uniqueness key.
func (s SkillEntry) NaturalKey() string { return SkillKey(s.Name, s.Version) }

// WithIDs returns a copy carrying the given identifiers.
func (s SkillEntry) WithIDs(localID, remoteID string) SkillEntry {
	s.LocalID = localID
	s.RemoteID = remoteID
	return s
}

// Label is the human-readable form used in notifications.
func (s SkillEntry) Label() string {
	if s.Version != "" {
		return s.Name + " " + s.Version
	}
	return s.Name
}

// ProjectEntry is a project nested under an experience.
type ProjectEntry struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty" validate:"omitempty,url"`
	Technologies []string `json:"technologies,omitempty"`
}

// ExperienceEntry is a single job held by the user.
// StartDate and EndDate are YYYY-MM. EndDate is empty when Current is set.
type ExperienceEntry struct {
	LocalID      string         `json:"local_id"`
	RemoteID     string         `json:"remote_id,omitempty"`
	Company      string         `json:"company" validate:"required,max=200"`
	Position     string         `json:"position" validate:"required,max=200"`
	StartDate    string         `json:"start_date" validate:"required,datetime=2006-01"`
	EndDate      string         `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01"`
	Current      bool           `json:"current"`
	Challenges   string         `json:"challenges,omitempty"`
	Achievements string         `json:"achievements,omitempty"`
	Technologies []string       `json:"technologies,omitempty"`
	Projects     []ProjectEntry `json:"projects,omitempty" validate:"dive"`
}

// ExperienceKey returns the natural key of an experience.
func ExperienceKey(company, position, startDate string) string {
	return strings.ToLower(strings.TrimSpace(company)) + "\x00" +
		strings.ToLower(strings.TrimSpace(position)) + "\x00" +
		strings.TrimSpace(startDate)
}

// ID returns the client-assigned identifier.
func (e ExperienceEntry) ID() string { return e.LocalID }

// ServerID returns the server-assigned identifier, if any.
func (e ExperienceEntry) ServerID() string { return e.RemoteID }

// NaturalKey returns the (company, position, start date) uniqueness key.
func (e ExperienceEntry) NaturalKey() string {
	return ExperienceKey(e.Company, e.Position, e.StartDate)
}

// WithIDs returns a copy carrying the given identifiers.
func (e ExperienceEntry) WithIDs(localID, remoteID string) ExperienceEntry {
	e.LocalID = localID
	e.RemoteID = remoteID
	return e
}

// Label is the human-readable form used in notifications.
func (e ExperienceEntry) Label() string {
	return e.Position + " @ " + e.Company
}

// Normalize enforces that a current position has no end date.
func (e ExperienceEntry) Normalize() ExperienceEntry {
	if e.Current {
		e.EndDate = ""
	}
	return e
}

func (e ExperienceEntry) clone() ExperienceEntry {
	out := e
	out.Technologies = cloneSlice(e.Technologies)
	out.Projects = nil
	if len(e.Projects) > 0 {
		out.Projects = make([]ProjectEntry, len(e.Projects))
		for i, p := range e.Projects {
			p.Technologies = cloneSlice(p.Technologies)
			out.Projects[i] = p
		}
	}
	return out
}

// EducationEntry is a degree or course of study.
type EducationEntry struct {
	LocalID     string `json:"local_id"`
	RemoteID    string `json:"remote_id,omitempty"`
	Institution string `json:"institution" validate:"required,max=200"`
	Degree      string `json:"degree" validate:"required,max=200"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty" validate:"omitempty,year"`
}

// ID returns the client-assigned identifier.
func (e EducationEntry) ID() string { return e.LocalID }

// ServerID returns the server-assigned identifier, if any.
func (e EducationEntry) ServerID() string { return e.RemoteID }

// NaturalKey returns the (institution, degree, year) key.
func (e EducationEntry) NaturalKey() string {
	return strings.ToLower(strings.TrimSpace(e.Institution)) + "\x00" +
		strings.ToLower(strings.TrimSpace(e.Degree)) + "\x00" + e.Year
}

// WithIDs returns a copy carrying the given identifiers.
func (e EducationEntry) WithIDs(localID, remoteID string) EducationEntry {
	e.LocalID = localID
	e.RemoteID = remoteID
	return e
}

// Label is the human-readable form used in notifications.
func (e EducationEntry) Label() string { return e.Degree + ", " + e.Institution }

// CertificationEntry is a professional certification.
type CertificationEntry struct {
	LocalID       string `json:"local_id"`
	RemoteID      string `json:"remote_id,omitempty"`
	Name          string `json:"name" validate:"required,max=200"`
	Issuer        string `json:"issuer,omitempty" validate:"max=200"`
	Year          string `json:"year,omitempty" validate:"omitempty,year"`
	CredentialURL string `json:"credential_url,omitempty" validate:"omitempty,url"`
}

// ID returns the client-assigned identifier.
func (c CertificationEntry) ID() string { return c.LocalID }

// ServerID returns the server-assigned identifier, if any.
func (c CertificationEntry) ServerID() string { return c.RemoteID }

// NaturalKey returns the (name, issuer) key.
func (c CertificationEntry) NaturalKey() string {
	return strings.ToLower(strings.TrimSpace(c.Name)) + "\x00" + strings.ToLower(strings.TrimSpace(c.Issuer))
}

// WithIDs returns a copy carrying the given identifiers.
func (c CertificationEntry) WithIDs(localID, remoteID string) CertificationEntry {
	c.LocalID = localID
	c.RemoteID = remoteID
	return c
}

// Label is the human-readable form used in notifications.
func (c CertificationEntry) Label() string { return c.Name }

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
