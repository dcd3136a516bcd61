package state

import (
	"testing"

	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skill(id, name string) types.SkillEntry {
	return types.SkillEntry{LocalID: id, Name: name}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	p := types.Profile{Skills: []types.SkillEntry{skill("1", "Go"), skill("2", "Rust")}}

	next, err := Reduce(p, ReplaceByID[types.SkillEntry]{Lens: Skills, ID: "1", Value: skill("1", "Zig")})
	require.NoError(t, err)
	assert.Equal(t, "Zig", next.Skills[0].Name)
	assert.Equal(t, "Go", p.Skills[0].Name)

	next, err = Reduce(p, RemoveByID[types.SkillEntry]{Lens: Skills, ID: "1"})
	require.NoError(t, err)
	assert.Len(t, next.Skills, 1)
	assert.Len(t, p.Skills, 2)
	assert.Equal(t, "Go", p.Skills[0].Name)
}

func TestReduce_InsertAtClamps(t *testing.T) {
	p := types.Profile{Skills: []types.SkillEntry{skill("1", "Go")}}

	next, err := Reduce(p, InsertAt[types.SkillEntry]{Lens: Skills, Index: 9, Value: skill("2", "Rust")})
	require.NoError(t, err)
	assert.Equal(t, "Rust", next.Skills[1].Name)

	next, err = Reduce(next, InsertAt[types.SkillEntry]{Lens: Skills, Index: -3, Value: skill("3", "C")})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "Go", "Rust"}, []string{next.Skills[0].Name, next.Skills[1].Name, next.Skills[2].Name})
}

func TestReduce_Errors(t *testing.T) {
	p := types.Profile{}

	_, err := Reduce(p, ReplaceByID[types.SkillEntry]{Lens: Skills, ID: "missing"})
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = Reduce(p, RemoveByID[types.ExperienceEntry]{Lens: Experiences, ID: "missing"})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestReduce_BatchAndStatement(t *testing.T) {
	p, err := Reduce(types.Profile{}, Batch{
		SetStatement{Text: "hello"},
		Append[types.EducationEntry]{Lens: Education, Value: types.EducationEntry{LocalID: "e", Institution: "MIT"}},
		SetCollection[types.CertificationEntry]{Lens: Certifications, Values: []types.CertificationEntry{{LocalID: "c", Name: "CKA"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Statement)
	assert.Len(t, p.Education, 1)
	assert.Len(t, p.Certifications, 1)
}

func TestReduce_RestoreKeepsIdentity(t *testing.T) {
	live := types.Profile{Identity: types.Identity{Name: "Live"}, Statement: "old"}
	recovered := types.Profile{Identity: types.Identity{Name: "Stale"}, Statement: "draft", Skills: []types.SkillEntry{skill("1", "Go")}}

	p, err := Reduce(live, Restore{Profile: recovered})
	require.NoError(t, err)
	assert.Equal(t, "Live", p.Identity.Name)
	assert.Equal(t, "draft", p.Statement)
	assert.Len(t, p.Skills, 1)
}
