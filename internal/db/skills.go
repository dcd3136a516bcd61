package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profile-wizard/internal/types"
)

// NormalizeSkillName returns the case-insensitive part of a skill's natural
// key.
func NormalizeSkillName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const skillColumns = `id, name, level, version`

func scanSkill(row pgx.Row) (types.SkillEntry, error) {
	var (
		id uuid.UUID
		s  types.SkillEntry
	)
	if err := row.Scan(&id, &s.Name, &s.Level, &s.Version); err != nil {
		return types.SkillEntry{}, err
	}
	s.RemoteID = id.String()
	return s, nil
}

// ListSkills returns every skill of a user in creation order.
func (db *DB) ListSkills(ctx context.Context, userID uuid.UUID) ([]types.SkillEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+skillColumns+` FROM profile_skills
		 WHERE user_id = $1 ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []types.SkillEntry
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// CreateSkill inserts a skill. A second create with the same natural key
// updates and returns the existing row.
func (db *DB) CreateSkill(ctx context.Context, userID uuid.UUID, s types.SkillEntry) (types.SkillEntry, error) {
	out, err := scanSkill(db.pool.QueryRow(ctx,
		`INSERT INTO profile_skills (user_id, name, name_key, level, version)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, name_key, version)
		 DO UPDATE SET name = EXCLUDED.name, level = EXCLUDED.level, updated_at = NOW()
		 RETURNING `+skillColumns,
		userID, strings.TrimSpace(s.Name), NormalizeSkillName(s.Name), s.Level, strings.TrimSpace(s.Version),
	))
	if err != nil {
		return types.SkillEntry{}, fmt.Errorf("failed to create skill: %w", err)
	}
	return out, nil
}

// UpdateSkill replaces the skill with id.
func (db *DB) UpdateSkill(ctx context.Context, id uuid.UUID, s types.SkillEntry) (types.SkillEntry, error) {
	out, err := scanSkill(db.pool.QueryRow(ctx,
		`UPDATE profile_skills
		 SET name = $2, name_key = $3, level = $4, version = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+skillColumns,
		id, strings.TrimSpace(s.Name), NormalizeSkillName(s.Name), s.Level, strings.TrimSpace(s.Version),
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return types.SkillEntry{}, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	case isUniqueViolation(err):
		return types.SkillEntry{}, fmt.Errorf("skill %q: %w", s.Label(), ErrConflict)
	case err != nil:
		return types.SkillEntry{}, fmt.Errorf("failed to update skill: %w", err)
	}
	return out, nil
}

// DeleteSkill removes the skill with id.
func (db *DB) DeleteSkill(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM profile_skills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	return nil
}
