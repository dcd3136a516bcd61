package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profile-wizard/internal/types"
)

const experienceColumns = `id, company, position, start_date, end_date, is_current,
	challenges, achievements, technologies, projects`

func scanExperience(row pgx.Row) (types.ExperienceEntry, error) {
	var (
		id                 uuid.UUID
		e                  types.ExperienceEntry
		techJSON, projJSON []byte
	)
	err := row.Scan(&id, &e.Company, &e.Position, &e.StartDate, &e.EndDate, &e.Current,
		&e.Challenges, &e.Achievements, &techJSON, &projJSON)
	if err != nil {
		return types.ExperienceEntry{}, err
	}
	e.RemoteID = id.String()
	if err := decodeJSONList(techJSON, &e.Technologies); err != nil {
		return types.ExperienceEntry{}, fmt.Errorf("failed to decode technologies: %w", err)
	}
	if err := decodeJSONList(projJSON, &e.Projects); err != nil {
		return types.ExperienceEntry{}, fmt.Errorf("failed to decode projects: %w", err)
	}
	return e, nil
}

// decodeJSONList unmarshals a JSONB array. Empty arrays leave out nil.
func decodeJSONList[T any](data []byte, out *[]T) error {
	if len(data) == 0 {
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) > 0 {
		*out = items
	}
	return nil
}

// encodeJSONList marshals a slice for a JSONB column. nil becomes [].
func encodeJSONList[T any](items []T) ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func experienceArgs(e types.ExperienceEntry) ([]any, error) {
	e = e.Normalize()
	tech, err := encodeJSONList(e.Technologies)
	if err != nil {
		return nil, err
	}
	projects, err := encodeJSONList(e.Projects)
	if err != nil {
		return nil, err
	}
	return []any{
		strings.TrimSpace(e.Company), strings.ToLower(strings.TrimSpace(e.Company)),
		strings.TrimSpace(e.Position), strings.ToLower(strings.TrimSpace(e.Position)),
		strings.TrimSpace(e.StartDate), e.EndDate, e.Current,
		e.Challenges, e.Achievements, tech, projects,
	}, nil
}

// ListExperiences returns every experience of a user, most recent first.
func (db *DB) ListExperiences(ctx context.Context, userID uuid.UUID) ([]types.ExperienceEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+experienceColumns+` FROM profile_experiences
		 WHERE user_id = $1 ORDER BY start_date DESC, created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var out []types.ExperienceEntry
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateExperience inserts an experience, or updates the existing one with
// the same company, position and start date.
func (db *DB) CreateExperience(ctx context.Context, userID uuid.UUID, e types.ExperienceEntry) (types.ExperienceEntry, error) {
	args, err := experienceArgs(e)
	if err != nil {
		return types.ExperienceEntry{}, fmt.Errorf("failed to encode experience: %w", err)
	}
	out, err := scanExperience(db.pool.QueryRow(ctx,
		`INSERT INTO profile_experiences (user_id, company, company_key, position, position_key,
			start_date, end_date, is_current, challenges, achievements, technologies, projects)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, company_key, position_key, start_date)
		 DO UPDATE SET company = EXCLUDED.company, position = EXCLUDED.position,
			end_date = EXCLUDED.end_date, is_current = EXCLUDED.is_current,
			challenges = EXCLUDED.challenges, achievements = EXCLUDED.achievements,
			technologies = EXCLUDED.technologies, projects = EXCLUDED.projects, updated_at = NOW()
		 RETURNING `+experienceColumns,
		append([]any{userID}, args...)...,
	))
	if err != nil {
		return types.ExperienceEntry{}, fmt.Errorf("failed to create experience: %w", err)
	}
	return out, nil
}

// UpdateExperience replaces the experience with id.
func (db *DB) UpdateExperience(ctx context.Context, id uuid.UUID, e types.ExperienceEntry) (types.ExperienceEntry, error) {
	args, err := experienceArgs(e)
	if err != nil {
		return types.ExperienceEntry{}, fmt.Errorf("failed to encode experience: %w", err)
	}
	out, err := scanExperience(db.pool.QueryRow(ctx,
		`UPDATE profile_experiences
		 SET company = $2, company_key = $3, position = $4, position_key = $5,
			start_date = $6, end_date = $7, is_current = $8, challenges = $9,
			achievements = $10, technologies = $11, projects = $12, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+experienceColumns,
		append([]any{id}, args...)...,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return types.ExperienceEntry{}, fmt.Errorf("experience %s: %w", id, ErrNotFound)
	case isUniqueViolation(err):
		return types.ExperienceEntry{}, fmt.Errorf("experience %q: %w", e.Label(), ErrConflict)
	case err != nil:
		return types.ExperienceEntry{}, fmt.Errorf("failed to update experience: %w", err)
	}
	return out, nil
}

// DeleteExperience removes the experience with id.
func (db *DB) DeleteExperience(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM profile_experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("experience %s: %w", id, ErrNotFound)
	}
	return nil
}
