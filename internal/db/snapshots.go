package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/profile-wizard/internal/persistence"
)

// SnapshotStore keeps wizard drafts in the wizard_snapshots table. It
// implements persistence.Store.
type SnapshotStore struct {
	db *DB
}

// Snapshots returns the draft store backed by this database.
func (db *DB) Snapshots() *SnapshotStore {
	return &SnapshotStore{db: db}
}

var _ persistence.Store = (*SnapshotStore)(nil)

// Save upserts the draft under key.
func (s *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO wizard_snapshots (key, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET payload = $2, updated_at = NOW()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns persistence.ErrNotFound when no draft exists.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT payload FROM wizard_snapshots WHERE key = $1`, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the draft under key.
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.pool.Exec(ctx, `DELETE FROM wizard_snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
