package main

import (
	"context"
	"fmt"

	"github.com/jonathan/profile-wizard/internal/config"
	"github.com/jonathan/profile-wizard/internal/db"
	"github.com/jonathan/profile-wizard/internal/persistence"
)

// openSnapshotStore opens the configured snapshot backend. The returned
// function releases it.
func openSnapshotStore(ctx context.Context, cfg *config.Config) (persistence.Store, func(), error) {
	noop := func() {}

	switch cfg.Snapshot.Backend {
	case config.BackendFile:
		store, err := persistence.NewFileStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.BackendSQLite:
		store, err := persistence.NewSQLiteStore(cfg.Snapshot.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendRedis:
		client := persistence.DialRedis(cfg.Redis.Addrs, cfg.Redis.Password)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store := persistence.NewRedisStore(client, cfg.Snapshot.RedisNamespace, cfg.Snapshot.RedisTTL)
		return store, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return database.Snapshots(), database.Close, nil

	case config.BackendMemory:
		return persistence.NewMemoryStore(), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
}
