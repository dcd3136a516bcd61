package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/observability"
	"github.com/jonathan/profile-wizard/internal/persistence"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		file   string
	)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the saved wizard draft of a user",
		Long: `Load the persisted snapshot of a user from the configured backend, validate it and print a summary.
With --file, read a snapshot file directly instead (e.g. one copied out of a file backend).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				snap, err := persistence.InspectFile(file)
				if err != nil {
					return fmt.Errorf("failed to inspect %s: %w", file, err)
				}
				return printSnapshot(cmd, snap, asJSON)
			}
			return runInspect(cmd, a, asJSON)
		},
	}

	inspectCmd.Flags().String("user", "", "User UUID whose draft to load")
	inspectCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot as JSON")
	inspectCmd.Flags().StringVar(&file, "file", "", "Snapshot file to read instead of the configured backend")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, a *app, asJSON bool) error {
	if a.cfg.Session.UserID == "" {
		return fmt.Errorf("--user is required")
	}
	userID, err := uuid.Parse(a.cfg.Session.UserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", a.cfg.Session.UserID, err)
	}

	ctx := cmd.Context()
	store, release, err := openSnapshotStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer release()

	key := types.SnapshotKey(types.Identity{UserID: userID})
	a.logger.Debug("loading snapshot", zap.String("backend", a.cfg.Snapshot.Backend), zap.String("key", key))

	snap, err := persistence.Inspect(ctx, store, key)
	if errors.Is(err, persistence.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "No draft saved for user %s\n", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	return printSnapshot(cmd, snap, asJSON)
}

func printSnapshot(cmd *cobra.Command, snap types.PersistedSnapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSnapshot(snap, time.Now())
	return nil
}
