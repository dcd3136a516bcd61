package main

import (
	"fmt"

	"github.com/jonathan/profile-wizard/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the profile REST API server",
		Long:  `Start an HTTP server that stores skills and experiences in PostgreSQL for wizard sessions to sync against.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a)
		},
	}

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	serveCmd.Flags().Bool("migrate", false, "Create tables before serving")

	return serveCmd
}

func runServe(cmd *cobra.Command, a *app) error {
	if a.cfg.Database.URL == "" {
		return fmt.Errorf("database URL is required (--database-url or PROFILE_WIZARD_DATABASE_URL)")
	}

	srv, err := server.New(server.Config{
		Port:        a.cfg.Server.Port,
		DatabaseURL: a.cfg.Database.URL,
		Migrate:     a.cfg.Database.Migrate,
		RateLimit:   a.cfg.RateLimiter(),
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}
