// Package main provides the entry point for the profile wizard CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/profile-wizard/internal/config"
	"github.com/jonathan/profile-wizard/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"verbose":      "log.verbose",
	"port":         "server.port",
	"database-url": "database.url",
	"migrate":      "database.migrate",
	"user":         "session.user_id",
	"remote-url":   "session.remote_url",
	"seed":         "session.seed",
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "profile_wizard",
		Short: "Profile Wizard sync engine and REST service",
		Long: `Profile Wizard edits a structured profile through a multi-step wizard.
Drafts are saved locally after a quiet period, skills and experiences are
synced optimistically with the profile REST service, and progress is scored
as the profile fills in.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (json, toml or yaml)")
	flags.Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(a), newInspectCmd(a), newDemoCmd(a))
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.LoadConfig(a.v, a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Log.Verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
