package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"garmentflow/infrastructure/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	MigrationsDir string
}

// NewRootCommand builds the CLI. With no subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "garmentflow",
		Short:        "Workshop production tracker",
		Long:         "Tracks party orders through jecard, cutting, bleach, print, finish, checking and delivery, and prints delivery challans.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.MigrationsDir, "migrations-dir", "", "apply SQL migrations from this directory instead of the built-in set")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedBossCommand(opts))
	return cmd
}

// loadConfig reads config and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg, nil
}
