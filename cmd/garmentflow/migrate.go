package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"garmentflow/infrastructure/sqlite"
)

// NewMigrateCommand applies pending migrations and exits.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.SQLitePath, rootOpts.MigrationsDir)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s\n", cfg.SQLitePath)
			return nil
		},
	}
}

func openDB(ctx context.Context, path, migrationsDir string) (*sqlite.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := sqlite.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}
