package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"garmentflow/frontend/login"
)

type seedBossOptions struct {
	Username string
	Company  string
	Password string
}

// NewSeedBossCommand creates or resets a boss account for a company.
func NewSeedBossCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedBossOptions{}
	cmd := &cobra.Command{
		Use:   "seed-boss",
		Short: "Create or reset a company boss account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			password := opts.Password
			if password == "" {
				password = cfg.BossPassword
			}
			db, err := openDB(cmd.Context(), cfg.SQLitePath, rootOpts.MigrationsDir)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := login.UpsertBoss(cmd.Context(), db, opts.Username, opts.Company, password); err != nil {
				return fmt.Errorf("seed boss: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded boss %s for company %s\n", opts.Username, opts.Company)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "boss", "boss username")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company id the boss owns")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (defaults to BOSS_PASSWORD)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
