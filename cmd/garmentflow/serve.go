package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"garmentflow/frontend/designs"
	"garmentflow/frontend/orders"
	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/blob"
	"garmentflow/infrastructure/cache"
	"garmentflow/infrastructure/challan"
	"garmentflow/infrastructure/config"
	"garmentflow/infrastructure/counter"
	httpserver "garmentflow/infrastructure/http"
	"garmentflow/infrastructure/localcache"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/ratelimit"
	"garmentflow/infrastructure/rbac"
	"garmentflow/infrastructure/rowset"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/infrastructure/store"
	"garmentflow/infrastructure/workflow"
)

// NewServeCommand runs the web server until interrupted.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg.SQLitePath, opts.MigrationsDir)
	if err != nil {
		return err
	}
	defer db.Close()

	local, err := localcache.Open(cfg.LocalCacheDir)
	if err != nil {
		return err
	}
	defer local.Close()

	deps, err := buildDeps(cfg, db, local)
	if err != nil {
		return err
	}
	server := httpserver.NewServer(cfg.Addr, deps)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	slog.Info("garmentflow listening", slog.String("addr", cfg.Addr), slog.String("db", cfg.SQLitePath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", slog.Any("err", err))
	}
	return nil
}

// buildDeps wires the services the server routes to.
func buildDeps(cfg *config.Config, db *sqlite.DB, local *localcache.Cache) (httpserver.Deps, error) {
	logger := slog.Default()
	registry := pipeline.Default()

	st := store.New(store.NewSQLiteBackend(db), local, logger)
	rows := rowset.NewStoreRepository(st)
	wf := workflow.NewService(rows, registry)
	blobs := blob.New(db, cfg.PublicBaseURL)

	limit, err := ratelimit.New(cfg.LoginRate)
	if err != nil {
		return httpserver.Deps{}, err
	}

	rbacCache := cache.NewRbacRolesCache()
	return httpserver.Deps{
		DB:           db,
		SessionCache: cache.NewUserSessionCache(),
		RbacCache:    rbacCache,
		Rbac:         rbac.New(rbacCache),
		Store:        st,
		Approvals:    approval.NewService(db),
		Workflow:     wf,
		Challan:      challan.NewBuilder(rows, registry, counter.New(st, counter.NewMemory()), cfg.ChallanDir, cfg.ChallanFallbackDir, logger),
		Blobs:        blobs,
		Designs:      designs.NewService(db, blobs, designs.NewHub(), logger),
		Orders:       orders.NewService(db, wf),
		LoginLimiter: limit,
		SessionTTL:   cfg.SessionTTL,
	}, nil
}
