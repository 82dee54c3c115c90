// Package testutil opens throwaway databases and stores for package tests.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"garmentflow/infrastructure/localcache"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/infrastructure/store"
)

// ErrBackendDown is returned by FlakyBackend while it is failing.
var ErrBackendDown = errors.New("backend unavailable")

// OpenDB opens a migrated sqlite database in a temp dir.
func OpenDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

// OpenLocalCache opens an in-memory local cache.
func OpenLocalCache(t *testing.T) *localcache.Cache {
	t.Helper()
	c, err := localcache.Open("")
	if err != nil {
		t.Fatalf("open local cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// QuietLogger discards log output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env bundles a migrated database with a store wired over it.
type Env struct {
	DB      *sqlite.DB
	Local   *localcache.Cache
	Backend *FlakyBackend
	Store   *store.Store
}

// NewEnv wires a Store over a real sqlite backend wrapped in a FlakyBackend.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := OpenDB(t)
	local := OpenLocalCache(t)
	backend := &FlakyBackend{Inner: store.NewSQLiteBackend(db)}
	return &Env{
		DB:      db,
		Local:   local,
		Backend: backend,
		Store:   store.New(backend, local, QuietLogger()),
	}
}

// FlakyBackend forwards to Inner unless told to fail.
type FlakyBackend struct {
	Inner store.Backend

	mu        sync.Mutex
	failReads bool
	failWrite bool
	failAfter int
	writes    int
}

// FailReads toggles read failures.
func (b *FlakyBackend) FailReads(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failReads = v
}

// FailWrites toggles write failures.
func (b *FlakyBackend) FailWrites(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrite = v
}

// FailWritesAfter lets n more writes through, then fails every write.
func (b *FlakyBackend) FailWritesAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAfter = n
	b.writes = 0
	b.failWrite = false
}

func (b *FlakyBackend) GetSlot(ctx context.Context, tenantID, slotKey string) ([]byte, bool, error) {
	b.mu.Lock()
	fail := b.failReads
	b.mu.Unlock()
	if fail {
		return nil, false, ErrBackendDown
	}
	return b.Inner.GetSlot(ctx, tenantID, slotKey)
}

func (b *FlakyBackend) PutSlot(ctx context.Context, tenantID, slotKey string, data []byte) error {
	b.mu.Lock()
	fail := b.failWrite
	if b.failAfter > 0 {
		b.writes++
		if b.writes > b.failAfter {
			fail = true
		}
	}
	b.mu.Unlock()
	if fail {
		return ErrBackendDown
	}
	return b.Inner.PutSlot(ctx, tenantID, slotKey, data)
}
