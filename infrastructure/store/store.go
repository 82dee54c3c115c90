package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	ErrTenantRequired = errors.New("tenant id is required")
	ErrTenantInvalid  = errors.New("tenant id must not contain /")
	ErrSlotRequired   = errors.New("slot key is required")
	ErrInvalidData    = errors.New("slot data must be valid json")
)

var emptySlot = []byte("[]")

// Backend is the durable, tenant-shared document store.
type Backend interface {
	GetSlot(ctx context.Context, tenantID, slotKey string) ([]byte, bool, error)
	PutSlot(ctx context.Context, tenantID, slotKey string, data []byte) error
}

// LocalCache is the per-process string cache the store falls back to.
type LocalCache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	RemovePrefix(prefix string) error
}

// Store reads and writes named slots for a tenant. Durable failures never reach
// the caller: reads fall back to the local cache and writes succeed as long as
// the local cache accepted them. Callers cannot tell a durable save from a
// cache-only save.
type Store struct {
	backend Backend
	local   LocalCache
	logger  *slog.Logger
}

func New(backend Backend, local LocalCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, local: local, logger: logger}
}

// Read returns the slot's JSON blob. Absence everywhere yields an empty array.
func (s *Store) Read(ctx context.Context, tenantID, slotKey string) ([]byte, error) {
	if err := validate(tenantID, slotKey); err != nil {
		return nil, err
	}

	data, found, err := s.backend.GetSlot(ctx, tenantID, slotKey)
	switch {
	case err != nil:
		s.logger.Warn("durable read failed; using local cache",
			slog.String("tenant", tenantID), slog.String("slot", slotKey), slog.Any("err", err))
	case found:
		if cacheErr := s.local.Set(cacheKey(tenantID, slotKey), string(data)); cacheErr != nil {
			s.logger.Warn("refresh local cache failed",
				slog.String("tenant", tenantID), slog.String("slot", slotKey), slog.Any("err", cacheErr))
		}
		return data, nil
	}

	cached, ok, cacheErr := s.local.Get(cacheKey(tenantID, slotKey))
	if cacheErr != nil {
		s.logger.Warn("local cache read failed",
			slog.String("tenant", tenantID), slog.String("slot", slotKey), slog.Any("err", cacheErr))
		return copyEmpty(), nil
	}
	if !ok {
		return copyEmpty(), nil
	}
	return []byte(cached), nil
}

// Write stores data locally, then durably. It fails only when neither copy
// could be written.
func (s *Store) Write(ctx context.Context, tenantID, slotKey string, data []byte) error {
	if err := validate(tenantID, slotKey); err != nil {
		return err
	}
	if !json.Valid(data) {
		return ErrInvalidData
	}

	localErr := s.local.Set(cacheKey(tenantID, slotKey), string(data))
	if localErr != nil {
		s.logger.Warn("local cache write failed",
			slog.String("tenant", tenantID), slog.String("slot", slotKey), slog.Any("err", localErr))
	}

	durableErr := s.backend.PutSlot(ctx, tenantID, slotKey, data)
	if durableErr != nil {
		s.logger.Warn("durable write failed; kept local copy only",
			slog.String("tenant", tenantID), slog.String("slot", slotKey), slog.Any("err", durableErr))
	}

	if localErr != nil && durableErr != nil {
		return fmt.Errorf("write slot %s: %w", slotKey, errors.Join(localErr, durableErr))
	}
	return nil
}

// Clear drops every locally cached slot for tenantID.
func (s *Store) Clear(tenantID string) error {
	if err := validTenant(tenantID); err != nil {
		return err
	}
	return s.local.RemovePrefix(tenantPrefix(tenantID))
}

func validate(tenantID, slotKey string) error {
	if err := validTenant(tenantID); err != nil {
		return err
	}
	if strings.TrimSpace(slotKey) == "" {
		return ErrSlotRequired
	}
	return nil
}

// validTenant keeps one tenant's cache prefix from covering another's.
func validTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ErrTenantRequired
	}
	if strings.Contains(tenantID, "/") {
		return ErrTenantInvalid
	}
	return nil
}

func tenantPrefix(tenantID string) string {
	return "tenant/" + tenantID + "/"
}

func cacheKey(tenantID, slotKey string) string {
	return tenantPrefix(tenantID) + slotKey
}

func copyEmpty() []byte {
	return append([]byte(nil), emptySlot...)
}
