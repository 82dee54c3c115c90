package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

// SQLiteBackend keeps slot documents in the slot_documents table. Each write
// replaces the whole document; the last writer wins.
type SQLiteBackend struct {
	db *sqlite.DB
}

func NewSQLiteBackend(db *sqlite.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) GetSlot(ctx context.Context, tenantID, slotKey string) ([]byte, bool, error) {
	var doc models.SlotDocument
	err := b.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&doc).
			Where("tenant_id = ?", tenantID).
			Where("slot_key = ?", slotKey).
			Limit(1).
			Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(doc.Data), true, nil
}

func (b *SQLiteBackend) PutSlot(ctx context.Context, tenantID, slotKey string, data []byte) error {
	now := time.Now().UTC()
	return b.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO slot_documents (tenant_id, slot_key, data, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(tenant_id, slot_key) DO UPDATE SET
  data = excluded.data,
  updated_at = excluded.updated_at`, tenantID, slotKey, string(data), now)
		return err
	})
}
