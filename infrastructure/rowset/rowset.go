package rowset

import (
	"context"
	"encoding/json"
	"fmt"
)

// KeySeparator joins the identity fields in KeyOf.
const KeySeparator = "|"

// KeyOf is the single row identity function: poNo and designNo joined by
// KeySeparator, compared byte for byte. Values containing the separator can
// collide ("1|A" + "B" vs "1" + "A|B"); this is known and left as is.
func KeyOf(w WorkItem) string {
	return string(w.PONo) + KeySeparator + string(w.DesignNo)
}

// Repository persists the ordered rows of one tenant slot. Every mutation is
// load-all, change in memory, replace-all, so concurrent writers to the same
// slot overwrite each other; the last write wins.
type Repository interface {
	Load(ctx context.Context, tenantID, slot string) ([]WorkItem, error)
	ReplaceAll(ctx context.Context, tenantID, slot string, rows []WorkItem) error
}

// SlotStore is the part of store.Store a StoreRepository needs.
type SlotStore interface {
	Read(ctx context.Context, tenantID, slotKey string) ([]byte, error)
	Write(ctx context.Context, tenantID, slotKey string, data []byte) error
}

// StoreRepository keeps each slot as a JSON array in a SlotStore.
type StoreRepository struct {
	store SlotStore
}

func NewStoreRepository(s SlotStore) *StoreRepository {
	return &StoreRepository{store: s}
}

func (r *StoreRepository) Load(ctx context.Context, tenantID, slot string) ([]WorkItem, error) {
	data, err := r.store.Read(ctx, tenantID, slot)
	if err != nil {
		return nil, fmt.Errorf("load rows %s: %w", slot, err)
	}
	rows := make([]WorkItem, 0)
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows %s: %w", slot, err)
	}
	if rows == nil {
		rows = make([]WorkItem, 0)
	}
	return rows, nil
}

func (r *StoreRepository) ReplaceAll(ctx context.Context, tenantID, slot string, rows []WorkItem) error {
	if rows == nil {
		rows = make([]WorkItem, 0)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows %s: %w", slot, err)
	}
	if err := r.store.Write(ctx, tenantID, slot, data); err != nil {
		return fmt.Errorf("replace rows %s: %w", slot, err)
	}
	return nil
}

// Find returns the index of the first row with key, or -1.
func Find(rows []WorkItem, key string) int {
	for i, row := range rows {
		if KeyOf(row) == key {
			return i
		}
	}
	return -1
}

// Remove returns rows without the first row matching key, plus that row.
func Remove(rows []WorkItem, key string) ([]WorkItem, WorkItem, bool) {
	i := Find(rows, key)
	if i < 0 {
		return rows, WorkItem{}, false
	}
	removed := rows[i]
	out := make([]WorkItem, 0, len(rows)-1)
	out = append(out, rows[:i]...)
	out = append(out, rows[i+1:]...)
	return out, removed, true
}

// Available keeps rows that have not yet gone into a challan.
func Available(rows []WorkItem) []WorkItem {
	out := make([]WorkItem, 0, len(rows))
	for _, row := range rows {
		if !row.PDFDownloaded {
			out = append(out, row)
		}
	}
	return out
}
