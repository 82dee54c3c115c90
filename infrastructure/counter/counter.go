package counter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Purposes.
const (
	Challan = "challan"
)

// SlotStore is the part of store.Store counters need.
type SlotStore interface {
	Read(ctx context.Context, tenantID, slotKey string) ([]byte, error)
	Write(ctx context.Context, tenantID, slotKey string, data []byte) error
}

// Memory remembers the last value this process issued per tenant and
// purpose. It keeps one process from handing out the same number twice; two
// processes can still collide because the stored value is read then written
// without compare-and-swap. Unique numbers across devices would need an atomic
// increment in the backend.
type Memory struct {
	mu     sync.Mutex
	issued map[string]int64
}

func NewMemory() *Memory {
	return &Memory{issued: make(map[string]int64)}
}

// reserve returns max(issued, stored)+1 and records it.
func (m *Memory) reserve(key string, stored int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := max(m.issued[key], stored) + 1
	m.issued[key] = next
	return next
}

// Last returns the last value issued for key.
func (m *Memory) last(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued[key]
}

// Counters hands out monotonic numbers per tenant and purpose.
type Counters struct {
	store  SlotStore
	memory *Memory
}

func New(s SlotStore, memory *Memory) *Counters {
	if memory == nil {
		memory = NewMemory()
	}
	return &Counters{store: s, memory: memory}
}

// Next increments and returns the counter.
func (c *Counters) Next(ctx context.Context, tenantID, purpose string) (int64, error) {
	stored, err := c.read(ctx, tenantID, purpose)
	if err != nil {
		return 0, err
	}
	next := c.memory.reserve(memoryKey(tenantID, purpose), stored)
	if err := c.store.Write(ctx, tenantID, slotKey(purpose), encodeStored(next)); err != nil {
		return 0, fmt.Errorf("write counter %s: %w", purpose, err)
	}
	return next, nil
}

// Current returns the highest value known, without incrementing.
func (c *Counters) Current(ctx context.Context, tenantID, purpose string) (int64, error) {
	stored, err := c.read(ctx, tenantID, purpose)
	if err != nil {
		return 0, err
	}
	return max(stored, c.memory.last(memoryKey(tenantID, purpose))), nil
}

func (c *Counters) read(ctx context.Context, tenantID, purpose string) (int64, error) {
	if strings.TrimSpace(purpose) == "" {
		return 0, fmt.Errorf("counter purpose is required")
	}
	data, err := c.store.Read(ctx, tenantID, slotKey(purpose))
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", purpose, err)
	}
	return parseStored(data), nil
}

// encodeStored keeps the counter as a one-element JSON array, the same shape
// as every other slot document.
func encodeStored(n int64) []byte {
	return []byte("[" + strconv.FormatInt(n, 10) + "]")
}

// parseStored reads "[n]". A bare or quoted number is accepted too; an empty
// slot ("[]") or anything unreadable counts as 0.
func parseStored(data []byte) int64 {
	data = bytes.TrimSpace(data)
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) == 0 {
			return 0
		}
		data = bytes.TrimSpace(arr[0])
	}
	n, err := strconv.ParseInt(strings.Trim(string(data), `"`), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func slotKey(purpose string) string {
	return "counter:" + purpose
}

func memoryKey(tenantID, purpose string) string {
	return tenantID + "/" + purpose
}
