package dupcheck

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrDuplicate = errors.New("duplicate key")
	ErrEmptyKey  = errors.New("key is required")
)

// Entry is an already-known business key and the id of the record holding it.
type Entry struct {
	Key string
	ID  string
}

// NormalizeKey trims, NFC-normalizes and case-folds a business key.
func NormalizeKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// IsDuplicate reports whether candidate matches any entry other than excludeID.
func IsDuplicate(candidate string, existing []Entry, excludeID string) bool {
	want := NormalizeKey(candidate)
	if want == "" {
		return false
	}
	for _, e := range existing {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if NormalizeKey(e.Key) == want {
			return true
		}
	}
	return false
}

// Querier re-checks a key against the server right before a write.
type Querier interface {
	KeyExists(ctx context.Context, tenantID, candidate, excludeID string) (bool, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context, tenantID, candidate, excludeID string) (bool, error)

func (f QuerierFunc) KeyExists(ctx context.Context, tenantID, candidate, excludeID string) (bool, error) {
	return f(ctx, tenantID, candidate, excludeID)
}

// Checker runs the two-phase check: the in-memory list first, then the server
// query. A server error is logged and the in-memory answer stands; a server
// hit always blocks.
type Checker struct {
	query  Querier
	logger *slog.Logger
}

func NewChecker(q Querier, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{query: q, logger: logger}
}

func (c *Checker) Check(ctx context.Context, tenantID, candidate string, existing []Entry, excludeID string) error {
	if NormalizeKey(candidate) == "" {
		return ErrEmptyKey
	}
	if IsDuplicate(candidate, existing, excludeID) {
		return ErrDuplicate
	}
	if c.query == nil {
		return nil
	}
	found, err := c.query.KeyExists(ctx, tenantID, candidate, excludeID)
	if err != nil {
		c.logger.Warn("server duplicate check failed; using in-memory result",
			slog.String("tenant", tenantID), slog.String("key", candidate), slog.Any("err", err))
		return nil
	}
	if found {
		return ErrDuplicate
	}
	return nil
}
