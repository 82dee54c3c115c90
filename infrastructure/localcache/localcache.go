package localcache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Cache is the device-local string key/value store. Values are JSON encoded by
// callers; the cache never interprets them.
type Cache struct {
	db *badger.DB
}

// Open opens a badger store at dir. An empty dir keeps everything in memory.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the value for key and whether it was present.
func (c *Cache) Get(key string) (string, bool, error) {
	var value string
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("local cache get %s: %w", key, err)
	}
	return value, found, nil
}

// Set stores value under key.
func (c *Cache) Set(key, value string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("local cache set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (c *Cache) Remove(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("local cache remove %s: %w", key, err)
	}
	return nil
}

// RemovePrefix deletes every key starting with prefix.
func (c *Cache) RemovePrefix(prefix string) error {
	keys := make([][]byte, 0)
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("local cache scan %s: %w", prefix, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("local cache remove prefix %s: %w", prefix, err)
	}
	return nil
}

// Close flushes and closes the store.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
