package provider

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Cache is a flat on-disk response cache, one directory per provider.
// Entries are addressed by exact key match only and are never pruned.
type Cache struct {
	dir string
}

// NewCache creates (if needed) and opens the cache directory.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Get loads the JSON entry under key into out. A miss or an unreadable
// entry both report false.
func (c *Cache) Get(key string, out any) bool {
	data, err := os.ReadFile(filepath.Join(c.dir, key+".json"))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("discarding corrupt cache entry", "key", key, "err", err)
		return false
	}
	return true
}

// Put stores v as a JSON entry under key.
func (c *Cache) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, key+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// GetBytes loads a raw entry, used for rendered map images.
func (c *Cache) GetBytes(key string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// PutBytes stores a raw entry under key.
func (c *Cache) PutBytes(key string, data []byte) error {
	if err := os.WriteFile(filepath.Join(c.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}
