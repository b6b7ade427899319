// Package pricecache persists the most recent successfully fetched deck
// price snapshot on the client side, so repeat visits skip a live refetch
// and staleness can be shown. Caching is best-effort and never
// load-bearing: every failure degrades to "no cache".
package pricecache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the environment-provided key-value capability the cache writes
// through: persistent local storage in a desktop context, a plain
// in-memory map elsewhere. Implementations are selected by the composition
// root, never sniffed at runtime inside the cache logic.
type Store interface {
	// Get returns the stored value for key, and whether it exists.
	Get(key string) (string, bool)

	// Set stores value under key. An error signals quota or availability
	// problems; callers treat it as a failed best-effort write.
	Set(key, value string) error

	// Delete removes key. Missing keys are not an error.
	Delete(key string)

	// Keys lists every stored key.
	Keys() []string
}

// FileStore keeps one file per key under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key))
}

// Get reads a key's value from disk.
func (s *FileStore) Get(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes a key's value to disk.
func (s *FileStore) Set(key, value string) error {
	if err := os.WriteFile(s.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a key from disk.
func (s *FileStore) Delete(key string) {
	_ = os.Remove(s.path(key))
}

// Keys lists every stored key.
func (s *FileStore) Keys() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// MemoryStore is an in-memory Store for contexts without persistent
// storage and for tests.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-memory store. Entries never expire; the
// staleness policy lives in the Cache, not the store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the stored value for key.
func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.c.Set(key, value, gocache.NoExpiration)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.c.Delete(key)
}

// Keys lists every stored key.
func (s *MemoryStore) Keys() []string {
	items := s.c.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

// hasPrefix reports whether key belongs to this cache's namespace.
func hasPrefix(key, prefix string) bool {
	return strings.HasPrefix(key, prefix)
}
