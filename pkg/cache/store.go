package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SchemaVersion is mixed into every Key. Bump it when cached values change shape
// so that stale entries stop matching.
const SchemaVersion = 1

// Key returns the content key for data: a hex SHA-256 over SchemaVersion and data.
func Key(data []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "mfproc/v%d\n", SchemaVersion)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Store is an LRU cache bound to a file. Open loads it, Flush writes it back.
type Store[V any] struct {
	*LRU[V]
	path  string
	dirty bool
}

// Open creates a store backed by path and loads whatever the file holds.
// A missing file yields an empty store; a corrupt one is discarded.
func Open[V any](path string, maxEntries int) (*Store[V], error) {
	s := &Store[V]{
		LRU:  New(Options[V]{MaxSize: maxEntries}),
		path: path,
	}
	if err := LoadFromFile(s.LRU, path); err != nil {
		s.LRU.Clear()
		s.dirty = true
		return s, fmt.Errorf("discarded cache %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store[V]) Path() string {
	return s.path
}

// Put stores value under key and marks the store for writing.
func (s *Store[V]) Put(key string, value V) {
	s.LRU.Set(key, value)
	s.dirty = true
}

// Flush writes the store to its file if anything changed since Open.
func (s *Store[V]) Flush() error {
	if !s.dirty {
		return nil
	}
	if err := PersistToFile(s.LRU, s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
