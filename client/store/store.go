// Package store is a small durable key-value store backed by JSON files,
// the client-side analogue of browser local storage. It holds the cached
// location, the search radius, the auth token and the session snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Well-known keys.
const (
	KeyUserLocation      = "userLocation"
	KeyLocationTimestamp = "locationTimestamp"
	KeySearchRadius      = "searchRadius"
	KeyToken             = "token"
	KeyUser              = "user"
)

// Store persists values as one JSON file per key under a directory.
// It is safe for concurrent use within a process; it makes no attempt to
// coordinate between processes racing on the same directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates the backing directory if needed and returns a store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	// Keys are fixed identifiers, but keep path traversal impossible.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Get reads the value stored under key into v. It returns false when the
// key is absent or unreadable.
func (s *Store) Get(key string, v interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// Set writes v under key.
func (s *Store) Set(key string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return os.WriteFile(s.path(key), data, 0o600)
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
