// Package dismissed remembers issues the user chose to hide. A dismissed
// issue reappears once it has activity newer than the dismissal.
package dismissed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/firstissue/internal/log"
)

// Entry records the issue's last activity at the time it was dismissed.
type Entry struct {
	UpdatedAt   time.Time `json:"updatedAt"`
	DismissedAt time.Time `json:"dismissedAt"`
}

// Store persists dismissed issue keys (owner/name#number) as JSON.
type Store struct {
	path    string
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewStore opens the store under the user cache directory.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(filepath.Join(cacheDir, "firstissue", "dismissed.json"))
}

// NewStoreAt opens the store backed by path.
func NewStoreAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s := &Store{path: path, entries: make(map[string]Entry)}
	if err := s.load(); err != nil {
		log.Debug("could not load dismissed store, starting fresh", "error", err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if entries != nil {
		s.entries = entries
	}
	return nil
}

// save writes the entries; callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Dismiss hides the issue until it is updated after updatedAt.
func (s *Store) Dismiss(key string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{UpdatedAt: updatedAt, DismissedAt: time.Now()}
	return s.save()
}

// Restore un-hides an issue.
func (s *Store) Restore(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return s.save()
}

// Reset forgets every dismissal.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return s.save()
}

// ShouldShow returns true if the issue is not dismissed or has new activity.
func (s *Store) ShouldShow(key string, updatedAt time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return true
	}
	return updatedAt.After(entry.UpdatedAt)
}

// Count returns the number of dismissed issues.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
