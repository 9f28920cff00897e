// Package cache provides a file-backed TTL cache for GitHub API responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
)

// Cacher defines the interface for caching operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	GetIssueSearch(query, sort string, limit int) ([]model.RawIssue, bool)
	SetIssueSearch(query, sort string, limit int, issues []model.RawIssue) error

	GetRepoSearch(query, sort string, limit int) ([]model.RepositoryRef, bool)
	SetRepoSearch(query, sort string, limit int, repos []model.RepositoryRef) error

	GetRepository(fullName string) (model.RepositoryRef, bool)
	SetRepository(repo model.RepositoryRef) error

	Clear() error
	DetailedStats() (*Stats, error)
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Cache stores API responses as JSON files, one per key.
type Cache struct {
	dir string
	now func() time.Time
}

// NewCache creates a cache under the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewCacheAt(filepath.Join(cacheDir, "firstissue"))
}

// NewCacheAt creates a cache rooted at dir.
func NewCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// GetIssueSearch returns cached issue search results.
func (c *Cache) GetIssueSearch(query, sort string, limit int) ([]model.RawIssue, bool) {
	entry, ok := c.read(KindIssueSearch, searchKey(query, sort, limit))
	if !ok {
		return nil, false
	}
	return entry.Issues, true
}

// SetIssueSearch caches issue search results.
func (c *Cache) SetIssueSearch(query, sort string, limit int, issues []model.RawIssue) error {
	return c.write(&Entry{Kind: KindIssueSearch, Key: searchKey(query, sort, limit), Issues: issues})
}

// GetRepoSearch returns cached repository search results.
func (c *Cache) GetRepoSearch(query, sort string, limit int) ([]model.RepositoryRef, bool) {
	entry, ok := c.read(KindRepoSearch, searchKey(query, sort, limit))
	if !ok {
		return nil, false
	}
	return entry.Repos, true
}

// SetRepoSearch caches repository search results.
func (c *Cache) SetRepoSearch(query, sort string, limit int, repos []model.RepositoryRef) error {
	return c.write(&Entry{Kind: KindRepoSearch, Key: searchKey(query, sort, limit), Repos: repos})
}

// GetRepository returns a cached repository lookup.
func (c *Cache) GetRepository(fullName string) (model.RepositoryRef, bool) {
	entry, ok := c.read(KindRepository, strings.ToLower(fullName))
	if !ok || entry.Repository == nil {
		return model.RepositoryRef{}, false
	}
	return *entry.Repository, true
}

// SetRepository caches a repository lookup.
func (c *Cache) SetRepository(repo model.RepositoryRef) error {
	if repo.FullName == "" {
		return nil
	}
	return c.write(&Entry{Kind: KindRepository, Key: strings.ToLower(repo.FullName), Repository: &repo})
}

func (c *Cache) read(kind Kind, key string) (*Entry, bool) {
	name := fileName(kind, key)
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Debug("cache entry unreadable", "file", name, "error", err)
		return nil, false
	}
	if entry.Version != Version {
		log.Debug("cache version mismatch", "cached", entry.Version, "current", Version, "file", name)
		return nil, false
	}
	// Guard against hash collisions.
	if entry.Key != key {
		return nil, false
	}
	if c.now().Sub(entry.CachedAt) > kind.TTL() {
		return nil, false
	}

	log.Debug("cache hit", "kind", kind)
	return &entry, true
}

func (c *Cache) write(entry *Entry) error {
	entry.CachedAt = c.now()
	entry.Version = Version

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, fileName(entry.Kind, entry.Key)), data, 0o600)
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !isEntryFile(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// isEntryFile reports whether name was written by the cache; other state
// kept in the same directory survives Clear.
func isEntryFile(name string) bool {
	for _, k := range AllKinds() {
		if strings.HasPrefix(name, string(k)+"_") && strings.HasSuffix(name, ".json") {
			return true
		}
	}
	return false
}

// DetailedStats returns cache statistics broken down by kind.
func (c *Cache) DetailedStats() (*Stats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Kinds: make(map[Kind]KindStat)}
	for _, k := range AllKinds() {
		stats.Kinds[k] = KindStat{}
	}

	now := c.now()
	for _, de := range entries {
		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		ks, known := stats.Kinds[entry.Kind]
		if !known {
			continue
		}
		ks.Total++
		if entry.Version == Version && now.Sub(entry.CachedAt) <= entry.Kind.TTL() {
			ks.Valid++
		}
		stats.Kinds[entry.Kind] = ks
	}
	return stats, nil
}

func searchKey(query, sort string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", query, sort, limit)
}

// fileName hashes the key so arbitrary query text is a safe file name.
func fileName(kind Kind, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s_%s.json", kind, hex.EncodeToString(sum[:8]))
}
