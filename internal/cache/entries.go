package cache

import (
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/model"
)

// Version should be incremented when the entry format changes to
// invalidate old entries.
const Version = 1

// Kind identifies what an entry caches.
type Kind string

const (
	KindIssueSearch Kind = "issues"
	KindRepoSearch  Kind = "repos"
	KindRepository  Kind = "repo"
)

// AllKinds returns every entry kind.
func AllKinds() []Kind {
	return []Kind{KindIssueSearch, KindRepoSearch, KindRepository}
}

// TTL returns the maximum age of an entry of the given kind.
func (k Kind) TTL() time.Duration {
	if k == KindRepository {
		return constants.RepositoryCacheTTL
	}
	return constants.SearchCacheTTL
}

// Entry is the on-disk representation of one cached response.
type Entry struct {
	Kind       Kind                  `json:"kind"`
	Key        string                `json:"key"`
	Issues     []model.RawIssue      `json:"issues,omitempty"`
	Repos      []model.RepositoryRef `json:"repos,omitempty"`
	Repository *model.RepositoryRef  `json:"repository,omitempty"`
	CachedAt   time.Time             `json:"cachedAt"`
	Version    int                   `json:"version"`
}

// KindStat holds counts for one kind.
type KindStat struct {
	Total int
	Valid int
}

// Stats contains per-kind cache statistics.
type Stats struct {
	Kinds map[Kind]KindStat
}

// Totals sums the per-kind counts.
func (s *Stats) Totals() (total, valid int) {
	for _, ks := range s.Kinds {
		total += ks.Total
		valid += ks.Valid
	}
	return total, valid
}
