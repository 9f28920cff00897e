// Package service composes the retrieval client with the response cache and
// the credential cache. It satisfies the narrower interfaces that discovery
// and aggregation depend on.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/spiffcs/firstissue/internal/cache"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
)

// Credentials is the credential in use. Invalidate drops a credential the
// platform rejected.
type Credentials interface {
	Token() string
	Invalidate() error
}

// ErrUnauthorized is returned when the platform rejected the credential.
// The credential has already been invalidated when this is returned.
var ErrUnauthorized = errors.New("credential rejected by GitHub; run `firstissue auth login`")

// Service is the cache-aware entry point for every GitHub operation.
type Service struct {
	api   ghclient.API
	cache cache.Cacher
	creds Credentials
}

// New creates a Service. A nil cache disables caching; nil credentials
// mean anonymous access and leave nothing to invalidate.
func New(api ghclient.API, c cache.Cacher, creds Credentials) *Service {
	return &Service{api: api, cache: c, creds: creds}
}

// CurrentUser verifies the credential by fetching the authenticated user.
func (s *Service) CurrentUser(ctx context.Context) (string, error) {
	login, err := s.api.AuthenticatedUser(ctx)
	return login, s.observe(err)
}

// Repository fetches a repository, consulting the cache first.
func (s *Service) Repository(ctx context.Context, owner, name string) (model.RepositoryRef, error) {
	full := owner + "/" + name
	if s.cache != nil {
		if repo, ok := s.cache.GetRepository(full); ok {
			return repo, nil
		}
	}

	repo, err := s.api.GetRepository(ctx, owner, name)
	if err != nil {
		return model.RepositoryRef{}, s.observe(err)
	}
	if s.cache != nil {
		if err := s.cache.SetRepository(repo); err != nil {
			log.Trace("cache write failed", "error", err)
		}
	}
	return repo, nil
}

// ListRepoIssues lists a repository's issues. Never cached so periodic
// refreshes see new activity.
func (s *Service) ListRepoIssues(ctx context.Context, owner, name string, opts ghclient.IssueListOptions) ([]model.RawIssue, error) {
	issues, err := s.api.ListRepoIssues(ctx, owner, name, opts)
	return issues, s.observe(err)
}

// SearchRepositories runs a cached repository search.
func (s *Service) SearchRepositories(ctx context.Context, q, sort string, limit int) ([]model.RepositoryRef, error) {
	key := s.scoped(q)
	if s.cache != nil {
		if repos, ok := s.cache.GetRepoSearch(key, sort, limit); ok {
			return repos, nil
		}
	}

	repos, err := s.api.SearchRepositories(ctx, q, sort, limit)
	if err != nil {
		return nil, s.observe(err)
	}
	if s.cache != nil {
		if err := s.cache.SetRepoSearch(key, sort, limit, repos); err != nil {
			log.Trace("cache write failed", "error", err)
		}
	}
	return repos, nil
}

// SearchIssues runs a cached issue search.
func (s *Service) SearchIssues(ctx context.Context, q string, sort model.SortKey, limit int) ([]model.RawIssue, error) {
	key := s.scoped(q)
	if s.cache != nil {
		if issues, ok := s.cache.GetIssueSearch(key, string(sort), limit); ok {
			return issues, nil
		}
	}

	issues, err := s.api.SearchIssues(ctx, q, sort, limit)
	if err != nil {
		return nil, s.observe(err)
	}
	if s.cache != nil {
		if err := s.cache.SetIssueSearch(key, string(sort), limit, issues); err != nil {
			log.Trace("cache write failed", "error", err)
		}
	}
	return issues, nil
}

// UserRepositories lists repositories owned by user, or by the
// authenticated user when user is empty.
func (s *Service) UserRepositories(ctx context.Context, user string, limit int) ([]model.RepositoryRef, error) {
	repos, err := s.api.ListUserRepos(ctx, user, limit)
	return repos, s.observe(err)
}

// observe invalidates the credential on any 401.
func (s *Service) observe(err error) error {
	if err == nil || !ghclient.IsUnauthorized(err) {
		return err
	}
	if s.creds != nil {
		if cerr := s.creds.Invalidate(); cerr != nil {
			log.Warn("failed to clear rejected credential", "error", cerr)
		}
	}
	return errors.Join(ErrUnauthorized, err)
}

// scoped prefixes a search query with a marker of the credential in use so
// results fetched with one token are never served under another.
func (s *Service) scoped(q string) string {
	token := ""
	if s.creds != nil {
		token = s.creds.Token()
	}
	if token == "" {
		return "anonymous " + q
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6]) + " " + q
}
