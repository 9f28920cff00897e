// Package ghclient is the GitHub REST retrieval client. Each exported method
// issues exactly one HTTP request and returns domain types.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/query"
)

// Client wraps the GitHub API client.
type Client struct {
	client    *gh.Client
	rateLimit *RateLimitState
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL   string
	transport http.RoundTripper
}

// WithBaseURL points the client at a different API root, such as a test
// server or GitHub Enterprise.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) {
		c.baseURL = u
	}
}

// WithTransport replaces the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// NewClient creates a client that reads its credential from source on every
// request. A nil source, or one returning "", sends unauthenticated requests.
func NewClient(source TokenSource, opts ...Option) (*Client, error) {
	cfg := &clientConfig{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(cfg)
	}

	state := NewRateLimitState()
	httpClient := &http.Client{
		Transport: &credentialTransport{
			source: source,
			base:   &rateLimitTransport{base: cfg.transport, state: state},
		},
	}

	client := gh.NewClient(httpClient)
	if cfg.baseURL != "" {
		base := cfg.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.baseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{client: client, rateLimit: state}, nil
}

// RateLimitState exposes the rate limit observed on the last response.
func (c *Client) RateLimitState() *RateLimitState {
	return c.rateLimit
}

// AuthenticatedUser returns the login of the credential's owner (GET /user).
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	log.Debug("GET /user")
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", normalize("get authenticated user", err)
	}
	return user.GetLogin(), nil
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (model.RepositoryRef, error) {
	log.Debug("GET repository", "repo", owner+"/"+name)
	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return model.RepositoryRef{}, normalize("get repository "+owner+"/"+name, err)
	}
	return repoFromGitHub(repo), nil
}

// IssueListOptions configures ListRepoIssues.
type IssueListOptions struct {
	// State is open, closed or all. Defaults to open.
	State string
	// Sort is created, updated or comments. Defaults to updated.
	Sort string
	// Limit is the page size, at most 100.
	Limit int
}

// ListRepoIssues lists a repository's issues, newest activity first. Pull
// requests returned by the endpoint are dropped.
func (c *Client) ListRepoIssues(ctx context.Context, owner, name string, opts IssueListOptions) ([]model.RawIssue, error) {
	if opts.State == "" {
		opts.State = constants.StateOpen
	}
	if opts.Sort == "" {
		opts.Sort = "updated"
	}
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 100
	}

	log.Debug("GET repository issues", "repo", owner+"/"+name, "per_page", opts.Limit)
	issues, _, err := c.client.Issues.ListByRepo(ctx, owner, name, &gh.IssueListByRepoOptions{
		State:       opts.State,
		Sort:        opts.Sort,
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: opts.Limit},
	})
	if err != nil {
		return nil, normalize("list issues for "+owner+"/"+name, err)
	}

	out := make([]model.RawIssue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		out = append(out, issueFromGitHub(issue))
	}
	return out, nil
}

// SearchRepositories runs a repository search ordered descending by sort
// (stars, updated or forks). At most 50 results are requested.
func (c *Client) SearchRepositories(ctx context.Context, q, sort string, limit int) ([]model.RepositoryRef, error) {
	if limit <= 0 || limit > constants.RepoSearchPageSize {
		limit = constants.RepoSearchPageSize
	}

	log.Debug("GET /search/repositories", "sort", sort, "per_page", limit)
	log.Trace("repository query", "q", q)
	result, _, err := c.client.Search.Repositories(ctx, q, &gh.SearchOptions{
		Sort:        sort,
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, normalize("search repositories", err)
	}
	return reposFromGitHub(result.Repositories, limit), nil
}

// SearchIssues runs an issue search. A full page of 100 raw results is
// requested and trimmed to limit (default 50). The stars sort intent is
// sent as reactions.
func (c *Client) SearchIssues(ctx context.Context, q string, sort model.SortKey, limit int) ([]model.RawIssue, error) {
	if limit <= 0 || limit > constants.IssueSearchPageSize {
		limit = constants.IssueResultLimit
	}

	opts := &gh.SearchOptions{
		Sort:        query.SearchSortKey(sort),
		ListOptions: gh.ListOptions{PerPage: constants.IssueSearchPageSize},
	}
	if opts.Sort != "" {
		opts.Order = "desc"
	}

	log.Debug("GET /search/issues", "sort", opts.Sort, "limit", limit)
	log.Trace("issue query", "q", q)
	result, _, err := c.client.Search.Issues(ctx, q, opts)
	if err != nil {
		return nil, normalize("search issues", err)
	}

	out := make([]model.RawIssue, 0, min(len(result.Issues), limit))
	for _, issue := range result.Issues {
		if len(out) >= limit {
			break
		}
		out = append(out, issueFromGitHub(issue))
	}
	return out, nil
}

// ListUserRepos lists repositories of user, or of the authenticated user
// when user is empty, most recently updated first.
func (c *Client) ListUserRepos(ctx context.Context, user string, limit int) ([]model.RepositoryRef, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	path := fmt.Sprintf("user/repos?sort=updated&direction=desc&per_page=%d", limit)
	if user != "" {
		path = fmt.Sprintf("users/%s/repos?sort=updated&direction=desc&per_page=%d", url.PathEscape(user), limit)
	}

	log.Debug("GET "+path)
	req, err := c.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, normalize("list repositories", err)
	}
	var repos []*gh.Repository
	if _, err := c.client.Do(ctx, req, &repos); err != nil {
		return nil, normalize("list repositories", err)
	}
	return reposFromGitHub(repos, limit), nil
}

// RateLimits fetches the current rate limit status from the API.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, normalize("get rate limits", err)
	}
	return limits, nil
}
