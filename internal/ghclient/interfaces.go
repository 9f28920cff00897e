package ghclient

import (
	"context"

	"github.com/spiffcs/firstissue/internal/model"
)

// API is the set of retrieval operations the rest of the application uses.
// It enables mocking the platform in unit tests.
type API interface {
	AuthenticatedUser(ctx context.Context) (string, error)
	GetRepository(ctx context.Context, owner, name string) (model.RepositoryRef, error)
	ListRepoIssues(ctx context.Context, owner, name string, opts IssueListOptions) ([]model.RawIssue, error)
	SearchRepositories(ctx context.Context, q, sort string, limit int) ([]model.RepositoryRef, error)
	SearchIssues(ctx context.Context, q string, sort model.SortKey, limit int) ([]model.RawIssue, error)
	ListUserRepos(ctx context.Context, user string, limit int) ([]model.RepositoryRef, error)
}

// Ensure Client implements API.
var _ API = (*Client)(nil)
