// Package aggregate collects, classifies and filters issues across a set of
// monitored repositories, and keeps that view fresh on a timer.
package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/firstissue/internal/classify"
	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
)

// IssueLister is the subset of the retrieval client the engine needs.
type IssueLister interface {
	ListRepoIssues(ctx context.Context, owner, name string, opts ghclient.IssueListOptions) ([]model.RawIssue, error)
}

// ProgressFunc is called after each batch completes.
type ProgressFunc func(completedRepos, totalRepos int)

// Result is one aggregation cycle's output.
type Result struct {
	Issues       []model.ClassifiedIssue
	Failed       []string
	Repositories int
	RefreshedAt  time.Time
}

// Engine fetches repositories in fixed-size batches. Fetches within a batch
// run concurrently; batches run one after another.
type Engine struct {
	lister    IssueLister
	batchSize int
	perRepo   int
	progress  ProgressFunc
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithProgress registers a batch progress callback.
func WithProgress(fn ProgressFunc) EngineOption {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithEngineClock overrides the refresh timestamp source.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine.
func NewEngine(lister IssueLister, opts ...EngineOption) *Engine {
	e := &Engine{
		lister:    lister,
		batchSize: constants.AggregationBatchSize,
		perRepo:   constants.PerRepoIssueLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate fetches open issues of every repository, classifies them and
// keeps the wanted categories (all categories when wanted is empty). A
// repository that fails to load is logged and skipped; only cancellation of
// ctx fails the whole call.
func (e *Engine) Aggregate(ctx context.Context, repos []model.RepositoryRef, wanted []model.Category) (Result, error) {
	var (
		raw    []model.RawIssue
		failed []string
	)

	for start := 0; start < len(repos); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		end := min(start+e.batchSize, len(repos))
		issues, batchFailed := e.fetchBatch(ctx, repos[start:end])
		raw = append(raw, issues...)
		failed = append(failed, batchFailed...)

		log.Debug("aggregation batch complete", "repos", end, "total", len(repos))
		if e.progress != nil {
			e.progress(end, len(repos))
		}
	}

	classified := filterCategories(classify.AnnotateAll(raw), wanted)
	sort.SliceStable(classified, func(i, j int) bool {
		return classified[i].UpdatedAt.After(classified[j].UpdatedAt)
	})

	log.Info("aggregation complete", "repos", len(repos), "issues", len(classified), "failed", len(failed))
	return Result{
		Issues:       classified,
		Failed:       failed,
		Repositories: len(repos),
		RefreshedAt:  e.now(),
	}, nil
}

// fetchBatch fetches one batch concurrently and joins before returning.
// Results keep the batch order regardless of completion order.
func (e *Engine) fetchBatch(ctx context.Context, batch []model.RepositoryRef) ([]model.RawIssue, []string) {
	perRepo := make([][]model.RawIssue, len(batch))
	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range batch {
		g.Go(func() error {
			issues, err := e.lister.ListRepoIssues(gctx, repo.Owner(), repo.Name(), ghclient.IssueListOptions{
				State: constants.StateOpen,
				Sort:  "updated",
				Limit: e.perRepo,
			})
			if err != nil {
				log.Warn("failed to fetch repository issues", "repo", repo.FullName, "error", err)
				mu.Lock()
				failed = append(failed, repo.FullName)
				mu.Unlock()
				return nil
			}
			perRepo[i] = newestN(issues, e.perRepo)
			return nil
		})
	}
	_ = g.Wait()

	var out []model.RawIssue
	for _, issues := range perRepo {
		out = append(out, issues...)
	}
	sort.Strings(failed)
	return out, failed
}

// newestN returns the n most recently updated issues as fresh copies.
func newestN(issues []model.RawIssue, n int) []model.RawIssue {
	sorted := make([]model.RawIssue, 0, len(issues))
	for _, i := range issues {
		sorted = append(sorted, model.NewRawIssue(i))
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func filterCategories(issues []model.ClassifiedIssue, wanted []model.Category) []model.ClassifiedIssue {
	if len(wanted) == 0 {
		return issues
	}
	keep := make(map[model.Category]bool, len(wanted))
	for _, c := range wanted {
		keep[c] = true
	}
	out := make([]model.ClassifiedIssue, 0, len(issues))
	for _, i := range issues {
		if keep[i.Category] {
			out = append(out, i)
		}
	}
	return out
}

// DismissedChecker reports whether a dismissed issue should be shown again.
type DismissedChecker interface {
	ShouldShow(key string, updatedAt time.Time) bool
}

// FilterDismissed removes issues the user dismissed that have had no
// activity since.
func FilterDismissed(issues []model.ClassifiedIssue, d DismissedChecker) []model.ClassifiedIssue {
	if d == nil {
		return issues
	}
	out := make([]model.ClassifiedIssue, 0, len(issues))
	for _, i := range issues {
		if d.ShouldShow(i.Key(), i.UpdatedAt) {
			out = append(out, i)
		}
	}
	return out
}
