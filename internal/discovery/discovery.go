// Package discovery finds beginner-friendly issues, either with a single
// issue search or with a two-stage "popular repositories, then their recent
// issues" strategy.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/query"
	"github.com/spiffcs/firstissue/internal/rank"
)

// Searcher is the subset of the retrieval client discovery needs.
type Searcher interface {
	SearchRepositories(ctx context.Context, q, sort string, limit int) ([]model.RepositoryRef, error)
	SearchIssues(ctx context.Context, q string, sort model.SortKey, limit int) ([]model.RawIssue, error)
}

// Strategy records how a result was produced.
type Strategy string

const (
	StrategySingle   Strategy = "single-stage"
	StrategyHybrid   Strategy = "two-stage"
	StrategyFallback Strategy = "fallback"
)

// Stage names a retrieval step for progress reporting.
type Stage string

const (
	StageCandidates   Stage = "candidates"
	StageScopedIssues Stage = "scoped-issues"
	StageIssues       Stage = "issues"
	StageRepositories Stage = "repositories"
)

// Observer receives stage start and finish notifications.
type Observer interface {
	StageStarted(stage Stage)
	StageFinished(stage Stage, err error)
}

type nopObserver struct{}

func (nopObserver) StageStarted(Stage)        {}
func (nopObserver) StageFinished(Stage, error) {}

var (
	errNoCandidates = errors.New("no candidate repositories")
	errNoIssues     = errors.New("no issues in candidate repositories")
)

// Result is the outcome of a search. Hybrid results populate Scored and
// Candidates; single-stage and fallback results populate Issues.
type Result struct {
	Strategy   Strategy
	Issues     []model.RawIssue
	Scored     []model.ScoredIssue
	Candidates []model.RepositoryRef
}

// Len returns the number of issues in the result.
func (r Result) Len() int {
	if r.Strategy == StrategyHybrid {
		return len(r.Scored)
	}
	return len(r.Issues)
}

// Service runs searches. It holds no per-search state.
type Service struct {
	searcher Searcher
	observer Observer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports stage progress to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the time source used for scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(searcher Searcher, opts ...Option) *Service {
	s := &Service{searcher: searcher, observer: nopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsHybrid reports whether the filters select the two-stage strategy. Only
// the updated-then-stars combination does.
func IsHybrid(f query.Filters) bool {
	return f.Primary == model.SortUpdated && f.Secondary == model.SortStars
}

// Search finds issues for the filters. A failing two-stage search falls
// back to a single-stage search sorted by updated; only a failure of that
// search is returned.
func (s *Service) Search(ctx context.Context, f query.Filters) (Result, error) {
	if !IsHybrid(f) {
		issues, err := s.SingleStage(ctx, f)
		if err != nil {
			return Result{}, err
		}
		return Result{Strategy: StrategySingle, Issues: issues}, nil
	}

	result, err := s.twoStage(ctx, f)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	log.Warn("two-stage search failed, falling back to single-stage search", "error", err)

	issues, err := s.SingleStage(ctx, fallbackFilters(f))
	if err != nil {
		return Result{}, err
	}
	return Result{Strategy: StrategyFallback, Issues: issues}, nil
}

// SingleStage runs one issue search and orders the results client-side.
func (s *Service) SingleStage(ctx context.Context, f query.Filters) ([]model.RawIssue, error) {
	s.observer.StageStarted(StageIssues)
	issues, err := s.searcher.SearchIssues(ctx, query.IssueQuery(f), f.Primary, constants.IssueResultLimit)
	s.observer.StageFinished(StageIssues, err)
	if err != nil {
		return nil, fmt.Errorf("issue search failed: %w", err)
	}
	rank.SortIssues(issues, f.Primary, f.Secondary)
	return issues, nil
}

// DiscoverRepositories searches for beginner-friendly repositories.
func (s *Service) DiscoverRepositories(ctx context.Context, f query.Filters) ([]model.RepositoryRef, error) {
	sort := "stars"
	if f.Primary == model.SortUpdated {
		sort = "updated"
	}

	f.Scope = query.ScopeRepositories

	s.observer.StageStarted(StageRepositories)
	repos, err := s.searcher.SearchRepositories(ctx, query.Build(f), sort, constants.RepoSearchPageSize)
	s.observer.StageFinished(StageRepositories, err)
	if err != nil {
		return nil, fmt.Errorf("repository search failed: %w", err)
	}
	return repos, nil
}

func (s *Service) twoStage(ctx context.Context, f query.Filters) (Result, error) {
	s.observer.StageStarted(StageCandidates)
	candidates, err := s.searcher.SearchRepositories(ctx,
		query.RepositoryQuery(f.Language, constants.CandidateMinStars), "stars", constants.CandidateRepoLimit)
	if err == nil && len(candidates) == 0 {
		err = errNoCandidates
	}
	s.observer.StageFinished(StageCandidates, err)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) > constants.ScopedRepoLimit {
		candidates = candidates[:constants.ScopedRepoLimit]
	}
	log.Info("found candidate repositories", "count", len(candidates))

	names := make([]string, 0, len(candidates))
	byName := make(map[string]model.RepositoryRef, len(candidates))
	for _, r := range candidates {
		names = append(names, r.FullName)
		byName[r.FullName] = r
	}

	s.observer.StageStarted(StageScopedIssues)
	issues, err := s.searcher.SearchIssues(ctx,
		query.ScopedIssueQuery(names, f.EffectiveLabel()), model.SortUpdated, constants.IssueResultLimit)
	if err == nil && len(issues) == 0 {
		err = errNoIssues
	}
	s.observer.StageFinished(StageScopedIssues, err)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	scored := make([]model.ScoredIssue, 0, len(issues))
	for _, issue := range issues {
		scored = append(scored, rank.Score(issue, joinRepository(issue, byName), now))
	}
	rank.SortByScore(scored)

	return Result{Strategy: StrategyHybrid, Scored: scored, Candidates: candidates}, nil
}

// joinRepository finds the candidate an issue belongs to. Issues whose
// back-reference is malformed or names a repository outside the candidate
// set get a zero-star placeholder.
func joinRepository(issue model.RawIssue, byName map[string]model.RepositoryRef) model.RepositoryRef {
	name := issue.RepoFullName()
	if repo, ok := byName[name]; ok {
		return repo
	}
	return model.RepositoryFromFullName(name)
}

func fallbackFilters(f query.Filters) query.Filters {
	f.Primary = model.SortUpdated
	f.Secondary = model.SortNone
	return f
}
