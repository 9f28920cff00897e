package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/model"
)

var base = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

type fakeLister struct {
	mu       sync.Mutex
	issues   map[string][]model.RawIssue
	failing  map[string]bool
	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
	events   []string
	opts     []ghclient.IssueListOptions
}

func (f *fakeLister) ListRepoIssues(_ context.Context, owner, name string, opts ghclient.IssueListOptions) ([]model.RawIssue, error) {
	full := owner + "/" + name
	n := f.inflight.Add(1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	f.record("start:" + full)
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.inflight.Add(-1)
	f.record("end:" + full)
	if f.failing[full] {
		return nil, errors.New("HTTP 500")
	}
	return f.issues[full], nil
}

func (f *fakeLister) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func repoIssue(repo string, n int, hoursAgo int, labels ...string) model.RawIssue {
	ls := make([]model.Label, 0, len(labels))
	for _, l := range labels {
		ls = append(ls, model.Label{Name: l})
	}
	return model.RawIssue{
		ID:            int64(n),
		Number:        n,
		Title:         fmt.Sprintf("issue %d", n),
		RepositoryURL: "https://api.github.com/repos/" + repo,
		UpdatedAt:     base.Add(-time.Duration(hoursAgo) * time.Hour),
		Labels:        ls,
	}
}

func refs(names ...string) []model.RepositoryRef {
	out := make([]model.RepositoryRef, 0, len(names))
	for _, n := range names {
		out = append(out, model.RepositoryRef{FullName: n})
	}
	return out
}

func keys(issues []model.ClassifiedIssue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Key())
	}
	return out
}

func TestAggregateSwallowsPerRepoFailures(t *testing.T) {
	lister := &fakeLister{
		issues: map[string][]model.RawIssue{
			"a/1": {repoIssue("a/1", 1, 1, "good first issue")},
			"a/2": {repoIssue("a/2", 2, 2, "good first issue")},
			"a/3": {repoIssue("a/3", 3, 3, "good first issue")},
			"a/4": {repoIssue("a/4", 4, 4, "good first issue")},
			"a/5": {repoIssue("a/5", 5, 5, "good first issue")},
		},
		failing: map[string]bool{"a/3": true},
	}

	res, err := NewEngine(lister).Aggregate(context.Background(), refs("a/1", "a/2", "a/3", "a/4", "a/5"), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/1#1", "a/2#2", "a/4#4", "a/5#5"}, keys(res.Issues))
	assert.Equal(t, []string{"a/3"}, res.Failed)
	assert.Equal(t, 5, res.Repositories)
}

func TestAggregateBatchesRunSequentially(t *testing.T) {
	lister := &fakeLister{issues: map[string][]model.RawIssue{}, delay: 20 * time.Millisecond}
	names := []string{"r/0", "r/1", "r/2", "r/3", "r/4", "r/5", "r/6"}

	var progress [][2]int
	engine := NewEngine(lister, WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))
	_, err := engine.Aggregate(context.Background(), refs(names...), nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, lister.maxSeen.Load(), int32(3))
	assert.Equal(t, [][2]int{{3, 7}, {6, 7}, {7, 7}}, progress)

	// every fetch of a batch starts after every fetch of the previous batch ended
	pos := map[string]int{}
	for i, e := range lister.events {
		pos[e] = i
	}
	for b := 1; b*3 < len(names); b++ {
		for _, cur := range names[b*3 : min(b*3+3, len(names))] {
			for _, prev := range names[(b-1)*3 : b*3] {
				assert.Greater(t, pos["start:"+cur], pos["end:"+prev], "%s started before %s finished", cur, prev)
			}
		}
	}
}

func TestAggregateCapsIssuesPerRepo(t *testing.T) {
	var many []model.RawIssue
	for i := 1; i <= 30; i++ {
		// issue i was updated i hours ago, so 1..20 are the newest
		many = append(many, repoIssue("big/repo", i, i))
	}
	lister := &fakeLister{issues: map[string][]model.RawIssue{"big/repo": many}}

	res, err := NewEngine(lister).Aggregate(context.Background(), refs("big/repo"), nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 20)
	assert.Equal(t, 1, res.Issues[0].Number)
	assert.Equal(t, 20, res.Issues[19].Number)
	assert.Equal(t, 20, lister.opts[0].Limit)
	assert.Equal(t, "open", lister.opts[0].State)
}

func TestAggregateFiltersCategories(t *testing.T) {
	lister := &fakeLister{issues: map[string][]model.RawIssue{
		"a/b": {
			repoIssue("a/b", 1, 1, "good first issue"),
			repoIssue("a/b", 2, 2, "documentation"),
			repoIssue("a/b", 3, 3, "bug"),
		},
	}}
	engine := NewEngine(lister, WithEngineClock(func() time.Time { return base }))

	res, err := engine.Aggregate(context.Background(), refs("a/b"),
		[]model.Category{model.CategoryGoodFirstIssue, model.CategoryDocumentation})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b#1", "a/b#2"}, keys(res.Issues))
	assert.Equal(t, model.CategoryDocumentation, res.Issues[1].Category)
	assert.Equal(t, model.DifficultyBeginner, res.Issues[1].Difficulty)
	assert.Equal(t, base, res.RefreshedAt)
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(&fakeLister{}).Aggregate(ctx, refs("a/b"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type dismissed map[string]time.Time

func (d dismissed) ShouldShow(key string, updatedAt time.Time) bool {
	at, ok := d[key]
	return !ok || updatedAt.After(at)
}

func TestFilterDismissed(t *testing.T) {
	issues := []model.ClassifiedIssue{
		{RawIssue: repoIssue("a/b", 1, 5)},
		{RawIssue: repoIssue("a/b", 2, 1)},
	}
	d := dismissed{
		"a/b#1": base.Add(-5 * time.Hour),
		"a/b#2": base.Add(-3 * time.Hour),
	}
	got := FilterDismissed(issues, d)
	assert.Equal(t, []string{"a/b#2"}, keys(got))
	assert.Len(t, FilterDismissed(issues, nil), 2)
}

// blockingAggregator counts cycles and can hold a cycle open.
type blockingAggregator struct {
	calls   atomic.Int32
	hold    chan struct{}
	started chan struct{}
}

func (b *blockingAggregator) Aggregate(ctx context.Context, repos []model.RepositoryRef, _ []model.Category) (Result, error) {
	b.calls.Add(1)
	if b.started != nil {
		select {
		case b.started <- struct{}{}:
		default:
		}
	}
	if b.hold != nil {
		<-b.hold
	}
	return Result{Repositories: len(repos)}, nil
}

type sink struct {
	mu      sync.Mutex
	results []Result
}

func (s *sink) deliver(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func TestMonitorRunsImmediatelyAndOnInterval(t *testing.T) {
	agg := &blockingAggregator{}
	out := &sink{}
	m := NewMonitor(agg, out.deliver, WithInterval(10*time.Millisecond))

	m.SetRepositories(refs("a/b"), nil)
	m.Start(context.Background())
	defer func() { m.Stop(); m.Wait() }()

	assert.Eventually(t, func() bool { return out.count() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Running())
}

func TestMonitorEmptySetStops(t *testing.T) {
	agg := &blockingAggregator{}
	m := NewMonitor(agg, nil, WithInterval(time.Hour))
	m.Start(context.Background())
	assert.False(t, m.Running())

	m.SetRepositories(refs("a/b"), nil)
	assert.True(t, m.Running())

	m.SetRepositories(nil, nil)
	assert.False(t, m.Running())
	m.Wait()
}

func TestMonitorRestartsOnChange(t *testing.T) {
	agg := &blockingAggregator{}
	out := &sink{}
	m := NewMonitor(agg, out.deliver, WithInterval(time.Hour))
	m.Start(context.Background())
	defer func() { m.Stop(); m.Wait() }()

	m.SetRepositories(refs("a/b"), nil)
	assert.Eventually(t, func() bool { return out.count() == 1 }, time.Second, 5*time.Millisecond)

	// an unchanged set does not restart the timer
	m.SetRepositories(refs("a/b"), nil)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), agg.calls.Load())

	m.SetRepositories(refs("a/b", "c/d"), nil)
	assert.Eventually(t, func() bool { return out.count() == 2 }, time.Second, 5*time.Millisecond)
	out.mu.Lock()
	assert.Equal(t, 2, out.results[1].Repositories)
	out.mu.Unlock()
}

func TestMonitorRefresh(t *testing.T) {
	agg := &blockingAggregator{}
	out := &sink{}
	m := NewMonitor(agg, out.deliver, WithInterval(time.Hour))
	m.SetRepositories(refs("a/b"), nil)
	m.Start(context.Background())
	defer func() { m.Stop(); m.Wait() }()

	assert.Eventually(t, func() bool { return out.count() == 1 }, time.Second, 5*time.Millisecond)
	m.Refresh()
	assert.Eventually(t, func() bool { return out.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMonitorDiscardsInFlightResultAfterStop(t *testing.T) {
	agg := &blockingAggregator{hold: make(chan struct{}), started: make(chan struct{}, 1)}
	out := &sink{}
	m := NewMonitor(agg, out.deliver, WithInterval(time.Hour))
	m.SetRepositories(refs("a/b"), nil)
	m.Start(context.Background())

	<-agg.started
	m.Stop()
	assert.False(t, m.Running())

	close(agg.hold)
	m.Wait()
	assert.Equal(t, 0, out.count())
	assert.Equal(t, int32(1), agg.calls.Load())
}
