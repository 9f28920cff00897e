package aggregate

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
)

// Aggregator runs one aggregation cycle.
type Aggregator interface {
	Aggregate(ctx context.Context, repos []model.RepositoryRef, wanted []model.Category) (Result, error)
}

// Monitor re-runs aggregation on a fixed interval. Changing the repository
// or category set cancels the running timer and starts a new one; Stop
// tears it down. A cycle that is already running completes, but its result
// is only delivered if the timer that started it is still current.
type Monitor struct {
	agg      Aggregator
	interval time.Duration
	deliver  func(Result)

	mu      sync.Mutex
	ctx     context.Context
	started bool
	repos   []model.RepositoryRef
	wanted  []model.Category
	gen     uint64
	stop    chan struct{}
	refresh chan struct{}
	wg      sync.WaitGroup
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval overrides the refresh interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// NewMonitor creates a stopped Monitor. deliver is called with the monitor
// lock held and must not call back into the Monitor.
func NewMonitor(agg Aggregator, deliver func(Result), opts ...MonitorOption) *Monitor {
	m := &Monitor{agg: agg, deliver: deliver, interval: constants.RefreshInterval}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start enables the monitor. Cycles use ctx; cancelling it stops the timer.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.ctx = ctx
	m.started = true
	m.restartLocked()
}

// SetRepositories replaces the monitored set. An unchanged set is a no-op;
// an empty set stops the timer.
func (m *Monitor) SetRepositories(repos []model.RepositoryRef, wanted []model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sameRepos(m.repos, repos) && slices.Equal(m.wanted, wanted) {
		return
	}
	m.repos = slices.Clone(repos)
	m.wanted = slices.Clone(wanted)
	if m.started {
		m.restartLocked()
	}
}

// Refresh requests an immediate cycle on the running timer.
func (m *Monitor) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refresh == nil {
		return
	}
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Running reports whether a timer is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop != nil
}

// Stop tears down the timer. Any in-flight cycle finishes in the background
// and its result is discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	m.cancelLocked()
}

// Wait blocks until every timer goroutine has exited.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) cancelLocked() {
	m.gen++
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
		m.refresh = nil
	}
}

func (m *Monitor) restartLocked() {
	m.cancelLocked()
	if len(m.repos) == 0 {
		log.Debug("monitor idle, no repositories")
		return
	}

	m.stop = make(chan struct{})
	m.refresh = make(chan struct{}, 1)
	m.wg.Add(1)
	go m.run(m.ctx, m.gen, m.stop, m.refresh, slices.Clone(m.repos), slices.Clone(m.wanted))
}

func (m *Monitor) run(ctx context.Context, gen uint64, stop, refresh <-chan struct{}, repos []model.RepositoryRef, wanted []model.Category) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.cycle(ctx, gen, repos, wanted)
	for {
		select {
		case <-ticker.C:
			m.cycle(ctx, gen, repos, wanted)
		case <-refresh:
			m.cycle(ctx, gen, repos, wanted)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

func (m *Monitor) cycle(ctx context.Context, gen uint64, repos []model.RepositoryRef, wanted []model.Category) {
	res, err := m.agg.Aggregate(ctx, repos, wanted)
	if err != nil {
		log.Warn("refresh cycle failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		log.Debug("discarding result of cancelled refresh")
		return
	}
	if m.deliver != nil {
		m.deliver(res)
	}
}

func sameRepos(a, b []model.RepositoryRef) bool {
	if len(a) != len(b) {
		return false
	}
	names := func(rs []model.RepositoryRef) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.FullName)
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(names(a), names(b))
}
