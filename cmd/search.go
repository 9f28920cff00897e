package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/config"
	"github.com/spiffcs/firstissue/internal/discovery"
	"github.com/spiffcs/firstissue/internal/dismissed"
	"github.com/spiffcs/firstissue/internal/duration"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/output"
	"github.com/spiffcs/firstissue/internal/rank"
	"github.com/spiffcs/firstissue/internal/tui"
)

// searchRuntime bundles TUI-related state that's threaded through the search command.
type searchRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
}

// startTUI initializes and starts the TUI goroutine if TUI mode is enabled.
func (rt *searchRuntime) startTUI(tasks []tui.Task) {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events, tui.WithTasks(tasks))
	}()
}

// close closes the event channel and waits for the TUI to finish.
func (rt *searchRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	rt.events = nil
	if err := <-rt.tuiDone; err != nil {
		log.Warn("progress display failed", "error", err)
	}
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *searchRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.events == nil {
		return
	}
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// reportRateLimit shows a throttling notice if the last response was limited.
func (rt *searchRuntime) reportRateLimit(state *ghclient.RateLimitState) {
	if rt.events == nil || state == nil {
		return
	}
	for _, resource := range []string{ghclient.ResourceSearch, ghclient.ResourceCore} {
		if state.IsLimited(resource) {
			_, _, resetAt, _ := state.Status(resource)
			tui.SendEvent(rt.events, tui.RateLimitEvent{Limited: true, ResetAt: resetAt})
			return
		}
	}
}

// NewCmdSearch creates the search command.
func NewCmdSearch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find beginner-friendly open issues (same as root firstissue)",
		Long: `Searches GitHub for open issues labelled for newcomers and shows them
with their category, difficulty and priority.

Sorting by updated then stars (the default) looks for popular repositories
first and ranks their recent issues by a blend of recency and popularity.
If that search fails it silently falls back to a plain issue search.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
	}

	addSearchFlags(cmd, opts)
	return cmd
}

// addSearchFlags adds the search-specific flags to a command.
func addSearchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Only issues in repositories of this language")
	cmd.Flags().StringVar(&opts.Label, "label", "", `Issue label to search for (default "good first issue")`)
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Primary ordering (updated, created, comments, stars)")
	cmd.Flags().StringVar(&opts.Then, "then", "", "Secondary ordering for ties")
	cmd.Flags().StringVarP(&opts.Since, "since", "s", "", "Only issues active since (e.g., 1w, 30d, 2026-01-01)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of issues to show")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the response cache")
	addCommonFlags(cmd, opts)
}

// addCommonFlags adds the verbosity, TUI and profiling flags.
func addCommonFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI (default: auto-detect)")

	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
	for _, name := range []string{"cpuprofile", "memprofile", "trace"} {
		_ = cmd.Flags().MarkHidden(name)
	}
}

func runSearch(cmd *cobra.Command, opts *Options) error {
	ctx := cmd.Context()

	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return err
	}
	defer profiler.Stop()

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	filters, err := opts.filters(a.cfg)
	if err != nil {
		return err
	}
	format, err := opts.format(a.cfg)
	if err != nil {
		return err
	}
	cutoff, err := sinceCutoff(opts.Since, time.Now())
	if err != nil {
		return err
	}

	rt := &searchRuntime{useTUI: shouldUseTUI(opts) && format == output.FormatTable}
	initLogging(opts, rt.useTUI)

	tasks := tui.SingleStageTasks()
	if discovery.IsHybrid(filters) {
		tasks = tui.SearchTasks()
	}
	rt.startTUI(tasks)
	defer rt.close()

	rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
	user, err := a.authenticate(ctx)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return err
	}
	rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(user))

	var discoveryOpts []discovery.Option
	if rt.events != nil {
		discoveryOpts = append(discoveryOpts, discovery.WithObserver(tui.NewStageObserver(rt.events)))
	}
	log.Info("searching", "label", filters.EffectiveLabel(), "language", filters.Language,
		"sort", filters.Primary, "then", filters.Secondary)

	res, err := discovery.New(a.svc, discoveryOpts...).Search(ctx, filters)
	rt.reportRateLimit(a.client.RateLimitState())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	log.Info("search complete", "strategy", res.Strategy, "issues", res.Len())

	rt.sendEvent(tui.TaskRank, tui.StatusRunning)
	res = filterResult(res, resultFilter{
		cutoff:    cutoff,
		cfg:       a.cfg,
		dismissed: openDismissed(),
		limit:     opts.Limit,
	})
	rt.sendEvent(tui.TaskRank, tui.StatusComplete, tui.WithCount(res.Len()))
	rt.close()

	return output.NewFormatter(format).Format(output.FromDiscovery(res), cmd.OutOrStdout())
}

// initLogging routes logs to stderr, or discards them while a TUI owns the terminal.
func initLogging(opts *Options, useTUI bool) {
	if useTUI {
		log.Discard()
		return
	}
	log.Initialize(opts.Verbosity, os.Stderr)
}

// sinceCutoff parses --since; an empty value keeps everything.
func sinceCutoff(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return time.Time{}, nil
	}
	cutoff, err := duration.Cutoff(since, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since: %w", err)
	}
	return cutoff, nil
}

// openDismissed opens the dismissed store, continuing without it on error.
func openDismissed() *dismissed.Store {
	store, err := dismissed.NewStore()
	if err != nil {
		log.Warn("could not load dismissed issues", "error", err)
		return nil
	}
	return store
}

// resultFilter holds the client-side filters applied after a search.
type resultFilter struct {
	cutoff    time.Time
	cfg       *config.Config
	dismissed *dismissed.Store
	limit     int
}

func (f resultFilter) keep(issue model.RawIssue) bool {
	if f.cfg != nil && f.cfg.IsRepoExcluded(issue.RepoFullName()) {
		return false
	}
	if f.dismissed != nil && !f.dismissed.ShouldShow(issue.Key(), issue.UpdatedAt) {
		return false
	}
	return true
}

// filterResult applies the activity window, exclusions, dismissals and limit
// while preserving the result's order.
func filterResult(res discovery.Result, f resultFilter) discovery.Result {
	if res.Strategy == discovery.StrategyHybrid {
		scored := rank.FilterScoredSince(res.Scored, f.cutoff)
		kept := make([]model.ScoredIssue, 0, len(scored))
		for _, s := range scored {
			if f.keep(s.Issue) {
				kept = append(kept, s)
			}
		}
		if f.limit > 0 && len(kept) > f.limit {
			kept = kept[:f.limit]
		}
		res.Scored = kept
		return res
	}

	issues := rank.FilterSince(res.Issues, f.cutoff)
	kept := make([]model.RawIssue, 0, len(issues))
	for _, i := range issues {
		if f.keep(i) {
			kept = append(kept, i)
		}
	}
	if f.limit > 0 && len(kept) > f.limit {
		kept = kept[:f.limit]
	}
	res.Issues = kept
	return res
}
