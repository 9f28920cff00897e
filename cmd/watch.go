package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/internal/aggregate"
	"github.com/spiffcs/firstissue/internal/classify"
	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/log"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/output"
	"github.com/spiffcs/firstissue/internal/tui"
)

type watchOptions struct {
	interval   time.Duration
	categories []string
}

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	wopts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow open issues of your monitored repositories",
		Long: `Fetches the open issues of every monitored repository, classifies
them and refreshes the list every two minutes.

Repositories are fetched three at a time; a repository that fails to load
is skipped for that refresh. Add repositories with 'firstissue repos add'.

In a terminal the list is interactive: r refreshes, x dismisses the
selected issue until it has new activity, o opens it in the browser.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts, wopts)
		},
	}

	cmd.Flags().DurationVar(&wopts.interval, "interval", constants.RefreshInterval, "Time between refreshes")
	cmd.Flags().StringSliceVarP(&wopts.categories, "category", "c", nil, "Only show these categories (default from config, else all)")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format when not interactive (table, json, markdown)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Bypass the response cache")
	addCommonFlags(cmd, opts)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options, wopts *watchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return err
	}
	defer profiler.Stop()

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	outFormat, err := opts.format(a.cfg)
	if err != nil {
		return err
	}
	wanted, err := watchCategories(wopts.categories, a.cfg.Categories)
	if err != nil {
		return err
	}

	repos := a.cfg.MonitoredRepositories()
	if len(repos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No repositories monitored. Add one with 'firstissue repos add owner/name'.")
		return nil
	}

	useTUI := shouldUseTUI(opts) && outFormat == output.FormatTable
	initLogging(opts, useTUI)

	if _, err := a.authenticate(ctx); err != nil {
		return err
	}
	log.Info("watching repositories", "count", len(repos), "interval", wopts.interval)

	if useTUI {
		return watchInteractive(ctx, a, repos, wanted, wopts.interval)
	}
	return watchPlain(ctx, a, repos, wanted, wopts.interval, outFormat, cmd.OutOrStdout())
}

// watchCategories resolves the category filter: flag, then config, then all.
func watchCategories(flag, configured []string) ([]model.Category, error) {
	if len(flag) > 0 {
		return classify.ParseCategories(flag)
	}
	return classify.ParseCategories(configured)
}

// watchInteractive runs the live list. The program owns the terminal until
// the user quits; the monitor is torn down afterwards.
func watchInteractive(ctx context.Context, a *app, repos []model.RepositoryRef, wanted []model.Category, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var store tui.DismissStore
	if ds := openDismissed(); ds != nil {
		store = ds
	}

	// The model is created before the monitor it refreshes, so it talks to
	// the monitor through a forwarding refresher.
	refresher := &lateRefresher{}
	p := tui.NewWatchProgram(tui.NewWatchModel(refresher, store))

	engine := aggregate.NewEngine(a.svc, aggregate.WithProgress(func(done, total int) {
		p.Send(tui.ProgressMsg{Done: done, Total: total})
	}))
	monitor := aggregate.NewMonitor(engine, func(r aggregate.Result) {
		p.Send(tui.ResultMsg{Result: r})
	}, aggregate.WithInterval(interval))
	refresher.monitor = monitor

	monitor.SetRepositories(repos, wanted)
	monitor.Start(ctx)

	_, err := p.Run()

	cancel()
	monitor.Stop()
	monitor.Wait()
	return err
}

// watchPlain prints every refresh until interrupted.
func watchPlain(ctx context.Context, a *app, repos []model.RepositoryRef, wanted []model.Category, interval time.Duration, outFormat output.Format, w io.Writer) error {
	formatter := output.NewFormatter(outFormat)
	var store aggregate.DismissedChecker
	if ds := openDismissed(); ds != nil {
		store = ds
	}

	engine := aggregate.NewEngine(a.svc, aggregate.WithProgress(func(done, total int) {
		log.Progress("Fetching repositories %d/%d", done, total)
	}))
	monitor := aggregate.NewMonitor(engine, func(r aggregate.Result) {
		log.ProgressDone()
		printRefresh(r, store, formatter, w)
	}, aggregate.WithInterval(interval))

	monitor.SetRepositories(repos, wanted)
	monitor.Start(ctx)

	<-ctx.Done()
	monitor.Stop()
	monitor.Wait()
	log.ProgressClear()
	return nil
}

func printRefresh(r aggregate.Result, store aggregate.DismissedChecker, formatter output.Formatter, w io.Writer) {
	issues := aggregate.FilterDismissed(r.Issues, store)

	fmt.Fprintf(w, "\nRefreshed %s: %d repositories", r.RefreshedAt.Format(time.Kitchen), r.Repositories)
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, " (%d failed)", len(r.Failed))
	}
	fmt.Fprintln(w)
	if err := formatter.Format(output.FromClassified(issues), w); err != nil {
		log.Warn("failed to render refresh", "error", err)
	}
}

// lateRefresher forwards to a monitor assigned after construction.
type lateRefresher struct {
	monitor *aggregate.Monitor
}

func (r *lateRefresher) Refresh() {
	if r.monitor != nil {
		r.monitor.Refresh()
	}
}
