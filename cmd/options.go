package cmd

import (
	"fmt"
	"strings"

	"github.com/spiffcs/firstissue/config"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/output"
	"github.com/spiffcs/firstissue/internal/query"
)

// Options holds the shared command-line options for the firstissue CLI.
type Options struct {
	Format    string
	Language  string
	Label     string
	Sort      string
	Then      string
	Since     string
	Limit     int
	Verbosity int
	NoCache   bool
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Profiling options
	CPUProfile string
	MemProfile string
	Trace      string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLanguage restricts searches to a language.
func WithLanguage(language string) Option {
	return func(o *Options) {
		o.Language = language
	}
}

// WithSort sets the primary and secondary sort keys.
func WithSort(primary, secondary string) Option {
	return func(o *Options) {
		o.Sort = primary
		o.Then = secondary
	}
}

// WithNoCache bypasses the response cache.
func WithNoCache() Option {
	return func(o *Options) {
		o.NoCache = true
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// filters resolves the search filters: flags win over config values.
func (o *Options) filters(cfg *config.Config) (query.Filters, error) {
	primaryName := pickString(o.Sort, cfg.Sort)
	secondaryName := o.Then
	if o.Sort == "" && secondaryName == "" {
		// an explicit --sort drops the configured secondary key
		secondaryName = cfg.SecondarySort
	}

	primary, err := model.ParseSortKey(strings.ToLower(primaryName))
	if err != nil {
		return query.Filters{}, fmt.Errorf("--sort: %w", err)
	}
	if primary == model.SortNone {
		primary = model.SortUpdated
	}
	secondary, err := model.ParseSortKey(strings.ToLower(secondaryName))
	if err != nil {
		return query.Filters{}, fmt.Errorf("--then: %w", err)
	}
	if secondary == primary {
		secondary = model.SortNone
	}

	return query.Filters{
		Language:  pickString(o.Language, cfg.Language),
		Label:     pickString(o.Label, cfg.Label),
		Scope:     query.ScopeIssues,
		Primary:   primary,
		Secondary: secondary,
	}, nil
}

// format resolves the output format: flag, then config, then table.
func (o *Options) format(cfg *config.Config) (output.Format, error) {
	return output.ParseFormat(pickString(o.Format, cfg.DefaultFormat))
}

// cacheDisabled reports whether the response cache is off for this run.
func (o *Options) cacheDisabled(cfg *config.Config) bool {
	return o.NoCache || cfg.IsCacheDisabled()
}

func pickString(flag, configured string) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	return strings.TrimSpace(configured)
}
