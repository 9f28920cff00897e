package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long: `Display current GitHub API rate limit status including remaining quota
and reset time. Searches draw from the search quota; watch draws from core.`,
		RunE: runRateLimit,
	}
}

func runRateLimit(cmd *cobra.Command, _ []string) error {
	a, err := newApp(NewOptions(WithNoCache()))
	if err != nil {
		return err
	}

	limits, err := a.client.RateLimits(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.creds.HasToken() {
		fmt.Fprintln(out, "GitHub API Rate Limits:")
	} else {
		fmt.Fprintln(out, "GitHub API Rate Limits (anonymous):")
	}
	fmt.Fprintln(out)

	now := time.Now()
	printRate(out, "Core API:  ", limits.Core, now)
	printRate(out, "Search API:", limits.Search, now)
	return nil
}

func printRate(w io.Writer, name string, r *gh.Rate, now time.Time) {
	if r == nil {
		return
	}
	resetIn := r.Reset.Time.Sub(now).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n", name, r.Remaining, r.Limit, resetIn)
}
