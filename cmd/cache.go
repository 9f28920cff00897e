package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/internal/cache"
	"github.com/spiffcs/firstissue/internal/dismissed"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the search response cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	var withDismissed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached search results and repository lookups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cache.NewCache()
			if err != nil {
				return fmt.Errorf("failed to access cache: %w", err)
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")

			if !withDismissed {
				return nil
			}
			store, err := dismissed.NewStore()
			if err != nil {
				return fmt.Errorf("failed to open dismissed issues: %w", err)
			}
			n := store.Count()
			if err := store.Reset(); err != nil {
				return fmt.Errorf("failed to reset dismissed issues: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d dismissed issues.\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDismissed, "dismissed", false, "Also restore every dismissed issue")
	return cmd
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cache.NewCache()
			if err != nil {
				return fmt.Errorf("failed to access cache: %w", err)
			}
			stats, err := c.DetailedStats()
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache statistics (%s):\n", c.Dir())
			labels := map[cache.Kind]string{
				cache.KindIssueSearch: "Issue searches",
				cache.KindRepoSearch:  "Repository searches",
				cache.KindRepository:  "Repository lookups",
			}
			for _, k := range cache.AllKinds() {
				ks := stats.Kinds[k]
				fmt.Fprintf(out, "  %s (TTL: %s):\n", labels[k], k.TTL())
				fmt.Fprintf(out, "    Total: %d\n", ks.Total)
				fmt.Fprintf(out, "    Valid: %d\n", ks.Valid)
				fmt.Fprintf(out, "    Expired: %d\n", ks.Total-ks.Valid)
			}

			if store, err := dismissed.NewStore(); err == nil {
				fmt.Fprintf(out, "  Dismissed issues: %d\n", store.Count())
			}
			return nil
		},
	}
}
