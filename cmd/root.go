package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "firstissue",
		Short: "Find beginner-friendly GitHub issues",
		Long: `A CLI tool that finds open issues suited to first-time contributors,
classifies them by category, difficulty and priority, and keeps an eye on
the repositories you care about.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnv(".env")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add search flags to root command so `firstissue` and `firstissue search` work identically
	addSearchFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdSearch(opts))
	rootCmd.AddCommand(NewCmdWatch(NewOptions()))
	rootCmd.AddCommand(NewCmdClassify())
	rootCmd.AddCommand(NewCmdRepos())
	rootCmd.AddCommand(NewCmdAuth())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}

// loadEnv reads a .env file so GITHUB_TOKEN can live next to the project.
// Variables already set in the environment win.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		log.Debug("loaded environment file", "path", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	log.Warn("could not read environment file", "path", path, "error", err)
	return nil
}
