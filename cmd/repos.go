package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/firstissue/config"
	"github.com/spiffcs/firstissue/internal/discovery"
	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/gitrepo"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/query"
	"github.com/spiffcs/firstissue/internal/urlutil"
)

// NewCmdRepos creates the repos command with subcommands.
func NewCmdRepos() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage the repositories followed by 'firstissue watch'",
	}

	cmd.AddCommand(newCmdReposList())
	cmd.AddCommand(newCmdReposAdd())
	cmd.AddCommand(newCmdReposRemove())
	cmd.AddCommand(newCmdReposDiscover())
	cmd.AddCommand(newCmdReposMine())

	return cmd
}

func newCmdReposList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List monitored repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.MonitoredRepos) == 0 {
				fmt.Fprintln(out, "No repositories monitored.")
				return nil
			}
			for _, r := range cfg.MonitoredRepos {
				if cfg.IsRepoExcluded(r) {
					fmt.Fprintf(out, "%s %s\n", r, color.HiBlackString("(excluded)"))
					continue
				}
				fmt.Fprintln(out, r)
			}
			return nil
		},
	}
}

func newCmdReposAdd() *cobra.Command {
	var (
		remote string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "add <repo>...",
		Short: "Monitor repositories",
		Long: `Adds repositories to the monitored set in the global config.

Accepted forms:
  owner/name
  https://github.com/owner/name
  git@github.com:owner/name.git
  .            (the GitHub remote of the git checkout in this directory)

Invalid references are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := resolveRefs(args, remote)
			if err != nil {
				return err
			}
			var a *app
			if verify {
				if a, err = newApp(NewOptions()); err != nil {
					return err
				}
			}
			return editMonitored(cmd.OutOrStdout(), func(cfg *config.Config, out io.Writer) {
				for _, ref := range refs {
					if a != nil && !verifyRepo(cmd, a, ref) {
						continue
					}
					name, added, err := cfg.AddMonitoredRepo(ref)
					switch {
					case err != nil:
						fmt.Fprintf(out, "Skipping %q: not a GitHub repository reference\n", ref)
					case !added:
						fmt.Fprintf(out, "%s is already monitored\n", name)
					default:
						fmt.Fprintf(out, "Monitoring %s\n", name)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&remote, "remote", gitrepo.DefaultRemote, "Remote to read when adding '.'")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check that each repository exists before adding it")
	return cmd
}

func newCmdReposRemove() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <repo>...",
		Aliases: []string{"rm"},
		Short:   "Stop monitoring repositories",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editMonitored(cmd.OutOrStdout(), func(cfg *config.Config, out io.Writer) {
				for _, ref := range args {
					name, removed, err := cfg.RemoveMonitoredRepo(ref)
					switch {
					case err != nil:
						fmt.Fprintf(out, "Skipping %q: not a GitHub repository reference\n", ref)
					case !removed:
						fmt.Fprintf(out, "%s was not monitored\n", name)
					default:
						fmt.Fprintf(out, "Stopped monitoring %s\n", name)
					}
				}
			})
		},
	}
}

func newCmdReposDiscover() *cobra.Command {
	var (
		language string
		sort     string
		add      int
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find popular repositories that welcome newcomers",
		Long: `Searches for repositories tagged with beginner-friendly topics and at
least 100 stars. Use --add N to monitor the first N results.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(NewOptions())
			if err != nil {
				return err
			}
			primary, err := model.ParseSortKey(sort)
			if err != nil {
				return err
			}

			repos, err := discovery.New(a.svc).DiscoverRepositories(cmd.Context(), query.Filters{
				Language: pickString(language, a.cfg.Language),
				Scope:    query.ScopeRepositories,
				Primary:  primary,
			})
			if err != nil {
				return err
			}
			printRepos(cmd.OutOrStdout(), repos)

			if add <= 0 || len(repos) == 0 {
				return nil
			}
			names := make([]string, 0, add)
			for _, r := range repos[:min(add, len(repos))] {
				names = append(names, r.FullName)
			}
			return editMonitored(cmd.OutOrStdout(), func(cfg *config.Config, out io.Writer) {
				for _, n := range names {
					if _, added, err := cfg.AddMonitoredRepo(n); err == nil && added {
						fmt.Fprintf(out, "Monitoring %s\n", n)
					}
				}
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Only repositories of this language")
	cmd.Flags().StringVar(&sort, "sort", "stars", "Order by stars or updated")
	cmd.Flags().IntVar(&add, "add", 0, "Monitor the first N repositories found")
	return cmd
}

func newCmdReposMine() *cobra.Command {
	var (
		user  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own repositories",
		Long:  `Lists repositories owned by the authenticated user, or by --user.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(NewOptions())
			if err != nil {
				return err
			}
			if user == "" && !a.creds.HasToken() {
				return errors.New("not logged in: run 'firstissue auth login' or pass --user")
			}
			repos, err := a.svc.UserRepositories(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			printRepos(cmd.OutOrStdout(), repos)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "List this user's repositories instead")
	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "Maximum number of repositories")
	return cmd
}

// resolveRefs replaces "." with the GitHub remote of the current checkout.
func resolveRefs(args []string, remote string) ([]string, error) {
	refs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "." {
			refs = append(refs, arg)
			continue
		}
		full, err := gitrepo.Detect(".", remote)
		if err != nil {
			return nil, fmt.Errorf("could not detect repository: %w", err)
		}
		refs = append(refs, full)
	}
	return refs, nil
}

// verifyRepo reports whether ref names a repository the API can see.
func verifyRepo(cmd *cobra.Command, a *app, ref string) bool {
	owner, name, err := urlutil.ParseRepo(ref)
	if err != nil {
		// left for AddMonitoredRepo to report
		return true
	}
	if _, err := a.svc.Repository(cmd.Context(), owner, name); err != nil {
		if ghclient.IsNotFound(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s/%s: repository not found\n", owner, name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s/%s: %v\n", owner, name, err)
		}
		return false
	}
	return true
}

// editMonitored applies edit to the global config and saves it. Only the
// global file is rewritten so local overrides never leak into it.
func editMonitored(out io.Writer, edit func(cfg *config.Config, out io.Writer)) error {
	cfg, err := config.LoadGlobal()
	if err != nil {
		return err
	}
	before := strings.Join(cfg.MonitoredRepos, ",")
	edit(cfg, out)
	if strings.Join(cfg.MonitoredRepos, ",") == before {
		return nil
	}
	return cfg.Save()
}

func printRepos(w io.Writer, repos []model.RepositoryRef) {
	if len(repos) == 0 {
		fmt.Fprintln(w, "No repositories found.")
		return
	}
	for _, r := range repos {
		stars := color.YellowString("★ %-6d", r.Stars)
		lang := format.PadRight(format.Truncate(r.Language, 12), 12)
		desc := color.HiBlackString("%s", format.Truncate(r.Description, 60))
		fmt.Fprintf(w, "%s %s %s %s\n", format.PadRight(format.Truncate(r.FullName, 40), 40), stars, lang, desc)
	}
}
