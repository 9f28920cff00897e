package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spiffcs/firstissue/internal/credential"
	"github.com/spiffcs/firstissue/internal/ghclient"
	"github.com/spiffcs/firstissue/internal/service"
)

// NewCmdAuth creates the auth command with subcommands.
func NewCmdAuth() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token",
		Long: `Manage the GitHub token used for API requests.

A stored token takes precedence over the GITHUB_TOKEN environment variable.
Searches work without a token, with a lower rate limit.`,
	}

	cmd.AddCommand(newCmdAuthLogin())
	cmd.AddCommand(newCmdAuthLogout())
	cmd.AddCommand(newCmdAuthStatus())

	return cmd
}

// authSession is the credential plus an uncached service that checks it.
type authSession struct {
	store *credential.FileStore
	creds *credential.Cache
	svc   *service.Service
}

func newAuthSession() (*authSession, error) {
	store, err := credential.NewFileStore()
	if err != nil {
		return nil, err
	}
	creds := credential.NewCache(store, credential.WithFallback(func() string {
		return os.Getenv(tokenEnv)
	}))
	client, err := ghclient.NewClient(creds)
	if err != nil {
		return nil, err
	}
	return &authSession{store: store, creds: creds, svc: service.New(client, nil, creds)}, nil
}

func newCmdAuthLogin() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub token",
		Long: `Stores a GitHub personal access token after checking it against the API.
Without --token the token is read from a hidden prompt, or from stdin when
it is not a terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				var err error
				if token, err = readToken(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("no token provided")
			}

			s, err := newAuthSession()
			if err != nil {
				return err
			}
			user, err := login(cmd.Context(), s.creds, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token to store (default: prompt)")
	return cmd
}

func newCmdAuthLogout() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored GitHub token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newAuthSession()
			if err != nil {
				return err
			}
			if err := s.creds.Invalidate(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			if os.Getenv(tokenEnv) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Note: %s is still set in the environment.\n", tokenEnv)
			}
			return nil
		},
	}
}

func newCmdAuthStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the current GitHub token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newAuthSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			source := "stored token"
			if stored, _ := s.store.Get(); stored == "" {
				source = tokenEnv
			}
			if !s.creds.HasToken() {
				fmt.Fprintln(out, "Not logged in (anonymous access).")
				return nil
			}

			user, err := s.svc.CurrentUser(cmd.Context())
			if errors.Is(err, service.ErrUnauthorized) {
				fmt.Fprintf(out, "The %s was rejected by GitHub and has been cleared.\n", source)
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not check token: %w", err)
			}
			fmt.Fprintf(out, "Logged in as %s (%s)\n", user, source)
			return nil
		},
	}
}

// login checks token against the API and stores it only once GitHub has
// accepted it, so a rejected token never replaces the stored one.
func login(ctx context.Context, creds *credential.Cache, token string, opts ...ghclient.Option) (string, error) {
	client, err := ghclient.NewClient(ghclient.StaticToken(token), opts...)
	if err != nil {
		return "", err
	}
	user, err := client.AuthenticatedUser(ctx)
	if err != nil {
		if ghclient.IsUnauthorized(err) {
			return "", errors.New("GitHub rejected the token; nothing was stored")
		}
		return "", fmt.Errorf("could not verify token: %w", err)
	}
	if err := creds.Set(token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return user, nil
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func readToken(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return line, nil
}
