// Package gitrepo resolves the GitHub repository a local checkout tracks.
package gitrepo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/spiffcs/firstissue/internal/urlutil"
)

// DefaultRemote is the remote consulted when none is named.
const DefaultRemote = "origin"

// ErrNoGitHubRemote is returned when no remote URL points at GitHub.
var ErrNoGitHubRemote = errors.New("no GitHub remote found")

// Detect opens the repository containing path, walking up to the nearest
// .git directory, and returns the owner/name of remote. An empty remote
// means DefaultRemote.
func Detect(path, remote string) (string, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open git repository: %w", err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("read remote %q: %w", remote, err)
	}

	for _, u := range r.Config().URLs {
		full, err := urlutil.NormalizeRepo(u)
		if err == nil {
			return full, nil
		}
	}
	return "", fmt.Errorf("%w for remote %q", ErrNoGitHubRemote, remote)
}
