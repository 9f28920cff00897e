// Package urlutil parses the repository references users type and the API
// URLs the platform returns.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// APIReposPrefix is the prefix of every repository API URL.
const APIReposPrefix = "https://api.github.com/repos/"

// ErrInvalidRepo is returned for references that do not name a repository.
var ErrInvalidRepo = errors.New("invalid repository reference")

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// ParseRepo validates a user-supplied repository reference and returns its
// owner and name. Accepted forms:
//
//	owner/name
//	https://github.com/owner/name[.git][/...]
//	github.com/owner/name
//	git@github.com:owner/name.git
func ParseRepo(ref string) (owner, name string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidRepo)
	}

	path := ref
	switch {
	case strings.HasPrefix(ref, "git@"):
		host, after, ok := strings.Cut(strings.TrimPrefix(ref, "git@"), ":")
		if !ok || !isGitHubHost(host) {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, ref)
		}
		path = after
	case strings.Contains(ref, "://"):
		u, perr := url.Parse(ref)
		if perr != nil {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, ref)
		}
		if !isGitHubHost(u.Host) {
			return "", "", fmt.Errorf("%w: %s is not a GitHub URL", ErrInvalidRepo, ref)
		}
		path = u.Path
	case strings.HasPrefix(ref, "github.com/"):
		path = strings.TrimPrefix(ref, "github.com/")
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, ref)
	}
	// Bare owner/name must be exactly two segments; URLs may carry extra path.
	if path == ref && len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, ref)
	}

	owner = parts[0]
	name = strings.TrimSuffix(parts[1], ".git")
	if !ownerPattern.MatchString(owner) || !namePattern.MatchString(name) || name == "." || name == ".." {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, ref)
	}
	return owner, name, nil
}

// NormalizeRepo returns the canonical owner/name form of a reference.
func NormalizeRepo(ref string) (string, error) {
	owner, name, err := ParseRepo(ref)
	if err != nil {
		return "", err
	}
	return owner + "/" + name, nil
}

// RepoFullNameFromAPIURL extracts owner/name from a repository API URL such
// as https://api.github.com/repos/owner/name. It reports false for empty or
// malformed input.
func RepoFullNameFromAPIURL(apiURL string) (string, bool) {
	rest, ok := strings.CutPrefix(apiURL, APIReposPrefix)
	if !ok {
		return "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" || host == "www.github.com"
}
