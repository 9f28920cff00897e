// Package query composes GitHub search query strings. Every function is pure.
package query

import (
	"fmt"
	"strings"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/model"
)

// MaxQueryLength is the longest query the search API accepts.
const MaxQueryLength = 256

// Quality filters drop issues nobody engaged with and issues that are
// already deep in discussion. The scoped variant is looser because the
// candidate set is already restricted to popular repositories.
const (
	qualityFilter = "comments:>=1 comments:<=10"
	looseFilter   = "comments:>=1 comments:<=15"
)

// DiscoveryTopics are OR'd together when searching for repositories.
var DiscoveryTopics = []string{"good-first-issue", "beginner-friendly", "hacktoberfest"}

// Scope selects what a query searches for.
type Scope string

const (
	ScopeIssues       Scope = "issues"
	ScopeRepositories Scope = "repositories"
)

// Filters are the user-facing search parameters.
type Filters struct {
	Language  string
	Label     string
	Scope     Scope
	Primary   model.SortKey
	Secondary model.SortKey
}

// EffectiveLabel returns the label filter, falling back to the default.
func (f Filters) EffectiveLabel() string {
	if strings.TrimSpace(f.Label) == "" {
		return constants.DefaultLabel
	}
	return strings.TrimSpace(f.Label)
}

// Build dispatches on the filter scope.
func Build(f Filters) string {
	if f.Scope == ScopeRepositories {
		return RepositoryQuery(f.Language, constants.DiscoveryMinStars)
	}
	return IssueQuery(f)
}

// IssueQuery composes the single-stage issue search query.
func IssueQuery(f Filters) string {
	clauses := []string{"is:issue", "is:open", labelClause(f.EffectiveLabel())}
	if lang := languageClause(f.Language); lang != "" {
		clauses = append(clauses, lang)
	}
	clauses = append(clauses, qualityFilter)
	return strings.Join(clauses, " ")
}

// ScopedIssueQuery restricts an issue search to the given repositories,
// keeping at most the first ScopedRepoLimit names. Lower-ranked names are
// dropped until the query fits MaxQueryLength; at least one is always kept.
func ScopedIssueQuery(repos []string, label string) string {
	if label = strings.TrimSpace(label); label == "" {
		label = constants.DefaultLabel
	}
	if len(repos) > constants.ScopedRepoLimit {
		repos = repos[:constants.ScopedRepoLimit]
	}

	base := strings.Join([]string{"is:issue", "is:open", labelClause(label), looseFilter}, " ")
	for n := len(repos); n > 0; n-- {
		q := base + " " + repoClause(repos[:n])
		if len(q) <= MaxQueryLength || n == 1 {
			return q
		}
	}
	return base
}

// RepositoryQuery composes a repository discovery query over the beginner
// topics with a star threshold.
func RepositoryQuery(language string, minStars int) string {
	topics := make([]string, 0, len(DiscoveryTopics))
	for _, t := range DiscoveryTopics {
		topics = append(topics, "topic:"+t)
	}
	clauses := []string{strings.Join(topics, " OR ")}
	if lang := languageClause(language); lang != "" {
		clauses = append(clauses, lang)
	}
	clauses = append(clauses, fmt.Sprintf("stars:>%d", minStars))
	return strings.Join(clauses, " ")
}

// SearchSortKey maps a sort intent to the issue search API sort parameter.
// The "stars" intent has no issue-level equivalent and maps to reactions.
func SearchSortKey(k model.SortKey) string {
	switch k {
	case model.SortStars:
		return "reactions"
	case model.SortUpdated, model.SortCreated, model.SortComments:
		return string(k)
	default:
		return ""
	}
}

func labelClause(label string) string {
	return fmt.Sprintf("label:%q", label)
}

func languageClause(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return ""
	}
	if strings.ContainsAny(language, " \t") {
		return fmt.Sprintf("language:%q", language)
	}
	return "language:" + language
}

func repoClause(repos []string) string {
	parts := make([]string, 0, len(repos))
	for _, r := range repos {
		parts = append(parts, "repo:"+r)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
