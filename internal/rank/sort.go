package rank

import (
	"sort"
	"time"

	"github.com/spiffcs/firstissue/internal/model"
)

// Compare returns a negative number when a sorts before b, positive when
// after, and zero when the key considers them equal.
type Compare func(a, b model.RawIssue) int

// Comparator returns a descending comparator for the key, or nil for
// SortNone. The stars intent orders by reactions, mirroring the search API.
func Comparator(key model.SortKey) Compare {
	switch key {
	case model.SortUpdated:
		return func(a, b model.RawIssue) int { return compareTimeDesc(a.UpdatedAt, b.UpdatedAt) }
	case model.SortCreated:
		return func(a, b model.RawIssue) int { return compareTimeDesc(a.CreatedAt, b.CreatedAt) }
	case model.SortComments:
		return func(a, b model.RawIssue) int { return b.Comments - a.Comments }
	case model.SortStars:
		return func(a, b model.RawIssue) int { return b.Reactions - a.Reactions }
	default:
		return nil
	}
}

// SortIssues orders issues by primary, breaking ties with secondary. The sort
// is stable, so without a secondary key primary-equal issues keep platform
// order.
func SortIssues(issues []model.RawIssue, primary, secondary model.SortKey) {
	p, s := Comparator(primary), Comparator(secondary)
	if p == nil && s == nil {
		return
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if p != nil {
			if c := p(issues[i], issues[j]); c != 0 {
				return c < 0
			}
		}
		if s != nil {
			return s(issues[i], issues[j]) < 0
		}
		return false
	})
}

// FilterSince keeps issues updated at or after cutoff. A zero cutoff keeps
// everything.
func FilterSince(issues []model.RawIssue, cutoff time.Time) []model.RawIssue {
	if cutoff.IsZero() {
		return issues
	}
	out := make([]model.RawIssue, 0, len(issues))
	for _, i := range issues {
		if !i.UpdatedAt.Before(cutoff) {
			out = append(out, i)
		}
	}
	return out
}

// FilterScoredSince is FilterSince for scored issues.
func FilterScoredSince(issues []model.ScoredIssue, cutoff time.Time) []model.ScoredIssue {
	if cutoff.IsZero() {
		return issues
	}
	out := make([]model.ScoredIssue, 0, len(issues))
	for _, s := range issues {
		if !s.Issue.UpdatedAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func compareTimeDesc(a, b time.Time) int {
	switch {
	case a.After(b):
		return -1
	case a.Before(b):
		return 1
	default:
		return 0
	}
}
