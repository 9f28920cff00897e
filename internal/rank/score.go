// Package rank scores and orders issues.
package rank

import (
	"math"
	"sort"
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/model"
)

// HybridScore blends how recently an issue was updated with how popular its
// repository is:
//
//	recency    = max(0, 100 - daysSinceUpdate)
//	popularity = log10(max(1, stars)) * 10
//	score      = 0.6*recency + 0.4*popularity
func HybridScore(issue model.RawIssue, repoStars int, now time.Time) float64 {
	return constants.RecencyWeight*Recency(issue.UpdatedAt, now) +
		constants.PopularityWeight*Popularity(repoStars)
}

// Recency returns the recency component using fractional days.
func Recency(updatedAt, now time.Time) float64 {
	days := now.Sub(updatedAt).Hours() / 24
	return math.Max(0, 100-days)
}

// Popularity returns the popularity component.
func Popularity(stars int) float64 {
	return math.Log10(math.Max(1, float64(stars))) * 10
}

// Score builds a ScoredIssue.
func Score(issue model.RawIssue, repo model.RepositoryRef, now time.Time) model.ScoredIssue {
	return model.ScoredIssue{
		Issue:      model.NewRawIssue(issue),
		Repository: model.NewRepositoryRef(repo),
		Score:      HybridScore(issue, repo.Stars, now),
	}
}

// SortByScore orders scored issues by descending score. Ties keep their
// input order.
func SortByScore(issues []model.ScoredIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Score > issues[j].Score
	})
}
