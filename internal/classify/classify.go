// Package classify derives category, priority and difficulty badges from an
// issue's labels and title. Every function is pure and total.
package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spiffcs/firstissue/internal/model"
)

// Result holds the derived badges for one issue.
type Result struct {
	Category   model.Category   `json:"category"`
	Priority   model.Priority   `json:"priority"`
	Difficulty model.Difficulty `json:"difficulty"`
}

// Classify derives all badges for an issue.
func Classify(issue model.RawIssue) Result {
	labels := normalizeLabels(issue.Labels)
	title := normalizeTitle(issue.Title)
	return Result{
		Category:   category(labels, title),
		Priority:   priority(labels),
		Difficulty: difficulty(labels, title),
	}
}

// Annotate returns a ClassifiedIssue for the given raw issue.
func Annotate(issue model.RawIssue) model.ClassifiedIssue {
	r := Classify(issue)
	return model.ClassifiedIssue{
		RawIssue:   model.NewRawIssue(issue),
		Repository: issue.RepoFullName(),
		Category:   r.Category,
		Priority:   r.Priority,
		Difficulty: r.Difficulty,
	}
}

// AnnotateAll classifies each issue, preserving order.
func AnnotateAll(issues []model.RawIssue) []model.ClassifiedIssue {
	out := make([]model.ClassifiedIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, Annotate(issue))
	}
	return out
}

// Category returns the first matching category.
func Category(issue model.RawIssue) model.Category {
	return category(normalizeLabels(issue.Labels), normalizeTitle(issue.Title))
}

// Priority returns the derived priority.
func Priority(issue model.RawIssue) model.Priority {
	return priority(normalizeLabels(issue.Labels))
}

// Difficulty returns the derived difficulty.
func Difficulty(issue model.RawIssue) model.Difficulty {
	return difficulty(normalizeLabels(issue.Labels), normalizeTitle(issue.Title))
}

// ParseCategories validates category names. An empty input yields nil,
// which callers treat as "all categories".
func ParseCategories(names []string) ([]model.Category, error) {
	if len(names) == 0 {
		return nil, nil
	}
	valid := make(map[string]model.Category, len(model.AllCategories))
	for _, c := range model.AllCategories {
		valid[string(c)] = c
	}

	out := make([]model.Category, 0, len(names))
	seen := make(map[model.Category]bool)
	for _, n := range names {
		c, ok := valid[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("invalid category %q", n)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

func category(labels [][]string, title string) model.Category {
	for _, r := range beginnerRules {
		if anyLabelMatches(labels, r.keywords) {
			return r.category
		}
	}
	for _, r := range labelRules {
		if anyLabelMatches(labels, r.keywords) {
			return r.category
		}
	}
	for _, r := range titleRules {
		if titleContains(title, r.keywords) {
			return r.category
		}
	}
	return model.CategoryOther
}

func priority(labels [][]string) model.Priority {
	switch {
	case anyLabelMatches(labels, beginnerSignalLabels):
		return model.PriorityLow
	case anyLabelMatches(labels, highPriorityLabels):
		return model.PriorityHigh
	case anyLabelMatches(labels, mediumPriorityLabels):
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func difficulty(labels [][]string, title string) model.Difficulty {
	switch {
	case anyLabelMatches(labels, beginnerDifficultyLabels):
		return model.DifficultyBeginner
	case anyLabelMatches(labels, advancedLabels), titleContains(title, advancedTitleKeywords):
		return model.DifficultyAdvanced
	default:
		return model.DifficultyIntermediate
	}
}

// normalizeLabels splits each label into lowercase words, treating any
// non-alphanumeric rune as a separator, so "good-first-issue",
// "Good First Issue" and "type: good_first_issue" compare equal.
func normalizeLabels(labels []model.Label) [][]string {
	out := make([][]string, 0, len(labels))
	for _, l := range labels {
		words := strings.FieldsFunc(strings.ToLower(l.Name), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

func normalizeTitle(title string) string {
	return " " + strings.ToLower(title) + " "
}

func anyLabelMatches(labels [][]string, phrases []string) bool {
	for _, words := range labels {
		for _, p := range phrases {
			if containsPhrase(words, strings.Fields(p)) {
				return true
			}
		}
	}
	return false
}

// containsPhrase reports whether phrase occurs as a contiguous run in words.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func titleContains(title string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}
