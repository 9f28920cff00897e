// Package output renders issue lists for the terminal and for other tools.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/spiffcs/firstissue/internal/classify"
	"github.com/spiffcs/firstissue/internal/discovery"
	"github.com/spiffcs/firstissue/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of table, json, markdown", s)
	}
}

// Entry is one rendered row. Stars and Score are only meaningful for results
// of the two-stage search.
type Entry struct {
	Issue  model.ClassifiedIssue `json:"issue"`
	Stars  int                   `json:"stars,omitempty"`
	Score  float64               `json:"score,omitempty"`
	Scored bool                  `json:"-"`
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(entries []Entry, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format. Table output
// uses terminal hyperlinks when stdout is a terminal.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{Links: term.IsTerminal(int(os.Stdout.Fd()))}
	}
}

// FromDiscovery classifies a search result into renderable entries,
// preserving its order.
func FromDiscovery(res discovery.Result) []Entry {
	if res.Strategy == discovery.StrategyHybrid {
		entries := make([]Entry, 0, len(res.Scored))
		for _, s := range res.Scored {
			entries = append(entries, Entry{
				Issue:  classify.Annotate(s.Issue),
				Stars:  s.Repository.Stars,
				Score:  s.Score,
				Scored: true,
			})
		}
		return entries
	}
	return FromClassified(classify.AnnotateAll(res.Issues))
}

// FromClassified wraps already classified issues.
func FromClassified(issues []model.ClassifiedIssue) []Entry {
	entries := make([]Entry, 0, len(issues))
	for _, i := range issues {
		entries = append(entries, Entry{Issue: i})
	}
	return entries
}

// Summary counts entries by derived badge.
type Summary struct {
	Total        int                      `json:"total"`
	Unassigned   int                      `json:"unassigned"`
	ByCategory   map[model.Category]int   `json:"byCategory"`
	ByDifficulty map[model.Difficulty]int `json:"byDifficulty"`
	ByPriority   map[model.Priority]int   `json:"byPriority"`
	GeneratedAt  time.Time                `json:"generatedAt"`
}

// Summarize builds a Summary of entries.
func Summarize(entries []Entry, now time.Time) Summary {
	s := Summary{
		Total:        len(entries),
		ByCategory:   make(map[model.Category]int),
		ByDifficulty: make(map[model.Difficulty]int),
		ByPriority:   make(map[model.Priority]int),
		GeneratedAt:  now,
	}
	for _, e := range entries {
		s.ByCategory[e.Issue.Category]++
		s.ByDifficulty[e.Issue.Difficulty]++
		s.ByPriority[e.Issue.Priority]++
		if !e.Issue.IsAssigned() {
			s.Unassigned++
		}
	}
	return s
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
