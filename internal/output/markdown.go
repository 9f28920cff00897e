package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/model"
)

// MarkdownFormatter formats output as Markdown grouped by category.
type MarkdownFormatter struct {
	Now func() time.Time
}

// Format outputs entries as Markdown
func (f *MarkdownFormatter) Format(entries []Entry, w io.Writer) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}
	now := nowOr(f.Now)

	fmt.Fprintln(w, "# Beginner-Friendly Issues")
	fmt.Fprintf(w, "\n*Generated: %s*\n\n", now.Format("2006-01-02 15:04"))

	groups := make(map[model.Category][]Entry)
	for _, e := range entries {
		groups[e.Issue.Category] = append(groups[e.Issue.Category], e)
	}

	for _, cat := range model.AllCategories {
		group := groups[cat]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "## %s %s (%d)\n\n", format.CategoryIcon(cat), cat, len(group))
		for _, e := range group {
			f.formatEntry(e, now, w)
		}
	}
	return nil
}

func (f *MarkdownFormatter) formatEntry(e Entry, now time.Time, w io.Writer) {
	i := e.Issue
	title := format.SingleLine(i.Title)
	if i.HTMLURL != "" {
		fmt.Fprintf(w, "### [%s](%s)\n\n", escapeMarkdown(title), i.HTMLURL)
	} else {
		fmt.Fprintf(w, "### %s\n\n", escapeMarkdown(title))
	}

	fmt.Fprintf(w, "- **Repository:** %s #%d\n", i.Repository, i.Number)
	fmt.Fprintf(w, "- **Difficulty:** %s\n", i.Difficulty)
	fmt.Fprintf(w, "- **Priority:** %s\n", i.Priority)
	fmt.Fprintf(w, "- **Updated:** %s\n", format.Ago(i.UpdatedAt, now))
	if i.Comments > 0 {
		fmt.Fprintf(w, "- **Comments:** %d\n", i.Comments)
	}
	if len(i.Labels) > 0 {
		fmt.Fprintf(w, "- **Labels:** %s\n", formatLabels(i.LabelNames()))
	}
	if i.IsAssigned() {
		fmt.Fprintf(w, "- **Assigned:** @%s\n", i.Assignee)
	}
	if e.Scored {
		fmt.Fprintf(w, "- **Score:** %.1f (%d stars)\n", e.Score, e.Stars)
	}
	fmt.Fprintln(w)
}

func formatLabels(labels []string) string {
	formatted := make([]string, len(labels))
	for i, l := range labels {
		formatted[i] = "`" + l + "`"
	}
	return strings.Join(formatted, " ")
}

var markdownEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "*", `\*`, "_", `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
