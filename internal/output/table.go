package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/model"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Links wraps titles in OSC-8 hyperlinks.
	Links bool
	Now   func() time.Time
}

// Column widths
const (
	colRepo       = 28
	colNumber     = 7
	colTitle      = 50
	colDifficulty = 4
	colAge        = 5
	colScore      = 6
)

// Format outputs entries as a table
func (f *TableFormatter) Format(entries []Entry, w io.Writer) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}
	now := nowOr(f.Now)
	scored := entries[0].Scored

	header := fmt.Sprintf("%-*s%-*s  %-*s  %-*s  %-*s  %-*s",
		format.IconWidth, "",
		colRepo, "Repository",
		colNumber, "Issue",
		colTitle, "Title",
		colDifficulty, "Lvl",
		colAge, "Age")
	width := format.IconWidth + colRepo + colNumber + colTitle + colDifficulty + colAge + 10
	if scored {
		header += fmt.Sprintf("  %*s", colScore, "Score")
		width += colScore + 2
	}
	fmt.Fprintln(w, strings.TrimRight(header, " "))
	fmt.Fprintln(w, strings.Repeat("-", width))

	for _, e := range entries {
		fmt.Fprintln(w, f.row(e, now, scored))
	}

	printFooter(Summarize(entries, now), w)
	return nil
}

func (f *TableFormatter) row(e Entry, now time.Time, scored bool) string {
	i := e.Issue

	icon := format.PadRight(format.CategoryIcon(i.Category), format.IconWidth)
	repo := format.PadRight(format.Truncate(i.Repository, colRepo), colRepo)
	number := format.PadRight(fmt.Sprintf("#%d", i.Number), colNumber)

	title := format.Truncate(i.Title, colTitle)
	if f.Links {
		title = format.Hyperlink(i.HTMLURL, title)
	}
	if i.IsAssigned() {
		title = color.HiBlackString("%s", title)
	}
	title = format.PadRight(title, colTitle)

	lvl := format.PadRight(colorDifficulty(i.Difficulty), colDifficulty)
	age := format.PadRight(format.Age(i.UpdatedAt, now), colAge)

	line := fmt.Sprintf("%s%s  %s  %s  %s  %s", icon, repo, number, title, lvl, age)
	if scored {
		line += fmt.Sprintf("  %*.1f", colScore, e.Score)
	}
	return strings.TrimRight(line, " ")
}

func colorDifficulty(d model.Difficulty) string {
	mark := format.DifficultyMark(d)
	switch d {
	case model.DifficultyBeginner:
		return color.GreenString(mark)
	case model.DifficultyAdvanced:
		return color.RedString(mark)
	default:
		return color.YellowString(mark)
	}
}

// printFooter prints a one-glance summary under the table.
func printFooter(s Summary, w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintf(w, "  %d issues, %s unassigned\n", s.Total, color.GreenString("%d", s.Unassigned))

	if n := s.ByDifficulty[model.DifficultyBeginner]; n > 0 {
		fmt.Fprintf(w, "  %s %d beginner-level\n", format.GoodFirstIssueIcon, n)
	}
	if n := s.ByPriority[model.PriorityHigh]; n > 0 {
		fmt.Fprintf(w, "  %s %s high priority\n", color.RedString("●"), color.RedString("%d", n))
	}
}
