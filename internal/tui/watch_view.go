package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/format"
	"github.com/spiffcs/firstissue/internal/model"
)

// Column widths of the watch list
const (
	colRepo       = 26
	colNumber     = 7
	colTitle      = 52
	colDifficulty = 4
	colAge        = 5
)

const tableWidth = 2 + format.IconWidth + colRepo + 2 + colNumber + 2 + colTitle + 2 + colDifficulty + 2 + colAge

func renderWatchView(m WatchModel) string {
	var b strings.Builder
	now := m.now()

	b.WriteString(renderTitle(m, now))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(renderEmptyState(m))
		b.WriteString("\n\n")
		b.WriteString(renderHelp())
		return b.String()
	}

	b.WriteString(renderHeader())
	b.WriteString("\n")
	b.WriteString(listSeparatorStyle.Render(strings.Repeat("─", tableWidth)))
	b.WriteString("\n")

	available := m.windowHeight - constants.HeaderLines - constants.FooterLines - 2
	if available < 1 {
		available = 1
	}
	start, end := calculateScrollWindow(m.cursor, len(m.visible), available)
	for i := start; i < end; i++ {
		b.WriteString(renderRow(m.visible[i], i == m.cursor, now))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHelp())
	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(listStatusStyle.Render(m.statusMsg))
	}
	return b.String()
}

func renderTitle(m WatchModel, now time.Time) string {
	title := listTitleStyle.Render("firstissue watch")
	parts := []string{fmt.Sprintf("%d repos", m.repositories), fmt.Sprintf("%d issues", len(m.visible))}
	if m.beginnerOnly {
		parts = append(parts, "beginner only")
	}
	if len(m.failed) > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d failed", len(m.failed))))
	}

	line := title + "  " + messageStyle.Render(strings.Join(parts, " · "))
	switch {
	case m.refreshing && m.batchTotal > 0:
		line += fmt.Sprintf("  %s %s", m.progress.View(),
			messageStyle.Render(fmt.Sprintf("%d/%d", m.batchDone, m.batchTotal)))
	case m.refreshing:
		line += "  " + messageStyle.Render("refreshing...")
	case !m.refreshedAt.IsZero():
		line += "  " + taskDimStyle.Render("updated "+format.Ago(m.refreshedAt, now))
	}
	return line
}

func renderEmptyState(m WatchModel) string {
	switch {
	case m.refreshing:
		return listEmptyStyle.Render("Loading issues...")
	case m.repositories == 0:
		return listEmptyStyle.Render("No repositories monitored.\nAdd one with: firstissue repos add owner/name")
	default:
		return listEmptyStyle.Render("No matching issues right now. The list refreshes automatically.")
	}
}

func renderHeader() string {
	return listHeaderStyle.Render(fmt.Sprintf("  %-*s%-*s  %-*s  %-*s  %-*s  %s",
		format.IconWidth, "",
		colRepo, "Repository",
		colNumber, "Issue",
		colTitle, "Title",
		colDifficulty, "Lvl",
		"Age"))
}

func renderRow(i model.ClassifiedIssue, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = applyStyle(listCursorStyle, "> ", selected)
	}

	icon := format.PadRight(format.CategoryIcon(i.Category), format.IconWidth)
	repo := format.PadRight(format.Truncate(i.Repository, colRepo), colRepo)
	number := format.PadRight(fmt.Sprintf("#%d", i.Number), colNumber)

	title := format.Truncate(i.Title, colTitle)
	if i.IsAssigned() {
		title = applyStyle(listAssignedStyle, title, selected)
	}
	title = format.PadRight(title, colTitle)

	lvl := format.PadRight(renderDifficulty(i.Difficulty, selected), colDifficulty)
	age := renderAge(i.UpdatedAt, now, selected)

	row := fmt.Sprintf("%s%s%s  %s  %s  %s  %s", cursor, icon, repo, number, title, lvl, age)
	if selected {
		return listSelectedStyle.Width(tableWidth).Render(row)
	}
	return row
}

func renderDifficulty(d model.Difficulty, selected bool) string {
	mark := format.DifficultyMark(d)
	switch d {
	case model.DifficultyBeginner:
		return applyStyle(listBeginnerStyle, mark, selected)
	case model.DifficultyAdvanced:
		return applyStyle(listAdvancedStyle, mark, selected)
	default:
		return applyStyle(listIntermediateStyle, mark, selected)
	}
}

func renderAge(updated, now time.Time, selected bool) string {
	age := format.Age(updated, now)
	if now.Sub(updated) < 7*24*time.Hour {
		return applyStyle(listAgeRecentStyle, age, selected)
	}
	return applyStyle(listAgeStaleStyle, age, selected)
}

// calculateScrollWindow determines which items to show based on cursor position
func calculateScrollWindow(cursor, total, viewHeight int) (start, end int) {
	if total <= viewHeight {
		return 0, total
	}

	start = max(cursor-viewHeight/2, 0)
	end = start + viewHeight
	if end > total {
		end = total
		start = max(end-viewHeight, 0)
	}
	return start, end
}

func renderHelp() string {
	return listHelpStyle.Render("j/k: nav   o: open   x: dismiss   u: undo   b: beginner only   r: refresh   q: quit")
}
