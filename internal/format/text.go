// Package format provides shared text formatting helpers for terminal output.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// ansiRegex matches SGR color sequences and OSC-8 hyperlink wrappers.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b\]8;;[^\x1b]*\x1b\\`)

// StripAnsi removes color and hyperlink escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of s in terminal columns.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// Truncate shortens plain text to at most width columns, marking the cut
// with an ellipsis. Newlines are flattened to spaces first.
func Truncate(s string, width int) string {
	s = SingleLine(s)
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// SingleLine collapses runs of whitespace, including newlines, into one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PadRight pads s with spaces to width visible columns. Escape sequences do
// not count toward the width.
func PadRight(s string, width int) string {
	w := DisplayWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Hyperlink wraps text in an OSC-8 escape so supporting terminals render it
// as a clickable link.
func Hyperlink(url, text string) string {
	if url == "" {
		return text
	}
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}
