// Package duration parses the human-readable windows accepted by --since.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var windowPattern = regexp.MustCompile(`^(\d+)\s*([a-z]+)$`)

var units = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": 7 * day, "wk": 7 * day, "wks": 7 * day, "week": 7 * day, "weeks": 7 * day,
	"mo": 30 * day, "month": 30 * day, "months": 30 * day,
	"y": 365 * day, "yr": 365 * day, "yrs": 365 * day, "year": 365 * day, "years": 365 * day,
}

// ParseWindow parses durations like "90m", "1w", "30d" or "6mo".
func ParseWindow(s string) (time.Duration, error) {
	m := windowPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("invalid duration format: %q (use e.g. 1w, 30d, 6mo)", s)
	}
	unit, ok := units[m[2]]
	if !ok {
		return 0, fmt.Errorf("unknown duration unit: %q", m[2])
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return time.Duration(n) * unit, nil
}

// Cutoff resolves s to an absolute time. s is either a window relative to
// now or a calendar date (2006-01-02) or RFC 3339 timestamp.
func Cutoff(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	d, err := ParseWindow(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
