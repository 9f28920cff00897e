package format

import (
	"fmt"
	"time"
)

// Age renders the time since t in a compact form: "now", "5m", "2h", "3d",
// "2w", "3mo" or "1y". Times in the future render as "now".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}

	days := int(d.Hours() / 24)
	switch {
	case days < 7:
		return fmt.Sprintf("%dd", days)
	case days < 30:
		return fmt.Sprintf("%dw", days/7)
	case days < 365:
		return fmt.Sprintf("%dmo", days/30)
	default:
		return fmt.Sprintf("%dy", days/365)
	}
}

// Ago is Age with an "ago" suffix for prose output.
func Ago(t, now time.Time) string {
	a := Age(t, now)
	if a == "now" || a == "-" {
		return a
	}
	return a + " ago"
}
