package format

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ago      time.Duration
		expected string
	}{
		{"just updated", 10 * time.Second, "now"},
		{"future timestamp", -time.Hour, "now"},
		{"minutes", 45 * time.Minute, "45m"},
		{"hours", 5 * time.Hour, "5h"},
		{"one day", 24 * time.Hour, "1d"},
		{"six days", 6 * 24 * time.Hour, "6d"},
		{"two weeks", 15 * 24 * time.Hour, "2w"},
		{"two months", 61 * 24 * time.Hour, "2mo"},
		{"eleven months", 364 * 24 * time.Hour, "12mo"},
		{"a year", 400 * 24 * time.Hour, "1y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Age(now.Add(-tt.ago), now)
			if got != tt.expected {
				t.Errorf("Age(-%v) = %q, want %q", tt.ago, got, tt.expected)
			}
		})
	}
}

func TestAgeZeroTime(t *testing.T) {
	if got := Age(time.Time{}, time.Now()); got != "-" {
		t.Errorf("Age(zero) = %q, want -", got)
	}
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := Ago(now.Add(-3*time.Hour), now); got != "3h ago" {
		t.Errorf("Ago = %q", got)
	}
	if got := Ago(now, now); got != "now" {
		t.Errorf("Ago = %q", got)
	}
}
