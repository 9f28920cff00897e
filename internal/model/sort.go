package model

import "fmt"

// SortKey is a user-facing ordering intent.
type SortKey string

const (
	SortNone     SortKey = ""
	SortUpdated  SortKey = "updated"
	SortCreated  SortKey = "created"
	SortComments SortKey = "comments"
	SortStars    SortKey = "stars"
)

// AllSortKeys lists the selectable sort keys.
var AllSortKeys = []SortKey{SortUpdated, SortCreated, SortComments, SortStars}

// ParseSortKey validates a sort key. The empty string is SortNone.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortNone, nil
	}
	for _, k := range AllSortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return SortNone, fmt.Errorf("invalid sort key %q (valid: updated, created, comments, stars)", s)
}
