package model

import (
	"fmt"
	"time"

	"github.com/spiffcs/firstissue/internal/urlutil"
)

// Label is an issue label as shown on the platform.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// RawIssue is an issue exactly as retrieved, before classification.
type RawIssue struct {
	ID            int64     `json:"id"`
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Labels        []Label   `json:"labels,omitempty"`
	Author        string    `json:"author,omitempty"`
	RepositoryURL string    `json:"repositoryUrl"`
	HTMLURL       string    `json:"htmlUrl,omitempty"`
	Comments      int       `json:"comments"`
	Reactions     int       `json:"reactions"`
	Assignee      string    `json:"assignee,omitempty"`
}

// NewRawIssue returns a copy of i that shares no slices with the input.
func NewRawIssue(i RawIssue) RawIssue {
	if i.Labels != nil {
		i.Labels = append([]Label(nil), i.Labels...)
	}
	return i
}

// RepoFullName derives the owning repository from the API back-reference.
// Malformed references yield UnknownRepository.
func (i RawIssue) RepoFullName() string {
	name, ok := urlutil.RepoFullNameFromAPIURL(i.RepositoryURL)
	if !ok {
		return UnknownRepository
	}
	return name
}

// Key identifies the issue across refreshes as owner/name#number.
func (i RawIssue) Key() string {
	return fmt.Sprintf("%s#%d", i.RepoFullName(), i.Number)
}

// LabelNames returns the label names in platform order.
func (i RawIssue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// IsAssigned reports whether someone already claimed the issue.
func (i RawIssue) IsAssigned() bool {
	return i.Assignee != ""
}

// ClassifiedIssue is a RawIssue annotated with derived badges.
type ClassifiedIssue struct {
	RawIssue
	Repository string     `json:"repository"`
	Category   Category   `json:"category"`
	Priority   Priority   `json:"priority"`
	Difficulty Difficulty `json:"difficulty"`
}

// ScoredIssue pairs an issue with its owning repository and hybrid score.
type ScoredIssue struct {
	Issue      RawIssue      `json:"issue"`
	Repository RepositoryRef `json:"repository"`
	Score      float64       `json:"score"`
}
