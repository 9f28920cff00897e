// Package model contains the domain types for firstissue.
// These types are independent of any external GitHub library.
package model

import "strings"

// UnknownRepository is the full name attributed to an issue whose repository
// back-reference cannot be parsed.
const UnknownRepository = "unknown"

// RepositoryRef describes a repository as returned by the platform.
type RepositoryRef struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"fullName"`
	Stars       int      `json:"stars"`
	OpenIssues  int      `json:"openIssues"`
	Language    string   `json:"language,omitempty"`
	Private     bool     `json:"private"`
	Topics      []string `json:"topics,omitempty"`
	HTMLURL     string   `json:"htmlUrl,omitempty"`
	Description string   `json:"description,omitempty"`
}

// NewRepositoryRef returns a copy of r that shares no slices with the input.
func NewRepositoryRef(r RepositoryRef) RepositoryRef {
	if r.Topics != nil {
		r.Topics = append([]string(nil), r.Topics...)
	}
	if r.Stars < 0 {
		r.Stars = 0
	}
	return r
}

// Owner returns the owner segment of the full name.
func (r RepositoryRef) Owner() string {
	owner, _, _ := strings.Cut(r.FullName, "/")
	return owner
}

// Name returns the name segment of the full name.
func (r RepositoryRef) Name() string {
	_, name, _ := strings.Cut(r.FullName, "/")
	return name
}

// RepositoryFromFullName builds a reference that only carries the join key.
func RepositoryFromFullName(fullName string) RepositoryRef {
	return RepositoryRef{FullName: fullName}
}
