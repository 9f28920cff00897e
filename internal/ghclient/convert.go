package ghclient

import (
	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/firstissue/internal/model"
)

// issueFromGitHub converts a go-github issue to a RawIssue.
func issueFromGitHub(issue *gh.Issue) model.RawIssue {
	labels := make([]model.Label, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, model.Label{Name: l.GetName(), Color: l.GetColor()})
	}

	return model.RawIssue{
		ID:            issue.GetID(),
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		Body:          issue.GetBody(),
		State:         issue.GetState(),
		CreatedAt:     issue.GetCreatedAt().Time,
		UpdatedAt:     issue.GetUpdatedAt().Time,
		Labels:        labels,
		Author:        issue.GetUser().GetLogin(),
		RepositoryURL: issue.GetRepositoryURL(),
		HTMLURL:       issue.GetHTMLURL(),
		Comments:      issue.GetComments(),
		Reactions:     issue.GetReactions().GetTotalCount(),
		Assignee:      issue.GetAssignee().GetLogin(),
	}
}

// repoFromGitHub converts a go-github repository to a RepositoryRef.
func repoFromGitHub(repo *gh.Repository) model.RepositoryRef {
	return model.NewRepositoryRef(model.RepositoryRef{
		ID:          repo.GetID(),
		FullName:    repo.GetFullName(),
		Stars:       repo.GetStargazersCount(),
		OpenIssues:  repo.GetOpenIssuesCount(),
		Language:    repo.GetLanguage(),
		Private:     repo.GetPrivate(),
		Topics:      repo.Topics,
		HTMLURL:     repo.GetHTMLURL(),
		Description: repo.GetDescription(),
	})
}

func reposFromGitHub(repos []*gh.Repository, limit int) []model.RepositoryRef {
	out := make([]model.RepositoryRef, 0, len(repos))
	for _, r := range repos {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, repoFromGitHub(r))
	}
	return out
}
