package webhook

import (
	"strings"
	"time"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// repositorySummary is the abbreviated repository shape carried by
// installation events.
type repositorySummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

type installationPayload struct {
	Action       string `json:"action"`
	Installation struct {
		ID      int64        `json:"id"`
		Account github.Actor `json:"account"`
	} `json:"installation"`
	Repositories []repositorySummary `json:"repositories"`
	Sender       github.Actor        `json:"sender"`
}

type installationRepositoriesPayload struct {
	Action       string `json:"action"`
	Installation struct {
		ID      int64        `json:"id"`
		Account github.Actor `json:"account"`
	} `json:"installation"`
	RepositoriesAdded   []repositorySummary `json:"repositories_added"`
	RepositoriesRemoved []repositorySummary `json:"repositories_removed"`
}

type repositoryPayload struct {
	Action     string         `json:"action"`
	Repository github.RepoRef `json:"repository"`
	Changes    struct {
		Repository struct {
			Name struct {
				From string `json:"from"`
			} `json:"name"`
		} `json:"repository"`
	} `json:"changes"`
}

type pullRequestPayload struct {
	Action      string             `json:"action"`
	Number      int                `json:"number"`
	PullRequest github.PullRequest `json:"pull_request"`
	Repository  github.RepoRef     `json:"repository"`
}

type issueCommentPayload struct {
	Action  string              `json:"action"`
	Comment github.IssueComment `json:"comment"`
	Issue   struct {
		Number      int `json:"number"`
		PullRequest *struct {
			URL string `json:"url"`
		} `json:"pull_request"`
	} `json:"issue"`
	Repository github.RepoRef `json:"repository"`
}

type pullRequestReviewPayload struct {
	Action      string             `json:"action"`
	Review      github.Review      `json:"review"`
	PullRequest github.PullRequest `json:"pull_request"`
	Repository  github.RepoRef     `json:"repository"`
}

type reviewCommentPayload struct {
	Action  string `json:"action"`
	Comment struct {
		ID        int64        `json:"id"`
		Body      string       `json:"body"`
		User      github.Actor `json:"user"`
		CommitID  string       `json:"commit_id"`
		CreatedAt time.Time    `json:"created_at"`
		UpdatedAt time.Time    `json:"updated_at"`
	} `json:"comment"`
	PullRequest github.PullRequest `json:"pull_request"`
	Repository  github.RepoRef     `json:"repository"`
}

type reviewThreadPayload struct {
	Action string `json:"action"`
	Thread struct {
		Comments []struct {
			ID int64 `json:"id"`
		} `json:"comments"`
	} `json:"thread"`
	PullRequest github.PullRequest `json:"pull_request"`
	Repository  github.RepoRef     `json:"repository"`
}

// mapRepositorySummary converts the abbreviated installation-event shape.
// The owner login is recovered from the full name because the summary omits
// the owner object.
func mapRepositorySummary(r repositorySummary, accountID int64, ownerLogin string) domain.Repository {
	owner := ownerLogin
	name := r.Name
	if parts := strings.SplitN(r.FullName, "/", 2); len(parts) == 2 {
		owner = parts[0]
		if name == "" {
			name = parts[1]
		}
	}
	return domain.Repository{
		ID:        r.ID,
		AccountID: accountID,
		Owner:     owner,
		Name:      name,
		FullName:  r.FullName,
	}
}

// mapRepoRef converts the full repository shape carried by repository and
// pull request events.
func mapRepoRef(r github.RepoRef) domain.Repository {
	return domain.Repository{
		ID:        r.ID,
		AccountID: r.Owner.ID,
		Owner:     r.Owner.Login,
		Name:      r.Name,
		FullName:  r.FullName,
	}
}
