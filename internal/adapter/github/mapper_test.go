package github_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

func TestMapPullRequest(t *testing.T) {
	merged := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	pr := github.PullRequest{
		ID:           11,
		Number:       42,
		Title:        "Add parser",
		State:        "closed",
		Head:         github.CommitRef{SHA: "headsha"},
		Base:         github.CommitRef{SHA: "basesha"},
		Additions:    10,
		Deletions:    2,
		ChangedFiles: 3,
		User:         github.Actor{Login: "alice", Type: "User"},
		MergedAt:     &merged,
	}

	mapped := github.MapPullRequest(pr, 5)

	assert.Equal(t, int64(11), mapped.ID)
	assert.Equal(t, int64(5), mapped.RepositoryID)
	assert.Equal(t, "headsha", mapped.HeadSHA)
	assert.Equal(t, "basesha", mapped.BaseSHA)
	assert.Equal(t, "alice", mapped.Author)
	assert.Equal(t, domain.AuthorTypeUser, mapped.AuthorType)
	assert.Equal(t, &merged, mapped.MergedAt)
}

func TestMapReviewNormalizesState(t *testing.T) {
	cases := map[string]string{
		"APPROVED":          domain.ReviewStatusApproved,
		"approved":          domain.ReviewStatusApproved,
		"CHANGES_REQUESTED": domain.ReviewStatusChangesRequested,
		"COMMENTED":         domain.ReviewStatusCommented,
		"DISMISSED":         domain.ReviewStatusCommented,
	}
	for state, want := range cases {
		mapped := github.MapReview(github.Review{ID: 800, State: state, User: github.Actor{Login: "bob"}}, 11)
		assert.Equal(t, want, mapped.Status, "state %s", state)
		assert.Equal(t, int64(11), mapped.PullRequestID)
	}
}
