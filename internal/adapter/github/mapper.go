package github

import (
	"strings"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// MapPullRequest converts the REST pull request shape to the domain entity.
func MapPullRequest(pr PullRequest, repositoryID int64) domain.PullRequest {
	return domain.PullRequest{
		ID:           pr.ID,
		NodeID:       pr.NodeID,
		Number:       pr.Number,
		Title:        pr.Title,
		Body:         pr.Body,
		State:        pr.State,
		HeadSHA:      pr.Head.SHA,
		BaseSHA:      pr.Base.SHA,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
		ChangedFiles: pr.ChangedFiles,
		Author:       pr.User.Login,
		AuthorType:   pr.User.Type,
		RepositoryID: repositoryID,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
		ClosedAt:     pr.ClosedAt,
		MergedAt:     pr.MergedAt,
	}
}

// MapReview converts the REST review shape to the domain entity.
func MapReview(r Review, pullRequestID int64) domain.CodeReview {
	return domain.CodeReview{
		ID:            r.ID,
		PullRequestID: pullRequestID,
		Reviewer:      r.User.Login,
		ReviewerType:  r.User.Type,
		Status:        mapReviewState(r.State),
		CommitSHA:     r.CommitID,
		Body:          r.Body,
		SubmittedAt:   r.SubmittedAt,
	}
}

// mapReviewState normalizes the provider's upper-case review states.
func mapReviewState(state string) string {
	switch strings.ToUpper(state) {
	case "APPROVED":
		return domain.ReviewStatusApproved
	case "CHANGES_REQUESTED":
		return domain.ReviewStatusChangesRequested
	default:
		return domain.ReviewStatusCommented
	}
}
