package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
)

// handlePullRequest mirrors pull request lifecycle events and triggers the AI
// workflow on opened and synchronize.
func (h *handlers) handlePullRequest(ctx context.Context, d Delivery) error {
	var payload pullRequestPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode pull_request payload: %w", err)
	}

	repo := mapRepoRef(payload.Repository)
	pr := github.MapPullRequest(payload.PullRequest, repo.ID)
	log := h.deps.Log.With(
		"event", "pull_request",
		"action", payload.Action,
		"repository", repo.FullName,
		"pullNumber", pr.Number,
	)

	switch payload.Action {
	case "opened":
		if err := h.deps.PullRequests.SavePullRequest(ctx, pr); err != nil {
			return fmt.Errorf("save pull request: %w", err)
		}
		log.Infow("pull request registered", "headSha", pr.HeadSHA)
		h.runReviewWorkflow(ctx, d, repo, pr)

	case "synchronize":
		patch := domain.PullRequestPatch{
			HeadSHA:      &pr.HeadSHA,
			Title:        &pr.Title,
			Body:         &pr.Body,
			Additions:    &pr.Additions,
			Deletions:    &pr.Deletions,
			ChangedFiles: &pr.ChangedFiles,
			UpdatedAt:    &pr.UpdatedAt,
		}
		if err := h.deps.PullRequests.UpdatePullRequest(ctx, pr.ID, patch); err != nil {
			return fmt.Errorf("update pull request: %w", err)
		}
		log.Infow("pull request synchronized", "headSha", pr.HeadSHA)
		h.runReviewWorkflow(ctx, d, repo, pr)

	case "edited":
		patch := domain.PullRequestPatch{
			Title:     &pr.Title,
			Body:      &pr.Body,
			UpdatedAt: &pr.UpdatedAt,
		}
		if err := h.deps.PullRequests.UpdatePullRequest(ctx, pr.ID, patch); err != nil {
			return fmt.Errorf("update pull request: %w", err)
		}

	case "closed":
		state := domain.PRStateClosed
		patch := domain.PullRequestPatch{
			State:     &state,
			ClosedAt:  pr.ClosedAt,
			MergedAt:  pr.MergedAt,
			UpdatedAt: &pr.UpdatedAt,
		}
		if err := h.deps.PullRequests.UpdatePullRequest(ctx, pr.ID, patch); err != nil {
			return fmt.Errorf("update pull request: %w", err)
		}
		log.Infow("pull request closed", "merged", pr.MergedAt != nil)

	case "reopened":
		state := domain.PRStateOpen
		patch := domain.PullRequestPatch{
			State:       &state,
			ClearClosed: true,
			UpdatedAt:   &pr.UpdatedAt,
		}
		if err := h.deps.PullRequests.UpdatePullRequest(ctx, pr.ID, patch); err != nil {
			return fmt.Errorf("update pull request: %w", err)
		}
		log.Infow("pull request reopened")

	default:
	}

	return nil
}

// runReviewWorkflow publishes the summary and the review. Both degrade to
// logging on failure; the delivery already succeeded by the time they run.
func (h *handlers) runReviewWorkflow(ctx context.Context, d Delivery, repo domain.Repository, pr domain.PullRequest) {
	if d.Provider == nil {
		h.deps.Log.Warnw("no provider client on delivery, skipping review workflow")
		return
	}
	params := review.Params{PullRequest: pr, Repository: repo}
	if err := h.deps.Reviewer.GenerateSummary(ctx, d.Provider, params); err != nil {
		h.deps.Log.Errorw("summary workflow failed", "repository", repo.FullName, "pullNumber", pr.Number, "error", err)
	}
	if err := h.deps.Reviewer.GenerateReview(ctx, d.Provider, params); err != nil {
		h.deps.Log.Errorw("review workflow failed", "repository", repo.FullName, "pullNumber", pr.Number, "error", err)
	}
}

// refreshPullRequest fetches the current pull request state from the provider
// so that command-triggered runs see the latest head SHA, falling back to the
// stored row when the fetch fails.
func (h *handlers) refreshPullRequest(ctx context.Context, d Delivery, repo domain.Repository, number int) (domain.PullRequest, error) {
	if d.Provider != nil {
		fetched, err := d.Provider.GetPullRequest(ctx, repo.Owner, repo.Name, number)
		if err == nil {
			return github.MapPullRequest(*fetched, repo.ID), nil
		}
		h.deps.Log.Warnw("failed to fetch pull request, using stored row",
			"repository", repo.FullName,
			"pullNumber", number,
			"error", err,
		)
	}
	return h.deps.PullRequests.GetPullRequestByNumber(ctx, repo.ID, number)
}

func nowUTC() time.Time { return time.Now().UTC() }
