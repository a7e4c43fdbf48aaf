package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// handlePullRequestReview mirrors human review submissions. The bot's own
// reviews are persisted by the orchestrator at publish time, so its echoes are
// skipped here.
func (h *handlers) handlePullRequestReview(ctx context.Context, d Delivery) error {
	var payload pullRequestReviewPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode pull_request_review payload: %w", err)
	}

	if payload.Review.User.Login == h.deps.BotLogin {
		return nil
	}

	switch payload.Action {
	case "submitted", "edited":
		row := github.MapReview(payload.Review, payload.PullRequest.ID)
		if err := h.deps.Reviews.SaveCodeReview(ctx, row); err != nil {
			return fmt.Errorf("save code review: %w", err)
		}
		h.deps.Log.Infow("code review mirrored",
			"event", "pull_request_review",
			"repository", payload.Repository.FullName,
			"pullNumber", payload.PullRequest.Number,
			"reviewer", payload.Review.User.Login,
		)

	default:
	}

	return nil
}

// handleReviewComment mirrors inline review comments.
func (h *handlers) handleReviewComment(ctx context.Context, d Delivery) error {
	var payload reviewCommentPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode pull_request_review_comment payload: %w", err)
	}

	comment := payload.Comment
	if comment.User.Login == h.deps.BotLogin {
		return nil
	}

	switch payload.Action {
	case "created":
		row := domain.PullRequestComment{
			ID:            comment.ID,
			PullRequestID: payload.PullRequest.ID,
			Author:        comment.User.Login,
			AuthorType:    comment.User.Type,
			Body:          comment.Body,
			Type:          domain.CommentTypeReview,
			CommitSHA:     comment.CommitID,
			CreatedAt:     comment.CreatedAt,
			UpdatedAt:     comment.UpdatedAt,
		}
		if err := h.deps.Comments.SaveComment(ctx, row); err != nil {
			return fmt.Errorf("save review comment: %w", err)
		}

	case "edited":
		if err := h.deps.Comments.UpdateCommentBody(ctx, comment.ID, comment.Body, comment.UpdatedAt); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("update review comment: %w", err)
		}

	case "deleted":
		if err := h.deps.Comments.DeleteComment(ctx, comment.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("delete review comment: %w", err)
		}

	default:
	}

	return nil
}

// handleReviewThread marks every comment in a thread resolved or unresolved.
func (h *handlers) handleReviewThread(ctx context.Context, d Delivery) error {
	var payload reviewThreadPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode pull_request_review_thread payload: %w", err)
	}

	ids := make([]int64, 0, len(payload.Thread.Comments))
	for _, c := range payload.Thread.Comments {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	switch payload.Action {
	case "resolved":
		now := nowUTC()
		if err := h.deps.Comments.SetCommentsResolved(ctx, ids, &now); err != nil {
			return fmt.Errorf("resolve comments: %w", err)
		}

	case "unresolved":
		if err := h.deps.Comments.SetCommentsResolved(ctx, ids, nil); err != nil {
			return fmt.Errorf("unresolve comments: %w", err)
		}

	default:
	}

	return nil
}
