package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
)

// Commands users can address to the bot from a pull request conversation.
const (
	commandReview    = "/review"
	commandSummarize = "/summarize"
)

// handleIssueComment mirrors conversation comments on pull requests and
// executes slash commands. Comments on plain issues and the bot's own echoes
// are ignored.
func (h *handlers) handleIssueComment(ctx context.Context, d Delivery) error {
	var payload issueCommentPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode issue_comment payload: %w", err)
	}

	if payload.Issue.PullRequest == nil {
		return nil
	}

	repo := mapRepoRef(payload.Repository)
	comment := payload.Comment
	log := h.deps.Log.With(
		"event", "issue_comment",
		"action", payload.Action,
		"repository", repo.FullName,
		"pullNumber", payload.Issue.Number,
	)

	if comment.User.Login == h.deps.BotLogin {
		return nil
	}

	switch payload.Action {
	case "created":
		if cmd := parseCommand(comment.Body); cmd != "" {
			return h.runCommand(ctx, d, repo, payload.Issue.Number, cmd, log)
		}

		pr, err := h.deps.PullRequests.GetPullRequestByNumber(ctx, repo.ID, payload.Issue.Number)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				log.Infow("comment on untracked pull request, skipping")
				return nil
			}
			return fmt.Errorf("look up pull request: %w", err)
		}
		row := domain.PullRequestComment{
			ID:            comment.ID,
			PullRequestID: pr.ID,
			Author:        comment.User.Login,
			AuthorType:    comment.User.Type,
			Body:          comment.Body,
			Type:          domain.CommentTypeIssue,
			CreatedAt:     comment.CreatedAt,
			UpdatedAt:     comment.UpdatedAt,
		}
		if err := h.deps.Comments.SaveComment(ctx, row); err != nil {
			return fmt.Errorf("save comment: %w", err)
		}

	case "edited":
		if err := h.deps.Comments.UpdateCommentBody(ctx, comment.ID, comment.Body, comment.UpdatedAt); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("update comment: %w", err)
		}

	case "deleted":
		if err := h.deps.Comments.DeleteComment(ctx, comment.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("delete comment: %w", err)
		}

	default:
	}

	return nil
}

// parseCommand extracts a recognized slash command from the first line of a
// comment body, or returns the empty string.
func parseCommand(body string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	switch strings.TrimSpace(first) {
	case commandReview:
		return commandReview
	case commandSummarize:
		return commandSummarize
	}
	return ""
}

// runCommand refreshes the pull request so the workflow targets the current
// head, then dispatches to the requested generator.
func (h *handlers) runCommand(ctx context.Context, d Delivery, repo domain.Repository, number int, cmd string, log loggerish) error {
	pr, err := h.refreshPullRequest(ctx, d, repo, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Infow("command on untracked pull request, skipping", "command", cmd)
			return nil
		}
		return fmt.Errorf("resolve pull request for command %s: %w", cmd, err)
	}
	if d.Provider == nil {
		log.Warnw("no provider client on delivery, skipping command", "command", cmd)
		return nil
	}

	params := review.Params{PullRequest: pr, Repository: repo}
	switch cmd {
	case commandSummarize:
		return h.deps.Reviewer.GenerateSummary(ctx, d.Provider, params)
	case commandReview:
		return h.deps.Reviewer.GenerateReview(ctx, d.Provider, params)
	}
	return nil
}

// loggerish is the slice of the sugared logger the command path needs; it
// keeps runCommand testable with the caller's contextual logger.
type loggerish interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}
