package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// handleRepository mirrors repository lifecycle events into storage.
func (h *handlers) handleRepository(ctx context.Context, d Delivery) error {
	var payload repositoryPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode repository payload: %w", err)
	}

	repo := mapRepoRef(payload.Repository)
	log := h.deps.Log.With("event", "repository", "action", payload.Action, "repository", repo.FullName)

	switch payload.Action {
	case "created":
		if err := h.deps.Accounts.SaveRepositories(ctx, []domain.Repository{repo}); err != nil {
			return fmt.Errorf("save repository: %w", err)
		}
		log.Infow("repository registered")

	case "deleted":
		if err := h.deps.PullRequests.DeletePullRequestsByRepository(ctx, repo.ID); err != nil {
			log.Errorw("failed to delete pull requests", "error", err)
		}
		if err := h.deps.Accounts.DeleteRepositories(ctx, []int64{repo.ID}); err != nil {
			return fmt.Errorf("delete repository: %w", err)
		}
		log.Infow("repository removed")

	case "renamed":
		if err := h.deps.Accounts.RenameRepository(ctx, repo.ID, repo.Name, repo.FullName); err != nil {
			return fmt.Errorf("rename repository: %w", err)
		}
		log.Infow("repository renamed", "from", payload.Changes.Repository.Name.From)

	default:
	}

	return nil
}
