package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// handleInstallation reacts to app installation lifecycle events: a new
// installation creates the account, registers its repositories, and kicks
// off the history backfill; an uninstall removes the account.
func (h *handlers) handleInstallation(ctx context.Context, d Delivery) error {
	var payload installationPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode installation payload: %w", err)
	}

	account := payload.Installation.Account
	log := h.deps.Log.With("event", "installation", "action", payload.Action, "account", account.Login)

	switch payload.Action {
	case "created":
		if err := h.deps.Accounts.SaveAccount(ctx, domain.Account{
			ID:        account.ID,
			Login:     account.Login,
			Type:      account.Type,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		if payload.Sender.ID != 0 {
			if err := h.deps.Accounts.SaveUser(ctx, domain.User{
				ID:    payload.Sender.ID,
				Login: payload.Sender.Login,
				Type:  payload.Sender.Type,
			}); err != nil {
				log.Warnw("failed to save installing user", "error", err)
			}
		}

		repos := make([]domain.Repository, 0, len(payload.Repositories))
		for _, r := range payload.Repositories {
			repos = append(repos, mapRepositorySummary(r, account.ID, account.Login))
		}
		if len(repos) > 0 {
			if err := h.deps.Accounts.SaveRepositories(ctx, repos); err != nil {
				return fmt.Errorf("save repositories: %w", err)
			}
		}

		h.backfillRepositories(ctx, d, repos)
		log.Infow("installation registered", "repositories", len(repos))

	case "deleted":
		if err := h.deps.Accounts.DeleteAccount(ctx, account.ID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		log.Infow("installation removed")

	default:
		// The webhook source emits more actions than the system cares about.
	}

	return nil
}

// handleInstallationRepositories reacts to repositories being added to or
// removed from an existing installation.
func (h *handlers) handleInstallationRepositories(ctx context.Context, d Delivery) error {
	var payload installationRepositoriesPayload
	if err := json.Unmarshal(d.Payload, &payload); err != nil {
		return fmt.Errorf("decode installation_repositories payload: %w", err)
	}

	account := payload.Installation.Account
	log := h.deps.Log.With("event", "installation_repositories", "action", payload.Action, "account", account.Login)

	switch payload.Action {
	case "added":
		repos := make([]domain.Repository, 0, len(payload.RepositoriesAdded))
		for _, r := range payload.RepositoriesAdded {
			repos = append(repos, mapRepositorySummary(r, account.ID, account.Login))
		}
		if len(repos) == 0 {
			return nil
		}
		if err := h.deps.Accounts.SaveRepositories(ctx, repos); err != nil {
			return fmt.Errorf("save repositories: %w", err)
		}
		h.backfillRepositories(ctx, d, repos)
		log.Infow("repositories added", "count", len(repos))

	case "removed":
		ids := make([]int64, 0, len(payload.RepositoriesRemoved))
		for _, r := range payload.RepositoriesRemoved {
			// Pull requests go first; a failure here must not prevent the
			// repository deletion from being attempted.
			if err := h.deps.PullRequests.DeletePullRequestsByRepository(ctx, r.ID); err != nil {
				log.Errorw("failed to delete pull requests", "repositoryId", r.ID, "error", err)
			}
			ids = append(ids, r.ID)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := h.deps.Accounts.DeleteRepositories(ctx, ids); err != nil {
			return fmt.Errorf("delete repositories: %w", err)
		}
		log.Infow("repositories removed", "count", len(ids))

	default:
	}

	return nil
}

// backfillRepositories imports history for each repository independently; a
// failure in one does not abort the others.
func (h *handlers) backfillRepositories(ctx context.Context, d Delivery, repos []domain.Repository) {
	if d.Provider == nil {
		h.deps.Log.Warnw("no provider client on delivery, skipping backfill")
		return
	}
	for _, repo := range repos {
		if err := h.deps.History.Backfill(ctx, d.Provider, repo); err != nil {
			h.deps.Log.Errorw("history backfill failed", "repository", repo.FullName, "error", err)
		}
	}
}
