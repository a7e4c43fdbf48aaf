package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

const (
	upsertAccountQuery = `INSERT INTO accounts (id, login, type, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET login = EXCLUDED.login, type = EXCLUDED.type`

	deleteAccountQuery = `DELETE FROM accounts WHERE id = $1`

	upsertUserQuery = `INSERT INTO users (id, login, type)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET login = EXCLUDED.login, type = EXCLUDED.type`

	upsertRepositoryQuery = `INSERT INTO repositories (id, account_id, owner, name, full_name)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	account_id = EXCLUDED.account_id,
	owner = EXCLUDED.owner,
	name = EXCLUDED.name,
	full_name = EXCLUDED.full_name`

	deleteRepositoriesQuery = `DELETE FROM repositories WHERE id = ANY($1)`

	renameRepositoryQuery = `UPDATE repositories SET name = $2, full_name = $3 WHERE id = $1`
)

// SaveAccount upserts an installation account.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	if _, err := s.db.Exec(ctx, upsertAccountQuery,
		account.ID, account.Login, account.Type, account.CreatedAt,
	); err != nil {
		s.log.Errorw("failed to upsert account", "error", err, "accountId", account.ID)
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// DeleteAccount removes the account; repositories and their pull requests
// cascade at the schema level.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, deleteAccountQuery, id); err != nil {
		s.log.Errorw("failed to delete account", "error", err, "accountId", id)
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// SaveUser upserts a user row.
func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	if _, err := s.db.Exec(ctx, upsertUserQuery, user.ID, user.Login, user.Type); err != nil {
		s.log.Errorw("failed to upsert user", "error", err, "userId", user.ID)
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// SaveRepositories upserts repositories in one batch round trip.
func (s *Store) SaveRepositories(ctx context.Context, repos []domain.Repository) error {
	if len(repos) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range repos {
		batch.Queue(upsertRepositoryQuery, r.ID, r.AccountID, r.Owner, r.Name, r.FullName)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		s.log.Errorw("failed to upsert repositories", "error", err, "count", len(repos))
		return fmt.Errorf("upsert repositories: %w", err)
	}
	return nil
}

// DeleteRepositories removes repositories by id.
func (s *Store) DeleteRepositories(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, deleteRepositoriesQuery, ids); err != nil {
		s.log.Errorw("failed to delete repositories", "error", err, "count", len(ids))
		return fmt.Errorf("delete repositories: %w", err)
	}
	return nil
}

// RenameRepository updates the repository's name columns.
func (s *Store) RenameRepository(ctx context.Context, id int64, name, fullName string) error {
	if _, err := s.db.Exec(ctx, renameRepositoryQuery, id, name, fullName); err != nil {
		s.log.Errorw("failed to rename repository", "error", err, "repositoryId", id)
		return fmt.Errorf("rename repository: %w", err)
	}
	return nil
}
