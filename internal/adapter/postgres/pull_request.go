package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

const (
	upsertPullRequestQuery = `INSERT INTO pull_requests (
	id, node_id, number, title, body, state, head_sha, base_sha,
	additions, deletions, changed_files, author, author_type,
	repository_id, created_at, updated_at, closed_at, merged_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	body = EXCLUDED.body,
	state = EXCLUDED.state,
	head_sha = EXCLUDED.head_sha,
	base_sha = EXCLUDED.base_sha,
	additions = EXCLUDED.additions,
	deletions = EXCLUDED.deletions,
	changed_files = EXCLUDED.changed_files,
	updated_at = EXCLUDED.updated_at,
	closed_at = EXCLUDED.closed_at,
	merged_at = EXCLUDED.merged_at`

	selectPullRequestByNumberQuery = `SELECT
	id, node_id, number, title, body, state, head_sha, base_sha,
	additions, deletions, changed_files, author, author_type,
	repository_id, created_at, updated_at, closed_at, merged_at
FROM pull_requests WHERE repository_id = $1 AND number = $2`

	deletePullRequestsByRepositoryQuery = `DELETE FROM pull_requests WHERE repository_id = $1`
)

// SavePullRequest upserts one pull request row.
func (s *Store) SavePullRequest(ctx context.Context, pr domain.PullRequest) error {
	if _, err := s.db.Exec(ctx, upsertPullRequestQuery, pullRequestArgs(pr)...); err != nil {
		s.log.Errorw("failed to upsert pull request", "error", err, "pullRequestId", pr.ID)
		return fmt.Errorf("upsert pull request: %w", err)
	}
	return nil
}

// SavePullRequests upserts pull requests in one batch round trip. Re-imports
// overwrite by id, which keeps the backfill idempotent.
func (s *Store) SavePullRequests(ctx context.Context, prs []domain.PullRequest) error {
	if len(prs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pr := range prs {
		batch.Queue(upsertPullRequestQuery, pullRequestArgs(pr)...)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		s.log.Errorw("failed to upsert pull requests", "error", err, "count", len(prs))
		return fmt.Errorf("upsert pull requests: %w", err)
	}
	return nil
}

// UpdatePullRequest applies a partial update; only the patch's non-nil fields
// change.
func (s *Store) UpdatePullRequest(ctx context.Context, id int64, patch domain.PullRequestPatch) error {
	sets := make([]string, 0, 10)
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Body != nil {
		add("body", *patch.Body)
	}
	if patch.State != nil {
		add("state", *patch.State)
	}
	if patch.HeadSHA != nil {
		add("head_sha", *patch.HeadSHA)
	}
	if patch.Additions != nil {
		add("additions", *patch.Additions)
	}
	if patch.Deletions != nil {
		add("deletions", *patch.Deletions)
	}
	if patch.ChangedFiles != nil {
		add("changed_files", *patch.ChangedFiles)
	}
	if patch.UpdatedAt != nil {
		add("updated_at", *patch.UpdatedAt)
	}
	if patch.ClosedAt != nil {
		add("closed_at", *patch.ClosedAt)
	}
	if patch.MergedAt != nil {
		add("merged_at", *patch.MergedAt)
	}
	if patch.ClearClosed {
		sets = append(sets, "closed_at = NULL", "merged_at = NULL")
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE pull_requests SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		s.log.Errorw("failed to update pull request", "error", err, "pullRequestId", id)
		return fmt.Errorf("update pull request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pull request %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetPullRequestByNumber returns the pull request for a repository and number,
// or domain.ErrNotFound.
func (s *Store) GetPullRequestByNumber(ctx context.Context, repositoryID int64, number int) (domain.PullRequest, error) {
	var pr domain.PullRequest
	err := s.db.QueryRow(ctx, selectPullRequestByNumberQuery, repositoryID, number).Scan(
		&pr.ID, &pr.NodeID, &pr.Number, &pr.Title, &pr.Body, &pr.State,
		&pr.HeadSHA, &pr.BaseSHA, &pr.Additions, &pr.Deletions, &pr.ChangedFiles,
		&pr.Author, &pr.AuthorType, &pr.RepositoryID,
		&pr.CreatedAt, &pr.UpdatedAt, &pr.ClosedAt, &pr.MergedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PullRequest{}, fmt.Errorf("pull request %d/%d: %w", repositoryID, number, domain.ErrNotFound)
		}
		s.log.Errorw("failed to select pull request", "error", err, "repositoryId", repositoryID, "pullNumber", number)
		return domain.PullRequest{}, fmt.Errorf("select pull request: %w", err)
	}
	return pr, nil
}

// DeletePullRequestsByRepository removes every pull request of a repository;
// reviews and comments cascade at the schema level.
func (s *Store) DeletePullRequestsByRepository(ctx context.Context, repositoryID int64) error {
	if _, err := s.db.Exec(ctx, deletePullRequestsByRepositoryQuery, repositoryID); err != nil {
		s.log.Errorw("failed to delete pull requests", "error", err, "repositoryId", repositoryID)
		return fmt.Errorf("delete pull requests: %w", err)
	}
	return nil
}

func pullRequestArgs(pr domain.PullRequest) []interface{} {
	return []interface{}{
		pr.ID, pr.NodeID, pr.Number, pr.Title, pr.Body, pr.State,
		pr.HeadSHA, pr.BaseSHA, pr.Additions, pr.Deletions, pr.ChangedFiles,
		pr.Author, pr.AuthorType, pr.RepositoryID,
		pr.CreatedAt, pr.UpdatedAt, pr.ClosedAt, pr.MergedAt,
	}
}
