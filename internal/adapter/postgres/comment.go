package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

const (
	upsertCommentQuery = `INSERT INTO pull_request_comments (
	id, pull_request_id, author, author_type, body, type, commit_sha,
	created_at, updated_at, resolved_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
	body = EXCLUDED.body,
	commit_sha = EXCLUDED.commit_sha,
	updated_at = EXCLUDED.updated_at,
	resolved_at = EXCLUDED.resolved_at`

	selectSummaryCommentQuery = `SELECT
	id, pull_request_id, author, author_type, body, type, commit_sha,
	created_at, updated_at, resolved_at
FROM pull_request_comments
WHERE pull_request_id = $1 AND type = $2 AND author_type = $3
ORDER BY created_at DESC
LIMIT 1`

	updateCommentQuery       = `UPDATE pull_request_comments SET body = $2, commit_sha = $3, updated_at = NOW() WHERE id = $1`
	updateCommentBodyQuery   = `UPDATE pull_request_comments SET body = $2, updated_at = $3 WHERE id = $1`
	deleteCommentQuery       = `DELETE FROM pull_request_comments WHERE id = $1`
	setCommentsResolvedQuery = `UPDATE pull_request_comments SET resolved_at = $2 WHERE id = ANY($1)`
)

// SaveComment upserts one comment row.
func (s *Store) SaveComment(ctx context.Context, comment domain.PullRequestComment) error {
	if _, err := s.db.Exec(ctx, upsertCommentQuery,
		comment.ID, comment.PullRequestID, comment.Author, comment.AuthorType,
		comment.Body, comment.Type, comment.CommitSHA,
		comment.CreatedAt, comment.UpdatedAt, comment.ResolvedAt,
	); err != nil {
		s.log.Errorw("failed to upsert comment", "error", err, "commentId", comment.ID)
		return fmt.Errorf("upsert comment: %w", err)
	}
	return nil
}

// GetSummaryComment returns the live bot summary comment for a pull request,
// or domain.ErrNotFound.
func (s *Store) GetSummaryComment(ctx context.Context, pullRequestID int64) (domain.PullRequestComment, error) {
	var c domain.PullRequestComment
	err := s.db.QueryRow(ctx, selectSummaryCommentQuery,
		pullRequestID, domain.CommentTypeSummary, domain.AuthorTypeBot,
	).Scan(
		&c.ID, &c.PullRequestID, &c.Author, &c.AuthorType, &c.Body, &c.Type,
		&c.CommitSHA, &c.CreatedAt, &c.UpdatedAt, &c.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PullRequestComment{}, fmt.Errorf("summary comment: %w", domain.ErrNotFound)
		}
		s.log.Errorw("failed to select summary comment", "error", err, "pullRequestId", pullRequestID)
		return domain.PullRequestComment{}, fmt.Errorf("select summary comment: %w", err)
	}
	return c, nil
}

// UpdateComment replaces the comment body and reviewed commit.
func (s *Store) UpdateComment(ctx context.Context, id int64, body, commitSHA string) error {
	tag, err := s.db.Exec(ctx, updateCommentQuery, id, body, commitSHA)
	if err != nil {
		s.log.Errorw("failed to update comment", "error", err, "commentId", id)
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateCommentBody replaces the comment body only.
func (s *Store) UpdateCommentBody(ctx context.Context, id int64, body string, updatedAt time.Time) error {
	tag, err := s.db.Exec(ctx, updateCommentBodyQuery, id, body, updatedAt)
	if err != nil {
		s.log.Errorw("failed to update comment body", "error", err, "commentId", id)
		return fmt.Errorf("update comment body: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteComment removes one comment row.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, deleteCommentQuery, id)
	if err != nil {
		s.log.Errorw("failed to delete comment", "error", err, "commentId", id)
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetCommentsResolved stamps or clears the resolution time for a batch of
// comments. Unknown ids are ignored; thread payloads may reference comments
// that were never mirrored.
func (s *Store) SetCommentsResolved(ctx context.Context, ids []int64, resolvedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, setCommentsResolvedQuery, ids, resolvedAt); err != nil {
		s.log.Errorw("failed to set comments resolved", "error", err, "count", len(ids))
		return fmt.Errorf("set comments resolved: %w", err)
	}
	return nil
}
