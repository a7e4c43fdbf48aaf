package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
)

const (
	upsertCodeReviewQuery = `INSERT INTO code_reviews (
	id, pull_request_id, reviewer, reviewer_type, status, commit_sha, body, submitted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	commit_sha = EXCLUDED.commit_sha,
	body = EXCLUDED.body,
	submitted_at = EXCLUDED.submitted_at`

	selectLastReviewQuery = `SELECT
	id, pull_request_id, reviewer, reviewer_type, status, commit_sha, body, submitted_at
FROM code_reviews
WHERE pull_request_id = $1 AND reviewer = $2 AND ($3 = '' OR commit_sha = $3)
ORDER BY submitted_at DESC
LIMIT 1`
)

// SaveCodeReview upserts one review row.
func (s *Store) SaveCodeReview(ctx context.Context, r domain.CodeReview) error {
	if _, err := s.db.Exec(ctx, upsertCodeReviewQuery, codeReviewArgs(r)...); err != nil {
		s.log.Errorw("failed to upsert code review", "error", err, "reviewId", r.ID)
		return fmt.Errorf("upsert code review: %w", err)
	}
	return nil
}

// SaveCodeReviews upserts review rows in one batch round trip.
func (s *Store) SaveCodeReviews(ctx context.Context, reviews []domain.CodeReview) error {
	if len(reviews) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range reviews {
		batch.Queue(upsertCodeReviewQuery, codeReviewArgs(r)...)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		s.log.Errorw("failed to upsert code reviews", "error", err, "count", len(reviews))
		return fmt.Errorf("upsert code reviews: %w", err)
	}
	return nil
}

// GetLastReview returns the most recent review matching the filter, or
// domain.ErrNotFound.
func (s *Store) GetLastReview(ctx context.Context, filter review.ReviewFilter) (domain.CodeReview, error) {
	var r domain.CodeReview
	err := s.db.QueryRow(ctx, selectLastReviewQuery,
		filter.PullRequestID, filter.Reviewer, filter.CommitSHA,
	).Scan(
		&r.ID, &r.PullRequestID, &r.Reviewer, &r.ReviewerType,
		&r.Status, &r.CommitSHA, &r.Body, &r.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CodeReview{}, fmt.Errorf("code review: %w", domain.ErrNotFound)
		}
		s.log.Errorw("failed to select last review", "error", err, "pullRequestId", filter.PullRequestID)
		return domain.CodeReview{}, fmt.Errorf("select last review: %w", err)
	}
	return r, nil
}

func codeReviewArgs(r domain.CodeReview) []interface{} {
	return []interface{}{
		r.ID, r.PullRequestID, r.Reviewer, r.ReviewerType,
		r.Status, r.CommitSHA, r.Body, r.SubmittedAt,
	}
}
