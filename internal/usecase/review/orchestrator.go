// Package review orchestrates AI-generated summaries and code reviews for
// pull requests.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/ai"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// GitProvider abstracts the source-control host operations the orchestrator
// consumes. Clients are installation-scoped, so the provider is threaded
// through each call instead of being held on the orchestrator.
type GitProvider interface {
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]github.ChangedFile, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string) ([]github.ChangedFile, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error)
	UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error
	CreateReview(ctx context.Context, owner, repo string, number int, input github.CreateReviewInput) (*github.Review, error)
}

// Completions defines the outbound port for the AI completion API.
type Completions interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
}

// CommentStore persists orchestrator-managed pull request comments.
type CommentStore interface {
	// GetSummaryComment returns the live summary comment for a pull request,
	// or domain.ErrNotFound when none exists.
	GetSummaryComment(ctx context.Context, pullRequestID int64) (domain.PullRequestComment, error)
	SaveComment(ctx context.Context, comment domain.PullRequestComment) error
	UpdateComment(ctx context.Context, id int64, body, commitSHA string) error
}

// ReviewFilter narrows code review lookups. An empty CommitSHA matches any
// commit.
type ReviewFilter struct {
	PullRequestID int64
	Reviewer      string
	CommitSHA     string
}

// ReviewStore persists code review records.
type ReviewStore interface {
	// GetLastReview returns the most recent review matching the filter, or
	// domain.ErrNotFound when none exists.
	GetLastReview(ctx context.Context, filter ReviewFilter) (domain.CodeReview, error)
	SaveCodeReview(ctx context.Context, review domain.CodeReview) error
}

// Params identifies the pull request a review operation targets.
type Params struct {
	PullRequest domain.PullRequest
	Repository  domain.Repository
}

// Deps captures the orchestrator's injected collaborators.
type Deps struct {
	Comments CommentStore
	Reviews  ReviewStore
	AI       Completions
	Log      *zap.SugaredLogger

	// BotLogin is the login the orchestrator posts and deduplicates under.
	BotLogin string
}

// Orchestrator decides between full and incremental review strategies, builds
// model context, and publishes results back to the provider and storage.
//
// Webhook deliveries for the same pull request may arrive out of order and
// duplicated; safety comes from the head-SHA idempotency checks here, not
// from sequencing.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

const (
	noticeNoChangesSinceLast = "No changes detected since the last review."
	noticeNoChangesDetected  = "No changes detected to analyze."
	noticeNoRelevantChanges  = "No relevant changes detected"
)

// commitTrailer is appended to every published body so the reviewed commit is
// recoverable from the comment itself.
func commitTrailer(sha string) string {
	return fmt.Sprintf("\n\nLast commit reviewed: %s", sha)
}

// GenerateSummary publishes or refreshes the single live summary comment for
// the pull request. When the stored summary already reflects the current head
// SHA the model is not invoked and only a short notice is posted, which makes
// retried and out-of-order deliveries safe.
func (o *Orchestrator) GenerateSummary(ctx context.Context, provider GitProvider, params Params) error {
	pr := params.PullRequest
	repo := params.Repository
	log := o.deps.Log.With("repository", repo.FullName, "pullNumber", pr.Number)

	comment, err := o.deps.Comments.GetSummaryComment(ctx, pr.ID)
	hasPrior := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Errorw("failed to load summary comment", "error", err)
		return nil
	}

	if hasPrior && comment.CommitSHA == pr.HeadSHA {
		log.Infow("summary up to date", "headSha", pr.HeadSHA)
		o.postNotice(ctx, provider, repo, pr, noticeNoChangesSinceLast)
		return nil
	}

	files, err := o.collectChangedFiles(ctx, provider, repo, pr, hasPrior, comment.CommitSHA)
	if err != nil {
		log.Errorw("failed to collect changed files", "error", err)
		return nil
	}

	files = FilterSupportedFiles(files)
	if len(files) == 0 {
		log.Infow("no supported files changed")
		o.postNotice(ctx, provider, repo, pr, noticeNoChangesDetected)
		return nil
	}

	prompt := buildSummaryPrompt(pr, files, !hasPrior)
	var messages []ai.Message
	if hasPrior {
		messages = append(messages, ai.Message{Role: "user", Content: priorSummaryContext(comment.Body)})
	}
	messages = append(messages, ai.Message{Role: "user", Content: prompt})

	text, err := o.deps.AI.Complete(ctx, ai.CompletionRequest{
		SystemInstructions: summarySystemPrompt,
		Messages:           messages,
	})
	if err != nil {
		log.Errorw("completion failed", "error", err)
		return nil
	}

	body := text + commitTrailer(pr.HeadSHA)

	if !hasPrior {
		created, err := provider.CreateIssueComment(ctx, repo.Owner, repo.Name, pr.Number, body)
		if err != nil {
			log.Errorw("failed to create summary comment", "error", err)
			return nil
		}
		row := domain.PullRequestComment{
			ID:            created.ID,
			PullRequestID: pr.ID,
			Author:        o.deps.BotLogin,
			AuthorType:    domain.AuthorTypeBot,
			Body:          body,
			Type:          domain.CommentTypeSummary,
			CommitSHA:     pr.HeadSHA,
			CreatedAt:     created.CreatedAt,
			UpdatedAt:     created.UpdatedAt,
		}
		if err := o.deps.Comments.SaveComment(ctx, row); err != nil {
			log.Warnw("failed to persist summary comment", "error", err)
		}
		log.Infow("summary created", "commentId", created.ID, "headSha", pr.HeadSHA)
		return nil
	}

	if err := provider.UpdateIssueComment(ctx, repo.Owner, repo.Name, comment.ID, body); err != nil {
		log.Errorw("failed to update summary comment", "error", err)
		return nil
	}
	if err := o.deps.Comments.UpdateComment(ctx, comment.ID, body, pr.HeadSHA); err != nil {
		log.Warnw("failed to persist summary comment update", "error", err)
	}
	log.Infow("summary updated", "commentId", comment.ID, "headSha", pr.HeadSHA)
	return nil
}

// GenerateReview runs an AI code review and publishes it as a single pull
// request review carrying the general comment plus all inline comments.
// A stored bot review for the current head SHA short-circuits the whole
// operation.
func (o *Orchestrator) GenerateReview(ctx context.Context, provider GitProvider, params Params) error {
	pr := params.PullRequest
	repo := params.Repository
	log := o.deps.Log.With("repository", repo.FullName, "pullNumber", pr.Number)

	_, err := o.deps.Reviews.GetLastReview(ctx, ReviewFilter{
		PullRequestID: pr.ID,
		Reviewer:      o.deps.BotLogin,
		CommitSHA:     pr.HeadSHA,
	})
	if err == nil {
		log.Infow("review up to date", "headSha", pr.HeadSHA)
		o.postNotice(ctx, provider, repo, pr, noticeNoChangesSinceLast)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Errorw("failed to look up last review", "error", err)
		return nil
	}

	// Any prior bot review, regardless of commit, selects the incremental
	// strategy and supplies the compare base.
	lastReview, err := o.deps.Reviews.GetLastReview(ctx, ReviewFilter{
		PullRequestID: pr.ID,
		Reviewer:      o.deps.BotLogin,
	})
	firstReview := errors.Is(err, domain.ErrNotFound)
	if err != nil && !firstReview {
		log.Errorw("failed to look up review history", "error", err)
		return nil
	}

	files, err := o.collectChangedFiles(ctx, provider, repo, pr, !firstReview, lastReview.CommitSHA)
	if err != nil {
		log.Errorw("failed to collect changed files", "error", err)
		return nil
	}

	files = FilterSupportedFiles(files)
	if len(files) == 0 {
		log.Infow("no supported files changed")
		o.postNotice(ctx, provider, repo, pr, noticeNoChangesDetected)
		return nil
	}

	prompt := buildReviewPrompt(pr, files)
	text, err := o.deps.AI.Complete(ctx, ai.CompletionRequest{
		SystemInstructions: reviewSystemPrompt,
		Messages:           []ai.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		log.Errorw("completion failed", "error", err)
		return nil
	}

	comments, err := ParseReviewComments(text)
	if err != nil {
		// Malformed output is a parse failure, never a partial success.
		log.Errorw("failed to parse model review output", "error", err)
		return nil
	}

	general := noticeNoRelevantChanges
	if len(comments) > 0 {
		general = fmt.Sprintf("%d comments", len(comments))
	}
	general += commitTrailer(pr.HeadSHA)

	input := github.CreateReviewInput{
		CommitID: pr.HeadSHA,
		Event:    "COMMENT",
		Body:     general,
		Comments: draftComments(comments),
	}
	created, err := provider.CreateReview(ctx, repo.Owner, repo.Name, pr.Number, input)
	if err != nil {
		log.Errorw("failed to create review", "error", err)
		return nil
	}

	row := domain.CodeReview{
		ID:            created.ID,
		PullRequestID: pr.ID,
		Reviewer:      o.deps.BotLogin,
		ReviewerType:  domain.AuthorTypeBot,
		Status:        domain.ReviewStatusCommented,
		CommitSHA:     pr.HeadSHA,
		Body:          general,
		SubmittedAt:   reviewTimestamp(created),
	}
	if err := o.deps.Reviews.SaveCodeReview(ctx, row); err != nil {
		log.Warnw("failed to persist code review", "error", err)
	}
	log.Infow("review published", "reviewId", created.ID, "comments", len(comments), "incremental", !firstReview)
	return nil
}

// collectChangedFiles picks the context strategy: the full file list on the
// first run, the compare diff between the last reviewed commit and the new
// head afterwards. The incremental path bounds model input as a pull request
// accumulates commits.
func (o *Orchestrator) collectChangedFiles(ctx context.Context, provider GitProvider, repo domain.Repository, pr domain.PullRequest, incremental bool, lastCommit string) ([]github.ChangedFile, error) {
	if incremental && lastCommit != "" {
		return provider.CompareCommits(ctx, repo.Owner, repo.Name, lastCommit, pr.HeadSHA)
	}
	return provider.ListChangedFiles(ctx, repo.Owner, repo.Name, pr.Number)
}

// postNotice posts a short explanatory comment. Failures are logged only; a
// notice is never worth aborting the delivery over.
func (o *Orchestrator) postNotice(ctx context.Context, provider GitProvider, repo domain.Repository, pr domain.PullRequest, notice string) {
	if _, err := provider.CreateIssueComment(ctx, repo.Owner, repo.Name, pr.Number, notice); err != nil {
		o.deps.Log.Warnw("failed to post notice",
			"repository", repo.FullName,
			"pullNumber", pr.Number,
			"error", err,
		)
	}
}

func draftComments(comments []ReviewComment) []github.DraftReviewComment {
	drafts := make([]github.DraftReviewComment, 0, len(comments))
	for _, c := range comments {
		drafts = append(drafts, github.DraftReviewComment{
			Path:     c.Path,
			Body:     c.Body,
			Line:     c.Line,
			Position: c.Position,
		})
	}
	return drafts
}

func reviewTimestamp(r *github.Review) time.Time {
	if !r.SubmittedAt.IsZero() {
		return r.SubmittedAt
	}
	return time.Now().UTC()
}
