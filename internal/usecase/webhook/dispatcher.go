// Package webhook dispatches provider webhook deliveries to per-event-type
// handlers.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/history"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
)

// EventType is the closed enumeration of webhook event types the system
// handles.
type EventType string

const (
	EventInstallation             EventType = "installation"
	EventInstallationRepositories EventType = "installation_repositories"
	EventRepository               EventType = "repository"
	EventPullRequest              EventType = "pull_request"
	EventIssueComment             EventType = "issue_comment"
	EventPullRequestReview        EventType = "pull_request_review"
	EventPullRequestReviewComment EventType = "pull_request_review_comment"
	EventPullRequestReviewThread  EventType = "pull_request_review_thread"
)

// KnownEventType reports whether the event type belongs to the handled
// enumeration. The webhook source emits more types than the system cares
// about; unknown ones are ignored upstream, never dispatched.
func KnownEventType(t EventType) bool {
	switch t {
	case EventInstallation, EventInstallationRepositories, EventRepository,
		EventPullRequest, EventIssueComment, EventPullRequestReview,
		EventPullRequestReviewComment, EventPullRequestReviewThread:
		return true
	}
	return false
}

// ProviderClient combines every provider operation the handlers and the
// services they compose consume. Credentials are installation-scoped, so the
// client arrives with each delivery instead of living on the dispatcher.
type ProviderClient interface {
	review.GitProvider
	history.GitProvider
}

// Delivery is one inbound webhook notification: the authenticated provider
// client for the installation plus the raw event payload.
type Delivery struct {
	Provider ProviderClient
	Payload  json.RawMessage
}

// HandlerFunc processes one delivery of a single event type.
type HandlerFunc func(ctx context.Context, d Delivery) error

// AccountStore persists installation-scoped organizational entities.
type AccountStore interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	SaveUser(ctx context.Context, user domain.User) error
	SaveRepositories(ctx context.Context, repos []domain.Repository) error
	DeleteRepositories(ctx context.Context, ids []int64) error
	RenameRepository(ctx context.Context, id int64, name, fullName string) error
}

// PullRequestStore persists pull request rows mirrored from deliveries.
type PullRequestStore interface {
	SavePullRequest(ctx context.Context, pr domain.PullRequest) error
	UpdatePullRequest(ctx context.Context, id int64, patch domain.PullRequestPatch) error
	GetPullRequestByNumber(ctx context.Context, repositoryID int64, number int) (domain.PullRequest, error)
	DeletePullRequestsByRepository(ctx context.Context, repositoryID int64) error
}

// CommentStore persists mirrored pull request comments.
type CommentStore interface {
	SaveComment(ctx context.Context, comment domain.PullRequestComment) error
	UpdateCommentBody(ctx context.Context, id int64, body string, updatedAt time.Time) error
	DeleteComment(ctx context.Context, id int64) error
	SetCommentsResolved(ctx context.Context, ids []int64, resolvedAt *time.Time) error
}

// ReviewStore persists mirrored code review rows.
type ReviewStore interface {
	SaveCodeReview(ctx context.Context, review domain.CodeReview) error
}

// HistoryService imports historical pull requests for a repository.
type HistoryService interface {
	Backfill(ctx context.Context, provider history.GitProvider, repo domain.Repository) error
}

// Reviewer runs the AI review workflow for a pull request.
type Reviewer interface {
	GenerateSummary(ctx context.Context, provider review.GitProvider, params review.Params) error
	GenerateReview(ctx context.Context, provider review.GitProvider, params review.Params) error
}

// Deps captures the collaborators shared by all event handlers. Wiring
// happens once at process start; handlers hold no state beyond these.
type Deps struct {
	Accounts     AccountStore
	PullRequests PullRequestStore
	Comments     CommentStore
	Reviews      ReviewStore
	History      HistoryService
	Reviewer     Reviewer
	Log          *zap.SugaredLogger

	// BotLogin identifies the bot's own activity so its comment echoes are
	// not mirrored back into storage.
	BotLogin string
}

// Dispatcher resolves event types to their registered handlers.
type Dispatcher struct {
	handlers map[EventType]HandlerFunc
	log      *zap.SugaredLogger
}

// NewDispatcher registers one handler per recognized event type.
func NewDispatcher(deps Deps) *Dispatcher {
	h := &handlers{deps: deps}
	return &Dispatcher{
		log: deps.Log,
		handlers: map[EventType]HandlerFunc{
			EventInstallation:             h.handleInstallation,
			EventInstallationRepositories: h.handleInstallationRepositories,
			EventRepository:               h.handleRepository,
			EventPullRequest:              h.handlePullRequest,
			EventIssueComment:             h.handleIssueComment,
			EventPullRequestReview:        h.handlePullRequestReview,
			EventPullRequestReviewComment: h.handleReviewComment,
			EventPullRequestReviewThread:  h.handleReviewThread,
		},
	}
}

// Dispatch resolves and invokes the handler for the event type. A missing
// handler is a configuration error, not a runtime transient.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType EventType, delivery Delivery) error {
	handler, ok := d.handlers[eventType]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrNoHandler, eventType)
	}
	return handler(ctx, delivery)
}

// handlers bundles the per-event state machines around the shared deps.
type handlers struct {
	deps Deps
}
