package domain

import "time"

// Pull request states as reported by the provider.
const (
	PRStateOpen   = "open"
	PRStateClosed = "closed"
)

// Author account types as reported by the provider.
const (
	AuthorTypeUser         = "User"
	AuthorTypeBot          = "Bot"
	AuthorTypeOrganization = "Organization"
)

// Review statuses stored for code reviews.
const (
	ReviewStatusApproved         = "approved"
	ReviewStatusChangesRequested = "changes_requested"
	ReviewStatusCommented        = "commented"
)

// CommentTypeSummary tags the single live AI summary comment on a pull request.
const CommentTypeSummary = "summary"

// CommentTypeReview tags mirrored inline review comments.
const CommentTypeReview = "review_comment"

// CommentTypeIssue tags mirrored conversation comments.
const CommentTypeIssue = "issue_comment"

// Account is an installation-scoped organization or user that owns repositories.
type Account struct {
	ID        int64
	Login     string
	Type      string
	CreatedAt time.Time
}

// Repository is a source repository owned by an account.
type Repository struct {
	ID        int64
	AccountID int64
	Owner     string
	Name      string
	FullName  string
}

// User is a provider user observed in webhook deliveries.
type User struct {
	ID    int64
	Login string
	Type  string
}

// PullRequest mirrors the provider's pull request record.
// (RepositoryID, Number) is unique; HeadSHA changes on every synchronize.
type PullRequest struct {
	ID           int64
	NodeID       string
	Number       int
	Title        string
	Body         string
	State        string
	HeadSHA      string
	BaseSHA      string
	Additions    int
	Deletions    int
	ChangedFiles int
	Author       string
	AuthorType   string
	RepositoryID int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	MergedAt     *time.Time
}

// CodeReview mirrors a submitted pull request review.
// The orchestrator treats the latest bot review per (PullRequestID, CommitSHA)
// as authoritative for deduplication.
type CodeReview struct {
	ID            int64
	PullRequestID int64
	Reviewer      string
	ReviewerType  string
	Status        string
	CommitSHA     string
	Body          string
	SubmittedAt   time.Time
}

// PullRequestComment mirrors an issue or review comment on a pull request.
// Type distinguishes orchestrator-managed comments (e.g. "summary") from
// mirrored user comments. CommitSHA records the head commit the comment
// reflects for orchestrator-managed comments.
type PullRequestComment struct {
	ID            int64
	PullRequestID int64
	Author        string
	AuthorType    string
	Body          string
	Type          string
	CommitSHA     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}

// PullRequestPatch carries the mutable fields updated from webhook deliveries.
// Nil pointers leave the stored value untouched.
type PullRequestPatch struct {
	Title        *string
	Body         *string
	State        *string
	HeadSHA      *string
	Additions    *int
	Deletions    *int
	ChangedFiles *int
	UpdatedAt    *time.Time
	ClosedAt     *time.Time
	ClearClosed  bool
	MergedAt     *time.Time
}
