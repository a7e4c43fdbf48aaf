package github

import "time"

// Actor is a GitHub user or bot referenced by API responses.
type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// RepoRef identifies the repository a pull request belongs to.
type RepoRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Actor  `json:"owner"`
}

// CommitRef is the head or base of a pull request.
type CommitRef struct {
	SHA  string  `json:"sha"`
	Ref  string  `json:"ref"`
	Repo RepoRef `json:"repo"`
}

// PullRequest is the REST representation of a pull request.
type PullRequest struct {
	ID           int64      `json:"id"`
	NodeID       string     `json:"node_id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	Head         CommitRef  `json:"head"`
	Base         CommitRef  `json:"base"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	User         Actor      `json:"user"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	MergedAt     *time.Time `json:"merged_at"`
}

// ChangedFile is one entry from the list-files or compare-commits endpoints.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// compareResponse is the payload of the compare-commits endpoint.
type compareResponse struct {
	Files []ChangedFile `json:"files"`
}

// Review is the REST representation of a submitted pull request review.
type Review struct {
	ID          int64     `json:"id"`
	User        Actor     `json:"user"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	CommitID    string    `json:"commit_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SearchResult is the payload of the issue search endpoint.
type SearchResult struct {
	TotalCount int         `json:"total_count"`
	Items      []SearchHit `json:"items"`
}

// SearchHit is one issue search match; only the number is consumed.
type SearchHit struct {
	Number int `json:"number"`
}

// IssueComment is the REST representation of an issue comment.
type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      Actor     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftReviewComment is one inline comment attached to a review creation call.
// Either Line or Position locates the comment; both may be omitted for
// file-level comments.
type DraftReviewComment struct {
	Path     string `json:"path"`
	Body     string `json:"body"`
	Line     int    `json:"line,omitempty"`
	Position int    `json:"position,omitempty"`
}

// CreateReviewInput contains all data needed to create a PR review.
type CreateReviewInput struct {
	CommitID string               `json:"commit_id"`
	Event    string               `json:"event"`
	Body     string               `json:"body"`
	Comments []DraftReviewComment `json:"comments"`
}

// issueCommentRequest is the body of create/update issue comment calls.
type issueCommentRequest struct {
	Body string `json:"body"`
}

// errorResponse is GitHub's error payload shape.
type errorResponse struct {
	Message string `json:"message"`
}
