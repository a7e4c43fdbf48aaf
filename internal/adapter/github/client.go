// Package github is an HTTP client for the GitHub REST API operations the
// review pipeline consumes.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/httpx"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// ReviewsPageSize is the page size used for listing reviews.
	ReviewsPageSize = 100
	// SearchPageSize is the page size used for issue search.
	SearchPageSize = 100
)

// Client is an HTTP client for the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
}

// NewClient creates a new GitHub API client with the given token.
// The token is an installation access token or a personal access token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf:  httpx.DefaultRetryConfig(),
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRetryConfig overrides the retry behavior.
func (c *Client) SetRetryConfig(conf httpx.RetryConfig) {
	c.retryConf = conf
}

// GetRepository fetches repository metadata by owner and name.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*RepoRef, error) {
	var ref RepoRef
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetPullRequest fetches the full pull request record by number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListChangedFiles fetches the complete changed-file list of a pull request.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	var files []ChangedFile
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d", owner, repo, number, SearchPageSize)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// CompareCommits returns the files changed between two commits.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) ([]ChangedFile, error) {
	var cmp compareResponse
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", owner, repo, base, head)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &cmp); err != nil {
		return nil, err
	}
	return cmp.Files, nil
}

// ListReviews fetches one page of reviews for a pull request, 100 per page.
// Pages are 1-based.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, number, page int) ([]Review, error) {
	var reviews []Review
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews?per_page=%d&page=%d",
		owner, repo, number, ReviewsPageSize, page)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SearchIssues runs an issue search query. Pages are 1-based.
func (c *Client) SearchIssues(ctx context.Context, query string, page int) (*SearchResult, error) {
	var result SearchResult
	path := fmt.Sprintf("/search/issues?q=%s&per_page=%d&page=%d",
		url.QueryEscape(query), SearchPageSize, page)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateIssueComment posts a comment on a pull request conversation.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*IssueComment, error) {
	var comment IssueComment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.doJSON(ctx, http.MethodPost, path, issueCommentRequest{Body: body}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateIssueComment replaces the body of an existing comment.
func (c *Client) UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	var comment IssueComment
	path := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, commentID)
	return c.doJSON(ctx, http.MethodPatch, path, issueCommentRequest{Body: body}, &comment)
}

// CreateReview submits a pull request review with inline comments in a single
// call. The provider applies the general comment and all inline comments
// atomically.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, input CreateReviewInput) (*Review, error) {
	var review Review
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, number)
	if err := c.doJSON(ctx, http.MethodPost, path, input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// doJSON executes one API call with retry, decoding the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var jsonData []byte
	if body != nil {
		var err error
		jsonData, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	url := c.baseURL + path

	var resp *http.Response
	err := httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if jsonData != nil {
			reader = bytes.NewReader(jsonData)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			// Could be timeout or network error.
			return &httpx.Error{
				Type:      httpx.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &httpx.Error{
					Type:       httpx.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Provider:   providerName,
				}
			}
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
