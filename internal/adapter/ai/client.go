// Package ai is an HTTP client for the completion API that generates review
// summaries and inline comments.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/httpx"
)

const (
	defaultBaseURL    = "https://api.anthropic.com"
	defaultTimeout    = 60 * time.Second
	defaultMaxTokens  = 4096
	defaultAPIVersion = "2023-06-01"

	providerName = "ai"
)

// Client is an HTTP client for the Messages completion API.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
}

// NewClient creates a new completion client.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		maxTokens:  defaultMaxTokens,
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

// SetMaxTokens overrides the response token budget.
func (c *Client) SetMaxTokens(maxTokens int) {
	c.maxTokens = maxTokens
}

// Complete sends the system instructions and ordered messages to the
// completion API and returns the raw response text. The caller owns any
// structural validation of the text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("ai: at least one message is required")
	}

	reqBody := messagesRequest{
		Model:     c.model,
		System:    req.SystemInstructions,
		Messages:  req.Messages,
		MaxTokens: c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/messages"

	var resp *http.Response
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", defaultAPIVersion)

		var callErr error
		resp, callErr = c.httpClient.Do(httpReq)
		if callErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return mapErrorResponse(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var messagesResp messagesResponse
	if err := json.Unmarshal(bodyBytes, &messagesResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(messagesResp.Content) == 0 {
		return "", fmt.Errorf("ai: no content in response")
	}

	var textParts []string
	for _, block := range messagesResp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}

	return strings.Join(textParts, ""), nil
}

// mapErrorResponse maps HTTP status codes to typed errors.
func mapErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &httpx.Error{
			Type:       httpx.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	case http.StatusTooManyRequests:
		return &httpx.Error{
			Type:       httpx.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}
	case http.StatusBadRequest:
		return &httpx.Error{
			Type:       httpx.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	case 529: // provider-specific: overloaded
		return &httpx.Error{
			Type:       httpx.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return &httpx.Error{
			Type:       httpx.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Provider:   providerName,
		}
	default:
		return &httpx.Error{
			Type:       httpx.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	}
}
