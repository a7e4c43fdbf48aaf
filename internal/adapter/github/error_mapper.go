package github

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/httpx"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

const providerName = "github"

// MapHTTPError maps a GitHub error response to a typed error.
// 404 maps to domain.ErrNotFound so callers can branch on the semantic
// negative with errors.Is; everything else becomes an httpx.Error with the
// retryable flag set for rate limits and 5xx.
func MapHTTPError(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("github: %s: %w", message, domain.ErrNotFound)
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
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return &httpx.Error{
			Type:       httpx.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	default:
		return &httpx.Error{
			Type:       httpx.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Provider:   providerName,
		}
	}
}
