package github_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/httpx"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

func TestMapHTTPErrorNotFound(t *testing.T) {
	err := github.MapHTTPError(404, []byte(`{"message":"Not Found"}`))
	require.Error(t, err)

	// Semantic negative: never retried, matchable with errors.Is.
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, httpx.ShouldRetry(err))
	assert.Contains(t, err.Error(), "Not Found")
}

func TestMapHTTPErrorAuthentication(t *testing.T) {
	for _, code := range []int{401, 403} {
		err := github.MapHTTPError(code, []byte(`{"message":"Bad credentials"}`))
		var httpErr *httpx.Error
		require.True(t, errors.As(err, &httpErr), "status %d", code)
		assert.Equal(t, httpx.ErrTypeAuthentication, httpErr.Type)
		assert.False(t, httpErr.IsRetryable())
	}
}

func TestMapHTTPErrorRateLimitIsRetryable(t *testing.T) {
	err := github.MapHTTPError(429, nil)
	var httpErr *httpx.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, httpx.ErrTypeRateLimit, httpErr.Type)
	assert.True(t, httpErr.IsRetryable())
}

func TestMapHTTPErrorValidation(t *testing.T) {
	err := github.MapHTTPError(422, []byte(`{"message":"Validation Failed"}`))
	var httpErr *httpx.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, httpx.ErrTypeInvalidRequest, httpErr.Type)
	assert.False(t, httpErr.IsRetryable())
}

func TestMapHTTPErrorServerErrorsRetryable(t *testing.T) {
	err := github.MapHTTPError(502, nil)
	var httpErr *httpx.Error
	require.True(t, errors.As(err, &httpErr))
	assert.True(t, httpErr.IsRetryable())
	assert.Contains(t, httpErr.Message, "HTTP 502")
}
