package domain

import "errors"

var (
	// ErrNotFound marks a lookup whose subject does not exist. Callers treat
	// it as a semantic result, not a transport failure.
	ErrNotFound = errors.New("not found")

	// ErrNoHandler marks a known event type with no registered handler, which
	// means the process is miswired.
	ErrNoHandler = errors.New("no handler registered for event")

	// ErrMalformedResponse marks model output that failed structural
	// validation. Nothing derived from it may be published.
	ErrMalformedResponse = errors.New("malformed model response")
)
