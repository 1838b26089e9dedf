package canvas

import (
	"errors"
	"fmt"
)

// ErrUnauthorized reports a 401 from Canvas. It is never retried so
// callers can decide whether to re-prompt for a token.
var ErrUnauthorized = errors.New("canvas rejected the token (401)")

// ErrPaginationLoop reports a next link that was already visited
// within the same pagination walk.
var ErrPaginationLoop = errors.New("pagination loop detected")

// APIError is a terminal Canvas API failure: retries exhausted, a
// non-retryable status, or a malformed payload.
type APIError struct {
	StatusCode int
	Target     string
	Snippet    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("canvas request failed for %s: %v", e.Target, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("canvas request failed (%d) for %s: %v", e.StatusCode, e.Target, e.Err)
	default:
		return fmt.Sprintf("canvas request failed (%d) for %s: %s", e.StatusCode, e.Target, e.Snippet)
	}
}

func (e *APIError) Unwrap() error { return e.Err }
