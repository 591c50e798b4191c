package sailthru

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

// Sailthru-specific errors.
var (
	// ErrJobTimeout indicates an export job did not complete within the
	// configured polling window.
	ErrJobTimeout = errors.New("sailthru: job timed out")

	// ErrJobFailed indicates the platform reported a terminal failure
	// for an export job.
	ErrJobFailed = errors.New("sailthru: job failed")

	// ErrMissingExportURL indicates a completed job carried no export
	// location.
	ErrMissingExportURL = errors.New("sailthru: completed job has no export url")
)

// APIError is an error body returned by the platform. Code and message
// follow the documented error table; code 99 covers exports the
// platform refuses to run.
type APIError struct {
	Code    int
	Message string
	Action  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sailthru: API error %d on %s: %s", e.Code, e.Action, e.Message)
}

// HTTPError is a non-success HTTP response with no parseable error
// body.
type HTTPError struct {
	StatusCode int
	Action     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sailthru: HTTP %d on %s", e.StatusCode, e.Action)
}

// RateLimitError indicates the platform rejected a request for rate
// limiting. Retryable once the window resets.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("sailthru: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// PaginationLoopError indicates a paginated endpoint returned the same
// next-page token twice in a row. Fatal: continuing would loop forever.
type PaginationLoopError struct {
	Action string
	Token  string
}

func (e *PaginationLoopError) Error() string {
	return fmt.Sprintf("sailthru: pagination loop on %s: next-page token %q repeated", e.Action, e.Token)
}

// IsRemoteRejected checks if the error is a platform-side rejection of
// the request itself (bad parameters, resource not exportable). These
// skip the current partition rather than failing the run.
func IsRemoteRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsJobTimeout checks if the error chain contains a job timeout.
func IsJobTimeout(err error) bool {
	return errors.Is(err, ErrJobTimeout)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsPaginationLoop checks if the error chain contains a pagination
// loop.
func IsPaginationLoop(err error) bool {
	var loopErr *PaginationLoopError
	return errors.As(err, &loopErr)
}

// IsTransient checks if the error is worth retrying: connection-level
// failures, request timeouts, truncated bodies, server-side 5xx and
// rate limiting.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsRateLimited(err) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	if IsTruncation(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// IsTruncation checks if the error indicates a connection dropped
// mid-body: the chunked transfer ended before the payload did.
func IsTruncation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	return false
}
