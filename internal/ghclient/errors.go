package ghclient

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
)

// Error is the normalized failure of a single API operation. StatusCode is
// 0 for transport failures that never produced a response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 && e.Message != statusMessage(e.StatusCode) {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsRateLimited reports whether err was caused by rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var rle *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	return errors.As(err, &rle) || errors.As(err, &abuse)
}

func statusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// normalize converts any go-github or transport error into *Error.
func normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	e := &Error{Op: op, Err: err}

	var rle *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	var resp *gh.ErrorResponse
	switch {
	case errors.Is(err, ErrRateLimited):
		e.StatusCode = http.StatusTooManyRequests
		e.Message = "rate limit exceeded"
	case errors.As(err, &rle):
		e.StatusCode = statusFrom(rle.Response)
		e.Message = messageOr(rle.Message, e.StatusCode)
	case errors.As(err, &abuse):
		e.StatusCode = statusFrom(abuse.Response)
		e.Message = messageOr(abuse.Message, e.StatusCode)
	case errors.As(err, &resp):
		e.StatusCode = statusFrom(resp.Response)
		e.Message = messageOr(resp.Message, e.StatusCode)
	default:
		e.Message = err.Error()
	}
	return e
}

func statusFrom(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func messageOr(msg string, status int) string {
	if msg != "" {
		return msg
	}
	return statusMessage(status)
}

func statusMessage(status int) string {
	return fmt.Sprintf("HTTP %d", status)
}
