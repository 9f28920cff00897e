package ghclient

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/firstissue/internal/constants"
	"github.com/spiffcs/firstissue/internal/log"
)

// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
var ErrRateLimited = errors.New("rate limited")

// Rate limit resources. GitHub budgets searches separately from the rest
// of the REST API.
const (
	ResourceCore   = "core"
	ResourceSearch = "search"
)

// RateLimitState tracks the rate limit of each resource as reported by the
// most recent response for that resource.
type RateLimitState struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limited   bool
	resetAt   time.Time
	remaining int
	limit     int
}

// NewRateLimitState returns an empty state.
func NewRateLimitState() *RateLimitState {
	return &RateLimitState{buckets: make(map[string]*bucket), now: time.Now}
}

// IsLimited returns true while the resource's limit is exhausted and has
// not reset.
func (s *RateLimitState) IsLimited(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[resource]
	return ok && b.limited && s.now().Before(b.resetAt)
}

// SetLimited marks the resource as limited until resetAt.
func (s *RateLimitState) SetLimited(resource string, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucketLocked(resource)
	b.limited = true
	b.resetAt = resetAt
}

// Update records the values from response headers.
func (s *RateLimitState) Update(resource string, remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucketLocked(resource)
	b.remaining = remaining
	b.limit = limit
	b.resetAt = resetAt
	b.limited = remaining == 0
}

// Status returns the last observed values for the resource. Unknown values
// are -1.
func (s *RateLimitState) Status(resource string) (remaining, limit int, resetAt time.Time, limited bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[resource]
	if !ok {
		return -1, -1, time.Time{}, false
	}
	return b.remaining, b.limit, b.resetAt, b.limited && s.now().Before(b.resetAt)
}

func (s *RateLimitState) bucketLocked(resource string) *bucket {
	b, ok := s.buckets[resource]
	if !ok {
		b = &bucket{remaining: -1, limit: -1}
		s.buckets[resource] = b
	}
	return b
}

// rateLimitTransport short-circuits requests while the limit of their
// resource is exhausted and records the X-RateLimit-* headers of every
// response.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resource := resourceOf(req)
	if t.state.IsLimited(resource) {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if r := resp.Header.Get("X-RateLimit-Resource"); r != "" {
		resource = r
	}
	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.Update(resource, remaining, limit, resetAt)
	}
	if remaining <= constants.RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "resource", resource, "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
		t.state.SetLimited(resource, resetAt)
		_ = resp.Body.Close()
		return nil, ErrRateLimited
	}

	return resp, nil
}

// resourceOf predicts the rate limit resource a request is charged to.
func resourceOf(req *http.Request) string {
	if strings.Contains(req.URL.Path, "/search/") {
		return ResourceSearch
	}
	return ResourceCore
}

// parseRateLimitHeaders extracts rate limit info from response headers.
// Missing values are reported as -1.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining, limit = -1, -1

	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil {
		remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit")); err == nil {
		limit = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		resetAt = time.Unix(v, 0)
	}
	return remaining, limit, resetAt
}
