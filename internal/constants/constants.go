// Package constants provides a centralized location for the tuning values
// and magic numbers used throughout firstissue.
package constants

import "time"

// Aggregation constants
const (
	// AggregationBatchSize is the number of repositories fetched concurrently
	// before the next batch starts.
	AggregationBatchSize = 3

	// PerRepoIssueLimit caps how many issues a single repository contributes
	// to an aggregation cycle.
	PerRepoIssueLimit = 20

	// RefreshInterval is the period of the background watch refresh.
	RefreshInterval = 2 * time.Minute
)

// Discovery constants
const (
	// CandidateRepoLimit is the number of repositories requested while
	// looking for popular candidates.
	CandidateRepoLimit = 20

	// ScopedRepoLimit is the number of candidate repositories OR'd into the
	// scoped issue query.
	ScopedRepoLimit = 10

	// CandidateMinStars is the star threshold for two-stage candidates.
	CandidateMinStars = 500

	// DiscoveryMinStars is the star threshold for general repository discovery.
	DiscoveryMinStars = 100

	// IssueResultLimit is the number of issues kept after client-side trimming.
	IssueResultLimit = 50

	// IssueSearchPageSize is the raw page size requested from issue search.
	IssueSearchPageSize = 100

	// RepoSearchPageSize is the largest page requested from repository search.
	RepoSearchPageSize = 50

	// DefaultLabel is applied when a search names no label.
	DefaultLabel = "good first issue"
)

// Scoring weights
const (
	RecencyWeight    = 0.6
	PopularityWeight = 0.4
)

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates.
	TUIUpdateInterval = 50 * time.Millisecond

	// HeaderLines is the number of lines used for the list view header.
	HeaderLines = 3

	// FooterLines is the number of lines used for the list view footer.
	FooterLines = 3

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 10
)

// Cache TTL constants
const (
	// SearchCacheTTL is the TTL for cached search results.
	SearchCacheTTL = 10 * time.Minute

	// RepositoryCacheTTL is the TTL for cached repository lookups.
	RepositoryCacheTTL = 1 * time.Hour
)

// Issue state constants
const (
	StateOpen   = "open"
	StateClosed = "closed"
)
