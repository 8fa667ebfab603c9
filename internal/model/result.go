package model

import "time"

// ResultStatus classifies the outcome of one search query.
type ResultStatus int

const (
	// ResultSuccess means the search completed and found one or more records.
	ResultSuccess ResultStatus = iota

	// ResultNoMatch means the search completed cleanly with zero records.
	// This is a successful outcome, distinct from a parse failure.
	ResultNoMatch

	// ResultFailed means the search did not complete; the failure reason
	// carries the cause.
	ResultFailed
)

// String returns a short label for the status.
func (s ResultStatus) String() string {
	switch s {
	case ResultSuccess:
		return "success"
	case ResultNoMatch:
		return "no-match"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason tags why a query failed. Failures are always local to one
// query; they never abort sibling searches.
type FailureReason int

const (
	// FailureNone is the zero value, used for successful results.
	FailureNone FailureReason = iota

	// FailureTimeout means the portal page did not become ready within the
	// configured bound.
	FailureTimeout

	// FailureNetwork means the session could not reach the portal.
	FailureNetwork

	// FailureParse means the results page structure did not match the
	// configured profile.
	FailureParse

	// FailureAuthExpired means the session's login had lapsed.
	FailureAuthExpired

	// FailureCancelled means the run was cancelled before this query
	// started.
	FailureCancelled
)

// String returns a short label for the failure reason.
func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	case FailureParse:
		return "parse"
	case FailureAuthExpired:
		return "auth-expired"
	case FailureCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SearchResult is the outcome of one query. Exactly one SearchResult exists
// for every query in a batch, in submission order, regardless of how the
// searches were scheduled. A result is immutable once created.
type SearchResult struct {
	// Query is the query this result answers.
	Query SearchQuery `json:"query"`

	// Records holds the parsed booking entries, in page order.
	// Empty for no-match and failed results.
	Records []BookingRecord `json:"records,omitempty"`

	// Status classifies the outcome.
	Status ResultStatus `json:"status"`

	// Reason is set when Status is ResultFailed.
	Reason FailureReason `json:"reason,omitempty"`

	// Error is the failure message, when any.
	Error string `json:"error,omitempty"`

	// Elapsed is how long the search took.
	Elapsed time.Duration `json:"elapsed"`
}

// NewSearchResult creates a completed result. Zero records yield
// ResultNoMatch, otherwise ResultSuccess.
func NewSearchResult(query SearchQuery, records []BookingRecord, elapsed time.Duration) SearchResult {
	status := ResultSuccess
	if len(records) == 0 {
		status = ResultNoMatch
	}
	return SearchResult{
		Query:   query,
		Records: records,
		Status:  status,
		Elapsed: elapsed,
	}
}

// NewFailedResult creates a failed result with the given reason.
func NewFailedResult(query SearchQuery, reason FailureReason, err error, elapsed time.Duration) SearchResult {
	result := SearchResult{
		Query:   query,
		Status:  ResultFailed,
		Reason:  reason,
		Elapsed: elapsed,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
