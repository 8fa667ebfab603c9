package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is one complete batch search: the queries submitted, the ordered
// results, and timing metadata. Runs are what exports consume and what the
// history database stores.
type Run struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the total wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Workers is the concurrency limit the run used.
	Workers int `json:"workers"`

	// Results holds one entry per submitted query, in submission order.
	Results []SearchResult `json:"results"`
}

// NewRun creates a Run with a fresh identifier.
func NewRun(workers int) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Workers:   workers,
	}
}

// Records flattens all booking records across results, preserving result
// order and page order within each result.
func (r *Run) Records() []BookingRecord {
	var records []BookingRecord
	for i := range r.Results {
		records = append(records, r.Results[i].Records...)
	}
	return records
}

// Failures returns the results that did not complete.
func (r *Run) Failures() []SearchResult {
	var failed []SearchResult
	for _, res := range r.Results {
		if res.Status == ResultFailed {
			failed = append(failed, res)
		}
	}
	return failed
}
