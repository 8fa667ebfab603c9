package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/model"
	"github.com/blotterscan/blotterscan/internal/scrape"
	"github.com/blotterscan/blotterscan/internal/session"
)

// stage tracks how far a single search progressed through the portal.
// A search advances strictly forward; a failure records the stage it
// reached so logs show where the portal broke.
type stage int

const (
	stageNotStarted stage = iota
	stageSubmitted
	stageRendered
	stageParsed
)

// String returns the stage name for log output.
func (s stage) String() string {
	switch s {
	case stageSubmitted:
		return "submitted"
	case stageRendered:
		return "rendered"
	case stageParsed:
		return "parsed"
	default:
		return "not started"
	}
}

// Worker executes one search query against a portal session and converts
// the outcome into a SearchResult. A Worker holds no session of its own;
// the coordinator lends it one per call, so a single Worker value is safe
// to share across goroutines.
type Worker struct {
	extractor     *scrape.Extractor
	entrySelector string
	minDelay      time.Duration
	maxDelay      time.Duration
	logger        *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithDelays sets the politeness delay range applied before each search.
func WithDelays(minDelay, maxDelay time.Duration) WorkerOption {
	return func(w *Worker) {
		w.minDelay = minDelay
		w.maxDelay = maxDelay
	}
}

// WithWorkerLogger sets the logger used for per-query progress.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a Worker that parses result pages according to the
// given portal profile.
func NewWorker(profile *config.Profile, opts ...WorkerOption) *Worker {
	w := &Worker{
		extractor:     scrape.NewExtractor(profile),
		entrySelector: profile.Results.Entries,
		minDelay:      config.DefaultMinDelay,
		maxDelay:      config.DefaultMaxDelay,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute runs one search and always returns a result; failures are
// recorded in the result rather than returned as errors, so one bad
// query never aborts a batch.
func (w *Worker) Execute(ctx context.Context, query model.SearchQuery, sess session.Session) model.SearchResult {
	start := time.Now()
	w.politenessDelay(ctx)

	st := stageSubmitted
	pageHTML, err := sess.Search(ctx, query)
	if err != nil {
		return w.failed(query, st, err, time.Since(start))
	}
	st = stageRendered

	entries, err := scrape.EntryTexts(pageHTML, w.entrySelector)
	if err != nil {
		return w.failed(query, st, err, time.Since(start))
	}
	st = stageParsed

	now := time.Now()
	records := make([]model.BookingRecord, 0, len(entries))
	for i, text := range entries {
		records = append(records, w.extractor.Record(query.String(), text, i, now))
	}

	result := model.NewSearchResult(query, records, time.Since(start))
	w.logger.Debug("search finished",
		slog.String("query", query.String()),
		slog.String("stage", st.String()),
		slog.Int("records", len(records)))
	return result
}

// failed classifies an error into a failure reason and builds the result.
func (w *Worker) failed(query model.SearchQuery, st stage, err error, elapsed time.Duration) model.SearchResult {
	reason := classify(err)
	w.logger.Warn("search failed",
		slog.String("query", query.String()),
		slog.String("stage", st.String()),
		slog.String("reason", reason.String()),
		slog.String("error", err.Error()))
	return model.NewFailedResult(query, reason, err, elapsed)
}

// classify maps a search error to a failure reason. Unrecognized errors
// are treated as network failures, the broadest recoverable category.
func classify(err error) model.FailureReason {
	switch {
	case errors.Is(err, session.ErrAuthExpired), errors.Is(err, session.ErrLoginFailed):
		return model.FailureAuthExpired
	case errors.Is(err, context.DeadlineExceeded):
		return model.FailureTimeout
	case errors.Is(err, context.Canceled):
		return model.FailureCancelled
	case errors.Is(err, scrape.ErrBadEntrySelector):
		return model.FailureParse
	default:
		return model.FailureNetwork
	}
}

// politenessDelay sleeps a random duration in [minDelay, maxDelay] so
// concurrent workers do not hammer the portal in lockstep. Returns early
// if the context ends.
func (w *Worker) politenessDelay(ctx context.Context) {
	if w.minDelay <= 0 && w.maxDelay <= 0 {
		return
	}
	delay := w.minDelay
	if span := w.maxDelay - w.minDelay; span > 0 {
		delay += rand.N(span)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
