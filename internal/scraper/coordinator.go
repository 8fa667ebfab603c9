package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/model"
)

// Progress reports the completion of one query in a running batch.
type Progress struct {
	// Index is the query's position in the submitted batch.
	Index int
	// Query is the name that was searched.
	Query model.SearchQuery
	// Status reports how the search ended.
	Status model.ResultStatus
	// Reason is set when Status is ResultFailed.
	Reason model.FailureReason
	// Records is the number of booking records found.
	Records int
	// Elapsed is how long the search took.
	Elapsed time.Duration
	// Completed is the number of queries finished so far, including this one.
	Completed int
	// Total is the batch size.
	Total int
}

// Coordinator fans a batch of search queries out over a bounded set of
// portal sessions and merges the outcomes back in submission order.
type Coordinator struct {
	pool        *Pool
	worker      *Worker
	concurrency int
	progress    chan<- Progress
	logger      *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithConcurrency sets how many searches run at once.
func WithConcurrency(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProgress sets a channel that receives one event per completed
// query. Sends never block a worker: give the channel capacity for the
// whole batch, or accept that a full channel drops events.
func WithProgress(ch chan<- Progress) CoordinatorOption {
	return func(c *Coordinator) {
		c.progress = ch
	}
}

// WithCoordinatorLogger sets the logger used for batch lifecycle events.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a Coordinator that runs searches through the
// given pool and worker.
func NewCoordinator(pool *Pool, worker *Worker, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		pool:        pool,
		worker:      worker,
		concurrency: config.DefaultWorkers,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run searches every query in the batch and returns one result per query,
// in submission order. Individual failures are recorded in their result;
// the returned error is non-nil only when no portal session could be
// created at all, in which case no searches were attempted.
//
// Cancelling ctx stops new searches from starting. Searches already in
// flight finish on their own timeout budget, and queries that never
// started are marked failed with FailureCancelled.
func (c *Coordinator) Run(ctx context.Context, batch model.Batch) ([]model.SearchResult, error) {
	results := make([]model.SearchResult, len(batch))
	if len(batch) == 0 {
		c.closeProgress()
		return results, nil
	}

	// Prove the portal is reachable before fanning out, so a dead portal
	// is one clear error instead of N identical per-query failures.
	probe, err := c.pool.Acquire(ctx)
	if err != nil {
		c.closeProgress()
		return nil, fmt.Errorf("cannot open a portal session: %w", err)
	}
	c.pool.Release(probe)

	c.logger.Info("batch started",
		slog.Int("queries", len(batch)),
		slog.Int("concurrency", c.concurrency))

	var completed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	for i, query := range batch {
		g.Go(func() error {
			// Reached only after a concurrency slot opens, so a
			// cancellation seen here means this query never started.
			if ctx.Err() != nil {
				results[i] = model.NewFailedResult(query, model.FailureCancelled, ctx.Err(), 0)
				c.report(i, results[i], int(completed.Add(1)), len(batch))
				return nil
			}

			sess, err := c.pool.Acquire(ctx)
			if err != nil {
				reason := model.FailureNetwork
				if ctx.Err() != nil {
					reason = model.FailureCancelled
				}
				results[i] = model.NewFailedResult(query, reason, err, 0)
				c.report(i, results[i], int(completed.Add(1)), len(batch))
				return nil
			}

			// Detach from the run context so cancellation lets this
			// search finish; the session's own page timeout still
			// bounds it.
			results[i] = c.worker.Execute(context.WithoutCancel(ctx), query, sess)

			switch results[i].Reason {
			case model.FailureTimeout, model.FailureNetwork:
				// The page may be stuck mid-navigation.
				c.pool.Discard(sess)
			default:
				c.pool.Release(sess)
			}

			c.report(i, results[i], int(completed.Add(1)), len(batch))
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Workers report failures through results, not errors
	c.closeProgress()

	c.logger.Info("batch finished",
		slog.Int("queries", len(batch)),
		slog.Int("failures", countFailures(results)))
	return results, nil
}

// closeProgress closes the progress channel so consumers ranging over it
// stop when the run ends, whichever way it ends.
func (c *Coordinator) closeProgress() {
	if c.progress != nil {
		close(c.progress)
		c.progress = nil
	}
}

// report publishes a progress event without ever blocking a worker.
func (c *Coordinator) report(index int, result model.SearchResult, completed, total int) {
	if c.progress == nil {
		return
	}
	select {
	case c.progress <- Progress{
		Index:     index,
		Query:     result.Query,
		Status:    result.Status,
		Reason:    result.Reason,
		Records:   len(result.Records),
		Elapsed:   result.Elapsed,
		Completed: completed,
		Total:     total,
	}:
	default:
	}
}

func countFailures(results []model.SearchResult) int {
	n := 0
	for _, r := range results {
		if r.Status == model.ResultFailed {
			n++
		}
	}
	return n
}
