package scraper

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/model"
	"github.com/blotterscan/blotterscan/internal/session"
)

// trackingSession asserts the exclusivity contract: a session must never
// be used by two workers at once.
type trackingSession struct {
	pages      map[string]string
	errs       map[string]error
	delay      time.Duration
	gate       chan struct{} // when set, each Search consumes one token
	inUse      atomic.Bool
	violations *atomic.Int64
	searches   *atomic.Int64
}

func (s *trackingSession) Login(_ context.Context) error { return nil }

func (s *trackingSession) Search(ctx context.Context, query model.SearchQuery) (string, error) {
	if !s.inUse.CompareAndSwap(false, true) {
		s.violations.Add(1)
	}
	defer s.inUse.Store(false)

	if s.searches != nil {
		s.searches.Add(1)
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := s.errs[query.String()]; ok {
		return "", err
	}
	if page, ok := s.pages[query.String()]; ok {
		return page, nil
	}
	return emptyPage, nil
}

func (s *trackingSession) Close() error { return nil }

// trackingFactory builds trackingSessions sharing one violation counter.
type trackingFactory struct {
	pages      map[string]string
	errs       map[string]error
	delay      time.Duration
	gate       chan struct{}
	newErr     error
	created    atomic.Int64
	violations atomic.Int64
	searches   atomic.Int64
}

func (f *trackingFactory) New(_ context.Context) (session.Session, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.created.Add(1)
	return &trackingSession{
		pages:      f.pages,
		errs:       f.errs,
		delay:      f.delay,
		gate:       f.gate,
		violations: &f.violations,
		searches:   &f.searches,
	}, nil
}

func (f *trackingFactory) Close() error { return nil }

// namedBatch builds a batch of distinct last names.
func namedBatch(t *testing.T, lastNames ...string) model.Batch {
	t.Helper()

	batch := make(model.Batch, 0, len(lastNames))
	for _, last := range lastNames {
		q, err := model.NewSearchQuery(last, "Test")
		if err != nil {
			t.Fatal(err)
		}
		batch = append(batch, q)
	}
	return batch
}

func newTestCoordinator(factory *trackingFactory, concurrency int, opts ...CoordinatorOption) *Coordinator {
	pool := NewPool(factory, concurrency)
	worker := NewWorker(config.DefaultProfile(), WithDelays(0, 0))
	opts = append([]CoordinatorOption{WithConcurrency(concurrency)}, opts...)
	return NewCoordinator(pool, worker, opts...)
}

func TestCoordinatorRun_PreservesOrder(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t, "Adams", "Baker", "Clark", "Davis", "Evans", "Foster", "Grant")
	factory := &trackingFactory{
		delay: 2 * time.Millisecond,
		pages: map[string]string{
			"Baker, Test": bookingPage("BAKER, TEST"),
			"Evans, Test": bookingPage("EVANS, TEST"),
		},
	}

	results, err := newTestCoordinator(factory, 3).Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(batch) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(batch))
	}
	for i, r := range results {
		if r.Query != batch[i] {
			t.Errorf("results[%d].Query = %v, want %v", i, r.Query, batch[i])
		}
	}
	if results[1].Status != model.ResultSuccess {
		t.Errorf("results[1].Status = %s, want %s", results[1].Status, model.ResultSuccess)
	}
	if results[0].Status != model.ResultNoMatch {
		t.Errorf("results[0].Status = %s, want %s", results[0].Status, model.ResultNoMatch)
	}
}

func TestCoordinatorRun_EmptyBatch(t *testing.T) {
	t.Parallel()

	factory := &trackingFactory{}
	results, err := newTestCoordinator(factory, 2).Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if factory.created.Load() != 0 {
		t.Errorf("sessions created = %d, want 0", factory.created.Load())
	}
}

func TestCoordinatorRun_SessionExclusivity(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t,
		"Adams", "Baker", "Clark", "Davis", "Evans",
		"Foster", "Grant", "Hayes", "Irwin", "Jones")
	factory := &trackingFactory{delay: 3 * time.Millisecond}

	const concurrency = 3
	if _, err := newTestCoordinator(factory, concurrency).Run(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	if v := factory.violations.Load(); v != 0 {
		t.Errorf("exclusive-use violations = %d, want 0", v)
	}
	if created := factory.created.Load(); created > concurrency {
		t.Errorf("sessions created = %d, want at most %d", created, concurrency)
	}
}

func TestCoordinatorRun_TimeoutIsolation(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t, "Adams", "Stuck", "Clark")
	factory := &trackingFactory{
		errs: map[string]error{
			"Stuck, Test": context.DeadlineExceeded,
		},
		pages: map[string]string{
			"Adams, Test": bookingPage("ADAMS, TEST"),
			"Clark, Test": bookingPage("CLARK, TEST"),
		},
	}

	results, err := newTestCoordinator(factory, 3).Run(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	if results[1].Status != model.ResultFailed || results[1].Reason != model.FailureTimeout {
		t.Errorf("results[1] = %s/%s, want %s/%s",
			results[1].Status, results[1].Reason, model.ResultFailed, model.FailureTimeout)
	}
	for _, i := range []int{0, 2} {
		if results[i].Status != model.ResultSuccess {
			t.Errorf("results[%d].Status = %s, want %s", i, results[i].Status, model.ResultSuccess)
		}
	}
}

func TestCoordinatorRun_Idempotent(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t, "Adams", "Baker", "Clark", "Davis")
	pages := map[string]string{
		"Adams, Test": bookingPage("ADAMS, TEST"),
		"Clark, Test": bookingPage("CLARK, TEST", "CLARK, TEST B"),
	}
	errs := map[string]error{
		"Davis, Test": errors.New("dial tcp: connection refused"),
	}

	run := func() []model.SearchResult {
		factory := &trackingFactory{pages: pages, errs: errs}
		results, err := newTestCoordinator(factory, 2).Run(context.Background(), batch)
		if err != nil {
			t.Fatal(err)
		}
		// Timing varies between runs; content must not.
		for i := range results {
			results[i].Elapsed = 0
		}
		return results
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCoordinatorRun_RunLevelFailure(t *testing.T) {
	t.Parallel()

	factory := &trackingFactory{newErr: errors.New("browser failed to start")}
	batch := namedBatch(t, "Adams", "Baker")

	results, err := newTestCoordinator(factory, 2).Run(context.Background(), batch)
	if err == nil {
		t.Fatal("Run returned nil error, want session creation failure")
	}
	if results != nil {
		t.Errorf("results = %v, want nil on run-level failure", results)
	}
	if factory.searches.Load() != 0 {
		t.Errorf("searches attempted = %d, want 0", factory.searches.Load())
	}
}

func TestCoordinatorRun_Cancellation(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t,
		"Adams", "Baker", "Clark", "Davis", "Evans",
		"Foster", "Grant", "Hayes", "Irwin", "Jones")

	gate := make(chan struct{})
	factory := &trackingFactory{gate: gate}
	progress := make(chan Progress, len(batch))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := newTestCoordinator(factory, 2, WithProgress(progress))

	done := make(chan []model.SearchResult, 1)
	go func() {
		results, err := coordinator.Run(ctx, batch)
		if err != nil {
			t.Error(err)
		}
		done <- results
	}()

	// Let three searches complete, then cancel while two are in flight.
	for i := 0; i < 3; i++ {
		gate <- struct{}{}
	}
	for completed := 0; completed < 3; {
		p := <-progress
		if p.Status != model.ResultFailed {
			completed++
		}
	}
	// Wait for the two replacement searches to reach the portal before
	// cancelling, so exactly two are in flight at the cancellation point.
	for factory.searches.Load() < 5 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	createdAtCancel := factory.created.Load()

	// In-flight searches finish normally after cancellation.
	gate <- struct{}{}
	gate <- struct{}{}

	results := <-done
	if len(results) != len(batch) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(batch))
	}

	var finished, cancelled int
	for i, r := range results {
		switch {
		case r.Status == model.ResultFailed && r.Reason == model.FailureCancelled:
			cancelled++
		case r.Status == model.ResultNoMatch:
			finished++
		default:
			t.Errorf("results[%d] = %s/%s, unexpected outcome", i, r.Status, r.Reason)
		}
	}
	if finished != 5 {
		t.Errorf("finished = %d, want 5 (three before cancel, two in flight)", finished)
	}
	if cancelled != 5 {
		t.Errorf("cancelled = %d, want 5", cancelled)
	}
	if created := factory.created.Load(); created != createdAtCancel {
		t.Errorf("sessions created after cancellation: %d -> %d", createdAtCancel, created)
	}
}

func TestCoordinatorRun_ConcreteScenario(t *testing.T) {
	t.Parallel()

	doe, err := model.NewSearchQuery("Doe", "John")
	if err != nil {
		t.Fatal(err)
	}
	smith, err := model.NewSearchQuery("Smith", "Jane")
	if err != nil {
		t.Fatal(err)
	}

	factory := &trackingFactory{
		pages: map[string]string{
			"Doe, John": bookingPage("DOE, JOHN"),
		},
	}

	results, err := newTestCoordinator(factory, 2).Run(context.Background(), model.Batch{doe, smith})
	if err != nil {
		t.Fatal(err)
	}

	if results[0].Status != model.ResultSuccess || len(results[0].Records) != 1 {
		t.Errorf("results[0] = %s with %d records, want %s with 1",
			results[0].Status, len(results[0].Records), model.ResultSuccess)
	}
	if results[1].Status != model.ResultNoMatch || len(results[1].Records) != 0 {
		t.Errorf("results[1] = %s with %d records, want %s with 0",
			results[1].Status, len(results[1].Records), model.ResultNoMatch)
	}
}

func TestCoordinatorRun_ProgressEvents(t *testing.T) {
	t.Parallel()

	batch := namedBatch(t, "Adams", "Baker", "Clark")
	progress := make(chan Progress, len(batch))
	factory := &trackingFactory{}

	coordinator := newTestCoordinator(factory, 2, WithProgress(progress))
	if _, err := coordinator.Run(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	count := 0
	for p := range progress {
		count++
		if p.Total != len(batch) {
			t.Errorf("Total = %d, want %d", p.Total, len(batch))
		}
		if p.Index < 0 || p.Index >= len(batch) {
			t.Fatalf("Index = %d out of range", p.Index)
		}
		if seen[p.Index] {
			t.Errorf("duplicate progress event for index %d", p.Index)
		}
		seen[p.Index] = true
		if p.Query != batch[p.Index] {
			t.Errorf("Query = %v, want %v", p.Query, batch[p.Index])
		}
	}
	if count != len(batch) {
		t.Errorf("progress events = %d, want %d", count, len(batch))
	}
}
