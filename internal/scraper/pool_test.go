package scraper

import (
	"context"
	"errors"
	"testing"
)

func TestPoolAcquireAfterCancel(t *testing.T) {
	t.Parallel()

	factory := &trackingFactory{}
	pool := NewPool(factory, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Every creation permit is free, so a racing select could favor the
	// permit branch; each attempt must still refuse once cancelled.
	for i := 0; i < 50; i++ {
		if _, err := pool.Acquire(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("Acquire error = %v, want context.Canceled", err)
		}
	}
	if created := pool.Created(); created != 0 {
		t.Errorf("sessions created after cancellation = %d, want 0", created)
	}

	// Refused attempts must not leak their permits.
	s, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after refused attempts: %v", err)
	}
	pool.Release(s)
	if created := pool.Created(); created != 1 {
		t.Errorf("Created() = %d, want 1", created)
	}
}
