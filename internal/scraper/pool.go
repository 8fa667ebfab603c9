package scraper

import (
	"context"
	"sync/atomic"

	"github.com/blotterscan/blotterscan/internal/session"
)

// Pool hands out portal sessions with two guarantees: a session is held by
// at most one worker at a time, and the number of live sessions never
// exceeds the pool size.
//
// Design decision: Sessions are created lazily and recycled between
// workers rather than created per query. Logging in is the most expensive
// portal interaction; recycling a logged-in session lets a run of N names
// pay for at most `size` logins instead of N.
type Pool struct {
	factory session.Factory

	// idle buffers sessions returned by workers, ready for reuse.
	idle chan session.Session

	// tokens holds one creation permit per unfilled pool slot.
	tokens chan struct{}

	// created counts sessions ever created, for the live-session bound
	// and for tests.
	created atomic.Int64
}

// NewPool creates a Pool that caps live sessions at size.
func NewPool(factory session.Factory, size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		factory: factory,
		idle:    make(chan session.Session, size),
		tokens:  make(chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.tokens <- struct{}{}
	}
	return p
}

// Acquire returns an exclusive session, reusing an idle one when available
// and creating a new one otherwise. It blocks when all slots are busy, and
// returns ctx.Err() if the context is cancelled while waiting.
func (p *Pool) Acquire(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Prefer an idle session over creating a new one.
	select {
	case s := <-p.idle:
		return s, nil
	default:
	}

	select {
	case s := <-p.idle:
		return s, nil
	case <-p.tokens:
		// Re-check after winning a permit: when cancellation and a free
		// permit are ready at the same time, select may pick the permit.
		if err := ctx.Err(); err != nil {
			p.tokens <- struct{}{}
			return nil, err
		}
		s, err := p.factory.New(ctx)
		if err != nil {
			p.tokens <- struct{}{}
			return nil, err
		}
		p.created.Add(1)
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a healthy session to the pool for reuse.
func (p *Pool) Release(s session.Session) {
	p.idle <- s
}

// Discard closes a broken session and frees its slot so a replacement can
// be created. Used after timeouts and network failures, where the page may
// be stuck mid-navigation.
func (p *Pool) Discard(s session.Session) {
	_ = s.Close() //nolint:errcheck // Best effort cleanup of a broken session
	p.tokens <- struct{}{}
}

// Created returns how many sessions the pool has ever created.
func (p *Pool) Created() int64 {
	return p.created.Load()
}

// Close closes all idle sessions. Sessions still held by workers are the
// holders' responsibility; Close does not wait for them.
func (p *Pool) Close() error {
	var firstErr error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
