package session

import (
	"context"

	"github.com/blotterscan/blotterscan/internal/model"
)

// Credentials authenticate against the portal's login form. They are
// read-only shared state: every session logs in with the same account.
type Credentials struct {
	Username string
	Password string
}

// Session is one authenticated browsing context against the portal.
// A session issues one search at a time and is never shared between
// concurrently running workers: the portal tracks form state and cookies
// per browsing context, and interleaved use would cross-contaminate
// searches.
type Session interface {
	// Login authenticates the session. It is called once before the first
	// search; Search re-authenticates lazily if needed.
	Login(ctx context.Context) error

	// Search submits the query and returns the rendered results page HTML.
	// It returns ErrAuthExpired when the portal bounced the session back
	// to the login form.
	Search(ctx context.Context, query model.SearchQuery) (string, error)

	// Close releases the session's browsing context.
	Close() error
}

// Factory creates Sessions on demand. The worker pool acquires one session
// per concurrent slot; the factory caps nothing itself.
type Factory interface {
	// New creates an unauthenticated session.
	New(ctx context.Context) (Session, error)

	// Close releases resources shared by the factory's sessions, such as
	// the underlying browser process.
	Close() error
}
