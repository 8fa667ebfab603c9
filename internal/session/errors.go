package session

import "errors"

// Session errors. Workers classify these into per-query failure reasons,
// so they must stay distinguishable via errors.Is.
var (
	// ErrLoginFailed is returned when the portal rejects the credentials
	// or the login form never yields to the search form.
	ErrLoginFailed = errors.New("portal login failed")

	// ErrAuthExpired is returned when a search lands back on the login
	// form, meaning the portal invalidated the session.
	ErrAuthExpired = errors.New("portal session expired")

	// ErrSessionClosed is returned when a session is used after Close.
	ErrSessionClosed = errors.New("session already closed")
)
