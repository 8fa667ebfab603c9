// Package session manages authenticated browsing contexts against the
// records portal.
//
// The Session interface is the seam between the scraping workers and the
// browser: workers only ever see "log in" and "search, give me the results
// HTML". The production implementation drives a headless browser via
// github.com/go-rod/rod, because the portal builds its results page with
// client-side scripting that a plain HTTP client never sees rendered.
//
// Sessions are exclusive: the worker pool hands each session to at most one
// worker at a time, and the number of live sessions never exceeds the
// configured concurrency.
package session
