// Package log provides logging with automatic masking of portal credentials
// and browser-session values, built on top of the standard slog package.
//
// blotterscan drives authenticated browser sessions, so credentials and
// session cookies sit one careless log statement away from disk. The
// SecureHandler masks them at the handler level: even debug logging of raw
// request state cannot leak the portal password.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("logging in", "username", user, "password", pass) // password is masked
//	slog.SetDefault(logger)
package log
