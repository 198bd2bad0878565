// Package log provides structured logging for the scanner with automatic
// masking of sensitive values, built on top of the standard slog package.
//
// Probe traffic routinely carries values that must not leak into logs:
// session cookies returned by probed services, Authorization headers set
// through catalog overrides, and credentials embedded in proxy URLs.
// The SecureHandler masks these before the record reaches the underlying
// handler, so even debug-level output is safe to share.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
// The returned logger is a plain *slog.Logger and can be passed to any
// component that accepts one, including tornago.
package log
