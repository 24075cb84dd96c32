// Package logging provides the gateway's nil-safe zap helper, mirroring
// pkg/telemetry's GetTracer fallback pattern: callers may pass a nil
// *zap.Logger anywhere in the gateway and get a working no-op logger
// instead of a crash.
package logging

import "go.uber.org/zap"

// NewLogger wraps an existing *zap.Logger, falling back to a no-op logger
// when none is supplied.
func NewLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// NopLogger returns a logger that discards everything, for tests and for
// components that don't care about diagnostics.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}

// Production builds a sensible default production logger for the
// standalone example servers: JSON encoding, info level, stacktraces on
// error+.
func Production() (*zap.Logger, error) {
	return zap.NewProduction()
}
