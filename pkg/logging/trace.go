package logging

import "log/slog"

// EnableTrace gates per-point trace logs, which are far too noisy for
// normal runs even at DEBUG level.
var EnableTrace = false

// Trace logs at DEBUG level, but only if EnableTrace is set.
func Trace(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
