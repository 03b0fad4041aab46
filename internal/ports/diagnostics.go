package ports

import "context"

// DiagnosticSink receives human-readable failure notes for operators.
// Record must not block and must not fail the caller; it reports whether the
// note was accepted.
type DiagnosticSink interface {
	Record(ctx context.Context, level string, message string) bool
}
