package metrics

import "time"

// ServerMetrics records the lifecycle of media sessions.
//
// Implementations must be safe for concurrent use. Pass nil to the server to
// disable collection.
//
// Example usage:
//
//	m := prometheus.NewServerMetrics(metrics.InitRegistry())
//	srv := server.New(cfg, server.WithMetrics(m))
type ServerMetrics interface {
	// RecordConnectionAccepted counts an accepted TCP connection.
	RecordConnectionAccepted()

	// RecordConnectionClosed counts a session whose connection was closed.
	RecordConnectionClosed()

	// SetActiveSessions updates the in-flight session gauge.
	SetActiveSessions(count int32)

	// RecordResponse counts a response by status code and range kind
	// ("full", "partial", "malformed", "unsatisfiable", or "none" for
	// requests rejected before range resolution).
	RecordResponse(status int, rangeKind string)

	// RecordSend records a completed provider send: bytes delivered,
	// chunk count, duration, and whether it ended with an error.
	RecordSend(provider string, bytes int64, chunks int, duration time.Duration, failed bool)

	// RecordRejected counts a connection closed without a response
	// (non-GET method or empty request).
	RecordRejected(reason string)
}
