package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently so session logs can be correlated.
const (
	KeyTraceID = "trace_id" // OpenTelemetry trace ID
	KeySpanID  = "span_id"  // OpenTelemetry span ID

	// Connection
	KeyConnectionID = "connection_id"
	KeyClientIP     = "client_ip"
	KeyAddress      = "address"
	KeyActive       = "active"

	// Request
	KeyMethod = "method"
	KeyTarget = "target"
	KeyRange  = "range"
	KeyStatus = "status"
	KeyReason = "reason"

	// Content
	KeyPath          = "path"
	KeyProvider      = "provider"
	KeyContentLength = "content_length"
	KeyStart         = "start"
	KeyEnd           = "end"
	KeyLength        = "length"
	KeyChunks        = "chunks"
	KeyBytesSent     = "bytes_sent"

	// Misc
	KeyURL        = "url"
	KeyPort       = "port"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// Err returns an error attribute, or an empty attribute when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ConnectionID returns the connection id attribute.
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// ByteWindow returns the start/length attributes of a content window.
func ByteWindow(start, length int64) slog.Attr {
	return slog.Group("window", slog.Int64(KeyStart, start), slog.Int64(KeyLength, length))
}
