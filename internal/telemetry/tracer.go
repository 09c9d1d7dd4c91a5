package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for streaming sessions.
const (
	AttrClientIP     = "client.ip"
	AttrConnectionID = "session.connection_id"
	AttrMethod       = "http.request.method"
	AttrTarget       = "url.path"
	AttrRange        = "http.request.range"
	AttrStatusCode   = "http.response.status_code"
	AttrContentPath  = "content.path"
	AttrContentKind  = "content.provider"
	AttrContentStart = "content.start"
	AttrContentLen   = "content.length"
	AttrChunks       = "content.chunks"
	AttrBytesSent    = "content.bytes_sent"
)

// Span names.
const (
	SpanSession = "localmedia.session"
	SpanSend    = "content.send"
)

// ClientIP returns an attribute for the client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ConnectionID returns an attribute for the per-connection identifier
func ConnectionID(id string) attribute.KeyValue {
	return attribute.String(AttrConnectionID, id)
}

// StatusCode returns an attribute for the HTTP status written to the client
func StatusCode(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

// ByteWindow returns attributes describing a [start, start+length) window
func ByteWindow(start, length int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrContentStart, start),
		attribute.Int64(AttrContentLen, length),
	}
}

// RequestAttrs returns attributes describing a parsed request line
func RequestAttrs(method, target, rangeValue string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrTarget, target),
	}
	if rangeValue != "" {
		attrs = append(attrs, attribute.String(AttrRange, rangeValue))
	}
	return attrs
}

// Chunks returns an attribute for the number of chunks a send wrote
func Chunks(n int) attribute.KeyValue {
	return attribute.Int(AttrChunks, n)
}

// BytesSent returns an attribute for the bytes a send delivered
func BytesSent(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesSent, n)
}

// StartSessionSpan starts the root span covering one accepted connection.
func StartSessionSpan(ctx context.Context, connectionID, clientIP string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(ConnectionID(connectionID), ClientIP(clientIP)),
	)
}

// StartSendSpan starts a child span around a content provider send.
func StartSendSpan(ctx context.Context, provider, path string, start, length int64) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSend, trace.WithAttributes(sendAttributes(provider, path, start, length)...))
}

func sendAttributes(provider, path string, start, length int64) []attribute.KeyValue {
	return append(ByteWindow(start, length),
		attribute.String(AttrContentKind, provider),
		attribute.String(AttrContentPath, path))
}
