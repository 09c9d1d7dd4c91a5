package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/localmedia/internal/logger"
	"github.com/marmos91/localmedia/internal/protocol/httprange"
	"github.com/marmos91/localmedia/internal/telemetry"
	"github.com/marmos91/localmedia/pkg/bufpool"
	"github.com/marmos91/localmedia/pkg/content"
	"github.com/marmos91/localmedia/pkg/metrics"
)

type sessionConfig struct {
	bufferSize  int
	contentType string
	readTimeout time.Duration
}

// session serves exactly one request on one connection:
//
//	read request -> parse request line -> parse headers -> resolve range
//	-> success or error response -> close
type session struct {
	conn     net.Conn
	provider content.Provider
	config   sessionConfig
	metrics  metrics.ServerMetrics
	id       string

	// headWritten is set once a status line has been handed to the
	// connection; a panic after that point cannot turn into a 500.
	headWritten bool
}

func newSession(conn net.Conn, provider content.Provider, config sessionConfig, m metrics.ServerMetrics) *session {
	return &session{
		conn:     conn,
		provider: provider,
		config:   config,
		metrics:  m,
		id:       uuid.NewString(),
	}
}

// Serve handles the connection and always closes it.
//
// It implements panic recovery so a misbehaving session can never take the
// server down.
func (s *session) Serve(ctx context.Context) {
	clientAddr := s.conn.RemoteAddr().String()
	clientIP := clientAddr
	if host, _, err := net.SplitHostPort(clientAddr); err == nil {
		clientIP = host
	}

	ctx, span := telemetry.StartSessionSpan(ctx, s.id, clientIP)
	lc := logger.NewLogContext(s.id, clientIP)
	if telemetry.IsEnabled() {
		lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	}
	ctx = logger.WithContext(ctx, lc)

	defer func() {
		if err := s.conn.Close(); err != nil {
			logger.DebugCtx(ctx, "Error closing connection", logger.Err(err))
		}
		span.End()
		logger.DebugCtx(ctx, "Session finished", logger.KeyDurationMs, lc.DurationMs())
	}()
	defer s.recoverPanic(ctx, clientAddr)

	s.handle(ctx)
}

func (s *session) recoverPanic(ctx context.Context, clientAddr string) {
	r := recover()
	if r == nil {
		return
	}

	logger.ErrorCtx(ctx, "Panic in session handler",
		logger.KeyAddress, clientAddr,
		logger.KeyError, fmt.Sprint(r),
		"stack", string(debug.Stack()))
	telemetry.RecordError(ctx, fmt.Errorf("panic: %v", r))

	if !s.headWritten {
		s.sendError(ctx, httprange.StatusInternalServerError,
			fmt.Sprintf("Server Internal Error: %v", r), "none")
	}
}

func (s *session) handle(ctx context.Context) {
	pool := bufpool.ForSize(s.config.bufferSize)
	buf := pool.Get()
	defer pool.Put(buf)

	if s.config.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.readTimeout)); err != nil {
			logger.DebugCtx(ctx, "Failed to set read deadline", logger.Err(err))
		}
	}

	n, err := s.conn.Read(buf)
	if n == 0 {
		logger.DebugCtx(ctx, "Connection closed before a request was read", logger.Err(err))
		s.recordRejected("empty")
		return
	}

	req, err := httprange.ParseRequest(buf[:n])
	switch {
	case errors.Is(err, httprange.ErrEmptyRequest):
		s.recordRejected("empty")
		return
	case errors.Is(err, httprange.ErrMethodNotAllowed):
		logger.DebugCtx(ctx, "Dropping non-GET request", logger.KeyMethod, req.Method)
		s.recordRejected("method")
		return
	case err != nil:
		msg, _ := httprange.BadRequestMessage(err)
		s.sendError(ctx, httprange.StatusBadRequest, msg, "none")
		return
	}

	rangeValue, _ := req.Range()
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithRequest(req.Method, rangeValue))
	telemetry.SetAttributes(ctx, telemetry.RequestAttrs(req.Method, req.Target, rangeValue)...)

	res := httprange.ResolveRequest(req, s.provider.ContentLength())
	status := res.Status()
	if !status.IsSuccess() {
		s.sendError(ctx, status, res.ErrorMessage(), res.Kind.String())
		return
	}

	logger.InfoCtx(ctx, "Serving content",
		logger.KeyStatus, int(status),
		logger.KeyTarget, req.Target,
		logger.KeyStart, res.Start,
		logger.KeyEnd, res.End,
		logger.KeyLength, res.SendLength,
		logger.KeyContentLength, res.Total)

	s.headWritten = true
	if err := httprange.WriteSuccessHead(s.conn, res, s.config.contentType); err != nil {
		logger.WarnCtx(ctx, "Failed to write response head", logger.Err(err))
		return
	}
	telemetry.SetAttributes(ctx, telemetry.StatusCode(int(status)))
	if s.metrics != nil {
		s.metrics.RecordResponse(int(status), res.Kind.String())
	}

	started := time.Now()
	result := s.provider.SendData(ctx, s.conn, res.Start, res.SendLength)
	if s.metrics != nil {
		s.metrics.RecordSend(providerKind(s.provider), result.BytesSent, result.Chunks,
			time.Since(started), result.Err != nil)
	}
}

// sendError writes a plain-text error response. Write failures are logged
// and end the session like any other I/O error.
func (s *session) sendError(ctx context.Context, status httprange.Status, message, rangeKind string) {
	logger.WarnCtx(ctx, "Sending error response",
		logger.KeyStatus, int(status),
		logger.KeyReason, status.Reason(),
		"message", message)

	s.headWritten = true
	if err := httprange.WriteError(s.conn, status, message); err != nil {
		logger.WarnCtx(ctx, "Failed to write error response", logger.Err(err))
		return
	}
	telemetry.SetAttributes(ctx, telemetry.StatusCode(int(status)))
	if s.metrics != nil {
		s.metrics.RecordResponse(int(status), rangeKind)
	}
}

func (s *session) recordRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordRejected(reason)
	}
}
