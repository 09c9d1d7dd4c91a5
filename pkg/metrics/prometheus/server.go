package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/localmedia/pkg/metrics"
)

// ServerMetrics is the Prometheus implementation of metrics.ServerMetrics.
// All methods are nil-safe: calls on a nil *ServerMetrics are no-ops.
type ServerMetrics struct {
	ConnectionsAccepted prometheus.Counter
	ConnectionsClosed   prometheus.Counter
	ActiveSessions      prometheus.Gauge

	// Responses counts responses by status code and range kind.
	Responses *prometheus.CounterVec

	// Rejected counts connections dropped without a response.
	// Label values: "method", "empty".
	Rejected *prometheus.CounterVec

	BytesSent    *prometheus.CounterVec
	SendErrors   *prometheus.CounterVec
	SendDuration *prometheus.HistogramVec
	SendChunks   *prometheus.HistogramVec
}

// NewServerMetrics creates session metrics and registers them with reg.
// If reg is nil the metrics are created but not registered.
//
// On re-registration (a server prepared again in the same process) the
// existing collectors are reused.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "server",
			Name:      "connections_accepted_total",
			Help:      "Total number of accepted client connections",
		}),
		ConnectionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "server",
			Name:      "connections_closed_total",
			Help:      "Total number of closed client connections",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "localmedia",
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Current number of in-flight sessions",
		}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "server",
			Name:      "responses_total",
			Help:      "Total number of responses by status code and range kind",
		}, []string{"status", "range"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "server",
			Name:      "rejected_total",
			Help:      "Total number of connections closed without a response",
		}, []string{"reason"}),
		BytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "content",
			Name:      "bytes_sent_total",
			Help:      "Total content bytes written to clients",
		}, []string{"provider"}),
		SendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "localmedia",
			Subsystem: "content",
			Name:      "send_errors_total",
			Help:      "Total number of content sends that ended early",
		}, []string{"provider"}),
		SendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "localmedia",
			Subsystem: "content",
			Name:      "send_duration_milliseconds",
			Help:      "Duration of content sends in milliseconds",
			Buckets: []float64{
				1,      // 1ms - small tail reads
				10,     // 10ms
				50,     // 50ms
				100,    // 100ms
				500,    // 500ms
				1000,   // 1s
				5000,   // 5s
				30000,  // 30s - full-file transfers
				120000, // 2m
			},
		}, []string{"provider"}),
		SendChunks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "localmedia",
			Subsystem: "content",
			Name:      "send_chunks",
			Help:      "Distribution of chunks written per content send",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"provider"}),
	}

	if reg != nil {
		m.ConnectionsAccepted = registerOrReuse(reg, m.ConnectionsAccepted).(prometheus.Counter)
		m.ConnectionsClosed = registerOrReuse(reg, m.ConnectionsClosed).(prometheus.Counter)
		m.ActiveSessions = registerOrReuse(reg, m.ActiveSessions).(prometheus.Gauge)
		m.Responses = registerOrReuse(reg, m.Responses).(*prometheus.CounterVec)
		m.Rejected = registerOrReuse(reg, m.Rejected).(*prometheus.CounterVec)
		m.BytesSent = registerOrReuse(reg, m.BytesSent).(*prometheus.CounterVec)
		m.SendErrors = registerOrReuse(reg, m.SendErrors).(*prometheus.CounterVec)
		m.SendDuration = registerOrReuse(reg, m.SendDuration).(*prometheus.HistogramVec)
		m.SendChunks = registerOrReuse(reg, m.SendChunks).(*prometheus.HistogramVec)
	}

	return m
}

// New returns server metrics bound to the global registry, or nil if
// metrics are not enabled.
func New() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return NewServerMetrics(metrics.GetRegistry())
}

func (m *ServerMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.ConnectionsAccepted.Inc()
}

func (m *ServerMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.ConnectionsClosed.Inc()
}

func (m *ServerMetrics) SetActiveSessions(count int32) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}

func (m *ServerMetrics) RecordResponse(status int, rangeKind string) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(strconv.Itoa(status), rangeKind).Inc()
}

func (m *ServerMetrics) RecordSend(provider string, bytes int64, chunks int, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.BytesSent.WithLabelValues(provider).Add(float64(bytes))
	m.SendChunks.WithLabelValues(provider).Observe(float64(chunks))
	m.SendDuration.WithLabelValues(provider).Observe(float64(duration.Microseconds()) / 1000)
	if failed {
		m.SendErrors.WithLabelValues(provider).Inc()
	}
}

func (m *ServerMetrics) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

// registerOrReuse registers c with reg, returning the already registered
// collector when an equal one exists. Panics on any other registration error.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
