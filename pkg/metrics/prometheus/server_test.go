package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/marmos91/localmedia/pkg/metrics"
)

func TestServerMetrics_NilSafe(t *testing.T) {
	var m *ServerMetrics

	// None of these should panic
	m.RecordConnectionAccepted()
	m.RecordConnectionClosed()
	m.SetActiveSessions(3)
	m.RecordResponse(200, "full")
	m.RecordSend("raw", 10, 1, time.Millisecond, false)
	m.RecordRejected("method")
}

func TestServerMetrics_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	m.RecordConnectionAccepted()
	m.RecordConnectionAccepted()
	m.RecordConnectionClosed()
	m.SetActiveSessions(1)

	if v := counterValue(t, m.ConnectionsAccepted); v != 2 {
		t.Errorf("ConnectionsAccepted = %f, want 2", v)
	}
	if v := counterValue(t, m.ConnectionsClosed); v != 1 {
		t.Errorf("ConnectionsClosed = %f, want 1", v)
	}
	if v := gaugeValue(t, m.ActiveSessions); v != 1 {
		t.Errorf("ActiveSessions = %f, want 1", v)
	}
}

func TestServerMetrics_Responses(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())

	m.RecordResponse(206, "partial")
	m.RecordResponse(206, "partial")
	m.RecordResponse(416, "unsatisfiable")
	m.RecordRejected("method")

	if v := vecCounterValue(t, m.Responses, "206", "partial"); v != 2 {
		t.Errorf("Responses{206,partial} = %f, want 2", v)
	}
	if v := vecCounterValue(t, m.Responses, "416", "unsatisfiable"); v != 1 {
		t.Errorf("Responses{416,unsatisfiable} = %f, want 1", v)
	}
	if v := vecCounterValue(t, m.Rejected, "method"); v != 1 {
		t.Errorf("Rejected{method} = %f, want 1", v)
	}
}

func TestServerMetrics_Send(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())

	m.RecordSend("decrypting", 8192, 1, 2*time.Millisecond, false)
	m.RecordSend("decrypting", 100, 1, time.Millisecond, true)

	if v := vecCounterValue(t, m.BytesSent, "decrypting"); v != 8292 {
		t.Errorf("BytesSent = %f, want 8292", v)
	}
	if v := vecCounterValue(t, m.SendErrors, "decrypting"); v != 1 {
		t.Errorf("SendErrors = %f, want 1", v)
	}

	hist, err := m.SendChunks.GetMetricWithLabelValues("decrypting")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	var metric io_prometheus_client.Metric
	if err := hist.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("SendChunks sample count = %d, want 2", got)
	}
}

func TestServerMetrics_ReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	m1 := NewServerMetrics(reg)
	m1.RecordConnectionAccepted()

	// Second registration reuses the existing collectors.
	m2 := NewServerMetrics(reg)
	m2.RecordConnectionAccepted()

	if v := counterValue(t, m1.ConnectionsAccepted); v != 2 {
		t.Errorf("ConnectionsAccepted after re-registration = %f, want 2", v)
	}
}

func TestServerMetrics_NilRegisterer(t *testing.T) {
	m := NewServerMetrics(nil)
	m.RecordConnectionAccepted()
	if v := counterValue(t, m.ConnectionsAccepted); v != 1 {
		t.Errorf("ConnectionsAccepted = %f, want 1", v)
	}
}

func TestNew_RespectsGlobalRegistry(t *testing.T) {
	metrics.ResetRegistry()
	t.Cleanup(metrics.ResetRegistry)

	if m := New(); m != nil {
		t.Fatalf("New() = %v, want nil when metrics are disabled", m)
	}

	metrics.InitRegistry()
	if m := New(); m == nil {
		t.Fatal("New() = nil, want metrics when the registry is initialized")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric io_prometheus_client.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric io_prometheus_client.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetGauge().GetValue()
}

// vecCounterValue extracts the value from a CounterVec for the given labels.
func vecCounterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%q): %v", labels, err)
	}
	return counterValue(t, counter)
}
