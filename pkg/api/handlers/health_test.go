package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	url     string
	running bool
	active  int32
	changed bool
}

func (f fakeStatus) URL() string           { return f.url }
func (f fakeStatus) Running() bool         { return f.running }
func (f fakeStatus) ActiveSessions() int32 { return f.active }
func (f fakeStatus) ContentChanged() bool  { return f.changed }

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode(t, w)
	assert.Equal(t, "healthy", resp.Status)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "Expected Data to be a map, got %T", resp.Data)
	assert.Equal(t, "localmedia", data["service"])
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		status   MediaStatus
		wantCode int
		wantErr  string
	}{
		{"no status", nil, http.StatusServiceUnavailable, "media server not initialized"},
		{"not prepared", fakeStatus{}, http.StatusServiceUnavailable, "no content prepared"},
		{"prepared but stopped", fakeStatus{url: "http://localhost:1/x"}, http.StatusServiceUnavailable, "media server not running"},
		{"running", fakeStatus{url: "http://localhost:1/x", running: true, active: 2}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.status)
			req := httptest.NewRequest("GET", "/health/ready", nil)
			w := httptest.NewRecorder()

			handler.Readiness(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decode(t, w)
			assert.Equal(t, tt.wantErr, resp.Error)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "healthy", resp.Status)
				data := resp.Data.(map[string]interface{})
				assert.Equal(t, float64(2), data["active_sessions"])
				assert.Equal(t, true, data["running"])
			} else {
				assert.Equal(t, "unhealthy", resp.Status)
			}
		})
	}
}
