package handlers

import (
	"net/http"
)

// MediaStatus is the view of the media server the health endpoints report.
// *server.Server satisfies it.
type MediaStatus interface {
	URL() string
	Running() bool
	ActiveSessions() int32
	ContentChanged() bool
}

// StatusData is the payload of the readiness probe.
type StatusData struct {
	URL            string `json:"url,omitempty"`
	Running        bool   `json:"running"`
	ActiveSessions int32  `json:"active_sessions"`
	ContentChanged bool   `json:"content_changed"`
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	status MediaStatus
}

// NewHealthHandler creates a new health handler. status may be nil, in
// which case the readiness probe always fails.
func NewHealthHandler(status MediaStatus) *HealthHandler {
	return &HealthHandler{status: status}
}

// Liveness handles GET /health. It succeeds whenever the process can answer.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "localmedia",
	}))
}

// Readiness handles GET /health/ready.
//
// Returns 200 OK once a file is prepared and the accept loop is running,
// 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("media server not initialized", nil))
		return
	}

	data := StatusData{
		URL:            h.status.URL(),
		Running:        h.status.Running(),
		ActiveSessions: h.status.ActiveSessions(),
		ContentChanged: h.status.ContentChanged(),
	}

	switch {
	case data.URL == "":
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no content prepared", data))
	case !data.Running:
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("media server not running", data))
	default:
		writeJSON(w, http.StatusOK, healthyResponse(data))
	}
}
