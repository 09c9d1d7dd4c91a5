package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/localmedia/pkg/server"
)

func TestRouter_Health(t *testing.T) {
	router := NewRouter(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/health", w.Header().Get("Location"))
}

func TestRouter_MetricsDisabled(t *testing.T) {
	router := NewRouter(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localmedia",
		Name:      "test_total",
		Help:      "Test counter",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	router := NewRouter(nil, reg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "localmedia_test_total 3")
}

func startAPI(t *testing.T, status *server.Server, reg prometheus.Gatherer) *Server {
	t.Helper()

	s := NewServer(APIConfig{Port: 0}, status, reg)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	select {
	case <-s.Ready():
	case err := <-errCh:
		t.Fatalf("API server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("API server did not start")
	}

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errCh)
	})
	return s
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_ReadinessFollowsMediaServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	media := server.New(server.Config{})
	api := startAPI(t, media, nil)
	base := "http://" + api.Addr()

	code, _ := get(t, base+"/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	_, err := media.Prepare(path)
	require.NoError(t, err)
	require.NoError(t, media.Start())

	code, body := get(t, base+"/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"running":true`)

	media.Stop()

	code, _ = get(t, base+"/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestServer_StopIdempotent(t *testing.T) {
	s := NewServer(APIConfig{}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, s.Stop(ctx))
	assert.NoError(t, s.Stop(ctx))
}

func TestServer_ListenFailure(t *testing.T) {
	s := NewServer(APIConfig{BindAddress: "203.0.113.1", Port: 1}, nil, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
