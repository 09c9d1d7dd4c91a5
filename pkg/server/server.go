// Package server exposes one local file to a media player over loopback
// HTTP.
//
// A Server serves a single file per playback session:
//
//	srv := server.New(cfg)
//	url, err := srv.Prepare("/sdcard/movie.mp4")
//	if err != nil { ... }
//	if err := srv.Start(); err != nil { ... }
//	player.Play(url)
//	...
//	srv.Stop()
//
// Every accepted connection is served by its own goroutine and closed after
// one response. Stop closes the listener and releases the content provider
// but does not wait for in-flight sessions; use Wait for that.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/marmos91/localmedia/internal/logger"
	"github.com/marmos91/localmedia/pkg/content"
	"github.com/marmos91/localmedia/pkg/metrics"
)

// Option configures a Server.
type Option func(*Server)

// WithFilesystem sets the filesystem files are read from.
// Default: the host filesystem rooted at "/".
func WithFilesystem(fs billy.Filesystem) Option {
	return func(s *Server) {
		s.fs = fs
	}
}

// WithProviderFactory overrides how the content provider is built.
// Default: RawProviderFactory.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Server) {
		s.newProvider = f
	}
}

// WithMetrics sets the session metrics recorder. nil disables metrics.
func WithMetrics(m metrics.ServerMetrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server is a loopback media server for one file at a time.
//
// Thread safety:
// Prepare, Start and Stop may be called from any goroutine. Stop is
// idempotent and safe before Prepare or Start.
type Server struct {
	config      Config
	fs          billy.Filesystem
	newProvider ProviderFactory
	metrics     metrics.ServerMetrics

	// mu guards the prepared state below.
	mu       sync.Mutex
	listener net.Listener
	provider content.Provider
	url      string
	path     string
	watcher  *contentWatcher

	// stop is closed by Stop to tell the accept loop the listener closure
	// is expected. loopDone is closed when the accept loop returns.
	// stoppedLoop is the loopDone of the last stopped loop.
	stop        chan struct{}
	loopDone    chan struct{}
	stoppedLoop chan struct{}

	// working gates new sessions. It is true between Start and Stop.
	working atomic.Bool

	// connSemaphore bounds concurrent sessions when MaxConnections > 0.
	connSemaphore chan struct{}

	// sessions tracks in-flight sessions for Wait.
	sessions sync.WaitGroup
	active   atomic.Int32

	contentChanged atomic.Bool
}

// New creates a server in the unprepared state.
func New(config Config, opts ...Option) *Server {
	config.ApplyDefaults()

	s := &Server{
		config: config,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = osfs.New("/")
	}
	if s.newProvider == nil {
		s.newProvider = RawProviderFactory(config.ChunkSize)
	}

	if config.MaxConnections > 0 {
		s.connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("Session limit", "max_connections", config.MaxConnections)
	} else {
		logger.Debug("Session limit", "max_connections", "unlimited")
	}
	return s
}

// Prepare binds a loopback listener for filePath and returns the URL a
// player should open. It fails with ErrContentNotFound or ErrEmptyContent
// when the file is missing or empty, and with ErrAlreadyPrepared when a file
// is already prepared. On failure the URL is empty and nothing is left for
// Start to use.
func (s *Server) Prepare(filePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return "", ErrAlreadyPrepared
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", filePath, err)
	}

	length, err := content.Measure(s.fs, absPath)
	if err != nil {
		logger.Warn("Cannot prepare content", logger.KeyPath, absPath, logger.Err(err))
		return "", err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.config.BindAddress, "0"))
	if err != nil {
		return "", fmt.Errorf("failed to create listener on %s: %w", s.config.BindAddress, err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	provider, err := s.newProvider(s.fs, absPath)
	if err != nil {
		_ = listener.Close()
		return "", fmt.Errorf("create content provider: %w", err)
	}

	s.listener = listener
	s.provider = provider
	s.path = absPath
	s.url = fmt.Sprintf("http://%s/%s",
		net.JoinHostPort(s.config.URLHost, strconv.Itoa(port)),
		url.QueryEscape(absPath))
	s.stop = make(chan struct{})
	s.contentChanged.Store(false)

	if s.config.WatchContent {
		s.watcher, err = watchContent(absPath, func(op fsnotify.Op) {
			s.onContentChange(absPath, op)
		})
		if err != nil {
			logger.Warn("Content watch unavailable", logger.KeyPath, absPath, logger.Err(err))
		}
	}

	logger.Info("Content prepared",
		logger.KeyURL, s.url,
		logger.KeyPath, absPath,
		logger.KeyPort, port,
		logger.KeyContentLength, length,
		logger.KeyProvider, providerKind(provider))
	return s.url, nil
}

// Start launches the accept loop and returns immediately.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider == nil || s.listener == nil {
		return ErrNotPrepared
	}
	if s.working.Load() {
		return ErrAlreadyStarted
	}

	s.working.Store(true)
	s.loopDone = make(chan struct{})
	go s.acceptLoop(s.listener, s.provider, s.stop, s.loopDone)

	logger.Info("Media server listening", logger.KeyAddress, s.listener.Addr().String())
	return nil
}

// Stop stops accepting connections, releases the content provider and
// closes the listener. It returns once the accept loop has exited. Sessions
// already running finish on their own.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		return
	}

	s.working.Store(false)
	close(s.stop)
	s.provider.Clean()
	if err := s.listener.Close(); err != nil {
		logger.Debug("Error closing listener", logger.Err(err))
	}
	if s.watcher != nil {
		s.watcher.Close()
	}

	done := s.loopDone
	path := s.path
	s.listener = nil
	s.provider = nil
	s.watcher = nil
	s.loopDone = nil
	s.stoppedLoop = done
	s.url = ""
	s.path = ""
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	logger.Info("Media server stopped", logger.KeyPath, path, logger.KeyActive, s.active.Load())
}

// Wait blocks until every in-flight session has finished or ctx is done.
// It returns ErrServing while the accept loop runs; call Stop first, and do
// not Start again until Wait returns.
func (s *Server) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.loopDone != nil {
		s.mu.Unlock()
		return ErrServing
	}
	loop := s.stoppedLoop
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		// No session can be added once the loop has exited.
		if loop != nil {
			<-loop
		}
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// URL returns the URL of the prepared file, or "" when unprepared.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Addr returns the listener address, or "" when unprepared.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Running reports whether the accept loop is serving connections.
func (s *Server) Running() bool {
	return s.working.Load()
}

// ActiveSessions returns the number of in-flight sessions.
func (s *Server) ActiveSessions() int32 {
	return s.active.Load()
}

// ContentChanged reports whether the prepared file was modified after
// Prepare. Only tracked when WatchContent is set.
func (s *Server) ContentChanged() bool {
	return s.contentChanged.Load()
}

func (s *Server) acceptLoop(listener net.Listener, provider content.Provider, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-stop:
				return
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}

			select {
			case <-stop:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("Error accepting connection", logger.Err(err))
			continue
		}

		if !s.working.Load() {
			_ = conn.Close()
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			continue
		}

		s.sessions.Add(1)
		active := s.active.Add(1)
		if s.metrics != nil {
			s.metrics.RecordConnectionAccepted()
			s.metrics.SetActiveSessions(active)
		}
		logger.Debug("Connection accepted", logger.KeyAddress, conn.RemoteAddr().String(), logger.KeyActive, active)

		sess := newSession(conn, provider, s.sessionConfig(), s.metrics)
		go func() {
			defer func() {
				active := s.active.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				if s.metrics != nil {
					s.metrics.RecordConnectionClosed()
					s.metrics.SetActiveSessions(active)
				}
				s.sessions.Done()
			}()

			sess.Serve(context.Background())
		}()
	}
}

func (s *Server) sessionConfig() sessionConfig {
	return sessionConfig{
		bufferSize:  s.config.RequestBufferSize,
		contentType: s.config.ContentType,
		readTimeout: s.config.ReadTimeout,
	}
}
