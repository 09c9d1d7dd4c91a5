package server

import (
	"time"

	"github.com/marmos91/localmedia/internal/protocol/httprange"
	"github.com/marmos91/localmedia/pkg/bufpool"
)

// Config holds the media server settings.
type Config struct {
	// BindAddress is the interface the listener binds to. The port is
	// always chosen by the OS.
	// Default: 127.0.0.1
	BindAddress string

	// URLHost is the host name written into the URL returned by Prepare.
	// Default: localhost
	URLHost string

	// MaxConnections bounds concurrent sessions. 0 means unlimited.
	MaxConnections int

	// RequestBufferSize is the ceiling of the single request read.
	// Default: 8 KiB
	RequestBufferSize int

	// ChunkSize is the content read/write chunk size used by the default
	// provider factory.
	// Default: 8 KiB
	ChunkSize int

	// ContentType is sent with successful responses.
	// Default: video/mp4
	ContentType string

	// ReadTimeout bounds the request read. 0 disables the deadline.
	ReadTimeout time.Duration

	// WatchContent logs a warning when the prepared file changes on disk.
	WatchContent bool
}

// ApplyDefaults fills zero values with their defaults.
func (c *Config) ApplyDefaults() {
	if c.BindAddress == "" {
		c.BindAddress = "127.0.0.1"
	}
	if c.URLHost == "" {
		c.URLHost = "localhost"
	}
	if c.RequestBufferSize <= 0 {
		c.RequestBufferSize = bufpool.DefaultSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = bufpool.DefaultSize
	}
	if c.ContentType == "" {
		c.ContentType = httprange.DefaultContentType
	}
}
