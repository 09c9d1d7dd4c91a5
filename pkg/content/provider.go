// Package content streams byte windows of a single file to a writer, either
// verbatim or through a per-chunk decrypting transform.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/marmos91/localmedia/internal/logger"
	"github.com/marmos91/localmedia/internal/telemetry"
	"github.com/marmos91/localmedia/pkg/bufpool"
)

// Kind tags the transform a provider applies.
type Kind string

const (
	KindRaw        Kind = "raw"
	KindDecrypting Kind = "decrypting"
)

// Provider delivers bytes of one file.
//
// ContentLength is captured when the provider is built and never re-measured.
// SendData never reports failure through the HTTP status: errors are logged
// and returned in the result for metrics only.
type Provider interface {
	ContentLength() int64
	SendData(ctx context.Context, w io.Writer, start, length int64) SendResult
	Clean()
}

// SendResult summarizes one SendData call.
type SendResult struct {
	// Chunks is the number of read/write iterations performed.
	Chunks int
	// BytesSent is the number of bytes written to the client.
	BytesSent int64
	// Err is the error that ended the send early, if any. A file shorter
	// than the requested window is not an error.
	Err error
}

// Transform rewrites one chunk read at absolute file offset pos.
type Transform func(chunk []byte, pos int64) ([]byte, error)

// Option configures a FileProvider.
type Option func(*FileProvider)

// WithChunkSize sets the read/write chunk size. Non-positive values keep the
// default of bufpool.DefaultSize.
func WithChunkSize(size int) Option {
	return func(p *FileProvider) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// FileProvider reads its file through a billy.Filesystem and applies an
// optional Transform to every chunk before writing it.
//
// Each SendData opens its own file handle, so concurrent sends never share
// a read offset. Sends hold a lease; Clean runs the provider's teardown only
// once the last in-flight send has finished.
type FileProvider struct {
	fs        billy.Filesystem
	path      string
	length    int64
	kind      Kind
	chunkSize int
	transform Transform
	teardown  func()

	mu       sync.Mutex
	leases   int
	closed   bool
	tornDown bool
}

// NewRawProvider returns a provider that streams path unchanged.
func NewRawProvider(fs billy.Filesystem, path string, opts ...Option) (*FileProvider, error) {
	return newFileProvider(fs, path, KindRaw, nil, nil, opts)
}

func newFileProvider(fs billy.Filesystem, path string, kind Kind, transform Transform, teardown func(), opts []Option) (*FileProvider, error) {
	length, err := Measure(fs, path)
	if err != nil && !errors.Is(err, ErrEmptyContent) {
		return nil, err
	}

	p := &FileProvider{
		fs:        fs,
		path:      path,
		length:    length,
		kind:      kind,
		chunkSize: bufpool.DefaultSize,
		transform: transform,
		teardown:  teardown,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Measure returns the size of the regular file at path.
// A zero-length file yields ErrEmptyContent together with a length of 0.
func Measure(fs billy.Filesystem, path string) (int64, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrContentNotFound, path)
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyContent, path)
	}
	return info.Size(), nil
}

// ContentLength returns the file size captured at construction.
func (p *FileProvider) ContentLength() int64 {
	return p.length
}

// Path returns the file path the provider reads.
func (p *FileProvider) Path() string {
	return p.path
}

// Kind returns the provider's transform tag.
func (p *FileProvider) Kind() Kind {
	return p.kind
}

// Clean releases the provider. In-flight sends finish normally; sends that
// begin afterwards write nothing. Safe to call more than once.
func (p *FileProvider) Clean() {
	p.mu.Lock()
	p.closed = true
	run := p.leases == 0 && !p.tornDown
	if run {
		p.tornDown = true
	}
	p.mu.Unlock()

	if run && p.teardown != nil {
		p.teardown()
	}
}

func (p *FileProvider) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.leases++
	return true
}

func (p *FileProvider) release() {
	p.mu.Lock()
	p.leases--
	run := p.closed && p.leases == 0 && !p.tornDown
	if run {
		p.tornDown = true
	}
	p.mu.Unlock()

	if run && p.teardown != nil {
		p.teardown()
	}
}

// SendData writes up to length bytes starting at offset start.
func (p *FileProvider) SendData(ctx context.Context, w io.Writer, start, length int64) SendResult {
	ctx, span := telemetry.StartSendSpan(ctx, string(p.kind), p.path, start, length)
	defer span.End()

	if !p.acquire() {
		logger.WarnCtx(ctx, "Content provider already cleaned, nothing sent",
			logger.KeyPath, p.path, logger.ByteWindow(start, length))
		return SendResult{Err: ErrProviderClosed}
	}
	defer p.release()

	res := p.send(w, start, length)

	span.SetAttributes(
		telemetry.Chunks(res.Chunks),
		telemetry.BytesSent(res.BytesSent),
	)
	if res.Err != nil {
		telemetry.RecordError(ctx, res.Err)
		logger.WarnCtx(ctx, "Content send failed",
			logger.KeyPath, p.path,
			logger.KeyProvider, string(p.kind),
			logger.ByteWindow(start, length),
			logger.KeyChunks, res.Chunks,
			logger.KeyBytesSent, res.BytesSent,
			logger.Err(res.Err))
		return res
	}

	logger.DebugCtx(ctx, "Content sent",
		logger.KeyProvider, string(p.kind),
		logger.ByteWindow(start, length),
		logger.KeyChunks, res.Chunks,
		logger.KeyBytesSent, res.BytesSent)
	return res
}

func (p *FileProvider) send(w io.Writer, start, length int64) SendResult {
	var res SendResult
	if length <= 0 {
		return res
	}

	f, err := p.fs.Open(p.path)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", p.path, err)
		return res
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		res.Err = fmt.Errorf("seek to %d: %w", start, err)
		return res
	}

	pool := bufpool.ForSize(p.chunkSize)
	buf := pool.Get()
	defer pool.Put(buf)

	pos := start
	for length > 0 {
		n, readErr := f.Read(buf[:min(length, int64(len(buf)))])
		if n > 0 {
			res.Chunks++
			chunk := buf[:n]
			if p.transform != nil {
				if chunk, err = p.transform(chunk, pos); err != nil {
					res.Err = fmt.Errorf("transform chunk at %d: %w", pos, err)
					return res
				}
			}
			written, err := w.Write(chunk)
			res.BytesSent += int64(written)
			if err != nil {
				res.Err = fmt.Errorf("write chunk at %d: %w", pos, err)
				return res
			}
			pos += int64(n)
			length -= int64(n)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				res.Err = fmt.Errorf("read at %d: %w", pos, readErr)
			}
			return res
		}
	}
	return res
}
