package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/localmedia/pkg/content/cipher"
)

func newTestFS(t *testing.T, name string, data []byte) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, name, data, 0o644))
	return fs
}

func testData(size int) []byte {
	data := make([]byte, size)
	rand.New(rand.NewSource(7)).Read(data)
	return data
}

func TestMeasure(t *testing.T) {
	fs := newTestFS(t, "movie.mp4", testData(100))
	require.NoError(t, util.WriteFile(fs, "empty.mp4", nil, 0o644))
	require.NoError(t, fs.MkdirAll("dir", 0o755))

	n, err := Measure(fs, "movie.mp4")
	require.NoError(t, err)
	assert.EqualValues(t, 100, n)

	_, err = Measure(fs, "missing.mp4")
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = Measure(fs, "empty.mp4")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = Measure(fs, "dir")
	assert.ErrorIs(t, err, ErrNotRegularFile)
}

func TestRawProviderLengthCapturedOnce(t *testing.T) {
	fs := newTestFS(t, "movie.mp4", testData(100))

	p, err := NewRawProvider(fs, "movie.mp4")
	require.NoError(t, err)
	assert.EqualValues(t, 100, p.ContentLength())
	assert.Equal(t, KindRaw, p.Kind())

	require.NoError(t, util.WriteFile(fs, "movie.mp4", testData(500), 0o644))
	assert.EqualValues(t, 100, p.ContentLength())
}

func TestRawProviderMissingFile(t *testing.T) {
	_, err := NewRawProvider(memfs.New(), "missing.mp4")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestRawProviderSendWindows(t *testing.T) {
	data := testData(3*8192 + 500)
	fs := newTestFS(t, "movie.mp4", data)
	p, err := NewRawProvider(fs, "movie.mp4")
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, len int64
		wantChunks int
	}{
		{"full file", 0, int64(len(data)), 4},
		{"single byte", 10, 1, 1},
		{"exact chunk", 8192, 8192, 1},
		{"unaligned", 100, 8192, 1},
		{"spans chunks", 100, 8193, 2},
		{"tail", int64(len(data)) - 500, 500, 1},
		{"zero length", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			res := p.SendData(context.Background(), &out, tt.start, tt.len)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.wantChunks, res.Chunks)
			assert.EqualValues(t, tt.len, res.BytesSent)
			assert.Equal(t, string(data[tt.start:tt.start+tt.len]), out.String())
		})
	}
}

func TestRawProviderShortFile(t *testing.T) {
	data := testData(1000)
	fs := newTestFS(t, "movie.mp4", data)
	p, err := NewRawProvider(fs, "movie.mp4")
	require.NoError(t, err)

	// The file shrinks after the provider measured it.
	require.NoError(t, util.WriteFile(fs, "movie.mp4", data[:600], 0o644))

	var out bytes.Buffer
	res := p.SendData(context.Background(), &out, 500, 500)
	require.NoError(t, res.Err)
	assert.EqualValues(t, 100, res.BytesSent)
	assert.Equal(t, data[500:600], out.Bytes())
}

func TestRawProviderChunkSize(t *testing.T) {
	data := testData(1000)
	p, err := NewRawProvider(newTestFS(t, "m", data), "m", WithChunkSize(100))
	require.NoError(t, err)

	var out bytes.Buffer
	res := p.SendData(context.Background(), &out, 0, 1000)
	require.NoError(t, res.Err)
	assert.Equal(t, 10, res.Chunks)
	assert.Equal(t, data, out.Bytes())
}

type failingWriter struct {
	after int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.after {
		return 0, io.ErrClosedPipe
	}
	w.n += len(p)
	return len(p), nil
}

func TestRawProviderWriteFailure(t *testing.T) {
	p, err := NewRawProvider(newTestFS(t, "m", testData(3*8192)), "m")
	require.NoError(t, err)

	res := p.SendData(context.Background(), &failingWriter{after: 8192}, 0, 3*8192)
	assert.ErrorIs(t, res.Err, io.ErrClosedPipe)
	assert.Equal(t, 2, res.Chunks)
	assert.EqualValues(t, 8192, res.BytesSent)
}

func TestDecryptingProvider(t *testing.T) {
	plain := testData(2*8192 + 77)
	c := cipher.ChaCha20{}
	key, err := cipher.DeriveKey([]byte("secret"), nil, c.KeySize())
	require.NoError(t, err)
	enc, err := c.Encrypt(plain, 0, key)
	require.NoError(t, err)

	p, err := NewDecryptingProvider(newTestFS(t, "movie.enc", enc), "movie.enc", c, key)
	require.NoError(t, err)
	assert.Equal(t, KindDecrypting, p.Kind())
	assert.EqualValues(t, len(plain), p.ContentLength())

	for _, w := range []struct{ start, length int64 }{{0, int64(len(plain))}, {8000, 500}, {8193, 8192}} {
		var out bytes.Buffer
		res := p.SendData(context.Background(), &out, w.start, w.length)
		require.NoError(t, res.Err)
		assert.Equal(t, plain[w.start:w.start+w.length], out.Bytes())
	}
}

func TestDecryptingProviderCopiesKey(t *testing.T) {
	plain := []byte("hello, media")
	key := []byte("k3y")
	enc, _ := cipher.XOR{}.Encrypt(plain, 0, key)

	p, err := NewDecryptingProvider(newTestFS(t, "m", enc), "m", cipher.XOR{}, key)
	require.NoError(t, err)
	cipher.Wipe(key)

	var out bytes.Buffer
	res := p.SendData(context.Background(), &out, 0, int64(len(plain)))
	require.NoError(t, res.Err)
	assert.Equal(t, plain, out.Bytes())
}

func TestSendAfterClean(t *testing.T) {
	enc, _ := cipher.XOR{}.Encrypt([]byte("payload"), 0, []byte("k"))
	p, err := NewDecryptingProvider(newTestFS(t, "m", enc), "m", cipher.XOR{}, []byte("k"))
	require.NoError(t, err)

	p.Clean()
	p.Clean()

	var out bytes.Buffer
	res := p.SendData(context.Background(), &out, 0, 7)
	assert.ErrorIs(t, res.Err, ErrProviderClosed)
	assert.Zero(t, out.Len())
}

// blockingWriter parks the first Write until release is closed.
type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	buf     bytes.Buffer
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return w.buf.Write(p)
}

func TestCleanDuringSendKeepsKeyUntilDone(t *testing.T) {
	plain := testData(4 * 8192)
	c := cipher.ChaCha20{}
	key, _ := cipher.DeriveKey([]byte("secret"), nil, c.KeySize())
	enc, _ := c.Encrypt(plain, 0, key)

	p, err := NewDecryptingProvider(newTestFS(t, "m", enc), "m", c, key)
	require.NoError(t, err)

	w := &blockingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	done := make(chan SendResult)
	go func() {
		done <- p.SendData(context.Background(), w, 0, int64(len(plain)))
	}()

	<-w.entered
	p.Clean()
	close(w.release)

	res := <-done
	require.NoError(t, res.Err)
	assert.Equal(t, plain, w.buf.Bytes())

	res = p.SendData(context.Background(), io.Discard, 0, 10)
	assert.True(t, errors.Is(res.Err, ErrProviderClosed))
}

func TestConcurrentDisjointSends(t *testing.T) {
	data := testData(64 * 1024)
	p, err := NewRawProvider(newTestFS(t, "m", data), "m")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := int64(i * 8192)
			var out bytes.Buffer
			res := p.SendData(context.Background(), &out, start, 8192)
			assert.NoError(t, res.Err)
			assert.Equal(t, data[start:start+8192], out.Bytes())
		}(i)
	}
	wg.Wait()
}
