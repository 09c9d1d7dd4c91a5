// Package bufpool provides fixed-size byte buffer pools for the request read
// and the content chunk loop.
//
// Every session reads its request into one buffer and every send streams the
// file through another, so buffers are recycled instead of allocated per
// connection:
//
//	buf := bufpool.Get()
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// DefaultSize is the chunk size used by the request read and the content
// send loop (8 KiB).
const DefaultSize = 8 << 10

// Pool hands out buffers of exactly Size bytes.
// Safe for concurrent use.
type Pool struct {
	size int
	pool sync.Pool
}

// New creates a pool of size-byte buffers. A non-positive size selects
// DefaultSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, p.size)
		return &buf
	}
	return p
}

// Size returns the length of the buffers returned by Get.
func (p *Pool) Size() int {
	return p.size
}

// Get returns a buffer of len Size. Return it with Put when done.
func (p *Pool) Get() []byte {
	return (*p.pool.Get().(*[]byte))[:p.size]
}

// Put returns buf to the pool. Buffers of a different capacity are dropped.
func (p *Pool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}

var (
	poolsMu sync.Mutex
	pools   = map[int]*Pool{}
)

// ForSize returns a shared pool for size, creating it on first use.
func ForSize(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	poolsMu.Lock()
	defer poolsMu.Unlock()
	p, ok := pools[size]
	if !ok {
		p = New(size)
		pools[size] = p
	}
	return p
}

// Get returns a DefaultSize buffer from the shared default pool.
func Get() []byte {
	return ForSize(DefaultSize).Get()
}

// Put returns a buffer obtained from Get.
func Put(buf []byte) {
	ForSize(DefaultSize).Put(buf)
}
