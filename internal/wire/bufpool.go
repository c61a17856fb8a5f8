// Package wire implements the packet codec of spec.md §4.A: frame
// read/write over a plain connection, and an epoch-indexed table that maps
// a packet id to the logical kind its wire layout should be decoded as.
//
// This package deliberately does NOT encrypt or checksum the wire — spec.md
// §1 names the framed transport (and any traffic-level cipher it applies)
// an external collaborator referenced only by interface, so frame.go works
// on plaintext frames the way the teacher's own inner payload already does
// once its Blowfish layer has been peeled off. See DESIGN.md for the
// dropped golang.org/x/crypto/blowfish entry.
package wire

import "sync"

// BytePool is a pool of reusable byte buffers, grounded on
// internal/login/bufpool.go (la2go) unchanged in shape.
type BytePool struct {
	pool sync.Pool
}

// NewBytePool creates a pool whose freshly-allocated slices start at
// defaultCap capacity.
func NewBytePool(defaultCap int) *BytePool {
	p := &BytePool{}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Get returns a slice of length size, reused from the pool when possible.
func (p *BytePool) Get(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put returns a slice to the pool for reuse.
func (p *BytePool) Put(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:0])
}
