// Package secret provides guarded storage for key material: master keys,
// password-derived keys, and KEM shared secrets.
//
// A Buffer lives outside the Go heap in an anonymous mmap region that is
// locked into RAM (mlock, so it never reaches swap) and excluded from core
// dumps (MADV_DONTDUMP). Because the garbage collector never sees the
// region, it cannot copy or relocate the secret; Close zeroes the memory
// before unmapping it, so the material does not outlive the buffer.
package secret

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Buffer owns a fixed amount of sensitive bytes in locked, dump-excluded
// memory. It must not be copied. After Close, any access panics.
type Buffer struct {
	mu     sync.Mutex
	region []byte
	size   int
	closed bool
}

// New allocates a zero-filled guarded buffer of the given size.
// The caller must Close it when the secret is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap: %w", err)
	}

	if err := unix.Mlock(region); err != nil {
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: mlock: %w", err)
	}

	if err := unix.Madvise(region, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(region)
		unix.Munmap(region)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP): %w", err)
	}

	return &Buffer{region: region, size: size}, nil
}

// NewFromBytes copies source into a new guarded buffer and zeroes the
// source slice, so the caller's copy no longer holds the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	buffer, err := New(len(source))
	if err != nil {
		return nil, err
	}

	copy(buffer.region, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the secret data. The slice aliases the mmap region; do
// not retain it past the buffer's lifetime. Panics after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.region[:b.size]
}

// Len returns the size of the secret data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Equal compares the buffer contents against other in constant time.
// Panics after Close.
func (b *Buffer) Equal(other []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: compare against closed buffer")
	}
	return subtle.ConstantTimeCompare(b.region[:b.size], other) == 1
}

// Close zeroes the contents, then unlocks and unmaps the region.
// Idempotent; after the first call any access to Bytes or Equal panics.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.region)

	// The memory is released on process exit regardless, so unmap errors
	// are reported but nothing holds the secret anymore either way.
	var firstErr error
	if err := unix.Munlock(b.region); err != nil {
		firstErr = fmt.Errorf("secret: munlock: %w", err)
	}
	if err := unix.Munmap(b.region); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("secret: munmap: %w", err)
	}

	b.region = nil
	return firstErr
}

// Zero overwrites b with zero bytes. Used for transient heap copies that
// briefly hold key material before it reaches a Buffer.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
