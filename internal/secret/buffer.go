// Package secret holds short-lived credentials (the API key captured by
// `gemkit init --prompt-secret`) in memory that is zeroed on Close.
//
// On Linux the backing memory is an anonymous mmap region outside the Go
// heap, locked against swap and excluded from core dumps. Elsewhere it is
// a plain heap slice that is still zeroed on Close.
package secret

import (
	"fmt"
	"sync"
)

// Buffer holds sensitive bytes. A Buffer must not be copied after
// creation. Close zeros the contents; any access after Close panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
	free   func([]byte) error
}

// New allocates a zero-filled buffer of the given size.
// The caller must call Close when the secret is no longer needed.
func New(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret: buffer size must be positive, got %d", size)
	}
	data, free, err := allocate(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data, length: size, free: free}, nil
}

// NewFromBytes copies source into a new buffer and zeros source in place,
// so the caller's slice no longer holds the secret.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}

	buffer, err := New(len(source))
	if err != nil {
		Zero(source)
		return nil, err
	}
	copy(buffer.data, source)
	Zero(source)
	return buffer, nil
}

// Bytes returns the secret data. The slice aliases the buffer; do not keep
// it beyond the Buffer's lifetime. Panics after Close.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.data[:b.length]
}

// Len returns the size of the secret data.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// Closed reports whether Close has run.
func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close zeros the contents and releases the memory. Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	Zero(b.data)
	err := b.free(b.data)
	b.data = nil
	return err
}

// Zero overwrites data with zeros.
func Zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
