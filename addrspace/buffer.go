package addrspace

import (
	"fmt"

	"github.com/joshuapare/vtypekit/internal/buf"
)

// Buffer is a single contiguous region of memory mapped at BaseAddr.
type Buffer struct {
	BaseAddr uint64
	Data     []byte

	readOnly bool
}

// NewBuffer creates a writable buffer for the given address range.
func NewBuffer(baseAddr uint64, data []byte) *Buffer {
	return &Buffer{BaseAddr: baseAddr, Data: data}
}

// NewReadOnlyBuffer creates a buffer that rejects writes.
func NewReadOnlyBuffer(baseAddr uint64, data []byte) *Buffer {
	return &Buffer{BaseAddr: baseAddr, Data: data, readOnly: true}
}

// IsValidAddress reports whether addr falls inside the buffer.
func (b *Buffer) IsValidAddress(addr uint64) bool {
	return buf.Contains(b.Data, b.BaseAddr, addr)
}

// Read copies up to n bytes starting at addr.
func (b *Buffer) Read(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	win, ok := buf.Window(b.Data, b.BaseAddr, addr, n)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%X outside [0x%X-0x%X)", ErrNotMapped, addr, b.BaseAddr, b.EndAddr())
	}
	out := append([]byte(nil), win...)
	if len(out) < n {
		return out, fmt.Errorf("%w: 0x%X wanted %d got %d", ErrShortRead, addr, n, len(out))
	}
	return out, nil
}

// ZRead implements AddressSpace.
func (b *Buffer) ZRead(addr uint64, n int) []byte {
	out, _ := ZReadN(b, addr, n)
	return out
}

// Write stores data in place when the whole range is inside the buffer.
func (b *Buffer) Write(addr uint64, data []byte) bool {
	if b.readOnly {
		return false
	}
	win, ok := buf.Window(b.Data, b.BaseAddr, addr, len(data))
	if !ok || len(win) < len(data) {
		return false
	}
	copy(win, data)
	return true
}

// EndAddr returns the address immediately after the last byte in the buffer.
func (b *Buffer) EndAddr() uint64 {
	return b.BaseAddr + uint64(len(b.Data))
}
