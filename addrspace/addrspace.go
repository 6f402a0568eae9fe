// Package addrspace supplies bytes on demand from memory sources that may be
// partially unreadable or non-contiguous.
//
// A Backend only needs Read, IsValidAddress and Write. Everything that decodes
// typed values goes through ZRead, which never fails: short or failed reads
// are padded with zero bytes to the requested length. This trades fidelity
// (nulls in place of missing pages) for a decode that always has the bytes it
// asked for.
package addrspace

import (
	"errors"
)

var (
	// ErrNotMapped indicates the start address is not backed by any readable memory.
	ErrNotMapped = errors.New("addrspace: address not mapped")
	// ErrShortRead indicates only a prefix of the requested range was resident.
	ErrShortRead = errors.New("addrspace: short read")
	// ErrReadOnly indicates a write was attempted on a read-only source.
	ErrReadOnly = errors.New("addrspace: read-only")
	// ErrUnsupported indicates the backend is not available on this platform.
	ErrUnsupported = errors.New("addrspace: unsupported on this platform")
	// ErrOverlap indicates a region overlaps one that is already mapped.
	ErrOverlap = errors.New("addrspace: overlapping region")
)

// Backend is the contract a memory source implements.
type Backend interface {
	// IsValidAddress reports whether addr is readable.
	IsValidAddress(addr uint64) bool

	// Read returns up to n bytes starting at addr. When fewer than n bytes
	// are resident it returns the resident prefix (possibly empty) together
	// with a non-nil error.
	Read(addr uint64, n int) ([]byte, error)

	// Write stores data at addr. It is best-effort and may be a no-op;
	// the result reports whether every byte was written.
	Write(addr uint64, data []byte) bool
}

// AddressSpace is a Backend with a length-stable read primitive.
type AddressSpace interface {
	Backend

	// ZRead returns exactly n bytes starting at addr. Bytes that could not
	// be read are zero.
	ZRead(addr uint64, n int) []byte
}

// Wrap returns b as an AddressSpace, deriving ZRead from Read when b does not
// provide its own.
func Wrap(b Backend) AddressSpace {
	if as, ok := b.(AddressSpace); ok {
		return as
	}
	return zeroFill{b}
}

type zeroFill struct {
	Backend
}

func (z zeroFill) ZRead(addr uint64, n int) []byte {
	out, _ := ZReadN(z.Backend, addr, n)
	return out
}

// ZReadN reads n bytes from b starting at addr, zero-padding whatever Read
// could not supply. It also reports how many leading bytes were actually
// resident. A negative n is treated as zero.
func ZReadN(b Backend, addr uint64, n int) ([]byte, int) {
	if n <= 0 {
		return []byte{}, 0
	}
	out := make([]byte, n)
	data, _ := b.Read(addr, n)
	got := copy(out, data)
	return out, got
}
