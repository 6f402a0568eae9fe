package addrspace

import "fmt"

// Funcs adapts plain callbacks into a Backend. Nil callbacks fall back to:
// every address valid, writes accepted and discarded, reads return nothing.
type Funcs struct {
	ReadFunc  func(addr uint64, n int) ([]byte, error)
	WriteFunc func(addr uint64, data []byte) bool
	ValidFunc func(addr uint64) bool
}

// IsValidAddress implements Backend.
func (f Funcs) IsValidAddress(addr uint64) bool {
	if f.ValidFunc != nil {
		return f.ValidFunc(addr)
	}
	return true
}

// Read implements Backend.
func (f Funcs) Read(addr uint64, n int) ([]byte, error) {
	if f.ReadFunc == nil {
		return nil, fmt.Errorf("%w: no read callback for 0x%X", ErrNotMapped, addr)
	}
	data, err := f.ReadFunc(addr, n)
	if len(data) > n {
		data = data[:n]
	}
	if err == nil && len(data) < n {
		err = fmt.Errorf("%w: 0x%X wanted %d got %d", ErrShortRead, addr, n, len(data))
	}
	return data, err
}

// Write implements Backend.
func (f Funcs) Write(addr uint64, data []byte) bool {
	if f.WriteFunc != nil {
		return f.WriteFunc(addr, data)
	}
	return true
}
