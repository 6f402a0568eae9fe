//go:build !linux

package addrspace

// Process is only implemented on linux.
type Process struct{}

// OpenProcess returns ErrUnsupported outside linux.
func OpenProcess(pid int) (*Process, error) {
	return nil, ErrUnsupported
}

// Pid returns 0.
func (p *Process) Pid() int { return 0 }

// Maps returns nil.
func (p *Process) Maps() []Mapping { return nil }

// Refresh returns ErrUnsupported.
func (p *Process) Refresh() error { return ErrUnsupported }

// IsValidAddress implements Backend.
func (p *Process) IsValidAddress(uint64) bool { return false }

// Read implements Backend.
func (p *Process) Read(addr uint64, n int) ([]byte, error) { return nil, ErrUnsupported }

// ZRead implements AddressSpace.
func (p *Process) ZRead(addr uint64, n int) []byte {
	out, _ := ZReadN(p, addr, n)
	return out
}

// Write implements Backend.
func (p *Process) Write(uint64, []byte) bool { return false }
