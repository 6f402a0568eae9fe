//go:build linux

package addrspace

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Process reads the memory of a live process with process_vm_readv.
// The mapping table is captured at open time; call Refresh after the target
// maps or unmaps memory.
type Process struct {
	pid      int
	maps     []Mapping
	pageSize int
}

// OpenProcess attaches to pid. The caller needs the same permission ptrace
// attach would require.
func OpenProcess(pid int) (*Process, error) {
	p := &Process{pid: pid, pageSize: os.Getpagesize()}
	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

// Pid returns the target process id.
func (p *Process) Pid() int { return p.pid }

// Maps returns the captured mapping table.
func (p *Process) Maps() []Mapping { return p.maps }

// Refresh re-reads /proc/<pid>/maps.
func (p *Process) Refresh() error {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return fmt.Errorf("addrspace: open maps for pid %d: %w", p.pid, err)
	}
	defer f.Close()
	maps, err := ParseMaps(f)
	if err != nil {
		return err
	}
	p.maps = maps
	return nil
}

// IsValidAddress reports whether addr lies in a readable mapping.
func (p *Process) IsValidAddress(addr uint64) bool {
	_, ok := findMapping(p.maps, addr)
	return ok
}

// maxIovecs is the kernel's IOV_MAX, the most iovecs one
// process_vm_readv/writev call accepts.
const maxIovecs = 1024

// remote splits [addr, addr+n) at page boundaries, stopping after maxIovecs
// elements. It also returns the number of bytes covered. The kernel never
// splits a single iovec, so per-page elements let a transfer stop at the
// first bad page instead of failing outright.
func (p *Process) remote(addr uint64, n int) ([]unix.RemoteIovec, int) {
	var (
		iov   []unix.RemoteIovec
		total int
	)
	page := uint64(p.pageSize)
	for n > 0 && len(iov) < maxIovecs {
		chunk := int(page - addr%page)
		if chunk > n {
			chunk = n
		}
		iov = append(iov, unix.RemoteIovec{Base: uintptr(addr), Len: chunk})
		addr += uint64(chunk)
		n -= chunk
		total += chunk
	}
	return iov, total
}

type vmTransfer func(pid int, local []unix.Iovec, remote []unix.RemoteIovec, flags uint) (int, error)

// transfer moves len(buf) bytes at addr in batches of at most maxIovecs
// pages and stops at the first short batch. An error is returned only when
// nothing was transferred.
func (p *Process) transfer(fn vmTransfer, addr uint64, buf []byte) (int, error) {
	done := 0
	for done < len(buf) {
		remote, want := p.remote(addr+uint64(done), len(buf)-done)
		local := []unix.Iovec{{Base: &buf[done]}}
		local[0].SetLen(want)
		got, err := fn(p.pid, local, remote, 0)
		if err != nil {
			if done == 0 {
				return 0, err
			}
			break
		}
		done += got
		if got < want {
			break
		}
	}
	return done, nil
}

// Read implements Backend.
func (p *Process) Read(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	out := make([]byte, n)
	got, err := p.transfer(unix.ProcessVMReadv, addr, out)
	if err != nil {
		return nil, fmt.Errorf("%w: pid %d 0x%X: %v", ErrNotMapped, p.pid, addr, err)
	}
	if got < n {
		return out[:got], fmt.Errorf("%w: pid %d 0x%X wanted %d got %d", ErrShortRead, p.pid, addr, n, got)
	}
	return out, nil
}

// ZRead implements AddressSpace.
func (p *Process) ZRead(addr uint64, n int) []byte {
	out, _ := ZReadN(p, addr, n)
	return out
}

// Write implements Backend with process_vm_writev.
func (p *Process) Write(addr uint64, data []byte) bool {
	if len(data) == 0 {
		return true
	}
	got, err := p.transfer(unix.ProcessVMWritev, addr, data)
	return err == nil && got == len(data)
}
