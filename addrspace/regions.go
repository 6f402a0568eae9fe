package addrspace

import (
	"fmt"
	"sort"
)

// Regions is a non-contiguous address space made of non-overlapping buffers,
// e.g. the loaded segments of a core file. Reads that cross from one region
// into an adjacent one are stitched together; reads that run into a gap
// return the resident prefix.
type Regions struct {
	regions []*Buffer // sorted by BaseAddr
}

// NewRegions creates an empty region map.
func NewRegions() *Regions {
	return &Regions{}
}

// Add maps data at base. Returns ErrOverlap if the range intersects an
// existing region.
func (r *Regions) Add(base uint64, data []byte) error {
	return r.AddBuffer(NewBuffer(base, data))
}

// AddBuffer maps an existing buffer.
func (r *Regions) AddBuffer(b *Buffer) error {
	if len(b.Data) == 0 {
		return nil
	}
	for _, existing := range r.regions {
		if b.BaseAddr < existing.EndAddr() && existing.BaseAddr < b.EndAddr() {
			return fmt.Errorf("%w: [0x%X-0x%X) conflicts with [0x%X-0x%X)",
				ErrOverlap, b.BaseAddr, b.EndAddr(), existing.BaseAddr, existing.EndAddr())
		}
	}
	r.regions = append(r.regions, b)
	sort.Slice(r.regions, func(i, j int) bool {
		return r.regions[i].BaseAddr < r.regions[j].BaseAddr
	})
	return nil
}

// Len returns the number of mapped regions.
func (r *Regions) Len() int { return len(r.regions) }

func (r *Regions) find(addr uint64) *Buffer {
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].EndAddr() > addr
	})
	if i < len(r.regions) && r.regions[i].IsValidAddress(addr) {
		return r.regions[i]
	}
	return nil
}

// IsValidAddress reports whether any region contains addr.
func (r *Regions) IsValidAddress(addr uint64) bool {
	return r.find(addr) != nil
}

// Read collects bytes across contiguous regions starting at addr.
func (r *Regions) Read(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if r.find(addr) == nil {
		return nil, fmt.Errorf("%w: 0x%X not found in any region", ErrNotMapped, addr)
	}
	out := make([]byte, 0, n)
	cur := addr
	for len(out) < n {
		region := r.find(cur)
		if region == nil {
			return out, fmt.Errorf("%w: gap at 0x%X after %d of %d bytes", ErrShortRead, cur, len(out), n)
		}
		chunk, _ := region.Read(cur, n-len(out))
		out = append(out, chunk...)
		cur += uint64(len(chunk))
	}
	return out, nil
}

// ZRead implements AddressSpace.
func (r *Regions) ZRead(addr uint64, n int) []byte {
	out, _ := ZReadN(r, addr, n)
	return out
}

// Write stores data when every byte of the range is mapped.
func (r *Regions) Write(addr uint64, data []byte) bool {
	cur := addr
	rest := data
	for len(rest) > 0 {
		region := r.find(cur)
		if region == nil {
			return false
		}
		n := len(rest)
		if avail := region.EndAddr() - cur; uint64(n) > avail {
			n = int(avail)
		}
		if !region.Write(cur, rest[:n]) {
			return false
		}
		rest = rest[n:]
		cur += uint64(n)
	}
	return true
}
