package buf

import "math"

// AddrAdd adds n bytes to addr, returning ok = false when the result would wrap
// past the top of a 64-bit address space or n is negative.
func AddrAdd(addr uint64, n int) (uint64, bool) {
	if n < 0 {
		return 0, false
	}
	if addr > math.MaxUint64-uint64(n) {
		return 0, false
	}
	return addr + uint64(n), true
}

// Window returns the sub-slice of b that backs the range [addr, addr+n) when
// b is mapped at base. The result may be shorter than n when the range runs
// past the end of b; ok is false when addr is not inside b at all.
func Window(b []byte, base, addr uint64, n int) ([]byte, bool) {
	if n < 0 || addr < base {
		return nil, false
	}
	off := addr - base
	if off >= uint64(len(b)) {
		return nil, false
	}
	end := uint64(len(b))
	if want, ok := AddrAdd(off, n); ok && want < end {
		end = want
	}
	return b[off:end], true
}

// Contains reports whether addr falls inside b mapped at base.
func Contains(b []byte, base, addr uint64) bool {
	return addr >= base && addr-base < uint64(len(b))
}
