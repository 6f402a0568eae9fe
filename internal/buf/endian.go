// Package buf contains helpers for width- and endian-generic decoding routines.
package buf

import (
	"encoding/binary"
	"math"
)

// Uint reads an unsigned integer of len(b) bytes (1, 2, 4 or 8) in the given
// byte order. Returns 0 for any other width.
func Uint(b []byte, order binary.ByteOrder) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	default:
		return 0
	}
}

// Int reads a two's-complement signed integer of len(b) bytes, sign-extended to int64.
func Int(b []byte, order binary.ByteOrder) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(order.Uint16(b)))
	case 4:
		return int64(int32(order.Uint32(b)))
	case 8:
		return int64(order.Uint64(b))
	default:
		return 0
	}
}

// Float reads an IEEE-754 float of 4 or 8 bytes. Returns 0 for any other width.
func Float(b []byte, order binary.ByteOrder) float64 {
	switch len(b) {
	case 4:
		return float64(math.Float32frombits(order.Uint32(b)))
	case 8:
		return math.Float64frombits(order.Uint64(b))
	default:
		return 0
	}
}

// PutUint encodes v into b using len(b) bytes. Higher bits that do not fit are dropped.
// Returns false when len(b) is not a supported width.
func PutUint(b []byte, v uint64, order binary.ByteOrder) bool {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return false
	}
	return true
}

// MaxUint returns the largest unsigned value representable in size bytes.
func MaxUint(size int) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	if size <= 0 {
		return 0
	}
	return 1<<(uint(size)*8) - 1
}
