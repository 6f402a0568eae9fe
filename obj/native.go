package obj

import (
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/vtypekit/internal/buf"
)

// Native is a fixed-width scalar. Its bytes come from ZRead, so an
// unreadable scalar decodes as zero; IsValid tells the two apart.
type Native struct {
	Base
	nt NativeType
}

// NewNative builds the native named by cfg.Desc.
func NewNative(cfg Config) (*Native, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("native %s: %w", cfg.Desc.Name, ErrNoProfile)
	}
	nt, ok := cfg.Profile.Native(cfg.Desc.Name)
	if !ok {
		return nil, newError(KindUnknownType, fmt.Sprintf("native type %q not in profile", cfg.Desc.Name), nil)
	}
	return &Native{Base: NewBase(cfg), nt: nt}, nil
}

// NativeType is the layout this scalar decodes with.
func (n *Native) NativeType() NativeType { return n.nt }

func (n *Native) Size() int { return n.nt.Size }

func (n *Native) IsValid() bool { return n.validAddress(n.offset) }

func (n *Native) order() binary.ByteOrder {
	switch n.nt.Endian {
	case EndianLittle:
		return binary.LittleEndian
	case EndianBig:
		return binary.BigEndian
	}
	if n.profile != nil {
		return n.profile.ByteOrder()
	}
	return binary.LittleEndian
}

// Raw returns the scalar's bytes.
func (n *Native) Raw() []byte {
	return n.vm.ZRead(n.offset, n.nt.Size)
}

// Uint returns the bits as an unsigned integer.
func (n *Native) Uint() Maybe[uint64] {
	if n.nt.Kind == NativeFloat {
		return None[uint64]("%s is a float", n.TypeName())
	}
	return Some(buf.Uint(n.Raw(), n.order()))
}

// Int returns the value as a signed integer; unsigned values are reinterpreted.
func (n *Native) Int() Maybe[int64] {
	switch n.nt.Kind {
	case NativeFloat:
		return None[int64]("%s is a float", n.TypeName())
	case NativeSigned:
		return Some(buf.Int(n.Raw(), n.order()))
	default:
		return Some(int64(buf.Uint(n.Raw(), n.order())))
	}
}

// Float returns a floating-point value.
func (n *Native) Float() Maybe[float64] {
	if n.nt.Kind != NativeFloat {
		return None[float64]("%s is not a float", n.TypeName())
	}
	return Some(buf.Float(n.Raw(), n.order()))
}

func (n *Native) Value() Maybe[any] {
	switch n.nt.Kind {
	case NativeSigned:
		return Map(n.Int(), func(v int64) any { return v })
	case NativeFloat:
		return Map(n.Float(), func(v float64) any { return v })
	case NativeChar:
		return Some[any](string(n.Raw()))
	default:
		return Map(n.Uint(), func(v uint64) any { return v })
	}
}

func (n *Native) String() string { return n.Value().String() }

// Write encodes v at the scalar's offset. It reports whether the address
// space accepted every byte.
func (n *Native) Write(v uint64) bool {
	b := make([]byte, n.nt.Size)
	if !buf.PutUint(b, v, n.order()) {
		return false
	}
	return n.vm.Write(n.offset, b)
}

// BitField extracts bits [start_bit, end_bit) of an underlying native type
// (native_type, default "unsigned long").
type BitField struct {
	Base
	target     *Native
	start, end uint
}

// NewBitField builds a BitField from cfg.Desc.Args.
func NewBitField(cfg Config) (*BitField, error) {
	args := cfg.Desc.Args
	start, ok1 := args.Int("start_bit")
	end, ok2 := args.Int("end_bit")
	if !ok1 || !ok2 || start < 0 || end < start || end > 64 {
		return nil, newError(KindMalformed, fmt.Sprintf("BitField %s: bad bit range", cfg.Name), nil)
	}
	ntName, ok := args.String("native_type")
	if !ok {
		ntName = "unsigned long"
	}
	tcfg := cfg
	tcfg.Desc = Type(ntName)
	target, err := NewNative(tcfg)
	if err != nil {
		return nil, fmt.Errorf("BitField %s: %w", cfg.Name, err)
	}
	return &BitField{Base: NewBase(cfg), target: target, start: uint(start), end: uint(end)}, nil
}

func (f *BitField) Size() int     { return f.target.Size() }
func (f *BitField) IsValid() bool { return f.target.IsValid() }

// Uint returns the extracted bits.
func (f *BitField) Uint() Maybe[uint64] {
	return Map(f.target.Uint(), func(v uint64) uint64 {
		width := f.end - f.start
		if width >= 64 {
			return v >> f.start
		}
		return (v >> f.start) & (1<<width - 1)
	})
}

func (f *BitField) Value() Maybe[any] {
	return Map(f.Uint(), func(v uint64) any { return v })
}

func (f *BitField) String() string { return f.Value().String() }
