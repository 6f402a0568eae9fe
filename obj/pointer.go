package obj

import (
	"fmt"
	"iter"

	"github.com/joshuapare/vtypekit/internal/buf"
)

// Pointer is an address-sized scalar with a target type.
type Pointer struct {
	Native
	target TypeDesc
}

// NewPointer builds a pointer. Its width is 4 for pointer32, 8 for pointer64,
// and the profile address size otherwise. The target comes from the
// descriptor, then the "target" argument, then void.
func NewPointer(cfg Config) (*Pointer, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("pointer %s: %w", cfg.Name, ErrNoProfile)
	}
	size, _ := cfg.Profile.TypeSize(cfg.Desc.Name)
	if !cfg.Desc.IsPointer() {
		size = cfg.Profile.PointerSize()
	}
	target := Type(TypeVoid)
	switch {
	case cfg.Desc.Target != nil:
		target = cfg.Desc.Target.Clone()
	case cfg.Desc.Args.Has("target"):
		d, ok := cfg.Desc.Args.Desc("target")
		if !ok {
			return nil, newError(KindMalformed, fmt.Sprintf("pointer %s: bad target argument", cfg.Name), nil)
		}
		target = d
	}
	return &Pointer{
		Native: Native{Base: NewBase(cfg), nt: NativeType{Size: size, Kind: NativeUnsigned}},
		target: target,
	}, nil
}

// Target is the descriptor Dereference instantiates.
func (p *Pointer) Target() TypeDesc { return p.target }

// IsValid reports whether the pointer is non-null and its target address is readable.
func (p *Pointer) IsValid() bool {
	v, ok := p.Uint().Get()
	return ok && v != 0 && p.validAddress(v)
}

// Dereference instantiates the target at the pointed-to address.
func (p *Pointer) Dereference() Object {
	return p.DereferenceAs(p.target)
}

// DereferenceAs instantiates d at the pointed-to address. The result's
// parent is the pointer's parent.
func (p *Pointer) DereferenceAs(d TypeDesc) Object {
	addr, _ := p.Uint().Get()
	cfg := Config{Desc: d, Name: p.name, Offset: addr, VM: p.vm, Parent: p.parent, Profile: p.profile}
	if !p.IsValid() {
		return NewNone(cfg, "pointer %s to %s is invalid (0x%X)", p.name, d, addr)
	}
	o, err := Instantiate(cfg)
	if err != nil {
		p.Logger().Debug("dereference failed", "pointer", p.name, "target", d.String(), "err", err)
		return NewNone(cfg, "dereference %s: %v", p.name, err)
	}
	return o
}

func (p *Pointer) String() string {
	return fmt.Sprintf("0x%0*X", p.nt.Size*2, p.Uint().Or(0))
}

// Array is a fixed run of elements of one type.
type Array struct {
	Base
	elem     TypeDesc
	count    int
	elemSize int
}

// NewArray builds an array from a descriptor with a count and element type.
// Object-class callers may pass "count" and "target" arguments instead.
func NewArray(cfg Config) (*Array, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("array %s: %w", cfg.Name, ErrNoProfile)
	}
	elem, count := TypeDesc{}, cfg.Desc.Count
	switch {
	case cfg.Desc.Target != nil:
		elem = cfg.Desc.Target.Clone()
	default:
		d, ok := cfg.Desc.Args.Desc("target")
		if !ok {
			return nil, newError(KindMalformed, fmt.Sprintf("array %s: no element type", cfg.Name), nil)
		}
		elem = d
		if n, ok := cfg.Desc.Args.Int("count"); ok {
			count = int(n)
		}
	}
	size, ok := cfg.Profile.DescSize(elem)
	if !ok {
		return nil, newError(KindUnknownType, fmt.Sprintf("array %s: element %s has no size", cfg.Name, elem), nil)
	}
	return &Array{Base: NewBase(cfg), elem: elem, count: count, elemSize: size}, nil
}

func (a *Array) Len() int       { return a.count }
func (a *Array) Size() int      { return a.count * a.elemSize }
func (a *Array) Elem() TypeDesc { return a.elem }
func (a *Array) IsValid() bool  { return a.validAddress(a.offset) }
func (a *Array) String() string { return Describe(a) }

// Index returns element i, or a NoneObject when i is out of range.
func (a *Array) Index(i int) Object {
	if i < 0 || i >= a.count {
		return a.None("index %d out of range [0,%d)", i, a.count)
	}
	off, ok := buf.AddrAdd(a.offset, i*a.elemSize)
	if !ok {
		return a.None("index %d overflows the address space", i)
	}
	o, err := a.Child(a.elem, fmt.Sprintf("%s[%d]", a.name, i), off, a)
	if err != nil {
		return a.None("%s[%d]: %v", a.name, i, err)
	}
	return o
}

// All yields every element in order.
func (a *Array) All() iter.Seq2[int, Object] {
	return func(yield func(int, Object) bool) {
		for i := 0; i < a.count; i++ {
			if !yield(i, a.Index(i)) {
				return
			}
		}
	}
}

// Value is the slice of element values; elements without a value are nil.
func (a *Array) Value() Maybe[any] {
	out := make([]any, 0, a.count)
	for _, o := range a.All() {
		v, _ := o.Value().Get()
		out = append(out, v)
	}
	return Some[any](out)
}

// Void has no size and no value. Pointers without a target point to void.
type Void struct {
	Base
}

func (v *Void) Size() int         { return 0 }
func (v *Void) IsValid() bool     { return false }
func (v *Void) Value() Maybe[any] { return None[any]("void has no value") }
func (v *Void) String() string    { return "" }
