package obj

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/vtypekit/addrspace"
)

// Object is a typed view over bytes at an offset in an address space.
type Object interface {
	TypeName() string
	Name() string
	Offset() uint64
	VM() addrspace.AddressSpace
	Parent() Object
	Profile() *Profile

	// Size is the number of bytes the object spans.
	Size() int
	// Value is the decoded value, or an empty Maybe when it cannot be decoded.
	Value() Maybe[any]
	// IsValid reports whether the object is backed by readable memory and
	// holds a usable value. A NoneObject is never valid.
	IsValid() bool
	// String is the display form; empty when there is no value.
	String() string
}

// Bound is implemented by address spaces that carry a profile, so objects
// built over them need no explicit profile.
type Bound interface {
	Profile() *Profile
}

// Config is everything a Factory needs to construct an object.
type Config struct {
	Desc    TypeDesc
	Name    string
	Offset  uint64
	VM      addrspace.AddressSpace
	Parent  Object
	Profile *Profile
}

// Option adjusts the Config used by New.
type Option func(*Config)

// WithParent sets the parent reported by the object.
func WithParent(parent Object) Option {
	return func(c *Config) { c.Parent = parent }
}

// WithProfile sets the profile explicitly.
func WithProfile(p *Profile) Option {
	return func(c *Config) { c.Profile = p }
}

// WithName sets the member name.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithArgs sets object-class keyword arguments.
func WithArgs(args Args) Option {
	return func(c *Config) { c.Desc.Args = args.Clone() }
}

// WithDesc replaces the whole descriptor, including pointer targets and
// array element types.
func WithDesc(d TypeDesc) Option {
	return func(c *Config) { c.Desc = d.Clone() }
}

// New constructs the object for typeName at offset in vm.
func New(typeName string, offset uint64, vm addrspace.AddressSpace, opts ...Option) (Object, error) {
	cfg := Config{Desc: Type(typeName), Offset: offset, VM: vm}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Instantiate(cfg)
}

// Instantiate resolves the profile for cfg and dispatches on the descriptor
// name: a bound object class first, then the built-in pointer, array, void
// and BitField descriptors, then native types, then structured types.
func Instantiate(cfg Config) (Object, error) {
	if cfg.VM == nil {
		return nil, newError(KindMalformed, fmt.Sprintf("%s: nil address space", cfg.Desc.Name), nil)
	}
	p, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Profile = p

	name := cfg.Desc.Name
	if f, ok := p.Class(name); ok {
		return f(cfg)
	}
	switch {
	case cfg.Desc.IsPointer():
		return asObject(NewPointer(cfg))
	case name == TypeArray:
		return asObject(NewArray(cfg))
	case name == TypeVoid:
		return &Void{Base: NewBase(cfg)}, nil
	case name == TypeBitField:
		return asObject(NewBitField(cfg))
	}
	if nt, ok := p.Native(name); ok {
		return &Native{Base: NewBase(cfg), nt: nt}, nil
	}
	if p.HasType(name) {
		return asObject(NewStruct(cfg))
	}
	return nil, newError(KindUnknownType, fmt.Sprintf("type %q not in profile", name), nil)
}

// asObject keeps a failed constructor's typed nil out of the Object interface.
func asObject[T Object](o T, err error) (Object, error) {
	if err != nil {
		return nil, err
	}
	return o, nil
}

func resolveProfile(cfg Config) (*Profile, error) {
	switch {
	case cfg.Profile != nil:
		return cfg.Profile, nil
	case cfg.Parent != nil && cfg.Parent.Profile() != nil:
		return cfg.Parent.Profile(), nil
	}
	if b, ok := cfg.VM.(Bound); ok && b.Profile() != nil {
		return b.Profile(), nil
	}
	return nil, fmt.Errorf("instantiate %s: %w", cfg.Desc.Name, ErrNoProfile)
}

// Base carries the identity shared by every object. Concrete objects embed it
// and supply Size, Value, IsValid and String.
type Base struct {
	desc    TypeDesc
	name    string
	offset  uint64
	vm      addrspace.AddressSpace
	parent  Object
	profile *Profile
}

// NewBase captures cfg.
func NewBase(cfg Config) Base {
	return Base{
		desc:    cfg.Desc,
		name:    cfg.Name,
		offset:  cfg.Offset,
		vm:      cfg.VM,
		parent:  cfg.Parent,
		profile: cfg.Profile,
	}
}

func (b *Base) TypeName() string           { return b.desc.Name }
func (b *Base) Name() string               { return b.name }
func (b *Base) Offset() uint64             { return b.offset }
func (b *Base) VM() addrspace.AddressSpace { return b.vm }
func (b *Base) Parent() Object             { return b.parent }
func (b *Base) Profile() *Profile          { return b.profile }
func (b *Base) Desc() TypeDesc             { return b.desc }
func (b *Base) Args() Args                 { return b.desc.Args }

// Config returns the configuration this object was built from.
func (b *Base) Config() Config {
	return Config{Desc: b.desc, Name: b.name, Offset: b.offset, VM: b.vm, Parent: b.parent, Profile: b.profile}
}

func (b *Base) validAddress(addr uint64) bool {
	return b.vm != nil && b.vm.IsValidAddress(addr)
}

// Logger returns the profile logger, or a discarding logger when there is no profile.
func (b *Base) Logger() *slog.Logger {
	if b.profile != nil {
		return b.profile.Logger()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Child constructs an object sharing this object's address space and profile.
func (b *Base) Child(d TypeDesc, name string, offset uint64, parent Object) (Object, error) {
	return Instantiate(Config{Desc: d, Name: name, Offset: offset, VM: b.vm, Parent: parent, Profile: b.profile})
}

// None returns a NoneObject positioned at this object.
func (b *Base) None(format string, args ...any) *NoneObject {
	return NewNone(b.Config(), format, args...)
}

// NoneObject stands in for an object that could not be produced. Member
// access, dereference and indexing on it yield further NoneObjects carrying
// the original reason.
type NoneObject struct {
	Base
	reason string
}

// NewNone builds a NoneObject at the position described by cfg.
func NewNone(cfg Config, format string, args ...any) *NoneObject {
	return &NoneObject{Base: NewBase(cfg), reason: fmt.Sprintf(format, args...)}
}

// Reason is the diagnostic explaining why there is no object.
func (n *NoneObject) Reason() string { return n.reason }

func (n *NoneObject) Size() int            { return 0 }
func (n *NoneObject) Value() Maybe[any]    { return None[any]("%s", n.reason) }
func (n *NoneObject) IsValid() bool        { return false }
func (n *NoneObject) String() string       { return "" }
func (n *NoneObject) Member(string) Object { return n }
func (n *NoneObject) Dereference() Object  { return n }
func (n *NoneObject) Index(int) Object     { return n }

// IsNone reports whether o is a NoneObject (or nil).
func IsNone(o Object) bool {
	if o == nil {
		return true
	}
	_, ok := o.(*NoneObject)
	return ok
}

// Member returns the named member of o, or a NoneObject when o has no members.
func Member(o Object, name string) Object {
	if o == nil {
		return NewNone(Config{}, "member %q of nil object", name)
	}
	if m, ok := o.(interface{ Member(string) Object }); ok {
		return m.Member(name)
	}
	return NewNone(configOf(o), "%s has no member %q", o.TypeName(), name)
}

// Uint returns o's value as an unsigned integer when it has one.
func Uint(o Object) Maybe[uint64] {
	if o == nil {
		return None[uint64]("nil object")
	}
	if u, ok := o.(interface{ Uint() Maybe[uint64] }); ok {
		return u.Uint()
	}
	v := o.Value()
	raw, ok := v.Get()
	if !ok {
		return NoneFrom[uint64](v)
	}
	if u, ok := raw.(uint64); ok {
		return Some(u)
	}
	if n, ok := toInt64(raw); ok {
		return Some(uint64(n))
	}
	return None[uint64]("%s value %T is not an integer", o.TypeName(), raw)
}

// As returns o as T; ok is false for a NoneObject or another concrete type.
func As[T Object](o Object) (T, bool) {
	t, ok := o.(T)
	return t, ok
}

func configOf(o Object) Config {
	cfg := Config{Desc: Type(o.TypeName()), Name: o.Name(), Offset: o.Offset(), VM: o.VM(), Parent: o.Parent(), Profile: o.Profile()}
	if d, ok := o.(interface{ Desc() TypeDesc }); ok {
		cfg.Desc = d.Desc()
	}
	return cfg
}

// Describe is the one-line "[Type name] @ 0xOFFSET" form used in logs and dumps.
func Describe(o Object) string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("[%s %s] @ 0x%08X", o.TypeName(), o.Name(), o.Offset())
}
