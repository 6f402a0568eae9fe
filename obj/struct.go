package obj

import (
	"fmt"
	"iter"
	"sort"
)

// Struct is an instance of a profile VType. Members are built on first
// access and cached for the life of the struct.
type Struct struct {
	Base
	vt      VType
	self    Object
	members map[string]Object
}

// NewStruct builds the struct named by cfg.Desc. It fails with
// ErrInvalidOffset when the address space cannot back cfg.Offset.
func NewStruct(cfg Config) (*Struct, error) {
	if cfg.VM == nil || !cfg.VM.IsValidAddress(cfg.Offset) {
		return nil, newError(KindInvalidOffset,
			fmt.Sprintf("invalid offset 0x%X for %s %s", cfg.Offset, cfg.Desc.Name, cfg.Name), nil)
	}
	return NewUncheckedStruct(cfg)
}

// NewUncheckedStruct builds a struct without checking that its offset is mapped.
func NewUncheckedStruct(cfg Config) (*Struct, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("struct %s: %w", cfg.Desc.Name, ErrNoProfile)
	}
	vt, ok := cfg.Profile.Type(cfg.Desc.Name)
	if !ok {
		return nil, newError(KindUnknownType, fmt.Sprintf("type %q not in profile", cfg.Desc.Name), nil)
	}
	s := &Struct{Base: NewBase(cfg), vt: vt, members: map[string]Object{}}
	s.self = s
	return s, nil
}

// Embed makes outer the parent of every member built from now on. Object
// classes that wrap a Struct call it so members can see the wrapper.
func (s *Struct) Embed(outer Object) {
	if outer != nil {
		s.self = outer
	}
}

func (s *Struct) Size() int         { return s.vt.Size }
func (s *Struct) IsValid() bool     { return s.validAddress(s.offset) }
func (s *Struct) Value() Maybe[any] { return Some[any](s.offset) }
func (s *Struct) String() string    { return Describe(s) }

// Layout returns the VType this struct was built from.
func (s *Struct) Layout() VType { return s.vt }

// HasMember reports whether name is a field of the struct.
func (s *Struct) HasMember(name string) bool {
	_, ok := s.vt.Fields[name]
	return ok
}

// FieldOffset returns the offset of member relative to the struct.
func (s *Struct) FieldOffset(name string) (int, bool) {
	f, ok := s.vt.Fields[name]
	return f.Offset, ok
}

// Member returns the named field. Unknown names and construction failures
// come back as a NoneObject.
func (s *Struct) Member(name string) Object {
	if o, ok := s.members[name]; ok {
		return o
	}
	f, ok := s.vt.Fields[name]
	if !ok {
		return s.None("%s has no member %q", s.TypeName(), name)
	}
	off := s.offset + uint64(int64(f.Offset))
	o, err := s.Child(f.Type, name, off, s.self)
	if err != nil {
		s.Logger().Debug("member construction failed",
			"type", s.TypeName(), "member", name, "offset", fmt.Sprintf("0x%X", off), "err", err)
		o = NewNone(Config{Desc: f.Type, Name: name, Offset: off, VM: s.vm, Parent: s.self, Profile: s.profile},
			"%s.%s: %v", s.TypeName(), name, err)
	}
	s.members[name] = o
	return o
}

// MemberNames lists fields ordered by offset, then name.
func (s *Struct) MemberNames() []string {
	names := make([]string, 0, len(s.vt.Fields))
	for name := range s.vt.Fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.vt.Fields[names[i]], s.vt.Fields[names[j]]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return names[i] < names[j]
	})
	return names
}

// Members yields every field in MemberNames order.
func (s *Struct) Members() iter.Seq2[string, Object] {
	return func(yield func(string, Object) bool) {
		for _, name := range s.MemberNames() {
			if !yield(name, s.Member(name)) {
				return
			}
		}
	}
}
