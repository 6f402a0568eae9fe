package obj

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vtypekit/addrspace"
)

const imageBase = 0x1000

// makeImage lays out two _FOO records back to back. The first points at
// itself; the second has a null next pointer.
func makeImage() []byte {
	return []byte{
		// _FOO @ 0x1000
		0x44, 0x33, 0x22, 0x11, // a
		0xFE, 0xFF, 0x00, 0x00, // b, pad
		0x00, 0x10, 0x00, 0x00, // next -> 0x1000
		0x01, 0x02, 0x03, 0x04, // arr
		// _FOO @ 0x1010
		0x00, 0x00, 0x01, 0x02, // a (read big-endian as 0x102)
		0xAB, 0x00, 0x00, 0x00, // b
		0x00, 0x00, 0x00, 0x00, // next = NULL
		0xFF, 0xFF, 0xFF, 0xFF, // arr
	}
}

func fooTypes() map[string]VType {
	return map[string]VType{
		"_FOO": {
			Size: 16,
			Fields: map[string]Field{
				"a":    {Offset: 0, Type: Type("unsigned int")},
				"b":    {Offset: 4, Type: Type("short")},
				"next": {Offset: 8, Type: PointerTo(Type("_FOO"))},
				"arr":  {Offset: 12, Type: ArrayOf(4, Type("unsigned char"))},
			},
		},
	}
}

func newTestProfile(t *testing.T, opts ...ProfileOption) *Profile {
	t.Helper()
	opts = append([]ProfileOption{WithTypes(fooTypes())}, opts...)
	p, err := NewProfile(Metadata{MetaOS: "windows", MetaMemoryModel: MemoryModel32, MetaMajor: 5, MetaMinor: 1}, opts...)
	require.NoError(t, err)
	return p
}

func newFoo(t *testing.T, p *Profile, offset uint64) (*Struct, *addrspace.Buffer) {
	t.Helper()
	vm := addrspace.NewBuffer(imageBase, makeImage())
	o, err := New("_FOO", offset, vm, WithProfile(p))
	require.NoError(t, err)
	s, ok := o.(*Struct)
	require.True(t, ok, "want *Struct, got %T", o)
	return s, vm
}

func TestNativeDecoding(t *testing.T) {
	s, _ := newFoo(t, newTestProfile(t), imageBase)

	assert.Equal(t, uint64(0x11223344), Uint(s.Member("a")).Or(0))

	b, ok := s.Member("b").(*Native)
	require.True(t, ok)
	assert.Equal(t, int64(-2), b.Int().Or(0))
	assert.Equal(t, "-2", b.String())
	assert.Equal(t, 2, b.Size())

	vm := s.VM()
	be, err := New("unsigned be int", imageBase+0x10, vm, WithProfile(s.Profile()))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x102), Uint(be).Or(0))
}

func TestNativeOutsideImageDecodesZero(t *testing.T) {
	p := newTestProfile(t)
	vm := addrspace.NewBuffer(imageBase, makeImage())
	o, err := New("unsigned long", 0x10, vm, WithProfile(p))
	require.NoError(t, err)
	assert.False(t, o.IsValid())
	assert.Equal(t, uint64(0), Uint(o).Or(1))
}

func TestNativeWrite(t *testing.T) {
	s, vm := newFoo(t, newTestProfile(t), imageBase)
	a := s.Member("a").(*Native)
	require.True(t, a.Write(0xCAFEBABE))
	assert.Equal(t, []byte{0xBE, 0xBA, 0xFE, 0xCA}, vm.ZRead(imageBase, 4))
	assert.Equal(t, uint64(0xCAFEBABE), a.Uint().Or(0))
}

func TestBigEndianProfile(t *testing.T) {
	p := newTestProfile(t)
	p.SetMetadata(MetaEndian, "big")
	require.NoError(t, p.Reset())
	s, _ := newFoo(t, p, imageBase)
	assert.Equal(t, uint64(0x44332211), Uint(s.Member("a")).Or(0))
}

func TestMemberIsCached(t *testing.T) {
	s, _ := newFoo(t, newTestProfile(t), imageBase)
	first := s.Member("a")
	require.Same(t, first, s.Member("a"))
	assert.Same(t, s, first.Parent())
	assert.Equal(t, "a", first.Name())
	assert.Equal(t, uint64(imageBase), first.Offset())
}

func TestUnknownMemberIsNone(t *testing.T) {
	s, _ := newFoo(t, newTestProfile(t), imageBase)
	m := s.Member("nope")
	require.True(t, IsNone(m))
	assert.False(t, m.IsValid())
	assert.Equal(t, "", m.String())
	assert.Contains(t, m.(*NoneObject).Reason(), "nope")

	// Chained access keeps propagating the placeholder.
	chained := Member(Member(m, "x"), "y")
	assert.True(t, IsNone(chained))
	assert.False(t, Uint(chained).OK())
}

func TestPointerDereference(t *testing.T) {
	p := newTestProfile(t)
	s, _ := newFoo(t, p, imageBase)

	next := s.Member("next").(*Pointer)
	assert.True(t, next.IsValid())
	assert.Equal(t, 4, next.Size())
	assert.Equal(t, "0x00001000", next.String())

	target := next.Dereference()
	ts, ok := target.(*Struct)
	require.True(t, ok, "got %T", target)
	assert.Equal(t, uint64(imageBase), ts.Offset())
	assert.Same(t, s, ts.Parent())
	assert.Equal(t, uint64(0x11223344), Uint(ts.Member("a")).Or(0))

	second, _ := newFoo(t, p, imageBase+0x10)
	null := second.Member("next").(*Pointer)
	assert.False(t, null.IsValid())
	assert.True(t, IsNone(null.Dereference()))
}

func TestPointerWidthFollowsMemoryModel(t *testing.T) {
	p, err := NewProfile(Metadata{MetaMemoryModel: MemoryModel64}, WithTypes(fooTypes()))
	require.NoError(t, err)
	vm := addrspace.NewBuffer(imageBase, makeImage())

	o, err := New(TypePointer, imageBase, vm, WithProfile(p))
	require.NoError(t, err)
	assert.Equal(t, 8, o.Size())

	o, err = New(TypePointer32, imageBase, vm, WithProfile(p))
	require.NoError(t, err)
	assert.Equal(t, 4, o.Size())
}

func TestArray(t *testing.T) {
	s, _ := newFoo(t, newTestProfile(t), imageBase)
	arr, ok := s.Member("arr").(*Array)
	require.True(t, ok)
	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.Size())
	assert.Equal(t, uint64(3), Uint(arr.Index(2)).Or(0))
	assert.True(t, IsNone(arr.Index(4)))
	assert.True(t, IsNone(arr.Index(-1)))

	var got []uint64
	for _, e := range arr.All() {
		got = append(got, Uint(e).Or(0))
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, got)

	vals, ok := arr.Value().Get()
	require.True(t, ok)
	assert.Len(t, vals, 4)
}

func TestBitField(t *testing.T) {
	p := newTestProfile(t)
	vm := addrspace.NewBuffer(imageBase, makeImage())
	o, err := New(TypeBitField, imageBase+0x14, vm, WithProfile(p),
		WithArgs(Args{"start_bit": 4, "end_bit": 8, "native_type": "unsigned char"}))
	require.NoError(t, err)
	assert.Equal(t, uint64(0xA), Uint(o).Or(0))
	assert.Equal(t, 1, o.Size())

	_, err = New(TypeBitField, imageBase, vm, WithProfile(p), WithArgs(Args{"start_bit": 8, "end_bit": 4}))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestHardFailures(t *testing.T) {
	p := newTestProfile(t)
	vm := addrspace.NewBuffer(imageBase, makeImage())

	_, err := New("_FOO", 0xDEAD0000, vm, WithProfile(p))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOffset))
	assert.False(t, errors.Is(err, ErrUnknownType))

	_, err = New("_BAR", imageBase, vm, WithProfile(p))
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = New("_FOO", imageBase, vm)
	assert.True(t, errors.Is(err, ErrNoProfile))
}

type boundBuffer struct {
	*addrspace.Buffer
	p *Profile
}

func (b boundBuffer) Profile() *Profile { return b.p }

func TestProfileFromBoundAddressSpace(t *testing.T) {
	p := newTestProfile(t)
	vm := boundBuffer{Buffer: addrspace.NewBuffer(imageBase, makeImage()), p: p}
	o, err := New("_FOO", imageBase, vm)
	require.NoError(t, err)
	assert.Same(t, p, o.Profile())
	assert.Same(t, p, Member(o, "a").Profile())
}

func TestClassTakesPrecedence(t *testing.T) {
	calls := 0
	mod := NewModification("foo-class", nil, func(p *Profile) error {
		return p.RegisterClass("_FOO", func(cfg Config) (Object, error) {
			calls++
			return asObject(NewStruct(cfg))
		})
	})
	p := newTestProfile(t, WithModifications(mod))
	s, _ := newFoo(t, p, imageBase)

	assert.Equal(t, 1, calls)
	s.Member("next").(*Pointer).Dereference()
	assert.Equal(t, 2, calls)
}

func TestStructMembersOrdered(t *testing.T) {
	s, _ := newFoo(t, newTestProfile(t), imageBase)
	assert.Equal(t, []string{"a", "b", "next", "arr"}, s.MemberNames())

	var names []string
	for name, o := range s.Members() {
		names = append(names, name)
		assert.False(t, IsNone(o))
	}
	assert.Equal(t, s.MemberNames(), names)
	assert.Equal(t, 16, s.Size())
}

func TestMagic(t *testing.T) {
	p := newTestProfile(t)
	vm := addrspace.NewBuffer(imageBase, makeImage())

	m := NewMagic(Config{Desc: Type("Answer"), VM: vm, Profile: p}, func(*Magic) iter.Seq[any] {
		return func(yield func(any) bool) {
			if !yield(uint64(42)) {
				return
			}
			yield(uint64(7))
		}
	})
	assert.Equal(t, uint64(42), Uint(m).Or(0))
	assert.Equal(t, "42", m.String())
	assert.True(t, m.IsValid())

	var all []any
	for v := range m.Suggestions() {
		all = append(all, v)
	}
	assert.Equal(t, []any{uint64(42), uint64(7)}, all)

	pinned := NewMagic(Config{Desc: TypeWith("Answer", Args{"value": 5}), VM: vm, Profile: p}, nil)
	assert.Equal(t, "5", pinned.String())

	empty := NewMagic(Config{Desc: Type("Nothing"), VM: vm, Profile: p}, nil)
	assert.False(t, empty.IsValid())
	assert.Equal(t, "-", empty.Value().Render("%v"))
}
