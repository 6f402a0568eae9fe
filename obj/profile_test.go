package obj

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func descPtr(d TypeDesc) *TypeDesc { return &d }

func TestModificationConditions(t *testing.T) {
	var ran []string
	record := func(name string) func(*Profile) error {
		return func(*Profile) error {
			ran = append(ran, name)
			return nil
		}
	}
	mods := []Modification{
		NewModification("xp", Conditions{MetaOS: Equals("windows"), MetaMajor: Equals(5)}, record("xp")),
		NewModification("vista", Conditions{MetaMajor: AtLeast(6)}, record("vista")),
		NewModification("linux", Conditions{MetaOS: Equals("linux")}, record("linux")),
		NewModification("needs-build", Conditions{MetaBuild: AtLeast(2600)}, record("needs-build")),
		NewModification("any", nil, record("any")),
	}
	p := newTestProfile(t, WithModifications(mods...))

	assert.Equal(t, []string{"xp", "any"}, ran)
	assert.Equal(t, []string{"xp", "any"}, p.Applied())
}

func TestSkippedModificationLeavesTablesUntouched(t *testing.T) {
	linux := NewModification("linux", Conditions{MetaOS: Equals("linux")}, func(p *Profile) error {
		if err := p.AddEnums(map[string]map[string]string{"Signal": {"9": "SIGKILL"}}); err != nil {
			return err
		}
		return p.MergeOverlay(map[string]Overlay{
			"_FOO":        {Size: intPtr(64), Fields: map[string]FieldOverlay{"a": {Type: descPtr(Type("long"))}}},
			"task_struct": {Size: intPtr(8), Fields: map[string]FieldOverlay{"pid": {Offset: intPtr(0), Type: descPtr(Type("int"))}}},
		})
	})

	without := newTestProfile(t)
	with := newTestProfile(t, WithModifications(linux))

	assert.Empty(t, with.Applied())
	if diff := cmp.Diff(without.Snapshot().Types, with.Snapshot().Types); diff != "" {
		t.Fatalf("skipped modification changed types (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(without.Snapshot().Enums, with.Snapshot().Enums); diff != "" {
		t.Fatalf("skipped modification changed enums (-want +got):\n%s", diff)
	}

	// The same modification does change the tables once its condition holds.
	with.SetMetadata(MetaOS, "linux")
	require.NoError(t, with.Reset())
	assert.Equal(t, []string{"linux"}, with.Applied())
	assert.NotEmpty(t, cmp.Diff(without.Snapshot().Types, with.Snapshot().Types))
}

func TestConditionHelpers(t *testing.T) {
	md := Metadata{MetaOS: "windows", MetaMajor: int64(6), MetaMinor: uint64(1), MetaMemoryModel: "64bit"}

	assert.True(t, Conditions{MetaMajor: Equals(6)}.Match(md))
	assert.True(t, Conditions{MetaMinor: Equals(1)}.Match(md))
	assert.True(t, Conditions{MetaMemoryModel: OneOf("32bit", "64bit")}.Match(md))
	assert.True(t, Conditions{MetaMajor: AtMost(6), MetaMinor: AtLeast(1)}.Match(md))
	assert.False(t, Conditions{MetaMajor: AtMost(5)}.Match(md))
	assert.False(t, Conditions{MetaOS: Equals(6)}.Match(md))
	assert.False(t, Conditions{MetaBuild: Equals(1)}.Match(md), "missing key must not match")
	assert.True(t, Conditions{}.Match(md))
}

func TestResetIsIdempotent(t *testing.T) {
	mod := NewModification("overlay", nil, func(p *Profile) error {
		if err := p.AddEnums(map[string]map[string]string{"Color": {"1": "Red"}}); err != nil {
			return err
		}
		return p.MergeOverlay(map[string]Overlay{
			"_FOO": {Fields: map[string]FieldOverlay{"extra": {Offset: intPtr(2), Type: descPtr(Type("unsigned short"))}}},
		})
	})
	p := newTestProfile(t, WithModifications(mod))
	first := p.Snapshot()

	require.NoError(t, p.Reset())
	second := p.Snapshot()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Reset changed the tables (-first +second):\n%s", diff)
	}
	f, ok := p.Field("_FOO", "extra")
	require.True(t, ok)
	assert.Equal(t, 2, f.Offset)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	p := newTestProfile(t)
	snap := p.Snapshot()
	snap.Types["_FOO"].Fields["a"] = Field{Offset: 99, Type: Type("char")}

	f, ok := p.Field("_FOO", "a")
	require.True(t, ok)
	assert.Equal(t, 0, f.Offset)
}

func TestMutatorsFrozenAfterReset(t *testing.T) {
	p := newTestProfile(t)

	err := p.AddTypes(map[string]VType{"_X": {Size: 1}})
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.True(t, errors.Is(p.AddEnums(nil), ErrFrozen))
	assert.True(t, errors.Is(p.MergeOverlay(nil), ErrFrozen))
	assert.True(t, errors.Is(p.RegisterClass("_X", nil), ErrFrozen))
	assert.False(t, p.HasType("_X"))
}

func TestMergeOverlay(t *testing.T) {
	mod := NewModification("patch", nil, func(p *Profile) error {
		return p.MergeOverlay(map[string]Overlay{
			"_FOO": {
				Fields: map[string]FieldOverlay{
					"a":   {Type: descPtr(Type("long"))},
					"b":   {Offset: intPtr(6)},
					"new": {Offset: intPtr(14), Type: descPtr(Type("unsigned short"))},
				},
			},
			"_CREATED": {
				Size:   intPtr(8),
				Fields: map[string]FieldOverlay{"x": {Offset: intPtr(0), Type: descPtr(Type("address"))}},
			},
		})
	})
	p := newTestProfile(t, WithModifications(mod))

	vt, ok := p.Type("_FOO")
	require.True(t, ok)
	assert.Equal(t, 16, vt.Size, "nil overlay size keeps base size")
	assert.Equal(t, Field{Offset: 0, Type: Type("long")}, vt.Fields["a"])
	assert.Equal(t, Field{Offset: 6, Type: Type("short")}, vt.Fields["b"])
	assert.Equal(t, 14, vt.Fields["new"].Offset)
	assert.Equal(t, 8, vt.Fields["next"].Offset, "untouched field survives")

	created, ok := p.Type("_CREATED")
	require.True(t, ok)
	assert.Equal(t, 8, created.Size)

	off, err := p.FieldOffset("_CREATED", "x")
	require.NoError(t, err)
	assert.Equal(t, 0, off)
}

func TestMergeOverlayRejectsIncompleteNewField(t *testing.T) {
	mod := NewModification("bad", nil, func(p *Profile) error {
		return p.MergeOverlay(map[string]Overlay{
			"_FOO": {Fields: map[string]FieldOverlay{"ghost": {Offset: intPtr(1)}}},
		})
	})
	_, err := NewProfile(Metadata{MetaMemoryModel: MemoryModel32}, WithTypes(fooTypes()), WithModifications(mod))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "bad")
}

func TestFailedResetKeepsPreviousTables(t *testing.T) {
	p := newTestProfile(t)
	p.SetMetadata(MetaMemoryModel, "16bit")
	require.Error(t, p.Reset())
	assert.True(t, p.HasType("_FOO"))
	assert.Equal(t, 4, p.PointerSize())
}

func TestDerivedConstants(t *testing.T) {
	p := newTestProfile(t)
	assert.Equal(t, 4, p.PointerSize())
	assert.Equal(t, binary.ByteOrder(binary.LittleEndian), p.ByteOrder())

	size, ok := p.TypeSize("address")
	require.True(t, ok)
	assert.Equal(t, 4, size)

	p.SetMetadata(MetaMemoryModel, MemoryModel64)
	p.SetMetadata(MetaEndian, "big")
	require.NoError(t, p.Reset())
	assert.Equal(t, 8, p.PointerSize())
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), p.ByteOrder())

	size, ok = p.TypeSize("address")
	require.True(t, ok)
	assert.Equal(t, 8, size)
	size, _ = p.TypeSize(TypePointer32)
	assert.Equal(t, 4, size)
	size, _ = p.TypeSize("_FOO")
	assert.Equal(t, 16, size)
	_, ok = p.TypeSize("_NOPE")
	assert.False(t, ok)
}

func TestDescSize(t *testing.T) {
	p := newTestProfile(t)
	n, ok := p.DescSize(ArrayOf(3, Type("_FOO")))
	require.True(t, ok)
	assert.Equal(t, 48, n)

	n, ok = p.DescSize(TypeWith("String", Args{"length": 12}))
	require.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = p.DescSize(TypeWith("Enumeration", Args{"target": "unsigned short"}))
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestFieldOffsetErrors(t *testing.T) {
	p := newTestProfile(t)
	_, err := p.FieldOffset("_NOPE", "a")
	assert.True(t, errors.Is(err, ErrUnknownType))
	_, err = p.FieldOffset("_FOO", "nope")
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestModificationErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	mod := NewModification("explode", nil, func(*Profile) error { return boom })
	_, err := NewProfile(Metadata{}, WithModifications(mod))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
