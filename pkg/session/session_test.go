package session

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/basic"
	"github.com/joshuapare/vtypekit/internal/testutil"
	"github.com/joshuapare/vtypekit/obj"
)

func openTasks(t *testing.T, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithCatalog(testutil.SampleCatalog(t))}, opts...)
	s, err := ForParams(32, testutil.SampleTable, testutil.TaskImage().Buffer(), opts...)
	require.NoError(t, err)
	return s
}

func TestForParams(t *testing.T) {
	s := openTasks(t, WithMetadata(obj.Metadata{obj.MetaBuild: 2600}))

	p := s.Profile()
	md := p.Metadata()
	assert.Equal(t, "32bit", md[obj.MetaMemoryModel])
	assert.Equal(t, testutil.SampleTable, md[obj.MetaVTypeModule])
	assert.Equal(t, "windows", md[obj.MetaOS])
	assert.Equal(t, 2600, md[obj.MetaBuild])
	assert.Equal(t, []string{"BasicObjectClasses"}, p.Applied())
	assert.Equal(t, 4, p.PointerSize())
}

func TestForParamsOverridesTableModel(t *testing.T) {
	s, err := ForParams(64, testutil.SampleTable, addrspace.NewBuffer(0, nil),
		WithCatalog(testutil.SampleCatalog(t)),
		WithMetadata(obj.Metadata{obj.MetaMemoryModel: "32bit"}))
	require.NoError(t, err)
	assert.Equal(t, "64bit", s.Profile().Metadata()[obj.MetaMemoryModel])
	assert.Equal(t, 8, s.Profile().PointerSize())
}

func TestForParamsErrors(t *testing.T) {
	b := addrspace.NewBuffer(0, nil)

	_, err := ForParams(16, "", b)
	assert.Error(t, err)

	_, err = ForParams(32, "missing", b, WithCatalog(testutil.SampleCatalog(t)))
	assert.True(t, errors.Is(err, ErrUnknownTable))

	_, err = ForParams(32, testutil.SampleTable, b)
	assert.True(t, errors.Is(err, ErrUnknownTable), "no catalog")

	bad := obj.NewModification("Broken", nil, func(*obj.Profile) error { return obj.ErrMalformed })
	_, err = ForParams(32, "", b, WithModifications(bad))
	assert.True(t, errors.Is(err, obj.ErrMalformed))
}

func TestForParamsWithoutTable(t *testing.T) {
	s, err := ForParams(64, "", addrspace.NewBuffer(0, make([]byte, 8)))
	require.NoError(t, err)

	ns, err := s.Object(basic.MagicNamespaceType, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<64-1), obj.Uint(obj.Member(ns, "MaxAddress")).Or(0))
}

func TestObjectsDecodeThroughSession(t *testing.T) {
	s := openTasks(t)

	a, err := s.Object("_TASK", testutil.TaskA)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), obj.Uint(obj.Member(a, "Pid")).Or(0))
	assert.Equal(t, "init", obj.Member(a, "ImageName").String())
	assert.Equal(t, "Active, Exiting", obj.Member(a, "Flags").String())
	assert.Equal(t, "Stopped", obj.Member(a, "State").String())
	assert.Equal(t, "hi", obj.Member(a, "Name").String())
	assert.False(t, obj.Member(a, "Parent").IsValid())

	b, err := s.Object("_TASK", testutil.TaskB)
	require.NoError(t, err)
	parent, ok := obj.Member(b, "Parent").(*obj.Pointer)
	require.True(t, ok)
	assert.Equal(t, uint64(4), obj.Uint(obj.Member(parent.Dereference(), "Pid")).Or(0))

	slots, ok := obj.Member(b, "Slots").(*obj.Array)
	require.True(t, ok)
	assert.Equal(t, uint64(2), obj.Uint(slots.Index(1)).Or(0))
}

func TestListHeadWalk(t *testing.T) {
	s := openTasks(t)

	head, err := s.Object("_LIST_ENTRY", testutil.TaskHead)
	require.NoError(t, err)
	le, ok := head.(*basic.ListEntry)
	require.True(t, ok)

	pids := func(forward bool) []uint64 {
		var out []uint64
		for task := range le.ListOfType("_TASK", "Links", forward, true) {
			out = append(out, obj.Uint(obj.Member(task, "Pid")).Or(0))
		}
		return out
	}
	assert.Equal(t, []uint64{4, 9}, pids(true))
	assert.Equal(t, []uint64{9, 4}, pids(false))
}

func TestForProfile(t *testing.T) {
	p, err := obj.NewProfile(obj.Metadata{obj.MetaMemoryModel: "32bit"},
		obj.WithModifications(basic.ObjectClasses()))
	require.NoError(t, err)

	s, err := ForProfile(p, addrspace.Funcs{})
	require.NoError(t, err)
	assert.Same(t, p, s.Profile())
	assert.Equal(t, []byte{0, 0, 0, 0}, s.ZRead(0x10, 4))
	assert.NoError(t, s.Close())

	o, err := s.Object("unsigned int", 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), obj.Uint(o).Or(1))
}

func TestCloseReleasesFile(t *testing.T) {
	path := testutil.TaskImage().WriteFile(t, "tasks.raw")
	f, err := addrspace.OpenFile(path, testutil.TaskBase)
	require.NoError(t, err)

	s, err := ForParams(32, testutil.SampleTable, f, WithCatalog(testutil.SampleCatalog(t)))
	require.NoError(t, err)
	a, err := s.Object("_TASK", testutil.TaskA)
	require.NoError(t, err)
	assert.Equal(t, "init", obj.Member(a, "ImageName").String())
	assert.NoError(t, s.Close())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := ForParams(32, "", addrspace.NewBuffer(0, nil), WithLogger(l))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "BasicObjectClasses")

	ns, err := s.Object(basic.MagicNamespaceType, 0)
	require.NoError(t, err)
	assert.True(t, obj.IsNone(obj.Member(ns, "Missing")))
}
