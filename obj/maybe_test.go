package obj

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaybe(t *testing.T) {
	some := Some(uint64(7))
	v, ok := some.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(7), v)
	assert.Equal(t, "7", some.String())
	assert.Equal(t, "0x7", some.Render("0x%X"))
	assert.Empty(t, some.Reason())

	none := None[uint64]("offset 0x%X unreadable", 0x10)
	assert.False(t, none.OK())
	assert.Equal(t, "", none.String())
	assert.Equal(t, "-", none.Render("%d"))
	assert.Equal(t, uint64(3), none.Or(3))
	assert.Equal(t, "offset 0x10 unreadable", none.Reason())

	mapped := Map(none, func(v uint64) string { return "never" })
	assert.False(t, mapped.OK())
	assert.Equal(t, none.Reason(), mapped.Reason())
	assert.Equal(t, "14", Map(some, func(v uint64) uint64 { return v * 2 }).String())
}

func TestMaybeCompare(t *testing.T) {
	c, ok := Compare(Some("abc"), Some("abd"))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = Compare(Some(1), None[int]("gone"))
	assert.False(t, ok)
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("read failed")
	err := newError(KindInvalidOffset, "bad offset", cause)

	assert.True(t, errors.Is(err, ErrInvalidOffset))
	assert.False(t, errors.Is(err, ErrUnknownType))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "bad offset: read failed", err.Error())

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, KindInvalidOffset, target.Kind)
	assert.Equal(t, "invalid offset", target.Kind.String())
}
