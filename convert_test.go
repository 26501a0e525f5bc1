package slotpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireHeader struct {
	Tag uint32
	Len uint32
}

type hostHeader struct {
	Kind   uint32
	Length uint32
}

func TestCompatible(t *testing.T) {
	t.Run("same layout", func(t *testing.T) {
		_, err := Compatible[hostHeader, wireHeader]()
		assert.NoError(t, err)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := Compatible[int64, int32]()
		assert.ErrorIs(t, err, ErrIncompatibleLayout)
	})

	t.Run("alignment mismatch", func(t *testing.T) {
		type packed struct{ B [8]byte }
		_, err := Compatible[int64, packed]()
		assert.ErrorIs(t, err, ErrIncompatibleLayout)
	})
}

func TestConvert(t *testing.T) {
	pool, err := New[wireHeader](8)
	require.NoError(t, err)

	conv, err := Compatible[hostHeader, wireHeader]()
	require.NoError(t, err)

	obj, err := pool.Alloc()
	require.NoError(t, err)
	obj.Tag = 7
	obj.Len = 512

	view, err := conv.Convert(pool, obj)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), view.Kind)
	assert.Equal(t, uint32(512), view.Length)

	// The view aliases the slot, it does not copy it.
	view.Kind = 9
	assert.Equal(t, uint32(9), obj.Tag)

	t.Run("freed pointer", func(t *testing.T) {
		require.NoError(t, pool.Free(obj))
		_, err := conv.Convert(pool, obj)
		assert.ErrorIs(t, err, ErrInvalidPointer)
	})

	t.Run("foreign pointer", func(t *testing.T) {
		_, err := conv.Convert(pool, new(wireHeader))
		assert.ErrorIs(t, err, ErrInvalidPointer)
	})

	t.Run("undeclared conversion", func(t *testing.T) {
		var undeclared Conv[hostHeader, wireHeader]
		live, err := pool.Alloc()
		require.NoError(t, err)
		_, err = undeclared.Convert(pool, live)
		assert.ErrorIs(t, err, ErrIncompatibleLayout)
	})
}
