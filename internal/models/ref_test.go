package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedRef(t *testing.T) {
	m := &Member{ID: 3, Name: "kim"}
	ref := Resolved(3, m)

	assert.True(t, ref.Loaded())
	got, err := ref.Get()
	require.NoError(t, err)
	assert.Same(t, m, got)
}

func TestDeferredRefLoadsOnce(t *testing.T) {
	calls := 0
	ref := Deferred(3, func() (*Member, error) {
		calls++
		return &Member{ID: 3}, nil
	})

	assert.False(t, ref.Loaded())

	first, err := ref.Get()
	require.NoError(t, err)
	second, err := ref.Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, ref.Loaded())
}

func TestDeferredRefError(t *testing.T) {
	closed := errors.New("closed")
	ref := Deferred(3, func() (*Member, error) { return nil, closed })

	_, err := ref.Get()
	assert.ErrorIs(t, err, closed)
	assert.False(t, ref.Loaded())
}

func TestDetachedRef(t *testing.T) {
	ref := Detached[Item](5)

	_, err := ref.Get()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, int64(5), ref.ID)
}

func TestCollection(t *testing.T) {
	calls := 0
	c := DeferredCollection(func() ([]int, error) {
		calls++
		return []int{1, 2}, nil
	})
	assert.False(t, c.Loaded())

	items, err := c.Get()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)

	_, err = c.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	c.Set([]int{3})
	items, err = c.Get()
	require.NoError(t, err)
	assert.Equal(t, []int{3}, items)

	var empty Collection[int]
	_, err = empty.Get()
	assert.ErrorIs(t, err, ErrNotLoaded)
}
