package constraint

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	m := New(100)

	require.NoError(t, m.Lock(5, LockPlate|LockBiome))
	assert.True(t, m.Has(5, LockPlate))
	assert.True(t, m.Has(5, LockBiome))
	assert.True(t, m.Has(5, LockPlate|LockBiome))
	assert.False(t, m.Has(5, LockElevation))
	assert.False(t, m.Has(5, LockPlate|LockElevation), "Has requires all flags")

	require.NoError(t, m.Unlock(5, LockPlate))
	assert.False(t, m.Has(5, LockPlate))
	assert.True(t, m.Has(5, LockBiome))
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Unlock(5, LockBiome))
	assert.Equal(t, 0, m.Count(), "entry reclaimed once all flags cleared")
}

func TestOutOfRange(t *testing.T) {
	m := New(10)
	assert.Error(t, m.Lock(-1, LockPlate))
	assert.Error(t, m.Lock(10, LockPlate))
	assert.Error(t, m.SetLockedPlate(10, 0))
	assert.Error(t, m.SetLockedElevation(-5, 1.0))
	assert.Error(t, m.SetLockedBiome(99, 3))
	assert.Error(t, m.Unlock(10, LockPlate))

	// Reads don't error, they just report false.
	assert.False(t, m.Has(-1, LockPlate))
	assert.False(t, m.Has(10, LockPlate))
}

func TestTypedLocks(t *testing.T) {
	m := New(50)

	require.NoError(t, m.SetLockedPlate(3, 7))
	p, ok := m.TryGetLockedPlate(3)
	assert.True(t, ok)
	assert.Equal(t, 7, p)
	assert.True(t, m.Has(3, LockPlate))

	require.NoError(t, m.SetLockedElevation(3, -123.5))
	e, ok := m.TryGetLockedElevation(3)
	assert.True(t, ok)
	assert.Equal(t, -123.5, e)

	require.NoError(t, m.SetLockedBiome(4, 11))
	b, ok := m.TryGetLockedBiome(4)
	assert.True(t, ok)
	assert.Equal(t, 11, b)

	_, ok = m.TryGetLockedElevation(4)
	assert.False(t, ok, "elevation never locked on tile 4")
	_, ok = m.TryGetLockedPlate(40)
	assert.False(t, ok, "no entry at all on tile 40")
}

func TestUnlockLeavesValueLocksIntact(t *testing.T) {
	m := New(10)
	require.NoError(t, m.SetLockedPlate(1, 2))
	require.NoError(t, m.SetLockedElevation(1, 55))

	require.NoError(t, m.Unlock(1, LockPlate))
	_, ok := m.TryGetLockedPlate(1)
	assert.False(t, ok)
	e, ok := m.TryGetLockedElevation(1)
	assert.True(t, ok)
	assert.Equal(t, 55.0, e)
}

func TestForEachAndClear(t *testing.T) {
	m := New(20)
	require.NoError(t, m.SetLockedPlate(2, 0))
	require.NoError(t, m.SetLockedBiome(7, 1))
	require.NoError(t, m.SetLockedElevation(11, 3))

	var ids []int
	m.ForEach(func(id int, flags Flag) {
		assert.NotZero(t, flags)
		ids = append(ids, id)
	})
	sort.Ints(ids)
	assert.Equal(t, []int{2, 7, 11}, ids)

	m.Clear()
	assert.Equal(t, 0, m.Count())
	m.ForEach(func(int, Flag) {
		t.Fatal("no entries expected after Clear")
	})
}

func TestUnlockMissingEntry(t *testing.T) {
	m := New(10)
	assert.NoError(t, m.Unlock(3, LockPlate), "unlocking an unlocked tile is a no-op")
}
