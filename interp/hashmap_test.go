package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashMapPutGetRemove(t *testing.T) {
	m := NewHashMap(8)

	m.Put(Text("alpha"), Integer(1))
	m.Put(Text("beta"), Integer(2))
	m.Put(wordCell("gamma"), Integer(3))

	v, ok := m.Get(Text("alpha"))
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int())

	v, ok = m.Get(wordCell("gamma"))
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int())

	_, ok = m.Get(Text("missing"))
	assert.False(t, ok)

	assert.Equal(t, 3, m.Len())

	assert.True(t, m.Remove(Text("beta")))
	_, ok = m.Get(Text("beta"))
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())

	// A removed key's slot is reused by a later insert (spec.md §8's
	// tombstone-reuse rule), not leaked as permanent dead weight.
	m.Put(Text("delta"), Integer(4))
	assert.Equal(t, 3, m.Len())
}

func TestHashMapGrowsAndKeepsKeysReachable(t *testing.T) {
	m := NewHashMap(8)
	for i := 0; i < 64; i++ {
		m.Put(Integer(int64(i)), Integer(int64(i*i)))
	}
	for i := 0; i < 64; i++ {
		v, ok := m.Get(Integer(int64(i)))
		require.True(t, ok)
		assert.Equal(t, int64(i*i), v.Int())
	}
}
