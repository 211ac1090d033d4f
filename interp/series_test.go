package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayExpandAndAppend(t *testing.T) {
	s := MakeArray(0)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.AppendCell(Integer(int64(i))))
	}
	assert.Equal(t, 20, s.Len())
	assert.Equal(t, int64(7), s.At(7).Int())
	assert.Nil(t, s.At(20))
}

func TestExpandInsertsMidSeries(t *testing.T) {
	s := MakeArray(0)
	_ = s.AppendCell(Integer(1))
	_ = s.AppendCell(Integer(3))
	require.NoError(t, s.expand(1, 1))
	*s.At(1) = Integer(2)
	assert.Equal(t, []int64{1, 2, 3}, []int64{s.At(0).Int(), s.At(1).Int(), s.At(2).Int()})
}

// TestRemoveHeadUsesBias covers spec.md §3.2's "bias (unused prefix for
// O(1) head removal)": removing from the head of a byte series advances
// bias instead of shifting the buffer.
func TestRemoveHeadUsesBias(t *testing.T) {
	s := MakeBinary(0)
	_ = s.AppendBytes([]byte{1, 2, 3, 4, 5})
	require.NoError(t, s.removeUnits(0, 2))
	assert.Equal(t, 2, s.bias)
	assert.Equal(t, []byte{3, 4, 5}, s.Bytes())
	assert.Equal(t, 3, s.Len())
}

// TestCopyCopyLaw is spec.md §8: "copy (copy v) == copy v for any series
// v; pointer-distinct, value-equal."
func TestCopyCopyLaw(t *testing.T) {
	s := MakeBinary(0)
	_ = s.AppendBytes([]byte("series content"))

	c1 := s.Copy()
	c2 := c1.Copy()
	assert.NotSame(t, c1, c2)
	assert.True(t, seriesEqual(c1, c2))
	assert.True(t, seriesEqual(s, c2))

	arr := blockOf(Integer(1), Integer(2))
	a1 := arr.Copy()
	a2 := a1.Copy()
	assert.NotSame(t, a1, a2)
	assert.Equal(t, a1.Len(), a2.Len())
	assert.True(t, a1.At(0).Equal(a2.At(0)))
}

func TestCopyAfterBiasDropsPrefix(t *testing.T) {
	s := MakeBinary(0)
	_ = s.AppendBytes([]byte{9, 9, 1, 2})
	require.NoError(t, s.removeUnits(0, 2))

	c := s.Copy()
	assert.Equal(t, []byte{1, 2}, c.Bytes())
	assert.Equal(t, 0, c.bias, "a copy starts with no prefix waste")
}

// TestDontRelocateForbidsGrowth is spec.md §4.1: "Relocation of the data
// buffer is forbidden when dont-relocate is set."
func TestDontRelocateForbidsGrowth(t *testing.T) {
	s := MakeBinary(4)
	_ = s.AppendBytes([]byte{1, 2, 3, 4})
	s.Flags |= SerDontRelocate

	err := s.AppendBytes(make([]byte, 64))
	require.Error(t, err)
	assert.Equal(t, "no-relocate", err.(*RebolError).ID)
}

// TestInaccessibleSeriesReportsError is spec.md §4.1: "Out-of-range access
// on a series that has been marked inaccessible ... reported error, not a
// crash."
func TestInaccessibleSeriesReportsError(t *testing.T) {
	s := MakeArray(0)
	s.Flags |= SerInaccessible

	err := s.AppendCell(Integer(1))
	require.Error(t, err)
	assert.Equal(t, "series-freed", err.(*RebolError).ID)
}

func TestProtectedSeriesRefusesMutation(t *testing.T) {
	s := MakeArray(0)
	_ = s.AppendCell(Integer(1))
	s.Flags |= SerProtected

	err := s.AppendCell(Integer(2))
	require.Error(t, err)
	assert.Equal(t, "protected", err.(*RebolError).ID)
}

func TestGeometricGrowthIsPowerOfTwo(t *testing.T) {
	s := MakeBinary(0)
	_ = s.AppendBytes(make([]byte, growThreshold+1))
	assert.Equal(t, roundPow2(growThreshold+1), cap(s.bytes))
}
