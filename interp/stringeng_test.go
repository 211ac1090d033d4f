package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPickBookmarkAmortization is spec.md §8 scenario 5: a string of 1000
// ASCII chars, one 3-byte codepoint, then 1000 more ASCII chars; repeated
// pick at index 1500 must be answered from a nearby bookmark rather than a
// fresh scan from byte zero every call.
func TestPickBookmarkAmortization(t *testing.T) {
	src := strings.Repeat("a", 1000) + "€" + strings.Repeat("b", 1000)
	c := Text(src)
	require.Equal(t, 2001, c.ser.CodepointLen())

	r, ok := PickCodepoint(&c, 1500)
	require.True(t, ok)
	assert.Equal(t, 'b', r)

	bc := chainOf(c.ser)
	require.NotNil(t, bc.head, "the first pick must leave a bookmark behind")
	first := *bc.head

	for i := 0; i < 100; i++ {
		r, ok = PickCodepoint(&c, 1500)
		require.True(t, ok)
		assert.Equal(t, 'b', r)
	}
	assert.Equal(t, first.codepoint, bc.head.codepoint,
		"repeated picks at the same index reuse the cached bookmark")

	// The multibyte codepoint shifts byte offsets past index 1001.
	r, ok = PickCodepoint(&c, 1001)
	require.True(t, ok)
	assert.Equal(t, '€', r)
}

func TestPickNearTailScansBackward(t *testing.T) {
	c := Text(strings.Repeat("x", 500) + "end")
	r, ok := PickCodepoint(&c, 503)
	require.True(t, ok)
	assert.Equal(t, 'd', r)
}

func TestPickOutOfRange(t *testing.T) {
	c := Text("abc")
	_, ok := PickCodepoint(&c, 0)
	assert.False(t, ok)
	_, ok = PickCodepoint(&c, 4)
	assert.False(t, ok)
}

// TestSymbolsNeverOwnBookmarks is spec.md §4.3: "A string that is a symbol
// (interned) never owns bookmarks."
func TestSymbolsNeverOwnBookmarks(t *testing.T) {
	sym := internSymbol("some-longish-spelling")
	off := byteOffsetForCodepoint(sym.ser, 5)
	assert.Equal(t, 5, off)
	assert.Nil(t, sym.ser.Link, "symbol series must not grow a bookmark chain")
}

func TestMutationInvalidatesBookmarks(t *testing.T) {
	c := Text(strings.Repeat("q", 64))
	_, _ = PickCodepoint(&c, 30)
	require.NotNil(t, c.ser.Link)

	_ = c.ser.AppendBytes([]byte("more"))
	assert.Nil(t, c.ser.Link, "append drops stale bookmarks")
	assert.Equal(t, 68, c.ser.CodepointLen())
}

func TestBookmarkChainIsBounded(t *testing.T) {
	c := Text(strings.Repeat("m", 4096))
	for i := 1; i <= 200; i++ {
		_, ok := PickCodepoint(&c, i*20)
		require.True(t, ok)
	}
	n := 0
	for b := chainOf(c.ser).head; b != nil; b = b.next {
		n++
	}
	assert.LessOrEqual(t, n, maxBookmarks+1)
}

func TestRemoveHeadUpdatesCodepointCount(t *testing.T) {
	c := Text("€€abc")
	require.Equal(t, 5, c.ser.CodepointLen())
	// Drop the two 3-byte codepoints via bias-based head removal.
	require.NoError(t, c.ser.removeUnits(0, 6))
	assert.Equal(t, 3, c.ser.CodepointLen())
	assert.Equal(t, "abc", c.GoString())
}
