package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternSymbolIsPointerStable(t *testing.T) {
	resetInternerForTest()
	a := internSymbol("foo")
	b := internSymbol("foo")
	assert.True(t, a.SameWord(b), "repeated interns of the same spelling return the identical node")
	assert.Same(t, a, b)
}

// TestSymbolSynonymRingIsCaseInsensitive covers spec.md §4.2: "Every
// spelling variant (case) exists as its own node ... Word equality at the
// cell level is pointer equality on the spelling; case-insensitive
// equality follows the synonym ring to the canon."
func TestSymbolSynonymRingIsCaseInsensitive(t *testing.T) {
	resetInternerForTest()
	lower := internSymbol("foo")
	upper := internSymbol("FOO")
	mixed := internSymbol("Foo")

	assert.False(t, lower.SameWord(upper), "distinct case spellings are distinct nodes")
	assert.True(t, lower.EqualCaseless(upper))
	assert.True(t, lower.EqualCaseless(mixed))
	assert.Equal(t, lower.Canon(), upper.Canon())
}

// TestBinderIndexResetsAfterBalancedClose is spec.md §8's universal
// invariant: "For any symbol sym, after any balanced bind/unbind pair,
// binder_index(sym) == 0."
func TestBinderIndexResetsAfterBalancedClose(t *testing.T) {
	resetInternerForTest()
	sym := internSymbol("x")
	require.Equal(t, 0, sym.binderIdx)

	b := NewBinder(nil)
	b.BindWord(sym, 3)
	assert.Equal(t, 3, b.Lookup(sym))

	b.Close()
	assert.Equal(t, 0, sym.binderIdx, "binder index must be zero once no bind is in flight")
}

func TestNestedBinderPanics(t *testing.T) {
	resetInternerForTest()
	b := NewBinder(nil)
	defer b.Close()

	assert.Panics(t, func() {
		NewBinder(nil)
	}, "only one Binder may be open at a time (spec.md §4.2/§5 single-owner token)")
}
