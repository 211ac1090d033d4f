package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deepNestedBlock builds a block! series depth levels deep, each wrapping
// the next as its sole element. Nothing is registered by hand: the
// collector's lift-on-mark step is what manages these once they become
// reachable from a root, the same path any evaluator-built array takes.
func deepNestedBlock(depth int) *Series {
	leaf := MakeArray(1)
	_ = leaf.AppendCell(Integer(42))

	cur := leaf
	for i := 0; i < depth; i++ {
		wrapper := MakeArray(1)
		_ = wrapper.AppendCell(Cell{kind: KindBlock, ser: cur})
		cur = wrapper
	}
	return cur
}

// TestGCCollectsUnreachableGraph is spec.md §8 scenario 6: create a deeply
// nested block graph, discard the root, request a sweep; the managed-series
// count drops back to the pre-allocation baseline.
func TestGCCollectsUnreachableGraph(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()

	baseline := interp.Collect()

	holder := internSymbol("held")
	ctx.Put(holder, Null())
	root := deepNestedBlock(50)
	ctx.Put(holder, Cell{kind: KindBlock, ser: root})

	afterAlloc := interp.Collect()
	assert.Equal(t, baseline.Remaining+51, afterAlloc.Remaining, "51 new series (50 wrappers + 1 leaf) lifted to managed while referenced")
	assert.Zero(t, afterAlloc.Swept, "nothing should be collected while the root is still reachable")

	// Discard the only reference to the graph's root.
	ctx.Put(holder, Null())

	swept := interp.Collect()
	require.Equal(t, 51, swept.Swept)
	assert.Equal(t, baseline.Remaining, swept.Remaining, "managed-series count drops back to baseline")
}

// TestGCSweepsUnreachableActions: actions participate in the sweep the
// same way series and contexts do — lifted to managed at first mark,
// dropped once nothing reaches them.
func TestGCSweepsUnreachableActions(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	interp.Collect()

	act := NewAction([]Parameter{
		{Sym: internSymbol("n"), Class: ParamNormal},
	}, Dispatcher{Kind: DispatchNative, NativeFn: func(f *InvokeFrame) (Cell, error) {
		return f.Args[1], nil
	}})
	held := internSymbol("held-action")
	ctx.Put(held, act.archetype())

	afterAlloc := interp.Collect()
	assert.Zero(t, afterAlloc.Swept)
	assert.True(t, act.managed, "a reachable action is lifted to managed")

	ctx.Put(held, Null())
	swept := interp.Collect()
	assert.Equal(t, 1, swept.Swept, "the unreachable action is swept")
	assert.False(t, act.managed)
}

func TestGuardSeriesSurvivesWithoutAnyReachableRoot(t *testing.T) {
	interp := New(Options{})
	baseline := interp.Collect()

	s := MakeArray(1)
	_ = s.AppendCell(Integer(7))

	interp.GuardSeries(s)
	stats := interp.Collect()
	assert.Zero(t, stats.Swept)
	assert.Equal(t, baseline.Remaining+1, stats.Remaining)

	interp.UnguardSeries()
	swept := interp.Collect()
	assert.Equal(t, 1, swept.Swept)
}
