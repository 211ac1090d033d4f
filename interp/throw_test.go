package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// throwingNative declares a native named name in ctx whose only behavior is
// raising the given throw when invoked.
func throwingNative(ctx *Context, name string, ts *ThrowSignal) {
	declareNative(ctx, name, nil, func(f *InvokeFrame) (Cell, error) {
		return Cell{}, ts
	})
}

// TestCatchUnlabeledThrow is spec.md §8 scenario 4's first leg: evaluating
// `catch [throw 42]` yields 42.
func TestCatchUnlabeledThrow(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	throwingNative(ctx, "boom", Throw(Integer(42), Blank()))

	body := blockOf(wordCell("boom"))
	BindWords(body, ctx, true)
	v, err := interp.Catch(body, &Specifier{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())
}

// TestCatchNameMatching covers the named legs of scenario 4 verbatim: a
// matching `catch/name ... 'x` intercepts the throw and yields its value;
// `catch/name [throw/name 1 'x] 'y` yields null (name mismatch).
func TestCatchNameMatching(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	xLabel := wordCell("x")
	throwingNative(ctx, "boom", Throw(Integer(1), xLabel))

	body := blockOf(wordCell("boom"))
	BindWords(body, ctx, true)

	matched := wordCell("x")
	v, err := interp.Catch(body, &Specifier{}, &matched)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int())

	mismatched := wordCell("y")
	v, err = interp.Catch(body, &Specifier{}, &mismatched)
	require.NoError(t, err)
	assert.True(t, v.IsNull(), "a mismatched name absorbs the throw and yields null")
}

// TestQuitEscapesNamedCatch: a quit is never absorbed by a mismatched
// catch/name — only an explicit quit-catcher stops it (spec.md §4.7).
func TestQuitEscapesNamedCatch(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	throwingNative(ctx, "bail", Quit(Integer(0)))

	body := blockOf(wordCell("bail"))
	BindWords(body, ctx, true)

	name := wordCell("y")
	_, err := interp.Catch(body, &Specifier{}, &name)
	require.Error(t, err)
	assert.True(t, err.(*ThrowSignal).isQuit())
}

// TestQuitEscapesBlanketCatch is spec.md §4.7: "a blanket any catcher
// catches all but quit, while a quit catcher accepts only quit."
func TestQuitEscapesBlanketCatch(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	throwingNative(ctx, "bail", Quit(Integer(0)))

	body := blockOf(wordCell("bail"))
	BindWords(body, ctx, true)

	_, err := interp.Catch(body, &Specifier{}, nil)
	require.Error(t, err, "blanket catch must not intercept quit")
	ts := err.(*ThrowSignal)
	assert.True(t, ts.isQuit())
	assert.False(t, ts.CatchAny())
}

// TestThrowLabelDispatcherIdentity covers spec.md §4.7's "labels are
// compared ... (for actions) by dispatcher identity, so multiple return
// functions from different frames are distinguishable."
func TestThrowLabelDispatcherIdentity(t *testing.T) {
	retA := NewAction(nil, Dispatcher{Kind: DispatchNative})
	retB := NewAction(nil, Dispatcher{Kind: DispatchNative})

	ts := &ThrowSignal{Value: Integer(5), Label: retA.archetype(), DispatcherIdentity: retA}
	assert.True(t, ts.CatchName(retA.archetype()))
	assert.False(t, ts.CatchName(retB.archetype()))
}

// TestTrapDepthBalance is spec.md §8's universal invariant: "Trap stack
// depth, guard stack depth, and data stack depth are equal at a function's
// entry and its normal return."
func TestTrapDepthBalance(t *testing.T) {
	interp := New(Options{})

	tr := interp.PushTrap()
	assert.Equal(t, 1, len(interp.traps))
	interp.PopTrap(tr)
	assert.Equal(t, 0, len(interp.traps))

	assert.Panics(t, func() {
		other := interp.PushTrap()
		_ = other
		interp.PopTrap(&Trap{}) // not the top of stack
	}, "popping a trap that is not topmost is a fatal assertion")
}

// TestTrapUnwindRestoresGuardDepths checks PopTrapUnwind truncates the
// guard stacks back to the depths recorded at push time (spec.md §4.7:
// "popping must restore exactly that state").
func TestTrapUnwindRestoresGuardDepths(t *testing.T) {
	interp := New(Options{})

	s := MakeArray(0)
	interp.GuardSeries(s)
	tr := interp.PushTrap()

	// Simulate work that pushed guards and data before failing.
	interp.GuardSeries(MakeArray(0))
	interp.GuardValue(ptr(Integer(1)))
	interp.GuardContext(NewObjectContext(nil))
	interp.dataStack = append(interp.dataStack, Integer(9))

	interp.PopTrapUnwind(tr)
	assert.Equal(t, 1, len(interp.gc.guardSeries), "pre-trap guard survives the unwind")
	assert.Equal(t, 0, len(interp.gc.guardValue))
	assert.Equal(t, 0, len(interp.gc.guardContext))
	assert.Equal(t, 0, len(interp.dataStack))
	assert.Equal(t, 0, len(interp.traps))
}
