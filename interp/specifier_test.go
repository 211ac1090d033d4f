package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// relWord builds a word cell bound relatively to act's paramlist, the
// shape an interpreted function body's words carry before a live frame
// exists (spec.md §3.5/§4.4).
func relWord(name string, act *Action) Cell {
	return Cell{kind: KindWord, sym: internSymbol(name), bind: &Binding{Action: act}}
}

// TestRelativeBindingResolvesAgainstLiveFrame runs an interpreted-block
// action whose body references its parameter through a relative binding;
// the binding only becomes readable once dispatch supplies the frame as
// the resolving specifier (spec.md §4.4's "relative-to-specific lifting").
func TestRelativeBindingResolvesAgainstLiveFrame(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()

	act := NewAction([]Parameter{
		{Sym: internSymbol("n"), Class: ParamNormal},
	}, Dispatcher{})
	body := blockOf(relWord("n", act))
	act.Body = Dispatcher{Kind: DispatchInterpretedBlock, Body: body, BodySpec: &Specifier{}}
	ctx.Put(internSymbol("ident"), act.archetype())

	out := runBlock(t, interp, ctx, wordCell("ident"), Integer(21))
	assert.Equal(t, int64(21), out.Int())
}

// TestRelativeWordWithoutFrameFailsLoudly is spec.md §9's "fail loudly on
// mismatch": resolving a relative binding with no matching live frame in
// the specifier chain is an error, never a silent misread.
func TestRelativeWordWithoutFrameFailsLoudly(t *testing.T) {
	act := NewAction([]Parameter{{Sym: internSymbol("n"), Class: ParamNormal}}, Dispatcher{})
	_, _, err := Resolve(&Binding{Action: act}, &Specifier{})
	require.Error(t, err)
	assert.Equal(t, "not-bound", err.(*RebolError).ID)
}

func TestResolveUnboundIsError(t *testing.T) {
	_, _, err := Resolve(nil, &Specifier{})
	require.Error(t, err)

	_, _, err = Resolve(&Binding{}, &Specifier{})
	require.Error(t, err)
}

func TestResolveSpecificBinding(t *testing.T) {
	ctx := NewObjectContext(nil)
	ctx.Put(internSymbol("v"), Integer(3))

	got, idx, err := Resolve(&Binding{Context: ctx}, &Specifier{})
	require.NoError(t, err)
	assert.Same(t, ctx, got)
	assert.Equal(t, -1, idx, "specific bindings defer slot lookup to the caller's symbol search")
}

// TestDerelativizeProducesSpecificCopy is spec.md §4.4: "A plain copy of a
// possibly-relative array must derelativize each word against a specifier
// to produce a fully-specific array."
func TestDerelativizeProducesSpecificCopy(t *testing.T) {
	act := NewAction([]Parameter{{Sym: internSymbol("n"), Class: ParamNormal}}, Dispatcher{})
	frame := BeginInvoke(act, nil, nil)
	frame.Args[1] = Integer(77)
	spec := &Specifier{Frame: frame}

	arr := blockOf(relWord("n", act), Integer(5))
	out := Derelativize(arr, spec)

	assert.NotSame(t, arr, out)
	w := out.At(0)
	require.NotNil(t, w.Binding())
	assert.Nil(t, w.Binding().Action, "derelativized word carries no relative binding")
	require.NotNil(t, w.Binding().Context)

	v, ok := w.Binding().Context.Get(internSymbol("n"))
	require.True(t, ok)
	assert.Equal(t, int64(77), v.Int())

	// The original array is untouched.
	assert.NotNil(t, arr.At(0).Binding().Action)
}

func TestDeriveOverlaysSubArrayBinding(t *testing.T) {
	base := &Specifier{}
	derived := base.Derive(&Binding{Context: NewObjectContext(nil)})
	assert.NotSame(t, base, derived)
	assert.Same(t, base, derived.Outer)

	same := base.Derive(nil)
	assert.Same(t, base, same, "an unbound sub-array keeps the caller's specifier")
}
