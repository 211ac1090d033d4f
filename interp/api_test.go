package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSplicesAreInert(t *testing.T) {
	interp := New(Options{})

	v, err := interp.Run(Splice(Integer(42)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())

	// A spliced word is NOT looked up: it lands in the output verbatim.
	w := wordCell("anything")
	v, err = interp.Run(Splice(w))
	require.NoError(t, err)
	assert.Equal(t, KindWord, v.Kind())
	assert.Equal(t, "anything", SpellingOf(v))
}

// TestRunEvalSpliceEvaluates covers spec.md §6.1's "An eval(val) marker
// flips a spliced cell to evaluative": the same word that splices inert
// above is looked up when marked.
func TestRunEvalSpliceEvaluates(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	ctx.Put(internSymbol("answer"), Integer(42))

	w := wordCell("answer")
	w.Bind(&Binding{Context: ctx})
	v, err := interp.Run(EvalSplice(w))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int())
}

func TestRunSourceGoesThroughScannerHook(t *testing.T) {
	prev := scannerHook
	defer SetScannerHook(prev)
	SetScannerHook(func(src string) []Cell {
		require.Equal(t, "1 2 3", src)
		return []Cell{Integer(1), Integer(2), Integer(3)}
	})

	interp := New(Options{})
	v, err := interp.Run(Source("1 2 3"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int(), "TO_END keeps the last expression's value")
}

func TestDidAndNot(t *testing.T) {
	interp := New(Options{})

	ok, err := interp.Did(Splice(Integer(1)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = interp.Did(Splice(Logic(false)))
	require.NoError(t, err)
	assert.False(t, ok)

	neg, err := interp.Not(Splice(Blank()))
	require.NoError(t, err)
	assert.True(t, neg)
}

func TestPrintWritesFormToStdout(t *testing.T) {
	var buf bytes.Buffer
	interp := New(Options{Stdout: &buf})

	require.NoError(t, interp.Print(Splice(Text("hello"))))
	assert.Equal(t, "hello\n", buf.String())
}

func TestTrapSeparatesThrowsFromErrors(t *testing.T) {
	interp := New(Options{})
	ctx := interp.RootContext()
	throwingNative(ctx, "escape", Throw(Integer(7), Blank()))

	w := wordCell("escape")
	w.Bind(&Binding{Context: ctx})
	v, thrown, err := interp.Trap(EvalSplice(w))
	require.NoError(t, err)
	require.NotNil(t, thrown)
	assert.Equal(t, int64(7), thrown.Value.Int())
	assert.True(t, v.IsEnd() || v.IsNull())
}

// TestLengthOfBlankIsNull is spec.md §8's boundary rule: "A blank value
// returns null from any read-only reflector that would otherwise report a
// count."
func TestLengthOfBlankIsNull(t *testing.T) {
	blank := Blank()
	blankLen := LengthOf(blank)
	assert.True(t, blankLen.IsNull())
	blankIdx := IndexOf(blank)
	assert.True(t, blankIdx.IsNull())

	blk := ValueBlock(Integer(1), Integer(2))
	blkLen := LengthOf(blk)
	assert.Equal(t, int64(2), blkLen.Int())

	txt := Text("€ab")
	txtLen := LengthOf(txt)
	assert.Equal(t, int64(3), txtLen.Int(), "text length counts codepoints, not bytes")

	bin := ValueBinary([]byte{1, 2, 3, 4})
	binLen := LengthOf(bin)
	assert.Equal(t, int64(4), binLen.Int())
}

func TestValueConstructorsAndAccessors(t *testing.T) {
	assert.Equal(t, "hi", SpellingOf(ValueWord("hi")))
	assert.Equal(t, "", SpellingOf(Integer(1)))

	bin := ValueBinary([]byte{0xAB})
	assert.Equal(t, []byte{0xAB}, BytesOf(bin))
	assert.Nil(t, BytesOf(Integer(1)))

	f := ValueFile("src/main.r")
	assert.Equal(t, KindFile, f.Kind())
	assert.Equal(t, "src/main.r", f.GoString())

	n, err := IntoInteger(Integer(9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	_, err = IntoInteger(Text("no"))
	require.Error(t, err)

	s, err := IntoText(ValueURL("http://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", s)
}

func TestLockProtectsBackingSeries(t *testing.T) {
	blk := ValueBlock(Integer(1))
	Lock(&blk)
	assert.True(t, blk.Protected())

	err := blk.ser.AppendCell(Integer(2))
	require.Error(t, err)
	assert.Equal(t, "protected", err.(*RebolError).ID)
}

func TestFailOSUsesResolverHook(t *testing.T) {
	prev := osErrorResolver
	defer SetOSErrorResolver(prev)
	SetOSErrorResolver(func(errno int) string { return "boom" })

	err := FailOS(13)
	require.Error(t, err)
	assert.Equal(t, "boom", err.(*RebolError).Message)
}

func TestShutdownReleasesHandles(t *testing.T) {
	interp := New(Options{})
	h := interp.NewHandle(Integer(1))

	interp.Shutdown(true)
	assert.True(t, h.released, "shutdown releases every live handle")
	assert.Panics(t, func() { h.Value() })
}

func TestRaisedErrorIsErrorValue(t *testing.T) {
	c := RaisedError("math", "zero-divide", "attempt to divide by zero")
	assert.Equal(t, KindError, c.Kind())
	id, ok := c.ctx.Get(internSymbol("id"))
	require.True(t, ok)
	assert.Equal(t, "zero-divide", id.GoString())
}
