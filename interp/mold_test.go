package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMoldPrimitives checks spec.md §6.3's canonical molding for the value
// kinds whose literal syntax is fixed and kind-independent of the scanner
// (arithmetic/logic/word forms, binary's #{...} envelope).
func TestMoldPrimitives(t *testing.T) {
	assert.Equal(t, "3", Mold(ptr(Integer(3))))
	assert.Equal(t, "true", Mold(ptr(Logic(true))))
	assert.Equal(t, "false", Mold(ptr(Logic(false))))
	assert.Equal(t, "_", Mold(ptr(Cell{kind: KindBlank})))

	w := wordCell("foo")
	assert.Equal(t, "foo", Mold(&w))

	sw := setWordCell("foo")
	assert.Equal(t, "foo:", Mold(&sw))

	gw := getWordCell("foo")
	assert.Equal(t, ":foo", Mold(&gw))

	bin := Cell{kind: KindBinary, ser: &Series{Flavor: FlavorBinary, bytes: []byte{0xDE, 0xAD, 0xBE, 0xEF}}}
	assert.Equal(t, "#{DEADBEEF}", Mold(&bin))
}

func TestMoldBlockNestsArrayDelimiters(t *testing.T) {
	inner := blockOf(Integer(1), Integer(2))
	outer := blockOf(Cell{kind: KindBlock, ser: inner}, Integer(3))
	c := Cell{kind: KindBlock, ser: outer}
	assert.Equal(t, "[[1 2] 3]", Mold(&c))
}

// TestMoldQuotedValues covers the literal-depth molding half of spec.md
// §8's quoting laws: each level of quoting contributes one leading tick,
// through both the inline (1-3) and container (>=4) encodings.
func TestMoldQuotedValues(t *testing.T) {
	v := Integer(5)
	expected := "5"
	for i := 0; i < 6; i++ {
		v = Literal(v)
		expected = "'" + expected
		assert.Equal(t, expected, Mold(ptr(v)))
	}
}

func TestMoldTextQuotedVsBraced(t *testing.T) {
	short := Text("hello")
	assert.Equal(t, `"hello"`, Mold(&short))

	multi := Text("line one\nline two")
	assert.Equal(t, "{line one\nline two}", Mold(&multi))

	ctl := Text("a\x1eb")
	assert.Equal(t, "{a^(001e)b}", Mold(&ctl))
}

func ptr(c Cell) *Cell { return &c }
