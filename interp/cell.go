package interp

import "fmt"

// Kind identifies the primitive type stored in a Cell. It is the "kind
// byte" of spec.md §3.1: every Cell is self-describing through exactly one
// Kind, chosen from a fixed, closed set of four dozen kinds.
type Kind uint8

const (
	KindEnd Kind = iota // pseudo-kind: array terminator, never a value
	KindNull
	KindBlank
	KindLogic
	KindInteger
	KindDecimal
	KindChar
	KindTime
	KindDate
	KindPair
	KindTuple
	KindBinary
	KindText
	KindFile
	KindURL
	KindTag
	KindEmail
	KindIssue
	KindWord
	KindSetWord
	KindGetWord
	KindSymWord
	KindPath
	KindSetPath
	KindGetPath
	KindSymPath
	KindBlock
	KindSetBlock
	KindGetBlock
	KindSymBlock
	KindGroup
	KindSetGroup
	KindGetGroup
	KindSymGroup
	KindObject
	KindModule
	KindError
	KindFrame
	KindPort
	KindAction
	KindMap
	KindVarargs
	KindBitset
	KindTypeset
	KindDatatype
	KindHandle
	KindEvent
	KindLiteral // quoted wrapper for depth >= 4, see Cell.literalDepth
	kindCount
)

// kindNames mirrors spec.md's enumeration; used by mold.go and error text.
var kindNames = [kindCount]string{
	KindEnd:      "end",
	KindNull:     "null",
	KindBlank:    "blank",
	KindLogic:    "logic!",
	KindInteger:  "integer!",
	KindDecimal:  "decimal!",
	KindChar:     "char!",
	KindTime:     "time!",
	KindDate:     "date!",
	KindPair:     "pair!",
	KindTuple:    "tuple!",
	KindBinary:   "binary!",
	KindText:     "text!",
	KindFile:     "file!",
	KindURL:      "url!",
	KindTag:      "tag!",
	KindEmail:    "email!",
	KindIssue:    "issue!",
	KindWord:     "word!",
	KindSetWord:  "set-word!",
	KindGetWord:  "get-word!",
	KindSymWord:  "sym-word!",
	KindPath:     "path!",
	KindSetPath:  "set-path!",
	KindGetPath:  "get-path!",
	KindSymPath:  "sym-path!",
	KindBlock:    "block!",
	KindSetBlock: "set-block!",
	KindGetBlock: "get-block!",
	KindSymBlock: "sym-block!",
	KindGroup:    "group!",
	KindSetGroup: "set-group!",
	KindGetGroup: "get-group!",
	KindSymGroup: "sym-group!",
	KindObject:   "object!",
	KindModule:   "module!",
	KindError:    "error!",
	KindFrame:    "frame!",
	KindPort:     "port!",
	KindAction:   "action!",
	KindMap:      "map!",
	KindVarargs:  "varargs!",
	KindBitset:   "bitset!",
	KindTypeset:  "typeset!",
	KindDatatype: "datatype!",
	KindHandle:   "handle!",
	KindEvent:    "event!",
	KindLiteral:  "literal!",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// isWord, isPath and the predicates below group the bindable/dispatch-relevant kinds used
// throughout eval.go and specifier.go.
func (k Kind) isWord() bool {
	switch k {
	case KindWord, KindSetWord, KindGetWord, KindSymWord:
		return true
	}
	return false
}

func (k Kind) isPath() bool {
	switch k {
	case KindPath, KindSetPath, KindGetPath, KindSymPath:
		return true
	}
	return false
}

func (k Kind) isGroup() bool {
	switch k {
	case KindGroup, KindSetGroup, KindGetGroup, KindSymGroup:
		return true
	}
	return false
}

func (k Kind) isArrayLike() bool {
	switch k {
	case KindBlock, KindSetBlock, KindGetBlock, KindSymBlock:
		return true
	}
	return k.isPath() || k.isGroup()
}

// isBindable reports whether a cell of this kind carries a binding (extra
// slot interpretation as a binding node, spec.md §3.1 "extra slot").
func (k Kind) isBindable() bool {
	return k.isWord() || k.isArrayLike() || k == KindAction
}

// CellFlags are the per-cell bits of spec.md §3.1.
type CellFlags uint16

const (
	FlagProtected CellFlags = 1 << iota
	FlagUnevaluated
	FlagMarked // GC mark bit, mirrored on the cell for quick boundary checks
	FlagConst
	FlagFirstIsNode
	FlagStackLifetime
)

// escapeShift/escapeMask encode the inline literal-quoting depth (1-3) in
// the flags word, per spec.md §3.1 "depths 1-3 are encoded by kind-byte
// offset" — here encoded as a small bitfield instead, since Go gives us a
// full flags word rather than spare kind-byte range.
const (
	escapeShift = 8
	escapeMask  = 0x7 << escapeShift
	escapeMax   = 3
)

func (f CellFlags) escapeDepth() int      { return int(f&escapeMask) >> escapeShift }
func withEscapeDepth(f CellFlags, d int) CellFlags {
	f &^= escapeMask
	return f | CellFlags(d<<escapeShift)&escapeMask
}

// Binding is the payload of a Cell's "extra" slot for bindable kinds: it
// names either a resolving Context (specific binding), an Action paramlist
// (relative binding), or is nil (UNBOUND). See specifier.go.
type Binding struct {
	Context *Context // non-nil => specific binding
	Action  *Action  // non-nil => relative binding (Context must be nil)
}

// Unbound reports whether this binding resolves to nothing.
func (b *Binding) Unbound() bool { return b == nil || (b.Context == nil && b.Action == nil) }

// Cell is the fixed-shape tagged value record of spec.md §3.1. Unlike the
// C original (a raw 4-pointer-wide union), Go gives every field a real
// type; payload fields that the original overlays in a single machine word
// are kept as a small set of typed slots instead of an unsafe union, since
// nothing outside gc.go and handle.go needs to reason about raw bit layout.
type Cell struct {
	kind  Kind
	flags CellFlags

	bind *Binding // extra slot: binding node pointer, nil => unbound/inert

	// payload: kind-specific, at most the "two machine words" of the
	// original. Only one of these groups is meaningful for a given kind.
	i    int64   // integer!, char! (codepoint), logic! (0/1), time! (ns)
	d    float64 // decimal!
	pair [2]int64
	ser  *Series // backing series for binary/text/file/url/tag/email/issue/
	idx  int     // index into ser, or paramlist slot index for word kinds
	sym  *Symbol // word-like kinds, map key identity
	ctx  *Context
	act  *Action
	node []Cell // inline sub-payload, used for literal wrapping at depth>=4
	dt   Kind    // datatype! payload
	hv   *Handle
}

// End returns the canonical end-of-array terminator cell.
func End() Cell { return Cell{kind: KindEnd} }

// IsEnd reports whether c is the end marker (spec.md §3.1 "three states").
func (c *Cell) IsEnd() bool { return c.kind == KindEnd }

// Null returns a null value cell (first-class, distinct from End).
func Null() Cell { return Cell{kind: KindNull} }

// IsNull reports whether c holds the null value.
func (c *Cell) IsNull() bool { return c.kind == KindNull }

// Blank returns the blank placeholder value (the Rebol family's "_").
func Blank() Cell { return Cell{kind: KindBlank} }

func (c *Cell) IsBlank() bool { return c.kind == KindBlank }

func Logic(b bool) Cell {
	var i int64
	if b {
		i = 1
	}
	return Cell{kind: KindLogic, i: i}
}

func (c *Cell) Truthy() bool {
	return !c.IsNull() && !c.IsBlank() && !(c.kind == KindLogic && c.i == 0)
}

func Integer(v int64) Cell { return Cell{kind: KindInteger, i: v} }
func (c *Cell) Int() int64 { return c.i }

func Decimal(v float64) Cell  { return Cell{kind: KindDecimal, d: v} }
func (c *Cell) Float() float64 { return c.d }

func Char(r rune) Cell { return Cell{kind: KindChar, i: int64(r)} }

// Kind reports the cell's datatype.
func (c *Cell) Kind() Kind { return c.kind }

// Flags exposes the flag word for gc.go/handle.go without requiring every
// caller to import this file's constants by name.
func (c *Cell) Flags() CellFlags   { return c.flags }
func (c *Cell) SetFlags(f CellFlags) { c.flags = f }
func (c *Cell) HasFlag(f CellFlags) bool { return c.flags&f != 0 }

func (c *Cell) Protected() bool { return c.HasFlag(FlagProtected) }
func (c *Cell) Const() bool     { return c.HasFlag(FlagConst) }

// Binding returns the cell's current binding, or nil if unbound.
func (c *Cell) Binding() *Binding { return c.bind }

// Bind sets the cell's binding. It is a no-op for non-bindable kinds,
// matching the spec's "cell's binding, if present" phrasing.
func (c *Cell) Bind(b *Binding) {
	if !c.kind.isBindable() {
		return
	}
	c.bind = b
}

// LiteralDepth reports the quoting depth of c (0 = not quoted).
func (c *Cell) LiteralDepth() int {
	if c.kind != KindLiteral {
		return c.flags.escapeDepth()
	}
	if len(c.node) == 1 {
		return c.node[0].LiteralDepth() + escapeMax + 1
	}
	return escapeMax + 1
}

// Literal wraps c in one additional level of quoting (spec.md §3.1, §8
// "Quoting depth laws: literal V increments depth by 1"). Depths 1-3 stay
// inline in the flags word; depth 4 and above indirect through a
// single-cell container whose inner cell carries the remaining depth.
func Literal(c Cell) Cell {
	d := c.LiteralDepth()
	if d < escapeMax {
		nc := c
		nc.flags = withEscapeDepth(c.flags, d+1)
		return nc
	}
	if c.kind == KindLiteral {
		return Cell{kind: KindLiteral, node: []Cell{Literal(c.node[0])}}
	}
	return Cell{kind: KindLiteral, node: []Cell{unescape(c)}}
}

// Unliteral strips one level of quoting from c, matching the evaluator's
// "literal-depth cell: strip one level of quotation" step (spec.md §4.5).
func Unliteral(c Cell) Cell {
	d := c.LiteralDepth()
	if d == 0 {
		return c
	}
	if c.kind == KindLiteral {
		if d-1 > escapeMax {
			return Cell{kind: KindLiteral, node: []Cell{Unliteral(c.node[0])}}
		}
		nc := unescape(c.node[0])
		nc.flags = withEscapeDepth(nc.flags, d-1)
		return nc
	}
	nc := c
	nc.flags = withEscapeDepth(c.flags, d-1)
	return nc
}

// unescape returns the fully unwrapped value beneath any inline depth.
func unescape(c Cell) Cell {
	nc := c
	nc.flags = withEscapeDepth(c.flags, 0)
	return nc
}

// Equal implements the primitive-kind identity described in spec.md §4.1:
// "equality of cell kind and identical payload bits implies value equality
// for primitive kinds, and series/pair equality for reference kinds."
func (c *Cell) Equal(o *Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindEnd, KindNull, KindBlank:
		return true
	case KindLogic, KindInteger, KindChar, KindTime:
		return c.i == o.i
	case KindDecimal:
		return c.d == o.d
	case KindPair:
		return c.pair == o.pair
	case KindWord, KindSetWord, KindGetWord, KindSymWord:
		return c.sym == o.sym
	case KindBinary, KindText, KindFile, KindURL, KindTag, KindEmail, KindIssue:
		return c.ser == o.ser || (c.ser != nil && o.ser != nil && seriesEqual(c.ser, o.ser))
	case KindBlock, KindSetBlock, KindGetBlock, KindSymBlock,
		KindGroup, KindSetGroup, KindGetGroup, KindSymGroup,
		KindPath, KindSetPath, KindGetPath, KindSymPath:
		return c.ser == o.ser
	case KindObject, KindModule, KindError, KindFrame, KindPort:
		return c.ctx == o.ctx
	case KindAction:
		return c.act == o.act
	case KindDatatype:
		return c.dt == o.dt
	case KindHandle:
		return c.hv == o.hv
	case KindLiteral:
		a, b := c.node[0], o.node[0]
		return a.Equal(&b)
	}
	return false
}

// seriesEqual compares two string/binary series by content, matching
// spec.md's "series ... equality for reference kinds" for value (not
// identity) comparisons used by mold round-trip tests.
func seriesEqual(a, b *Series) bool {
	if a == b {
		return true
	}
	if a.usedBytes() != b.usedBytes() || a.width != b.width {
		return false
	}
	for i := 0; i < a.usedBytes(); i++ {
		if a.byteAt(i) != b.byteAt(i) {
			return false
		}
	}
	return true
}
