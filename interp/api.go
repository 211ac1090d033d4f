package interp

import "fmt"

// ApiArg is the variadic-argument union a host passes to Run/RunQ, spec.md
// §6.1's embedding surface: a raw UTF-8 source fragment to scan, a cell to
// splice verbatim, or a cell to splice after evaluating it as a single
// value ("eval-spliced"). Exactly one field is meaningful, chosen by Kind.
type ApiArg struct {
	Kind FeedItemKind // FeedUTF8 | FeedCellSplice | FeedEvalSplice
	Text string
	Val  Cell
}

// Source builds a raw-text ApiArg.
func Source(src string) ApiArg { return ApiArg{Kind: FeedUTF8, Text: src} }

// Splice builds a cell-splice ApiArg (value inserted verbatim, unevaluated).
func Splice(c Cell) ApiArg { return ApiArg{Kind: FeedCellSplice, Val: c} }

// EvalSplice builds an eval-splice ApiArg (value inserted after running it
// through the evaluator as a single step).
func EvalSplice(c Cell) ApiArg { return ApiArg{Kind: FeedEvalSplice, Val: c} }

func toFeedItems(args []ApiArg) []FeedItem {
	items := make([]FeedItem, len(args))
	for i, a := range args {
		items[i] = FeedItem{Kind: a.Kind, Text: a.Text, Val: a.Val}
	}
	return items
}

// Run evaluates a variadic argument list to completion, spec.md §6.1's
// primary embedding entry point (the Go-side analogue of a host's
// rebRun()). Cells keep the bindings they carry; Run does not bind scanned
// fragments to the root context, so their words resolve only as far as the
// scanner hook binds them.
func (interp *Interpreter) Run(args ...ApiArg) (Cell, error) {
	ef := NewVariadicFrame(interp, toFeedItems(args), &Specifier{}, nil)
	return interp.RunToEnd(ef)
}

// RunQ is Run but returns only an error, discarding the value — spec.md
// §6.1's "quiet" variant used for side-effecting calls (the `rebElide`
// idiom).
func (interp *Interpreter) RunQ(args ...ApiArg) error {
	_, err := interp.Run(args...)
	return err
}

// Trap runs args, returning a RebolError as err and any escaping throw
// (halt and quit included) as thrown, spec.md §6.1's "trap" entry
// point pairing with the core's fail/throw mechanisms rather than
// propagating a Go panic to the host.
func (interp *Interpreter) Trap(args ...ApiArg) (result Cell, thrown *ThrowSignal, err error) {
	result, err = interp.Run(args...)
	if ts, ok := err.(*ThrowSignal); ok {
		return Cell{}, ts, nil
	}
	return result, nil, err
}

// Elide runs args purely for effect, matching spec.md's `elide` action
// semantics at the embedding layer: always invisible to the caller's own
// result, only the error (if any) is reported.
func (interp *Interpreter) Elide(args ...ApiArg) error { return interp.RunQ(args...) }

// Did reports the truthiness of evaluating args, the embedding-layer twin
// of the `did` action (spec.md §4.1: "did coerces any value to logic!").
func (interp *Interpreter) Did(args ...ApiArg) (bool, error) {
	v, err := interp.Run(args...)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// Not evaluates args and returns the logical negation.
func (interp *Interpreter) Not(args ...ApiArg) (bool, error) {
	ok, err := interp.Did(args...)
	return !ok, err
}

// Print evaluates args, then writes their Form() to the interpreter's
// configured output stream followed by a newline — spec.md §6.1's minimal
// `print` entry point, grounded on the teacher's opt.stdout writer-
// injection idiom (api.go never imports fmt's print-to-stdout directly).
func (interp *Interpreter) Print(args ...ApiArg) error {
	v, err := interp.Run(args...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(interp.opt.stdout, Form(&v))
	return err
}

// --- value constructors/accessors, spec.md §6.1 ---

func ValueInteger(v int64) Cell    { return Integer(v) }
func ValueDecimal(v float64) Cell  { return Decimal(v) }
func ValueLogic(v bool) Cell       { return Logic(v) }
func ValueText(v string) Cell      { return Text(v) }
func ValueBlank() Cell             { return Blank() }
func ValueNull() Cell              { return Null() }

// ValueBlock builds a block! value from already-constructed cells.
func ValueBlock(cells ...Cell) Cell {
	s := MakeArray(len(cells))
	for _, c := range cells {
		_ = s.AppendCell(c)
	}
	return Cell{kind: KindBlock, ser: s}
}

func ValueChar(r rune) Cell { return Char(r) }

// ValueWord builds a word! cell from a spelling, interned but unbound.
func ValueWord(spelling string) Cell {
	return Cell{kind: KindWord, sym: internSymbol(spelling)}
}

// ValueBinary builds a binary! cell from raw bytes (copied).
func ValueBinary(b []byte) Cell {
	s := MakeBinary(len(b))
	_ = s.AppendBytes(b)
	return Cell{kind: KindBinary, ser: s}
}

func textLike(kind Kind, v string) Cell {
	ser := MakeString(len(v))
	_ = ser.AppendBytes([]byte(v))
	return Cell{kind: kind, ser: ser}
}

func ValueFile(path string) Cell { return textLike(KindFile, path) }
func ValueURL(u string) Cell     { return textLike(KindURL, u) }
func ValueTag(t string) Cell     { return textLike(KindTag, t) }

// SpellingOf returns the interned spelling of a word-like cell, or "" for
// non-word kinds — spec.md §6.1's spelling-of accessor.
func SpellingOf(c Cell) string {
	if c.kind.isWord() && c.sym != nil {
		return c.sym.Spelling()
	}
	return ""
}

// BytesOf returns the byte content of a binary! cell, or nil.
func BytesOf(c Cell) []byte {
	if c.Kind() != KindBinary || c.ser == nil {
		return nil
	}
	return c.ser.Bytes()
}

// LengthOf implements spec.md §6.1's length-of reflector with §8's blank
// boundary rule: "A blank value returns null from any read-only reflector
// that would otherwise report a count (length of _ -> null)."
func LengthOf(c Cell) Cell {
	switch c.Kind() {
	case KindBlank:
		return Null()
	case KindBlock, KindSetBlock, KindGetBlock, KindSymBlock,
		KindGroup, KindSetGroup, KindGetGroup, KindSymGroup,
		KindPath, KindSetPath, KindGetPath, KindSymPath, KindBinary:
		if c.ser == nil {
			return Integer(0)
		}
		return Integer(int64(c.ser.Len()))
	case KindText, KindFile, KindURL, KindTag, KindEmail, KindIssue:
		if c.ser == nil {
			return Integer(0)
		}
		return Integer(int64(c.ser.CodepointLen()))
	case KindObject, KindModule, KindError, KindFrame, KindPort:
		if c.ctx == nil {
			return Integer(0)
		}
		return Integer(int64(c.ctx.Len()))
	}
	return Null()
}

// IndexOf reports a series cell's 1-based position, or null for blank.
func IndexOf(c Cell) Cell {
	if c.IsBlank() {
		return Null()
	}
	if c.ser == nil {
		return Null()
	}
	return Integer(int64(c.idx + 1))
}

// IntoInteger reads an integer! cell's value, failing if c is not one.
func IntoInteger(c Cell) (int64, error) {
	if c.Kind() != KindInteger {
		return 0, newError("script", "expect-arg", "expected integer!, got %s", c.Kind())
	}
	return c.Int(), nil
}

// IntoText reads a text!-like cell's Go string, failing if c is not one.
func IntoText(c Cell) (string, error) {
	switch c.Kind() {
	case KindText, KindFile, KindURL, KindTag, KindEmail, KindIssue:
		return c.GoString(), nil
	}
	return "", newError("script", "expect-arg", "expected text!, got %s", c.Kind())
}

// --- lifetime/allocator API re-exports, spec.md §6.1 boundary surface ---
// (the implementations live in handle.go; these are the host-facing names
// spec.md's embedding section actually uses).

func (interp *Interpreter) Malloc(n int) *Handle        { return interp.rebMalloc(n) }
func (interp *Interpreter) Realloc(h *Handle, n int) *Handle { return interp.rebRealloc(h, n) }
func (interp *Interpreter) Free(h *Handle)              { interp.rebFree(h) }
func (interp *Interpreter) Repossess(h *Handle, size int) Cell { return interp.repossess(h, size) }

// Lock makes v immutable, spec.md §6.1's lock(v): the cell is flagged
// protected and, for series-backed kinds, the backing series is protected
// too, so any later expand/remove through either view reports an error.
func Lock(v *Cell) {
	v.flags |= FlagProtected
	if v.ser != nil {
		v.ser.Flags |= SerProtected
	}
}

// --- error helpers, spec.md §6.1/§7 ---

// FailOS resolves a platform errno to its host string and wraps it as a
// trappable error, spec.md §6.1's fail-os entry point (the resolver is a
// host hook, SetOSErrorResolver in errors.go).
func FailOS(errno int) error { return failOS(errno) }

// LastError extracts a *RebolError from an error returned by Run/Trap,
// or nil if err is not one (e.g. a Go-level I/O error from a native).
func LastError(err error) *RebolError {
	re, _ := err.(*RebolError)
	return re
}

// RaisedError builds an error! Cell directly from category/id/message, the
// embedding-layer equivalent of the core's internal newError.
func RaisedError(category, id, format string, a ...interface{}) Cell {
	e := newError(category, id, format, a...)
	return e.ToContext().archetype()
}
