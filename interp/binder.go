package interp

// Binder is the short-lived scratch structure of spec.md §4.2: "binding a
// block walks its words, writing each symbol's scratch binder-index field,
// then walks again to undo it — only one Binder may be active process-wide
// at a time, since the scratch field lives on the (process-wide) Symbol
// itself." It is grounded directly on spec.md's own prose (no pack repo
// implements anything like a shared-scratch-field binder); the single-owner
// enforcement below is this package's answer to the Design Note in spec.md
// §9 asking for "some explicit mechanism to prevent two binds from
// clobbering each other's scratch state".
type Binder struct {
	interp  *Interpreter
	touched []*Symbol // symbols whose binderIdx this Binder has set, for undo
	closed  bool
}

// binderOwner is the process-wide single-owner token: non-nil while a
// Binder is open, matching the Symbol.binderIdx comment's "guarded by
// binderOwner" contract.
var binderOwner *Binder

// NewBinder opens a Binder, failing fatally if one is already open — a
// host/script bug, not a recoverable script-level fault, so it panics
// rather than returning an error (mirrors handle.go's Release-twice
// idiom for the same class of "this should be impossible" invariant).
func NewBinder(interp *Interpreter) *Binder {
	if binderOwner != nil {
		panic("rebol: nested Binder (only one bind may be active process-wide)")
	}
	b := &Binder{interp: interp}
	binderOwner = b
	return b
}

// BindWord records slot as sym's scratch index, so
// a subsequent word carrying the same spelling resolves to the same slot
// within this bind pass, per spec.md §4.2's "Low-Level Bind" operation.
func (b *Binder) BindWord(sym *Symbol, slot int) {
	if b.closed {
		panic("rebol: use of a closed Binder")
	}
	if sym.binderIdx == 0 {
		b.touched = append(b.touched, sym)
	}
	sym.binderIdx = slot
}

// Lookup returns the scratch index set for sym during this bind pass, or 0
// if sym has not been touched.
func (b *Binder) Lookup(sym *Symbol) int { return sym.binderIdx }

// Close undoes every scratch write this Binder made and releases the
// single-owner token, matching spec.md §4.2's "then walks again to undo
// it" — the second walk is exactly this loop, driven by the touched list
// rather than a second pass over the original block, since the set of
// touched symbols is already known.
func (b *Binder) Close() {
	if b.closed {
		return
	}
	for _, sym := range b.touched {
		sym.binderIdx = 0
	}
	b.touched = nil
	b.closed = true
	if binderOwner == b {
		binderOwner = nil
	}
}

// BindWords performs a full Low-Level Bind pass over arr's top-level words
// (and, when deep is true, recursively into nested arrays), rewriting each
// bindable cell's binding to ctx when ctx has a same-named slot, per
// spec.md §4.2. It opens and closes its own Binder so callers never manage
// the scratch-field lifecycle directly.
func BindWords(arr *Series, ctx *Context, deep bool) {
	b := NewBinder(nil)
	defer b.Close()
	for i, k := range ctx.Keys {
		if k.Sym != nil {
			b.BindWord(k.Sym, i)
		}
	}
	bindArray(arr, ctx, b, deep)
}

func bindArray(arr *Series, ctx *Context, b *Binder, deep bool) {
	if arr == nil {
		return
	}
	cells := arr.cells
	for i := range cells {
		c := &cells[i]
		if c.kind.isWord() && c.sym != nil {
			if idx := b.Lookup(c.sym); idx > 0 {
				c.bind = &Binding{Context: ctx}
			}
		}
		if deep && c.kind.isArrayLike() && c.ser != nil {
			bindArray(c.ser, ctx, b, deep)
		}
	}
}
