package interp

// FrameFlags are the evaluator step-frame flags of spec.md §4.5.
type FrameFlags uint16

const (
	FlagToEnd FrameFlags = 1 << iota
	FlagExplicitEvaluate
	FlagFullySpecialized
	FlagProcessAction
	FlagFrameConst
)

// Feed is the polymorphic input to a step, spec.md §4.5 "Variadic feeds":
// either a fixed array cursor or a variadic stream of fragments/splices.
type Feed struct {
	Array *Series // non-nil => fixed-array feed
	Index int

	Variadic []FeedItem // non-nil => variadic feed
	vidx     int
}

// FeedItemKind classifies one variadic feed element, spec.md §4.5's "cheap
// pointer-detect routine" — modeled directly as a tagged union since Go has
// no raw pointer tagging to imitate bit-for-bit.
type FeedItemKind uint8

const (
	FeedUTF8 FeedItemKind = iota
	FeedCellSplice
	FeedEvalSplice
	FeedEnd
)

type FeedItem struct {
	Kind FeedItemKind
	Text string // FeedUTF8: source fragment to scan and bind, then splice
	Val  Cell   // FeedCellSplice / FeedEvalSplice
}

// Next advances the feed and returns the next raw element, or ok=false at
// end. For an Array feed this reads Cells()[Index]; for a Variadic feed it
// classifies the next FeedItem.
func (fd *Feed) Next() (Cell, bool) {
	if fd.Array != nil {
		cells := fd.Array.Cells()
		if fd.Index >= len(cells) {
			return End(), false
		}
		c := cells[fd.Index]
		fd.Index++
		return c, true
	}
	if fd.vidx >= len(fd.Variadic) {
		return End(), false
	}
	item := fd.Variadic[fd.vidx]
	fd.vidx++
	switch item.Kind {
	case FeedEnd:
		return End(), false
	case FeedCellSplice:
		// Spliced cells are inert: they land in the output as-is, bindings
		// preserved, never re-evaluated (spec.md §4.5 "value cell to splice
		// inert" vs the separate "evaluative-splice instruction").
		c := item.Val
		c.flags |= FlagUnevaluated
		return c, true
	case FeedEvalSplice:
		return item.Val, true
	case FeedUTF8:
		// A source fragment is scanned and bound by the host scanner hook
		// (out of core scope, spec.md §1); callers that need real
		// incremental scanning install one via SetScannerHook (frame.go).
		cells := scanAndBind(item.Text)
		merged := make([]FeedItem, 0, len(fd.Variadic)+len(cells))
		merged = append(merged, fd.Variadic[:fd.vidx]...)
		merged = append(merged, cells...)
		merged = append(merged, fd.Variadic[fd.vidx:]...)
		fd.Variadic = merged
		return fd.Next()
	}
	return End(), false
}

// AtEnd reports whether the feed has no more elements without consuming
// one (used by eval.go's TO_END loop test).
func (fd *Feed) AtEnd() bool {
	if fd.Array != nil {
		return fd.Index >= len(fd.Array.Cells())
	}
	return fd.vidx >= len(fd.Variadic)
}

// Peek returns the next element without advancing, or ok=false at end.
func (fd *Feed) Peek() (Cell, bool) {
	save := *fd
	c, ok := save.Next()
	return c, ok
}

// EvalFrame is the step-evaluator cursor of spec.md §4.5: "current array +
// index (or variadic feed), specifier, output cell, current value, gotten
// (cached lookup), flags, ... previous frame link forming the call stack."
type EvalFrame struct {
	Feed      Feed
	Spec      *Specifier
	Out       Cell
	StaleOut  bool // spec.md §9: "output cell with a stale marker bit"
	Current   Cell
	HasCurrent bool
	Gotten    *Cell
	Flags     FrameFlags
	Prev      *EvalFrame

	Interp *Interpreter
}

// NewEvalFrame starts a step-evaluator frame over arr, bound by spec.
func NewEvalFrame(interp *Interpreter, arr *Series, spec *Specifier, prev *EvalFrame) *EvalFrame {
	return &EvalFrame{Feed: Feed{Array: arr}, Spec: spec, Prev: prev, StaleOut: true, Interp: interp}
}

// NewVariadicFrame starts a step-evaluator frame over a variadic stream,
// spec.md §4.5 "Variadic feeds".
func NewVariadicFrame(interp *Interpreter, items []FeedItem, spec *Specifier, prev *EvalFrame) *EvalFrame {
	return &EvalFrame{Feed: Feed{Variadic: items}, Spec: spec, Prev: prev, StaleOut: true, Interp: interp}
}

// scanAndBind is the narrow seam to the (out-of-scope) scanner/lexer,
// spec.md §1: "the scanner/lexer's tokenization rules" are an external
// collaborator. A host embeds a real scanner via SetScannerHook; absent
// one, every source fragment produces no cells (never a crash).
var scannerHook func(src string) []Cell = func(string) []Cell { return nil }

// SetScannerHook installs the host's source-fragment scanner, used when a
// variadic feed splices a FeedUTF8 fragment (spec.md §4.5).
func SetScannerHook(f func(src string) []Cell) { scannerHook = f }

func scanAndBind(src string) []FeedItem {
	cells := scannerHook(src)
	items := make([]FeedItem, len(cells))
	for i, c := range cells {
		// Scanned cells are source code: they evaluate like array cells
		// rather than splicing inert.
		items[i] = FeedItem{Kind: FeedEvalSplice, Val: c}
	}
	return items
}
