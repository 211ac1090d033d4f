package interp

import "golang.org/x/tools/container/intsets"

// gcState holds the collector's per-interpreter bookkeeping, spec.md §4.8.
// Grounded on the teacher's per-Interpreter mutable-state idiom (interp.go
// keeps GC-adjacent bookkeeping — mutex, frame, scopes — directly on
// Interpreter rather than a separate global), adapted here into a nested
// struct purely for file-local readability.
type gcState struct {
	enabled bool
	evalDepth int

	allSeries   []*Series
	allContexts []*Context
	allActions  []*Action

	guardSeries  []*Series
	guardValue   []*Cell
	guardContext []*Context

	// touched is a debug-only bitmap of Kind values seen during the most
	// recent mark phase, backed by intsets.Sparse per SPEC_FULL.md's
	// Domain Stack entry for golang.org/x/tools/container/intsets. It has
	// no effect on collection correctness; GCStats exposes it for tests
	// and embedders that want sweep visibility.
	touched intsets.Sparse

	lastSwept int
}

func newGCState() *gcState {
	return &gcState{enabled: true}
}

// TrackSeries registers s as known to the collector once it is managed.
// Mirrors the teacher's own bookkeeping habit of keeping flat slices of
// live nodes reachable from the Interpreter for introspection.
func (g *gcState) TrackSeries(s *Series) {
	s.Manage()
	g.allSeries = append(g.allSeries, s)
}

func (g *gcState) TrackContext(c *Context) {
	c.Manage()
	g.allContexts = append(g.allContexts, c)
}

func (g *gcState) TrackAction(a *Action) {
	a.managed = true
	g.allActions = append(g.allActions, a)
}

// GuardSeries pins s against collection until the matching Unguard*, for
// code that holds a raw *Series across an allocation that might trigger a
// sweep — spec.md §4.8 "guard_series".
func (interp *Interpreter) GuardSeries(s *Series) { interp.gc.guardSeries = append(interp.gc.guardSeries, s) }
func (interp *Interpreter) UnguardSeries()        { interp.gc.guardSeries = interp.gc.guardSeries[:len(interp.gc.guardSeries)-1] }

func (interp *Interpreter) GuardValue(c *Cell) { interp.gc.guardValue = append(interp.gc.guardValue, c) }
func (interp *Interpreter) UnguardValue()       { interp.gc.guardValue = interp.gc.guardValue[:len(interp.gc.guardValue)-1] }

func (interp *Interpreter) GuardContext(c *Context) {
	interp.gc.guardContext = append(interp.gc.guardContext, c)
}
func (interp *Interpreter) UnguardContext() {
	interp.gc.guardContext = interp.gc.guardContext[:len(interp.gc.guardContext)-1]
}

// Disable/Enable bracket "operations that leave the heap in a half-
// initialized state" (spec.md §4.8). Allocation while disabled remains
// legal; Collect becomes a silent no-op while disabled.
func (interp *Interpreter) DisableGC() { interp.gc.enabled = false }
func (interp *Interpreter) EnableGC()  { interp.gc.enabled = true }

// GCStats summarizes the outcome of the most recent Collect, for tests
// (spec.md §8 scenario 6: "total managed-series count drops to the
// baseline") and embedders.
type GCStats struct {
	Swept     int
	Remaining int
	KindsSeen int
}

// Collect runs a full mark-sweep pass over every root named in spec.md
// §4.8. It is synchronous and single-threaded, matching §5's cooperative
// scheduling model: there is never a concurrent mutator to race with.
func (interp *Interpreter) Collect() GCStats {
	if !interp.gc.enabled {
		return GCStats{}
	}
	interp.gc.touched.Clear()

	for _, s := range interp.gc.allSeries {
		s.marked = false
	}
	for _, c := range interp.gc.allContexts {
		c.marked = false
	}
	for _, a := range interp.gc.allActions {
		a.marked = false
	}

	interp.markRoots()

	swept := 0
	liveSeries := interp.gc.allSeries[:0]
	for _, s := range interp.gc.allSeries {
		if s.marked {
			liveSeries = append(liveSeries, s)
			continue
		}
		sweepSeries(s)
		swept++
	}
	interp.gc.allSeries = liveSeries

	liveCtx := interp.gc.allContexts[:0]
	for _, c := range interp.gc.allContexts {
		if c.marked {
			liveCtx = append(liveCtx, c)
			continue
		}
		swept++
	}
	interp.gc.allContexts = liveCtx

	liveActs := interp.gc.allActions[:0]
	for _, a := range interp.gc.allActions {
		if a.marked {
			liveActs = append(liveActs, a)
			continue
		}
		a.managed = false
		swept++
	}
	interp.gc.allActions = liveActs

	interp.gc.lastSwept = swept
	stats := GCStats{Swept: swept, Remaining: len(interp.gc.allSeries) + len(interp.gc.allContexts), KindsSeen: interp.gc.touched.Len()}
	logger.Debug("gc sweep", "swept", stats.Swept, "remaining", stats.Remaining, "kinds", stats.KindsSeen)
	return stats
}

// sweepSeries frees s, overwriting it with a sentinel state so later
// reuse trips visibly rather than silently reading stale data — spec.md
// §4.8: "a freed series has its header overwritten with a sentinel."
func sweepSeries(s *Series) {
	s.Flags |= SerInaccessible
	s.cells = nil
	s.bytes = nil
	s.hash = nil
	s.Link = nil
	s.Misc = nil
}

func (interp *Interpreter) markRoots() {
	for ef := interp.currentEval; ef != nil; ef = ef.Prev {
		interp.markEvalFrame(ef)
	}
	for invf := interp.currentInvoke; invf != nil; invf = invf.Prev {
		interp.markInvokeFrame(invf)
	}
	for _, c := range interp.dataStack {
		interp.markCell(&c)
	}
	for _, c := range interp.moldStack {
		interp.markCell(&c)
	}
	for _, s := range interp.gc.guardSeries {
		interp.markSeries(s)
	}
	for _, c := range interp.gc.guardValue {
		interp.markCell(c)
	}
	for _, c := range interp.gc.guardContext {
		interp.markContext(c)
	}
	if interp.root != nil {
		interp.markContext(interp.root)
	}
	for _, h := range interp.handles {
		if h.released {
			continue
		}
		interp.markSeries(h.backing)
	}
}

func (interp *Interpreter) markEvalFrame(ef *EvalFrame) {
	if ef.Feed.Array != nil {
		interp.markSeries(ef.Feed.Array)
	}
	for _, item := range ef.Feed.Variadic {
		if item.Kind == FeedCellSplice || item.Kind == FeedEvalSplice {
			interp.markCell(&item.Val)
		}
	}
	interp.markCell(&ef.Out)
	if ef.HasCurrent {
		interp.markCell(&ef.Current)
	}
	if ef.Gotten != nil {
		interp.markCell(ef.Gotten)
	}
}

func (interp *Interpreter) markInvokeFrame(f *InvokeFrame) {
	for i := range f.Args {
		interp.markCell(&f.Args[i])
	}
	if f.Special != nil {
		interp.markContext(f.Special)
	}
	if f.reifiedCtx != nil {
		interp.markContext(f.reifiedCtx)
	}
	interp.markAction(f.Action)
}

// markCell recurses per spec.md §4.8: "array contents; cell bindings (if
// bindable kind and not stack-lifetime); ... bookmarks are not marked."
func (interp *Interpreter) markCell(c *Cell) {
	interp.gc.touched.Insert(int(c.kind))
	if c.kind.isBindable() && c.bind != nil && c.flags&FlagStackLifetime == 0 {
		if c.bind.Context != nil {
			interp.markContext(c.bind.Context)
		}
		if c.bind.Action != nil {
			interp.markAction(c.bind.Action)
		}
	}
	switch {
	case c.kind.isArrayLike() && c.ser != nil:
		interp.markSeries(c.ser)
	case c.kind == KindBinary || c.kind == KindText || c.kind == KindFile ||
		c.kind == KindURL || c.kind == KindTag || c.kind == KindEmail || c.kind == KindIssue:
		if c.ser != nil {
			interp.markSeries(c.ser)
		}
	case c.kind == KindObject || c.kind == KindModule || c.kind == KindError ||
		c.kind == KindFrame || c.kind == KindPort:
		if c.ctx != nil {
			interp.markContext(c.ctx)
		}
	case c.kind == KindAction:
		if c.act != nil {
			interp.markAction(c.act)
		}
	case c.kind == KindMap:
		if c.ser != nil {
			interp.markSeries(c.ser) // pairlist
			if hl, ok := c.ser.Misc.(*Series); ok {
				interp.markSeries(hl) // hashlist, per spec.md §4.8
			}
		}
	case c.kind == KindLiteral:
		if len(c.node) == 1 {
			interp.markCell(&c.node[0])
		}
	}
}

func (interp *Interpreter) markSeries(s *Series) {
	if s == nil || s.marked {
		return
	}
	if s.Inaccessible() {
		return // freed-but-pinned: do not chase, per spec.md §4.8
	}
	if !s.Managed() && s.Flavor != FlavorSymbol {
		// Lift-on-mark: a series reachable from a root is managed from this
		// sweep on (spec.md §3.6 "lifted by manage"). Evaluator code builds
		// arrays with the plain Make* constructors and never registers them
		// by hand; first contact with the collector is what registers them.
		// Symbols are immortal and stay outside the sweep set.
		interp.gc.TrackSeries(s)
	}
	s.marked = true
	if s.Flavor == FlavorArray || s.Flavor == FlavorPairing {
		for i := range s.cells {
			interp.markCell(&s.cells[i])
		}
	}
	// String bookmarks are intentionally not marked (spec.md §4.8).
}

func (interp *Interpreter) markContext(c *Context) {
	if c == nil || c.marked {
		return
	}
	if !c.Managed() {
		interp.gc.TrackContext(c)
	}
	c.marked = true
	for i := range c.Vars {
		interp.markCell(&c.Vars[i])
	}
	if c.Ancestor != nil {
		interp.markContext(c.Ancestor)
	}
	if c.Hash != nil {
		interp.markSeries(c.Hash)
	}
}

func (interp *Interpreter) markAction(a *Action) {
	if a == nil || a.marked {
		return
	}
	if !a.managed {
		interp.gc.TrackAction(a)
	}
	a.marked = true
	if a.Body.Body != nil {
		interp.markSeries(a.Body.Body)
	}
	if a.Body.AdaptPre != nil {
		interp.markSeries(a.Body.AdaptPre)
	}
	if a.Body.Exemplar != nil {
		interp.markContext(a.Body.Exemplar)
	}
	if a.Body.Underlying != nil {
		interp.markAction(a.Body.Underlying)
	}
	if a.Body.Hijacking != nil {
		interp.markAction(a.Body.Hijacking)
	}
	for _, chained := range a.Body.Chain {
		interp.markAction(chained)
	}
	if a.Meta != nil {
		interp.markContext(a.Meta)
	}
}
