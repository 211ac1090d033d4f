package interp

// slotKind is the explicit per-refinement-slot state variant called for by
// spec.md §9's Design Note ("express with an explicit variant per slot:
// unspecialized | enabled | disabled | partial(stack_pos, refinement_sym)")
// — SPEC_FULL.md supplement #1.
type slotKind uint8

const (
	slotUnspecialized slotKind = iota
	slotEnabled
	slotDisabled
	slotPartial
)

type slotState struct {
	kind slotKind
	pos  int     // stack position; classifyExemplarSlot leaves it 0
	sym  *Symbol // refinement symbol, valid when kind == slotPartial
}

// InvokeFrame is a live action invocation, spec.md §4.6/Glossary "Frame: a
// live invocation of an action; may be reified into a first-class frame
// value." It is distinct from EvalFrame (the source-cursor stepper): an
// InvokeFrame is pushed once per action call and torn down on return
// unless reified.
type InvokeFrame struct {
	Action  *Action
	Args    []Cell // one per paramlist slot, index 0 is the archetype
	Special *Context // exemplar (specialized) or nil (fully unspecialized)
	Slots   []slotState // per-refinement-parameter state, indexed like Args

	RefinementStack []*Parameter // path-walk-pushed order, spec.md §4.6
	stackPos        map[*Parameter]int

	Prev *InvokeFrame
	Eval *EvalFrame // the calling step frame, for error position reporting

	reifiedCtx *Context
}

// BeginInvoke implements spec.md §4.6 step 1 ("Begin"): push a new frame
// shaped like action's paramlist, with Special set from exemplar when the
// action is itself a specialization.
func BeginInvoke(action *Action, prev *InvokeFrame, evalFrame *EvalFrame) *InvokeFrame {
	underlying, exemplar := action, (*Context)(nil)
	if action.Body.Kind == DispatchSpecialization {
		underlying = action.Body.Underlying
		exemplar = action.Body.Exemplar
	}
	f := &InvokeFrame{
		Action:   underlying,
		Args:     make([]Cell, len(underlying.Params)),
		Special:  exemplar,
		Slots:    make([]slotState, len(underlying.Params)),
		stackPos: map[*Parameter]int{},
		Prev:     prev,
		Eval:     evalFrame,
	}
	if exemplar != nil {
		for i, p := range underlying.Params {
			if p.Sym == nil {
				continue
			}
			if v, ok := exemplar.Get(p.Sym); ok {
				f.Args[i] = v
				if p.Class == ParamRefinement {
					f.Slots[i] = classifyExemplarSlot(v)
				}
			}
		}
	}
	return f
}

func classifyExemplarSlot(v Cell) slotState {
	switch {
	case v.Kind() == KindNull:
		return slotState{kind: slotDisabled}
	case v.Kind() == KindLogic && v.Int() != 0:
		return slotState{kind: slotEnabled}
	case v.Kind() == KindWord:
		return slotState{kind: slotPartial, sym: v.sym}
	}
	return slotState{kind: slotUnspecialized}
}

// PushRefinement records a refinement word encountered while walking a
// path invocation (spec.md §4.6 "Refinement ordering": "The path walker
// pushes refinement words on a stack").
func (f *InvokeFrame) PushRefinement(p *Parameter) {
	f.stackPos[p] = len(f.RefinementStack)
	f.RefinementStack = append(f.RefinementStack, p)
}

// WalkParams implements spec.md §4.6 step 2: ordinary slots in paramlist
// order, then refinements in consumption order (partials first, then the
// call-site stack), gathering from fd via gather when a slot is not already
// filled by Special.
func (f *InvokeFrame) WalkParams(fd *Feed, spec *Specifier, gather func(p *Parameter, class ParamClass, fd *Feed, spec *Specifier) (Cell, error)) error {
	// Phase 1: ordinary (non-refinement) parameters gather in declaration
	// order — Rebol function specs place all positional args before any
	// refinement, so declaration order and feed order coincide here.
	for i := 1; i < len(f.Action.Params); i++ {
		p := &f.Action.Params[i]
		if p.Class == ParamRefinement || p.Class == ParamRefinementArg || p.Class == ParamReturn {
			continue
		}
		if f.Special != nil && p.Sym != nil {
			if _, ok := f.Special.Get(p.Sym); ok {
				continue // already specialized
			}
		}
		v, err := gather(p, p.Class, fd, spec)
		if err != nil {
			return err
		}
		if p.Typeset != nil && !p.Typeset.Allows(v.Kind()) {
			return newError("script", "expect-arg", "argument to %s does not match typeset", symName(p.Sym))
		}
		f.Args[i] = v
	}

	// Phase 2: refinements resolve in consumption order, not paramlist
	// order — partial (pre-specialized but unfulfilled) slots first, in
	// reverse stack-position order, then the refinements actually named at
	// this call site, in the order the path walker pushed them. spec.md §5:
	// "the user-supplied refinement arguments are taken from the feed in
	// the order they appeared at the call site (reverse of the ordering
	// stack)"; §4.6's worked `/b/a` example fixes the exact mapping.
	resolved := map[*Parameter]bool{}
	consume := func(p *Parameter) error {
		idx := f.Action.ParamIndex(p.Sym)
		if idx < 0 || resolved[p] {
			return nil
		}
		resolved[p] = true
		f.Slots[idx] = slotState{kind: slotEnabled}
		f.Args[idx] = Logic(true)
		for j := idx + 1; j < len(f.Action.Params) && f.Action.Params[j].Class == ParamRefinementArg && f.Action.Params[j].RefinementOf == p; j++ {
			arg := &f.Action.Params[j]
			v, err := gather(arg, arg.Class, fd, spec)
			if err != nil {
				return err
			}
			if arg.Typeset != nil && !arg.Typeset.Allows(v.Kind()) {
				return newError("script", "expect-arg", "argument to %s does not match typeset", symName(arg.Sym))
			}
			f.Args[j] = v
		}
		return nil
	}
	for _, p := range f.partialRefinementsReverseOrder() {
		if err := consume(p); err != nil {
			return err
		}
	}
	for _, p := range f.unspecializedRefinementsInPathOrder() {
		if err := consume(p); err != nil {
			return err
		}
	}

	// Phase 3: any refinement not resolved above is disabled, and its
	// dependent args (if not already filled from an exemplar) are null.
	for i := 1; i < len(f.Action.Params); i++ {
		p := &f.Action.Params[i]
		switch p.Class {
		case ParamRefinement:
			if resolved[p] {
				continue
			}
			if f.Special != nil && p.Sym != nil {
				if _, ok := f.Special.Get(p.Sym); ok && f.Slots[i].kind != slotPartial {
					continue // already specialized, leave as-is
				}
				if f.Slots[i].kind == slotPartial {
					continue // unresolved partial stays partial for reflection
				}
			}
			f.Slots[i] = slotState{kind: slotDisabled}
			f.Args[i] = Null()
		case ParamRefinementArg:
			if resolved[p.RefinementOf] {
				continue
			}
			if f.Special != nil && p.Sym != nil {
				if _, ok := f.Special.Get(p.Sym); ok {
					continue
				}
			}
			f.Args[i] = Null()
		}
	}
	if rem := f.unresolvedRefinementStackTail(); len(rem) > 0 {
		return newError("script", "bad-refines", "unresolved refinement in path invocation")
	}
	return nil
}

func symName(s *Symbol) string {
	if s == nil {
		return "?"
	}
	return s.Spelling()
}

// partialRefinementsReverseOrder returns refinement parameters currently
// marked slotPartial, ordered by descending stack position — spec.md
// §4.6: "such partial slots are consumed before unspecialized refinements
// in reverse-stack order." Partials classified from an exemplar all carry
// pos 0, so among themselves they keep paramlist order.
func (f *InvokeFrame) partialRefinementsReverseOrder() []*Parameter {
	type ps struct {
		p   *Parameter
		pos int
	}
	var list []ps
	for i := range f.Slots {
		if f.Slots[i].kind == slotPartial {
			list = append(list, ps{&f.Action.Params[i], f.Slots[i].pos})
		}
	}
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].pos > list[i].pos {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	out := make([]*Parameter, len(list))
	for i, e := range list {
		out[i] = e.p
	}
	return out
}

func (f *InvokeFrame) unspecializedRefinementsInPathOrder() []*Parameter {
	return f.RefinementStack
}

// unresolvedRefinementStackTail reports refinements that were pushed by
// the path walker (and are therefore known parameters of this action, the
// walker having already rejected unknown refinement names) but never got
// marked enabled/partial during WalkParams. In the current single-pass
// walk that cannot happen, but the check stays as the explicit guard
// spec.md §4.6 calls for: "Unresolved refinements at path-end are an
// error."
func (f *InvokeFrame) unresolvedRefinementStackTail() []*Parameter {
	var rem []*Parameter
	for _, p := range f.RefinementStack {
		idx := -1
		for i := range f.Action.Params {
			if &f.Action.Params[i] == p {
				idx = i
				break
			}
		}
		if idx < 0 || (f.Slots[idx].kind != slotEnabled && f.Slots[idx].kind != slotPartial) {
			rem = append(rem, p)
		}
	}
	return rem
}

// FinalizePartials converts this frame's exemplar-in-progress slots into
// the canonical post-specialize form described in spec.md §4.6:
// "Finalization after a specialize scans the partial chain and converts
// each slot to: true (fully fulfilled), a bound refinement word marking
// its stack position (still partial), or null (disabled)."
func (f *InvokeFrame) FinalizePartials() *Context {
	ctx := &Context{Kind: CtxFrame, Keys: make([]ContextKey, len(f.Action.Params)), Vars: make([]Cell, len(f.Action.Params))}
	for i, p := range f.Action.Params {
		ctx.Keys[i] = ContextKey{Sym: p.Sym, Param: &f.Action.Params[i]}
		switch f.Slots[i].kind {
		case slotEnabled:
			ctx.Vars[i] = Logic(true)
		case slotDisabled:
			ctx.Vars[i] = Null()
		case slotPartial:
			wc := Cell{kind: KindWord, sym: f.Slots[i].sym}
			ctx.Vars[i] = wc
		default:
			ctx.Vars[i] = f.Args[i]
		}
	}
	return ctx
}

// AsContext lazily reifies f as a frame! Context, spec.md §4.9/Glossary:
// the mechanism specifier.go's Resolve uses to turn a relative binding
// into a concrete (Context, idx) pair.
func (f *InvokeFrame) AsContext() *Context {
	if f.reifiedCtx != nil {
		return f.reifiedCtx
	}
	keys := make([]ContextKey, len(f.Action.Params))
	for i, p := range f.Action.Params {
		keys[i] = ContextKey{Sym: p.Sym, Param: &f.Action.Params[i]}
	}
	f.reifiedCtx = &Context{Kind: CtxFrame, Keys: keys, Vars: f.Args}
	f.reifiedCtx.Vars[0] = Cell{kind: KindFrame, ctx: f.reifiedCtx}
	return f.reifiedCtx
}

// Dispatch implements spec.md §4.6 step 4: invoke the action's dispatcher
// with this frame, after type-checking (already done in WalkParams for
// ordinary args) and before Return tears the frame down.
func (f *InvokeFrame) Dispatch(interp *Interpreter) (Cell, error) {
	switch f.Action.Body.Kind {
	case DispatchNative:
		return f.Action.Body.NativeFn(f)
	case DispatchInterpretedBlock:
		spec := f.Action.Body.BodySpec.Derive(&Binding{Action: f.Action})
		innerSpec := &Specifier{Frame: f, Outer: spec}
		ef := NewEvalFrame(interp, f.Action.Body.Body, innerSpec, f.Eval)
		return interp.RunToEnd(ef)
	case DispatchSpecialization:
		// Specializations are resolved at BeginInvoke time; reaching here
		// means a bare specialization action (no further exemplar) was
		// called directly without unwrapping — re-enter underlying.
		under := BeginInvoke(f.Action.Body.Underlying, f.Prev, f.Eval)
		under.Args = f.Args
		return under.Dispatch(interp)
	case DispatchChained:
		var out Cell
		var err error
		cur := f
		for i, a := range f.Action.Body.Chain {
			nf := BeginInvoke(a, f.Prev, f.Eval)
			if i == 0 {
				nf.Args = cur.Args
			} else {
				nf.Args[1] = out // conventional: slot 1 is the threaded value
			}
			out, err = nf.Dispatch(interp)
			if err != nil {
				return Cell{}, err
			}
		}
		return out, nil
	case DispatchAdapted:
		if f.Action.Body.AdaptPre != nil {
			spec := f.Action.Body.AdaptSpec.Derive(&Binding{Action: f.Action})
			pf := NewEvalFrame(interp, f.Action.Body.AdaptPre, &Specifier{Frame: f, Outer: spec}, f.Eval)
			if _, err := interp.RunToEnd(pf); err != nil {
				return Cell{}, err
			}
		}
		under := BeginInvoke(f.Action.Body.Underlying, f.Prev, f.Eval)
		under.Args = f.Args
		return under.Dispatch(interp)
	case DispatchHijacked:
		nf := BeginInvoke(f.Action.Body.Hijacking, f.Prev, f.Eval)
		nf.Args = f.Args
		return nf.Dispatch(interp)
	}
	return Cell{}, newError("internal", "bad-dispatcher", "unknown dispatcher kind")
}
