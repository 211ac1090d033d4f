package interp

// RunToEnd drives ef's feed all the way to its end, spec.md §4.5's
// "TO_END loop", returning the output cell of the last non-invisible step.
// An entirely invisible body (every step was a stale-marking action like
// `comment`) yields Null, matching the "stale output" Design Note supplied
// in SPEC_FULL.md supplement #1.
func (interp *Interpreter) RunToEnd(ef *EvalFrame) (Cell, error) {
	prevEval := interp.currentEval
	interp.currentEval = ef
	defer func() { interp.currentEval = prevEval }()

	ef.Flags |= FlagToEnd
	interp.gc.evalDepth++
	defer func() { interp.gc.evalDepth-- }()

	for {
		done, err := interp.Step(ef)
		if err != nil {
			return Cell{}, err
		}
		if done {
			break
		}
	}
	if ef.StaleOut {
		return Null(), nil
	}
	return ef.Out, nil
}

// Step advances ef by exactly one top-level value, including any enfix
// lookahead chain that follows it, per spec.md §4.5. It reports done=true
// when the feed has nothing left (TO_END mode) or after the single step
// (single-step mode, FlagToEnd unset).
func (interp *Interpreter) Step(ef *EvalFrame) (bool, error) {
	if ef.Feed.AtEnd() {
		return true, nil
	}
	cur, _ := ef.Feed.Next()
	ef.Current = cur
	ef.HasCurrent = true

	val, invisible, err := interp.evalCell(&ef.Feed, ef.Spec, ef, cur)
	if err != nil {
		return false, err
	}
	if !invisible {
		ef.Out = val
		ef.StaleOut = false

		for {
			next, ok := ef.Feed.Peek()
			if !ok {
				break
			}
			act, sym, isEnfix := interp.enfixLookahead(ef.Spec, next)
			if !isEnfix {
				break
			}
			ef.Feed.Next()
			out, err := interp.applyEnfix(&ef.Feed, ef.Spec, ef, act, sym, ef.Out)
			if err != nil {
				return false, err
			}
			ef.Out = out
		}
	}

	if ef.Flags&FlagToEnd == 0 {
		return true, nil
	}
	return ef.Feed.AtEnd(), nil
}

// evalCell evaluates a single fetched cell per spec.md §4.5 step's kind
// dispatch, returning whether the action invoked (if any) is invisible.
func (interp *Interpreter) evalCell(fd *Feed, spec *Specifier, ef *EvalFrame, cur Cell) (Cell, bool, error) {
	if cur.HasFlag(FlagUnevaluated) {
		cur.flags &^= FlagUnevaluated
		return cur, false, nil
	}
	if cur.kind == KindLiteral || cur.flags.escapeDepth() > 0 {
		return Unliteral(cur), false, nil
	}
	switch {
	case cur.kind == KindWord:
		val, err := interp.lookupWord(spec, &cur)
		if err != nil {
			return Cell{}, false, err
		}
		if val.Kind() == KindAction {
			out, err := interp.invokeAction(fd, spec, ef, val.act)
			return out, val.act.Invisible, err
		}
		return val, false, nil

	case cur.kind == KindGetWord:
		val, err := interp.lookupWord(spec, &cur)
		return val, false, err

	case cur.kind == KindSetWord:
		val, err := interp.evalOneValue(fd, spec, ef, true)
		if err != nil {
			return Cell{}, false, err
		}
		ctx, idx, err := Resolve(cur.bind, spec)
		if err != nil {
			return Cell{}, false, err
		}
		if idx >= 0 {
			ctx.Vars[idx] = val
		} else {
			ctx.Put(cur.sym, val)
		}
		return val, false, nil

	case cur.kind == KindSymWord:
		return Cell{kind: KindWord, sym: cur.sym, bind: cur.bind}, false, nil

	case cur.kind == KindGroup:
		val, err := interp.evalGroup(spec, ef, &cur)
		return val, false, err

	case cur.kind == KindSetPath:
		val, err := interp.evalOneValue(fd, spec, ef, true)
		if err != nil {
			return Cell{}, false, err
		}
		if err := interp.setPath(spec, &cur, val); err != nil {
			return Cell{}, false, err
		}
		return val, false, nil

	case cur.kind == KindGetPath:
		val, err := interp.evalPath(fd, spec, ef, &cur, true)
		return val, false, err

	case cur.kind.isPath():
		val, err := interp.evalPath(fd, spec, ef, &cur, false)
		return val, false, err

	default:
		return cur, false, nil
	}
}

// lookupWord resolves and reads the storage slot a word's binding names,
// spec.md §4.4's Resolve plus the symbol-to-slot lookup Resolve defers to
// its caller when the binding is specific (Context, idx == -1).
func (interp *Interpreter) lookupWord(spec *Specifier, c *Cell) (Cell, error) {
	ctx, idx, err := Resolve(c.bind, spec)
	if err != nil {
		return Cell{}, err
	}
	if idx >= 0 {
		return ctx.Vars[idx], nil
	}
	owner, i := ctx.resolveSlot(c.sym)
	if owner == nil {
		return Cell{}, newError("script", "not-bound", "%s has no value", symName(c.sym))
	}
	return owner.Vars[i], nil
}

// evalOneValue gathers exactly one fully-evaluated expression from fd,
// optionally chasing an enfix lookahead the way a top-level Step does.
// ParamTight arguments call this with allowEnfix=false, per spec.md §4.6.
func (interp *Interpreter) evalOneValue(fd *Feed, spec *Specifier, ef *EvalFrame, allowEnfix bool) (Cell, error) {
	cur, ok := fd.Next()
	if !ok {
		return Cell{}, newError("script", "need-value", "end of input where a value was expected")
	}
	val, invisible, err := interp.evalCell(fd, spec, ef, cur)
	if err != nil {
		return Cell{}, err
	}
	for allowEnfix && !invisible {
		next, ok := fd.Peek()
		if !ok {
			break
		}
		act, sym, isEnfix := interp.enfixLookahead(spec, next)
		if !isEnfix {
			break
		}
		fd.Next()
		val, err = interp.applyEnfix(fd, spec, ef, act, sym, val)
		if err != nil {
			return Cell{}, err
		}
	}
	return val, nil
}

// enfixLookahead reports whether next is a word bound to an enfix action,
// spec.md §4.6 "Enfix lookahead".
func (interp *Interpreter) enfixLookahead(spec *Specifier, next Cell) (*Action, *Symbol, bool) {
	if next.Kind() != KindWord {
		return nil, nil, false
	}
	val, err := interp.lookupWord(spec, &next)
	if err != nil || val.Kind() != KindAction || val.act == nil || !val.act.Enfix {
		return nil, nil, false
	}
	return val.act, next.sym, true
}

// applyEnfix invokes an enfix action with left already gathered as its
// first ordinary argument, per spec.md §4.6's enfix dispatch.
func (interp *Interpreter) applyEnfix(fd *Feed, spec *Specifier, ef *EvalFrame, act *Action, sym *Symbol, left Cell) (Cell, error) {
	invf := BeginInvoke(act, interp.currentInvoke, ef)
	prevInvoke := interp.currentInvoke
	interp.currentInvoke = invf
	defer func() { interp.currentInvoke = prevInvoke }()

	leftConsumed := false
	gather := func(p *Parameter, class ParamClass, fd *Feed, spec *Specifier) (Cell, error) {
		if !leftConsumed {
			leftConsumed = true
			return left, nil
		}
		return interp.gatherArg(fd, spec, ef, class)
	}
	if err := invf.WalkParams(fd, spec, gather); err != nil {
		return Cell{}, err
	}
	out, err := invf.Dispatch(interp)
	interp.autoReleaseFrameHandles(invf)
	return out, err
}

// invokeAction runs act as an ordinary (non-enfix) call, gathering its
// arguments from fd, spec.md §4.6 steps 1-4.
func (interp *Interpreter) invokeAction(fd *Feed, spec *Specifier, ef *EvalFrame, act *Action) (Cell, error) {
	invf := BeginInvoke(act, interp.currentInvoke, ef)
	prevInvoke := interp.currentInvoke
	interp.currentInvoke = invf
	defer func() { interp.currentInvoke = prevInvoke }()

	gather := func(p *Parameter, class ParamClass, fd *Feed, spec *Specifier) (Cell, error) {
		return interp.gatherArg(fd, spec, ef, class)
	}
	if err := invf.WalkParams(fd, spec, gather); err != nil {
		return Cell{}, err
	}
	out, err := invf.Dispatch(interp)
	interp.autoReleaseFrameHandles(invf)
	return out, err
}

// gatherArg fetches one argument per the parameter's class, spec.md §4.6
// "gather from the feed per the parameter's class".
func (interp *Interpreter) gatherArg(fd *Feed, spec *Specifier, ef *EvalFrame, class ParamClass) (Cell, error) {
	switch class {
	case ParamHardQuote:
		c, ok := fd.Next()
		if !ok {
			return Cell{}, newError("script", "need-value", "hard-quote argument missing")
		}
		return c, nil
	case ParamSoftQuote:
		c, ok := fd.Peek()
		if !ok {
			return Cell{}, newError("script", "need-value", "soft-quote argument missing")
		}
		if c.Kind() == KindGroup {
			fd.Next()
			return interp.evalGroup(spec, ef, &c)
		}
		fd.Next()
		return c, nil
	case ParamTight:
		return interp.evalOneValue(fd, spec, ef, false)
	default: // ParamNormal
		return interp.evalOneValue(fd, spec, ef, true)
	}
}

// evalGroup fully evaluates a group! cell's contents, spec.md §3.1: groups
// "evaluate immediately to a single result," unlike block!.
func (interp *Interpreter) evalGroup(spec *Specifier, ef *EvalFrame, c *Cell) (Cell, error) {
	if c.ser == nil || len(c.ser.cells) == 0 {
		return Null(), nil
	}
	inner := spec.Derive(c.bind)
	sub := NewEvalFrame(interp, c.ser, inner, ef)
	return interp.RunToEnd(sub)
}

// evalPath walks a path! or get-path! value, spec.md §3.1/§4.6's refinement
// path machinery: a leading action invokes with any trailing refinement
// words pushed via PushRefinement; a leading context/block value is
// stepped into for plain field/index access. With getOnly (get-path!), a
// path naming only the action returns the action value uninvoked; a
// get-path! with refinement segments invokes the action like a path!.
func (interp *Interpreter) evalPath(fd *Feed, spec *Specifier, ef *EvalFrame, c *Cell, getOnly bool) (Cell, error) {
	if c.ser == nil || len(c.ser.cells) == 0 {
		return Cell{}, newError("script", "bad-path", "empty path")
	}
	segs := c.ser.cells
	head := segs[0]

	var cur Cell
	var err error
	if head.kind == KindWord {
		cur, err = interp.lookupWord(spec, &head)
		if err != nil {
			return Cell{}, err
		}
	} else {
		cur = head
	}

	if cur.Kind() == KindAction {
		if getOnly && len(segs) == 1 {
			return cur, nil
		}
		invf := BeginInvoke(cur.act, interp.currentInvoke, ef)
		prevInvoke := interp.currentInvoke
		interp.currentInvoke = invf
		defer func() { interp.currentInvoke = prevInvoke }()

		for _, seg := range segs[1:] {
			if seg.kind != KindWord {
				return Cell{}, newError("script", "bad-path", "non-word refinement in path")
			}
			idx := cur.act.ParamIndex(seg.sym)
			if idx < 0 || cur.act.Params[idx].Class != ParamRefinement {
				return Cell{}, newError("script", "bad-refines", "unknown refinement %s", symName(seg.sym))
			}
			invf.PushRefinement(&cur.act.Params[idx])
		}
		gather := func(p *Parameter, class ParamClass, fd *Feed, spec *Specifier) (Cell, error) {
			return interp.gatherArg(fd, spec, ef, class)
		}
		if err := invf.WalkParams(fd, spec, gather); err != nil {
			return Cell{}, err
		}
		out, err := invf.Dispatch(interp)
		interp.autoReleaseFrameHandles(invf)
		return out, err
	}

	for _, seg := range segs[1:] {
		cur, err = pathStep(cur, seg)
		if err != nil {
			return Cell{}, err
		}
	}
	return cur, nil
}

// setPath walks c's leading segments for their container, then assigns val
// into the final segment's slot, spec.md §3.1's set-path! semantics.
func (interp *Interpreter) setPath(spec *Specifier, c *Cell, val Cell) error {
	segs := c.ser.cells
	if len(segs) < 2 {
		return newError("script", "bad-path", "set-path too short")
	}
	head := segs[0]
	var cur Cell
	var err error
	if head.kind == KindWord {
		cur, err = interp.lookupWord(spec, &head)
		if err != nil {
			return err
		}
	} else {
		cur = head
	}
	for i := 1; i < len(segs)-1; i++ {
		cur, err = pathStep(cur, segs[i])
		if err != nil {
			return err
		}
	}
	last := segs[len(segs)-1]
	switch {
	case cur.Kind() == KindObject || cur.Kind() == KindModule || cur.Kind() == KindError || cur.Kind() == KindPort:
		if last.kind != KindWord {
			return newError("script", "bad-path", "non-word path step into context")
		}
		cur.ctx.Put(last.sym, val)
	case cur.Kind() == KindBlock:
		if last.kind != KindInteger {
			return newError("script", "bad-path", "non-integer path step into block")
		}
		at := cur.ser.At(int(last.i) - 1)
		if at == nil {
			return newError("script", "bad-path", "path index out of range")
		}
		*at = val
	default:
		return newError("script", "bad-path", "cannot path into %s", cur.Kind())
	}
	return nil
}

// pathStep takes one plain (non-refinement) path step into cur, shared by
// evalPath and setPath's non-final segments.
func pathStep(cur, seg Cell) (Cell, error) {
	switch {
	case cur.Kind() == KindObject || cur.Kind() == KindModule || cur.Kind() == KindError || cur.Kind() == KindPort:
		if seg.kind != KindWord {
			return Cell{}, newError("script", "bad-path", "non-word path step into context")
		}
		v, ok := cur.ctx.Get(seg.sym)
		if !ok {
			return Cell{}, newError("script", "not-bound", "%s has no value", symName(seg.sym))
		}
		return v, nil
	case cur.Kind() == KindBlock:
		if seg.kind != KindInteger {
			return Cell{}, newError("script", "bad-path", "non-integer path step into block")
		}
		at := cur.ser.At(int(seg.i) - 1)
		if at == nil {
			return Cell{}, newError("script", "bad-path", "path index out of range")
		}
		return *at, nil
	default:
		return Cell{}, newError("script", "bad-path", "cannot path into %s", cur.Kind())
	}
}
