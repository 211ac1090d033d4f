package interp

// Specifier is the derivation record of spec.md §4.4: "a parameter passed
// through every tree-walk that can carry relative content." It resolves a
// relative binding (word -> paramlist index) against the live InvokeFrame
// whose action's paramlist matches the word's binding.
type Specifier struct {
	Frame *InvokeFrame // the live frame a relative word resolves against
	Outer *Specifier   // overlay chain: innermost array's own binding first
}

// Derive produces a new Specifier for descending into a sub-array whose
// own stored binding is bind. Per spec.md §4.4: "the sub-array's binding
// overlays the caller's." A bind of nil (sub-array carries no binding of
// its own) returns s unchanged.
func (s *Specifier) Derive(bind *Binding) *Specifier {
	if bind == nil || bind.Unbound() {
		return s
	}
	if bind.Action != nil {
		// Relative: the sub-array's binding names a paramlist; the
		// specifier chain must already carry a frame for that action,
		// found by walking outward.
		for cur := s; cur != nil; cur = cur.Outer {
			if cur.Frame != nil && cur.Frame.Action == bind.Action {
				return cur
			}
		}
		return s
	}
	// Specific: sub-array is already bound to a concrete context; no
	// frame is needed to resolve words carrying this exact binding, but
	// we still keep s reachable as the Outer fallback for sibling words
	// that might carry a different (relative) binding.
	return &Specifier{Outer: s}
}

// Resolve looks up the storage slot a word's Binding addresses, given the
// specifier in effect at the point the word is being evaluated. It
// implements spec.md §4.4's three binding classes.
func Resolve(bind *Binding, spec *Specifier) (ctx *Context, idx int, err error) {
	if bind.Unbound() {
		return nil, 0, newError("script", "not-bound", "word has no binding")
	}
	if bind.Context != nil {
		return bind.Context, -1, nil // caller resolves idx by symbol
	}
	// Relative: walk the specifier chain for a live frame over bind.Action.
	for cur := spec; cur != nil; cur = cur.Outer {
		if cur.Frame != nil && cur.Frame.Action == bind.Action {
			return cur.Frame.AsContext(), -1, nil
		}
	}
	return nil, 0, newError("script", "not-bound", "relative word has no resolving frame (specifier mismatch)")
}

// Derelativize rewrites every word binding in arr to a specific binding
// under spec, producing a fully-specific copy, per spec.md §4.4: "A plain
// copy of a possibly-relative array must derelativize each word against a
// specifier to produce a fully-specific array."
func Derelativize(arr *Series, spec *Specifier) *Series {
	out := arr.Copy()
	for i := range out.cells {
		derelativizeCell(&out.cells[i], spec)
	}
	return out
}

func derelativizeCell(c *Cell, spec *Specifier) {
	if !c.kind.isBindable() {
		return
	}
	if c.bind != nil && c.bind.Action != nil {
		if ctx, _, err := Resolve(c.bind, spec); err == nil {
			c.bind = &Binding{Context: ctx}
		}
	}
	if c.kind.isArrayLike() && c.ser != nil {
		inner := Derelativize(c.ser, spec.Derive(c.bind))
		c.ser = inner
	}
}
