package interp

// ParamClass is the argument-gathering discipline for one parameter, per
// spec.md §4.6 "gather from the feed per the parameter's class".
type ParamClass uint8

const (
	ParamNormal ParamClass = iota
	ParamTight
	ParamHardQuote
	ParamSoftQuote
	ParamRefinement
	ParamRefinementArg // an argument that belongs to a preceding refinement
	ParamReturn        // declared return typespec, not a gathered argument
)

// Parameter is one cell of an Action's paramlist (spec.md §3.4: "A
// paramlist ... array of parameter cells; index 0 is the archetypal
// action cell"). Index 0 itself carries Class == 0 and Sym == nil.
type Parameter struct {
	Sym     *Symbol
	Class   ParamClass
	Typeset *Typeset

	// RefinementOf is non-nil for ParamRefinementArg: the refinement
	// Parameter this argument belongs to.
	RefinementOf *Parameter
}

// DispatcherKind enumerates the action-body variants of spec.md §4.6 step
// 4 ("Dispatch").
type DispatcherKind uint8

const (
	DispatchInterpretedBlock DispatcherKind = iota
	DispatchNative
	DispatchSpecialization
	DispatchChained
	DispatchAdapted
	DispatchHijacked
)

// Dispatcher is the callable body of an Action. NativeFn implements
// DispatchNative; Body+BodySpec implement DispatchInterpretedBlock;
// Exemplar+Underlying implement DispatchSpecialization; Chain implements
// DispatchChained; AdaptPre/AdaptSpec+Underlying implement DispatchAdapted;
// Hijacking implements DispatchHijacked.
type Dispatcher struct {
	Kind DispatcherKind

	NativeFn func(f *InvokeFrame) (Cell, error)

	Body       *Series // block! of interpreted code
	BodySpec   *Specifier

	Underlying *Action
	Exemplar   *Context // partial-specialization template, spec.md §4.6

	Chain []*Action // chained dispatcher: run each in turn, threading output

	AdaptPre  *Series // adapted dispatcher: prelude block run before Underlying
	AdaptSpec *Specifier

	Hijacking *Action // the action actually run, for DispatchHijacked
}

// Action is a callable value, spec.md §3.4/Glossary: "paramlist (array of
// parameter cells) and a details array carrying dispatcher-specific data.
// A paramlist carries a shared MISC->meta object ... and LINK->facade."
type Action struct {
	Params []Parameter // index 0 is the archetypal self-entry
	Body   Dispatcher

	Meta   *Context     // help/spec object, spec.md "MISC->meta"
	Facade []ContextKey // hides specialized-out params from reflection,
	// spec.md Glossary "Facade", while preserving the original layout.

	Enfix bool // spec.md §4.6 "Enfix (postfix-binary) actions"

	// Invisible marks an action whose result does not overwrite the
	// calling step's output cell (spec.md §9's "stale output marker" Design
	// Note, SPEC_FULL.md supplement #1) — e.g. `comment`, `elide`.
	Invisible bool

	Binding *Binding // the frame/object this action closes over (every
	// action cell carries a binding, spec.md §3.4).

	managed bool
	marked  bool
}

// NewAction builds an Action from its ordered parameter list.
func NewAction(params []Parameter, body Dispatcher) *Action {
	return &Action{Params: append([]Parameter{{}}, params...), Body: body}
}

// archetype returns the cell representation of a *Action.
func (a *Action) archetype() Cell {
	return Cell{kind: KindAction, act: a}
}

// RefinementParams returns the subsequence of Params that are refinements,
// in paramlist order. (WalkParams resolves and type-checks refinement
// arguments in consumption order, not in this order.)
func (a *Action) RefinementParams() []*Parameter {
	var out []*Parameter
	for i := range a.Params {
		if a.Params[i].Class == ParamRefinement {
			out = append(out, &a.Params[i])
		}
	}
	return out
}

// ParamIndex returns the paramlist slot index of the parameter named sym,
// by symbol identity, or -1 when there is none.
func (a *Action) ParamIndex(sym *Symbol) int {
	for i, p := range a.Params {
		if p.Sym == sym {
			return i
		}
	}
	return -1
}

// Specialize produces a new Action whose dispatcher is
// DispatchSpecialization over a, the "special pointer ... a prior exemplar
// frame" of spec.md §4.6 step 1. exemplar holds the pre-filled values keyed
// by parameter symbol; BeginInvoke copies them into each new frame, and a
// refinement's value (true, null, or a word) sets that slot's state.
func (a *Action) Specialize(exemplar *Context) *Action {
	sa := &Action{
		Params: a.Params,
		Meta:   a.Meta,
		Enfix:  a.Enfix,
		Body: Dispatcher{
			Kind:       DispatchSpecialization,
			Underlying: a,
			Exemplar:   exemplar,
		},
	}
	return sa
}
