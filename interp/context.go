package interp

// ContextKind distinguishes the named-storage variants of spec.md §3.3:
// "A context is a pair of arrays ... for frame contexts the keylist is the
// action's paramlist; for object contexts it is a plain keylist."
type ContextKind uint8

const (
	CtxObject ContextKind = iota
	CtxModule
	CtxError
	CtxPort
	CtxFrame
)

// ContextKey names one slot of a Context's keylist. For frame contexts
// this doubles as a Parameter (see action.go); for plain object/module/
// error/port contexts it is just a symbol + advisory typeset.
type ContextKey struct {
	Sym     *Symbol
	Typeset *Typeset
	Param   *Parameter // non-nil only when this Context is CtxFrame
}

// Context is the varlist+keylist pair of spec.md §3.3. Index 0 of Vars is
// always the archetypal self-value (spec.md: "index 0 is the archetypal
// self-value"); real named slots start at index 1, mirroring the keylist.
type Context struct {
	Kind ContextKind

	Keys []ContextKey
	Vars []Cell

	Ancestor *Context // object derivation back-link, spec.md §3.3
	Facade   []ContextKey // frame contexts only: keylist variant hiding
	// specialized-out parameters from reflection while preserving layout
	// (spec.md Glossary: "Facade").

	Hash *Series // optional hashlist for fast symbol->slot lookup on wide
	// contexts, mirroring the "pairlist ↔ hashlist" structure of spec.md §8.

	managed bool
	marked  bool
}

// NewObjectContext allocates an empty object! context; its archetypal self
// slot gets its context pointer from archetype() below.
func NewObjectContext(ancestor *Context) *Context {
	return &Context{Kind: CtxObject, Keys: []ContextKey{{}}, Vars: []Cell{{kind: KindObject}}, Ancestor: ancestor}
}

// NewModuleContext allocates a module! context (spec.md §3.3, Glossary).
func NewModuleContext() *Context {
	return &Context{Kind: CtxModule, Keys: []ContextKey{{}}, Vars: []Cell{{kind: KindModule}}}
}

// NewErrorContext allocates an error! context (spec.md §7 "user errors").
func NewErrorContext() *Context {
	c := &Context{Kind: CtxError, Keys: []ContextKey{{}}, Vars: []Cell{{kind: KindError}}}
	c.Vars[0].ctx = c
	return c
}

// NewPortContext allocates a port! context (spec.md §6.2).
func NewPortContext() *Context {
	c := &Context{Kind: CtxPort, Keys: []ContextKey{{}}, Vars: []Cell{{kind: KindPort}}}
	c.Vars[0].ctx = c
	return c
}

// archetype returns the self-referencing cell in slot 0, wired up so the
// context can be used as a Cell value (e.g. passed as an argument).
func (c *Context) archetype() Cell {
	cell := c.Vars[0]
	cell.ctx = c
	return cell
}

// slotIndex returns the 0-based Vars index bound to sym in c's own
// keylist, or -1. Ancestor slots are found via resolveSlot, which reports
// the owning context so the index is never applied to the wrong varlist.
func (c *Context) slotIndex(sym *Symbol) int {
	for i, k := range c.Keys {
		if k.Sym == sym {
			return i
		}
	}
	return -1
}

// resolveSlot walks the ancestor chain for the context that owns sym's
// slot, per spec.md §3.3's "ancestor back-link enabling derivation".
func (c *Context) resolveSlot(sym *Symbol) (*Context, int) {
	for cur := c; cur != nil; cur = cur.Ancestor {
		if i := cur.slotIndex(sym); i >= 0 {
			return cur, i
		}
	}
	return nil, -1
}

// Get reads the value bound to sym, or reports found=false. Derived
// objects read inherited slots through the ancestor chain.
func (c *Context) Get(sym *Symbol) (Cell, bool) {
	owner, i := c.resolveSlot(sym)
	if owner == nil {
		return Cell{}, false
	}
	return owner.Vars[i], true
}

// Put writes val into the slot named sym, appending a new slot if sym is
// not yet present — the behavior of spec.md's "mutations via set-word/put".
func (c *Context) Put(sym *Symbol, val Cell) {
	i := c.slotIndex(sym)
	if i >= 0 {
		c.Vars[i] = val
		return
	}
	c.Keys = append(c.Keys, ContextKey{Sym: sym})
	c.Vars = append(c.Vars, val)
}

// Manage marks c (and by extension its Vars/Keys) as GC-tracked.
func (c *Context) Manage() { c.managed = true }
func (c *Context) Managed() bool { return c.managed }

// Derive creates a new object context whose Ancestor is c, the mechanism
// behind Rebol's `make object-proto [...]` derivation.
func (c *Context) Derive() *Context {
	return NewObjectContext(c)
}

// Len reports the number of named (non-archetype) slots.
func (c *Context) Len() int {
	if len(c.Vars) == 0 {
		return 0
	}
	return len(c.Vars) - 1
}
