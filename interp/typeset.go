package interp

import "golang.org/x/tools/container/intsets"

// Typeset is the bitset-of-datatypes payload for a typeset! cell and for
// each parameter cell's allowed-argument-types field (spec.md §3.4
// "Type-check each gathered argument against the parameter's typeset").
// Backed by golang.org/x/tools/container/intsets.Sparse, the teacher's own
// go.mod dependency, rather than a hand-rolled uint64 bitmask: ~64 kinds
// fits a machine word today, but a Sparse set costs nothing extra here and
// is already proven grounding (SPEC_FULL.md Domain Stack) for the GC's
// debug set of Kind values seen during marking in gc.go.
type Typeset struct {
	bits intsets.Sparse
}

// NewTypeset builds a typeset admitting exactly the given kinds.
func NewTypeset(kinds ...Kind) *Typeset {
	ts := &Typeset{}
	for _, k := range kinds {
		ts.bits.Insert(int(k))
	}
	return ts
}

// Allows reports whether k is a member of ts.
func (ts *Typeset) Allows(k Kind) bool {
	if ts == nil {
		return true // an absent typeset is the universal set
	}
	return ts.bits.Has(int(k))
}

// Add inserts k into ts, returning ts for chaining.
func (ts *Typeset) Add(k Kind) *Typeset {
	ts.bits.Insert(int(k))
	return ts
}

// Union returns the union of ts and other as a new Typeset.
func (ts *Typeset) Union(other *Typeset) *Typeset {
	out := &Typeset{}
	out.bits.Copy(&ts.bits)
	out.bits.UnionWith(&other.bits)
	return out
}

// Len reports the number of member kinds.
func (ts *Typeset) Len() int { return ts.bits.Len() }

// AnyTypeset admits every Kind except the KindEnd pseudo-kind. A parameter
// with no typeset annotation carries a nil *Typeset, which Allows treats
// as the universal set.
func AnyTypeset() *Typeset {
	ts := &Typeset{}
	for k := Kind(1); k < kindCount; k++ {
		ts.bits.Insert(int(k))
	}
	return ts
}
