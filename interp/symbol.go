package interp

import (
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// Symbol is an immortal interned spelling, spec.md §3.2/§4.2. Every
// distinct case variant of a word gets its own *Symbol, linked into a
// synonym ring whose canonical representative is fixed at first intern.
type Symbol struct {
	spelling string
	ser      *Series // backing symbol series (FlavorSymbol), spec.md §3.2
	hash     uint32

	synonym *Symbol // next node in the case-variant ring; ring is circular
	canon   *Symbol // canonical representative of the ring

	// Binder index scratch, spec.md §4.2: positive => active-context slot,
	// negative => lib-context slot (negated), zero => unbound. Guarded by
	// binderOwner (binder.go) since only one bind may be in flight.
	binderIdx int
}

// Spelling returns the exact (case-preserving) text of sym.
func (s *Symbol) Spelling() string { return s.spelling }

// Canon returns the canonical representative of sym's synonym ring, used
// for case-insensitive comparisons (spec.md §4.2).
func (s *Symbol) Canon() *Symbol { return s.canon }

// SameWord reports pointer-identity equality — the fast path spec.md
// describes as "Word equality at the cell level is pointer equality on
// the spelling".
func (s *Symbol) SameWord(o *Symbol) bool { return s == o }

// EqualCaseless reports whether s and o are case-insensitive synonyms,
// i.e. share a canonical representative ("case-insensitive equality
// follows the synonym ring to the canon").
func (s *Symbol) EqualCaseless(o *Symbol) bool { return s.canon == o.canon }

// caseFolder performs the Unicode-aware case fold used to group synonym
// variants; grounded on golang.org/x/text/cases (see SPEC_FULL.md Domain
// Stack — a pack repo, joshuapare-hivekit, already reaches for x/text for
// exactly this kind of text-shape normalization).
var caseFolder = cases.Fold()

func foldKey(spelling string) string {
	return caseFolder.String(spelling)
}

// interner is the process-wide symbol table of spec.md §4.2/§5 ("Shared
// resources: symbol table ... is process-wide").
type interner struct {
	mu      sync.RWMutex
	exact   map[string]*Symbol // spelling -> exact-case Symbol
	canons  map[string]*Symbol // fold(spelling) -> canonical Symbol
	inflight singleflight.Group
}

var globalInterner = &interner{
	exact:  map[string]*Symbol{},
	canons: map[string]*Symbol{},
}

// internSymbol returns the unique *Symbol node for this exact spelling, creating
// it (and linking it into the right synonym ring) on first use. Concurrent
// first-interns of the same spelling from independently-running
// interpreter instances are coalesced via singleflight rather than a bare
// mutex critical section, matching spec.md §5's process-wide-but-
// unprotected framing while still avoiding duplicate Symbol nodes for the
// identical spelling (duplicate nodes would break the cell-level pointer
// equality fast path).
func internSymbol(spelling string) *Symbol {
	globalInterner.mu.RLock()
	if sym, ok := globalInterner.exact[spelling]; ok {
		globalInterner.mu.RUnlock()
		return sym
	}
	globalInterner.mu.RUnlock()

	v, _, _ := globalInterner.inflight.Do(spelling, func() (interface{}, error) {
		globalInterner.mu.Lock()
		defer globalInterner.mu.Unlock()
		if sym, ok := globalInterner.exact[spelling]; ok {
			return sym, nil
		}
		sym := &Symbol{spelling: spelling, hash: fnv32(spelling)}
		ser := &Series{Flavor: FlavorSymbol, Flags: SerManaged, width: 1, bytes: []byte(spelling)}
		ser.codepoints = countCodepoints(ser.bytes)
		sym.ser = ser

		key := foldKey(spelling)
		if canon, ok := globalInterner.canons[key]; ok {
			sym.canon = canon.canon
			// splice sym into the existing ring, right after canon.
			sym.synonym = canon.synonym
			canon.synonym = sym
		} else {
			sym.canon = sym
			sym.synonym = sym
			globalInterner.canons[key] = sym
		}
		globalInterner.exact[spelling] = sym
		return sym, nil
	})
	return v.(*Symbol)
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// resetInternerForTest clears the process-wide table; only used by tests
// that need deterministic symbol identity across runs.
func resetInternerForTest() {
	globalInterner.mu.Lock()
	defer globalInterner.mu.Unlock()
	globalInterner.exact = map[string]*Symbol{}
	globalInterner.canons = map[string]*Symbol{}
}
