package interp

// HashMap is the map! value's backing store, spec.md §3.2/§4 "Hash/Map":
// "Linear-probe hash keyed by value identity." It pairs a pairlist array
// (key, value, key, value, ...) with a hashlist Series of 32-bit probe
// slots pointing into the pairlist, matching the "cyclic pairlist <->
// hashlist graph" design note of spec.md §9.
//
// No pack repo imports or implements an open-addressing hash table (see
// SPEC_FULL.md Domain Stack's stdlib justification), so this is hand-rolled
// against the stdlib only, grounded directly on spec.md's own prose rather
// than an example file.
type HashMap struct {
	Pairs *Series // FlavorArray, [k0 v0 k1 v1 ...]
	Hash  *Series // FlavorHashlist
}

const tombstoneSlot = ^uint32(0)
const emptySlot = ^uint32(0) - 1

// NewHashMap allocates an empty map! with nBuckets probe slots.
func NewHashMap(nBuckets int) *HashMap {
	if nBuckets < 8 {
		nBuckets = 8
	}
	hl := MakeHashlist(nBuckets)
	for i := range hl.hash {
		hl.hash[i] = emptySlot
	}
	pairs := MakeArray(0)
	pairs.Misc = hl
	return &HashMap{Pairs: pairs, Hash: hl}
}

func cellHash(c *Cell) uint32 {
	switch c.kind {
	case KindWord, KindSetWord, KindGetWord, KindSymWord:
		return c.sym.hash
	case KindText, KindFile, KindURL, KindTag, KindEmail, KindIssue, KindBinary:
		if c.ser == nil {
			return 0
		}
		return fnv32(string(c.ser.Bytes()))
	case KindInteger:
		return uint32(c.i) ^ uint32(c.i>>32)
	default:
		return uint32(c.kind)
	}
}

// Get looks up key, reporting found=false for an absent or tombstoned
// (null-valued) slot — spec.md §8: "A map tombstone (null value slot)
// causes the key to be invisible to reads."
func (m *HashMap) Get(key Cell) (Cell, bool) {
	idx, slot := m.probe(key)
	if slot == emptySlot || slot == tombstoneSlot {
		return Cell{}, false
	}
	_ = idx
	v := m.Pairs.cells[slot*2+1]
	if v.IsNull() {
		return Cell{}, false
	}
	return v, true
}

// Put inserts or updates key -> val. Storing Null() as val tombstones the
// key (spec.md §3.1 "a null in a map slot marks a zombie tombstone").
func (m *HashMap) Put(key, val Cell) {
	bucket, slot := m.probe(key)
	if slot != emptySlot && slot != tombstoneSlot {
		m.Pairs.cells[slot*2+1] = val
		return
	}
	// spec.md §8: "reuse during the next insert" — prefer a tombstoned
	// pairlist slot over growing the array when one exists anywhere in
	// the pairlist.
	reuse := m.findTombstonePair(key)
	if reuse >= 0 {
		m.Pairs.cells[reuse*2] = key
		m.Pairs.cells[reuse*2+1] = val
		m.Hash.hash[bucket] = uint32(reuse)
		return
	}
	newSlot := uint32(len(m.Pairs.cells) / 2)
	_ = m.Pairs.AppendCell(key)
	_ = m.Pairs.AppendCell(val)
	m.Hash.hash[bucket] = newSlot
	if float64(newSlot+1) > 0.7*float64(len(m.Hash.hash)) {
		m.grow()
	}
}

// Remove tombstones key's value slot without compacting the pairlist,
// matching spec.md's tombstone-on-removal semantics.
func (m *HashMap) Remove(key Cell) bool {
	_, slot := m.probe(key)
	if slot == emptySlot || slot == tombstoneSlot {
		return false
	}
	m.Pairs.cells[slot*2+1] = Null()
	return true
}

// findTombstonePair scans pairlist slots whose value is Null (candidates
// for reuse), independent of probe chain position, since the spec only
// requires reuse "during the next insert" without naming a specific slot.
func (m *HashMap) findTombstonePair(key Cell) int {
	for i := 0; i < len(m.Pairs.cells)/2; i++ {
		if m.Pairs.cells[i*2+1].IsNull() {
			return i
		}
	}
	return -1
}

// probe walks the open-addressing chain for key, returning the bucket
// index and either the pairlist slot stored there (found, possibly
// tombstoned-value) or emptySlot.
func (m *HashMap) probe(key Cell) (bucket int, slot uint32) {
	n := len(m.Hash.hash)
	h := int(cellHash(&key)) % n
	if h < 0 {
		h += n
	}
	for i := 0; i < n; i++ {
		b := (h + i) % n
		s := m.Hash.hash[b]
		if s == emptySlot {
			return b, emptySlot
		}
		if s != tombstoneSlot {
			k := m.Pairs.cells[s*2]
			if k.Equal(&key) {
				return b, s
			}
		}
	}
	return h, emptySlot
}

func (m *HashMap) grow() {
	old := m.Hash
	nh := MakeHashlist(len(old.hash) * 2)
	for i := range nh.hash {
		nh.hash[i] = emptySlot
	}
	m.Hash = nh
	m.Pairs.Misc = nh
	for i := 0; i < len(m.Pairs.cells)/2; i++ {
		k := m.Pairs.cells[i*2]
		if m.Pairs.cells[i*2+1].IsNull() {
			continue
		}
		n := len(nh.hash)
		h := int(cellHash(&k)) % n
		if h < 0 {
			h += n
		}
		for j := 0; j < n; j++ {
			b := (h + j) % n
			if nh.hash[b] == emptySlot {
				nh.hash[b] = uint32(i)
				break
			}
		}
	}
}

// Len reports the number of live (non-tombstoned) keys.
func (m *HashMap) Len() int {
	n := 0
	for i := 0; i < len(m.Pairs.cells)/2; i++ {
		if !m.Pairs.cells[i*2+1].IsNull() {
			n++
		}
	}
	return n
}
