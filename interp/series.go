package interp

import "fmt"

// SeriesFlavor distinguishes the polymorphic uses of Series described in
// spec.md §3.2 "Series flavors".
type SeriesFlavor uint8

const (
	FlavorArray SeriesFlavor = iota
	FlavorBinary
	FlavorString
	FlavorSymbol
	FlavorHashlist
	FlavorPairing
)

// SeriesFlags mirrors spec.md §3.2's per-series bits.
type SeriesFlags uint16

const (
	SerManaged SeriesFlags = 1 << iota
	SerFixedSize
	SerDontRelocate
	SerIsArray
	SerIsStringNonWord
	SerHasFileLine
	SerInaccessible
	SerProtected
	SerFrozen
	SerPowerOf2Sized
	SerStackLifetime
)

// Series is the growable polymorphic node of spec.md §3.2. A single struct
// backs arrays (Cell elements), binaries/strings (byte elements), and
// hashlists (uint32 probe slots); which backing slice is valid is
// determined by Flavor, matching the teacher's single `node` struct
// carrying a union of concerns selected by a discriminant field.
type Series struct {
	Flavor SeriesFlavor
	Flags  SeriesFlags

	width  int // element width in bytes (cellWidth for arrays/pairing)
	length int // logical element count
	bias   int // unused prefix elements/bytes, for O(1) head removal

	cells []Cell   // valid when Flavor == FlavorArray/FlavorPairing
	bytes []byte   // valid when Flavor in {Binary, String, Symbol}
	hash  []uint32 // valid when Flavor == FlavorHashlist

	codepoints int // FlavorString/Symbol: cached UTF-8 codepoint count

	Link interface{} // flavor-dependent side channel, see spec.md §3.2
	Misc interface{}

	FileName string // set when SerHasFileLine
	FileLine int

	marked bool // GC mark bit for this sweep, see gc.go
}

const cellWidth = 1 // logical unit for array-backed series; Cell is the unit

// growThreshold is the element count above which expand() switches from
// growing to exactly the needed size to power-of-two rounding, matching spec.md's
// "grow geometrically (power-of-two above a threshold)".
const growThreshold = 8

// MakeArray allocates an unmanaged array series with the given capacity.
func MakeArray(capacity int) *Series {
	s := &Series{Flavor: FlavorArray, Flags: SerIsArray, width: cellWidth}
	if capacity > 0 {
		s.cells = make([]Cell, 0, capacity)
	}
	return s
}

// MakeBinary allocates an unmanaged binary series.
func MakeBinary(capacity int) *Series {
	s := &Series{Flavor: FlavorBinary, width: 1}
	if capacity > 0 {
		s.bytes = make([]byte, 0, capacity)
	}
	return s
}

// MakeString allocates an unmanaged UTF-8 string series (spec.md §4.3).
func MakeString(capacity int) *Series {
	s := &Series{Flavor: FlavorString, Flags: SerIsStringNonWord, width: 1}
	if capacity > 0 {
		s.bytes = make([]byte, 0, capacity)
	}
	return s
}

// MakeHashlist allocates a hashlist series sized to n probe slots.
func MakeHashlist(n int) *Series {
	return &Series{Flavor: FlavorHashlist, width: 4, hash: make([]uint32, n), length: n}
}

func (s *Series) Managed() bool     { return s.Flags&SerManaged != 0 }
func (s *Series) DontRelocate() bool { return s.Flags&SerDontRelocate != 0 }
func (s *Series) Inaccessible() bool { return s.Flags&SerInaccessible != 0 }
func (s *Series) Protected() bool   { return s.Flags&SerProtected != 0 }
func (s *Series) Frozen() bool      { return s.Flags&SerFrozen != 0 }

// Manage marks s as GC-tracked; see gc.go for how managed series become
// reachable roots.
func (s *Series) Manage() { s.Flags |= SerManaged }

// Len returns the logical element count (spec.md: "logical length"). For
// string flavors this is the codepoint count, which diverges from the used
// byte size (spec.md §3.2: "these diverge for UTF-8 strings").
func (s *Series) Len() int {
	switch s.Flavor {
	case FlavorBinary:
		return len(s.bytes) - s.bias
	case FlavorString, FlavorSymbol:
		return s.codepoints
	}
	return s.length
}

func (s *Series) usedBytes() int {
	switch s.Flavor {
	case FlavorBinary, FlavorString, FlavorSymbol:
		return len(s.bytes) - s.bias
	}
	return s.length
}

func (s *Series) byteAt(i int) byte { return s.bytes[s.bias+i] }

// roundPow2 rounds n up to the next power of two.
func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// expand grows s so that at least delta more units fit at position at,
// per spec.md §4.1 ("expand(series, at, delta)") and the geometric growth
// policy described there.
func (s *Series) expand(at, delta int) error {
	if s.Inaccessible() {
		return newError("internal", "series-freed", "series was freed or is inaccessible")
	}
	if s.Frozen() || s.Protected() {
		return newError("access", "protected", "series is protected or frozen")
	}
	switch s.Flavor {
	case FlavorArray, FlavorPairing:
		need := len(s.cells) + delta
		cap2 := cap(s.cells)
		if need > cap2 {
			if s.DontRelocate() {
				return newError("internal", "no-relocate", "series cannot be relocated")
			}
			if need > growThreshold {
				cap2 = roundPow2(need)
			} else {
				cap2 = need
			}
			nc := make([]Cell, len(s.cells), cap2)
			copy(nc, s.cells)
			s.cells = nc
		}
		tail := make([]Cell, delta)
		s.cells = append(s.cells[:at], append(tail, s.cells[at:]...)...)
		s.length = len(s.cells)
	case FlavorBinary, FlavorString, FlavorSymbol:
		need := len(s.bytes) + delta
		cap2 := cap(s.bytes)
		if need > cap2 {
			if s.DontRelocate() {
				return newError("internal", "no-relocate", "series cannot be relocated")
			}
			if need > growThreshold {
				cap2 = roundPow2(need)
			} else {
				cap2 = need
			}
			nb := make([]byte, len(s.bytes), cap2)
			copy(nb, s.bytes)
			s.bytes = nb
		}
		tail := make([]byte, delta)
		s.bytes = append(s.bytes[:at], append(tail, s.bytes[at:]...)...)
	default:
		return fmt.Errorf("expand: unsupported flavor %v", s.Flavor)
	}
	return nil
}

// removeUnits deletes n units starting at index at. When at==0 the removal
// is absorbed into bias rather than shifting the buffer, giving O(1) head
// removal as described in spec.md §3.2.
func (s *Series) removeUnits(at, n int) error {
	if s.Inaccessible() {
		return newError("internal", "series-freed", "series was freed or is inaccessible")
	}
	switch s.Flavor {
	case FlavorArray, FlavorPairing:
		if at == 0 {
			s.cells = s.cells[n:]
			s.length = len(s.cells)
			return nil
		}
		s.cells = append(s.cells[:at], s.cells[at+n:]...)
		s.length = len(s.cells)
	case FlavorBinary, FlavorString, FlavorSymbol:
		if at == 0 {
			s.bias += n
		} else {
			s.bytes = append(s.bytes[:s.bias+at], s.bytes[s.bias+at+n:]...)
		}
		if s.Flavor == FlavorString {
			s.codepoints = countCodepoints(s.Bytes())
			invalidateBookmarks(s)
		}
	}
	return nil
}

// term re-syncs an array's logical length with its cell slice (no End cell
// is stored; the slice length marks the end) and is a no-op for
// byte-backed flavors whose length is tracked separately.
// Kept as a named operation to mirror spec.md's explicit "term(series)".
func (s *Series) term() {
	if s.Flavor == FlavorArray || s.Flavor == FlavorPairing {
		s.length = len(s.cells)
	}
}

// AppendCell appends v to an array-flavored series.
func (s *Series) AppendCell(v Cell) error {
	if s.Flavor != FlavorArray && s.Flavor != FlavorPairing {
		return fmt.Errorf("AppendCell: not an array series")
	}
	if err := s.expand(len(s.cells), 1); err != nil {
		return err
	}
	s.cells[len(s.cells)-1] = v
	s.term()
	return nil
}

// At returns the cell at logical index i of an array series.
func (s *Series) At(i int) *Cell {
	if i < 0 || i >= len(s.cells) {
		return nil
	}
	return &s.cells[i]
}

// Cells exposes the backing slice directly for bulk iteration in eval.go.
func (s *Series) Cells() []Cell { return s.cells }

// AppendBytes appends raw bytes to a binary/string series, updating the
// cached codepoint count for string flavors.
func (s *Series) AppendBytes(b []byte) error {
	if s.Flavor != FlavorBinary && s.Flavor != FlavorString && s.Flavor != FlavorSymbol {
		return fmt.Errorf("AppendBytes: not a byte series")
	}
	at := len(s.bytes)
	if err := s.expand(at, len(b)); err != nil {
		return err
	}
	copy(s.bytes[at:], b)
	if s.Flavor == FlavorString || s.Flavor == FlavorSymbol {
		s.codepoints += countCodepoints(b)
		invalidateBookmarks(s)
	}
	return nil
}

// Bytes returns the used byte slice (post-bias) for byte-backed flavors.
func (s *Series) Bytes() []byte {
	switch s.Flavor {
	case FlavorBinary, FlavorString, FlavorSymbol:
		return s.bytes[s.bias:]
	}
	return nil
}

// Copy performs a shallow, pointer-distinct duplication of s, matching
// spec.md §8's "copy (copy v) == copy v ... pointer-distinct, value-equal".
func (s *Series) Copy() *Series {
	ns := &Series{Flavor: s.Flavor, width: s.width, codepoints: s.codepoints}
	switch s.Flavor {
	case FlavorArray, FlavorPairing:
		ns.cells = append([]Cell(nil), s.cells...)
		ns.length = len(ns.cells)
	case FlavorBinary, FlavorString, FlavorSymbol:
		ns.bytes = append([]byte(nil), s.Bytes()...)
		ns.Flags = s.Flags &^ SerManaged
	case FlavorHashlist:
		ns.hash = append([]uint32(nil), s.hash...)
		ns.length = len(ns.hash)
	}
	return ns
}
