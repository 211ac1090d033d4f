package interp

import "unicode/utf8"

// bookmark is a single (codepointIndex, byteOffset) snapshot cached on a
// string series, spec.md §4.3. Bookmarks are unmanaged siblings of the
// string they annotate and are never marked by the GC (spec.md §4.8).
type bookmark struct {
	codepoint int
	byteOff   int
	next      *bookmark
}

// bookmarkChain lives in Series.Link for FlavorString series (never for
// FlavorSymbol — "a string that is a symbol never owns bookmarks").
type bookmarkChain struct {
	head *bookmark // most recently recorded bookmark first
}

const maxBookmarks = 16

func countCodepoints(b []byte) int {
	n := 0
	for i := 0; i < len(b); {
		_, size := utf8.DecodeRune(b[i:])
		if size == 0 {
			size = 1
		}
		i += size
		n++
	}
	return n
}

// invalidateBookmarks drops cached bookmarks after a mutation, since any
// insert/remove shifts byte offsets downstream of the edit point. A more
// surgical implementation could shift only bookmarks after the edit; this
// trades a little amortization for correctness simplicity, which is safe
// because pick/poke always repopulate nearby bookmarks lazily.
func invalidateBookmarks(s *Series) {
	if s.Flavor != FlavorString {
		return
	}
	s.Link = nil
}

func chainOf(s *Series) *bookmarkChain {
	if s.Flavor != FlavorString {
		return nil
	}
	bc, _ := s.Link.(*bookmarkChain)
	if bc == nil {
		bc = &bookmarkChain{}
		s.Link = bc
	}
	return bc
}

// byteOffsetForCodepoint translates a 0-based codepoint index to a byte
// offset, scanning forward/back from the nearest cached bookmark (head,
// tail, or interior) rather than always from byte zero — the O(1)-
// amortized indexing promised in spec.md §4.3 and exercised by the
// end-to-end scenario in spec.md §8 item 5.
func byteOffsetForCodepoint(s *Series, cp int) int {
	data := s.Bytes()
	if cp <= 0 {
		return 0
	}
	if s.Flavor != FlavorString {
		// Symbols (and any other byte series) never cache bookmarks;
		// fall back to a linear scan from the start.
		return scanForward(data, 0, 0, cp)
	}
	bc := chainOf(s)
	best := &bookmark{codepoint: 0, byteOff: 0}
	bestDist := cp
	for b := bc.head; b != nil; b = b.next {
		d := cp - b.codepoint
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	// Also consider the tail, approximated by total codepoint count.
	if tailDist := s.codepoints - cp; tailDist >= 0 && tailDist < bestDist {
		off := scanBackward(data, len(data), s.codepoints, cp)
		recordBookmark(s, cp, off)
		return off
	}
	var off int
	if best.codepoint <= cp {
		off = scanForward(data, best.byteOff, best.codepoint, cp)
	} else {
		off = scanBackward(data, best.byteOff, best.codepoint, cp)
	}
	recordBookmark(s, cp, off)
	return off
}

func scanForward(data []byte, fromByte, fromCP, toCP int) int {
	i, cp := fromByte, fromCP
	for cp < toCP && i < len(data) {
		_, size := utf8.DecodeRune(data[i:])
		if size == 0 {
			size = 1
		}
		i += size
		cp++
	}
	return i
}

func scanBackward(data []byte, fromByte, fromCP, toCP int) int {
	i, cp := fromByte, fromCP
	for cp > toCP && i > 0 {
		_, size := utf8.DecodeLastRune(data[:i])
		if size == 0 {
			size = 1
		}
		i -= size
		cp--
	}
	return i
}

// recordBookmark caches (cp, byteOff) on s, bounding the chain length so a
// pathological pattern of indices cannot grow it unboundedly.
func recordBookmark(s *Series, cp, byteOff int) {
	if s.Flavor != FlavorString {
		return
	}
	bc := chainOf(s)
	n := 0
	for b := bc.head; b != nil; b = b.next {
		if b.codepoint == cp {
			b.byteOff = byteOff
			return
		}
		n++
	}
	nb := &bookmark{codepoint: cp, byteOff: byteOff, next: bc.head}
	bc.head = nb
	if n+1 > maxBookmarks {
		// Drop the oldest (tail of the singly-linked list).
		prev := bc.head
		for i := 0; i < maxBookmarks-1 && prev.next != nil; i++ {
			prev = prev.next
		}
		prev.next = nil
	}
}

// Text builds a text! cell backed by a fresh, unmanaged string series.
func Text(s string) Cell {
	ser := MakeString(len(s))
	_ = ser.AppendBytes([]byte(s))
	return Cell{kind: KindText, ser: ser}
}

// GoString returns the Go string view of a text-like cell's series.
func (c *Cell) GoString() string {
	if c.ser == nil {
		return ""
	}
	return string(c.ser.Bytes())
}

// PickCodepoint returns the rune at 1-based Rebol index idx within a
// text-like cell, matching the "pick" scenario of spec.md §8 item 5.
func PickCodepoint(c *Cell, idx int) (rune, bool) {
	if c.ser == nil || idx < 1 || idx > c.ser.codepoints {
		return 0, false
	}
	off := byteOffsetForCodepoint(c.ser, idx-1)
	r, _ := utf8.DecodeRune(c.ser.Bytes()[off:])
	return r, true
}

// CodepointLen returns the cached codepoint count of a text-like series.
func (s *Series) CodepointLen() int { return s.codepoints }
