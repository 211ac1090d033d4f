package interp

// Handle is the opaque, lifetime-tagged value foreign code receives from
// the embedding API, spec.md §4.9: "Foreign callers receive only handles —
// opaque cell pointers allocated inside singular arrays." backing is the
// singular array (a one-cell Series) that owns the handle's storage.
type Handle struct {
	backing *Series

	indefinite bool // true => must be explicitly released
	owner      *InvokeFrame // non-nil => auto-released when this frame ends
	released   bool

	buf []byte // raw malloc-family storage, distinct from backing.cells
}

// handleTable tracks every live handle for an Interpreter so owner-frame
// teardown (autoReleaseFrameHandles, called from eval.go after Dispatch)
// can auto-release, and
// so gc.go can walk them as GC roots (spec.md: "every API handle ...
// itself a managed singular array with NODE_FLAG_ROOT").
type handleTable = []*Handle

// NewHandle allocates a handle, indefinite by default (spec.md §4.9
// "indefinite (must be explicitly released)"); call Manage to switch it to
// frame-owned lifetime.
func (interp *Interpreter) NewHandle(initial Cell) *Handle {
	s := MakeArray(1)
	_ = s.AppendCell(initial)
	interp.gc.TrackSeries(s)
	h := &Handle{backing: s, indefinite: true}
	interp.handles = append(interp.handles, h)
	return h
}

// Manage switches h to frame-owned lifetime: it is auto-released when
// owner's InvokeFrame returns (spec.md §4.9 "manage and unmanage toggle
// between these modes").
func (h *Handle) Manage(owner *InvokeFrame) {
	h.indefinite = false
	h.owner = owner
}

// Unmanage switches h back to indefinite lifetime, requiring an explicit
// Release.
func (h *Handle) Unmanage() {
	h.indefinite = true
	h.owner = nil
}

// Release frees h. Releasing an already-released handle is a fatal error
// (spec.md §4.9: "Releasing an already-released handle is a fatal
// error") — modeled as a real Go panic since this is a host programming
// error, not a recoverable script-level fault.
func (h *Handle) Release() {
	if h.released {
		panic("rebol: release of an already-released handle")
	}
	h.released = true
	h.backing.Flags |= SerInaccessible
}

// Value reads the handle's current cell. Using a released handle, or one
// whose owning frame has ended, is a fatal error (spec.md §4.9: "A handle
// may not be used after its owner ends; doing so is a fatal error").
func (h *Handle) Value() Cell {
	if h.released || h.backing.Inaccessible() {
		panic("rebol: use of a released or owner-ended handle")
	}
	return h.backing.cells[0]
}

// autoReleaseFrameHandles releases every frame-owned handle belonging to
// f, called when f's InvokeFrame ends without being reified (spec.md §4.9
// "auto-released when that frame ends").
func (interp *Interpreter) autoReleaseFrameHandles(f *InvokeFrame) {
	for _, h := range interp.handles {
		if !h.released && h.owner == f {
			h.released = true
			h.backing.Flags |= SerInaccessible
		}
	}
}

// --- malloc-family allocator, spec.md §6.1 / §8 boundary behaviors ---

// rebMalloc allocates n bytes and returns a Handle wrapping them. Per
// spec.md §8: "rebMalloc(0) returns a non-null pointer that is legal to
// free and legal to repossess (yielding an empty binary)" — implemented
// here by always allocating a backing byte slice of length n, even when
// n==0, rather than returning a Go nil slice.
func (interp *Interpreter) rebMalloc(n int) *Handle {
	buf := pinnedAlloc(n)
	s := MakeArray(1)
	_ = s.AppendCell(Cell{kind: KindHandle})
	interp.gc.TrackSeries(s)
	h := &Handle{backing: s, indefinite: true, buf: buf}
	interp.handles = append(interp.handles, h)
	return h
}

// rebRealloc grows/shrinks h's buffer. Per spec.md §8:
// "rebRealloc(null, n) == rebMalloc(n)".
func (interp *Interpreter) rebRealloc(h *Handle, n int) *Handle {
	if h == nil {
		return interp.rebMalloc(n)
	}
	nb := pinnedAlloc(n)
	copy(nb, h.buf)
	h.buf = nb
	return h
}

// rebFree releases a malloc-family handle. Per spec.md §8:
// "rebFree(null) is a no-op."
func (interp *Interpreter) rebFree(h *Handle) {
	if h == nil {
		return
	}
	h.Release()
}

// repossess converts a raw rebMalloc'd buffer into a first-class binary!
// value: it copies the first size bytes into a new binary series with
// dont-relocate clear, then releases h. The buffer itself is not adopted
// in place, and the new series has no bias.
func (interp *Interpreter) repossess(h *Handle, size int) Cell {
	s := MakeBinary(size)
	_ = s.AppendBytes(h.buf[:size])
	s.Flags &^= SerDontRelocate
	interp.gc.TrackSeries(s)
	h.Release()
	return Cell{kind: KindBinary, ser: s}
}
