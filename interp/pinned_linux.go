//go:build linux

package interp

import "golang.org/x/sys/unix"

// pinnedAlloc backs dont-relocate buffers (spec.md §3.2, §4.1 "Relocation
// of the data buffer is forbidden when dont-relocate is set, required when
// an external C pointer was handed out") with an anonymous mmap region on
// Linux via golang.org/x/sys/unix, the dependency joshuapare-hivekit (a
// complete pack repo) already pulls in for low-level byte-buffer work —
// see SPEC_FULL.md Domain Stack. An mmap'd region is never moved by Go's
// runtime (it is not part of the Go heap at all), which is exactly the
// stability guarantee a handed-out C pointer needs. Falls back to a plain
// pinned byte slice (pinned_other.go) on non-Linux platforms, since mmap
// syscalls are not portable.
func pinnedAlloc(n int) []byte {
	size := n
	if size == 0 {
		size = 1 // spec.md §8: a zero-sized request still returns a
		// distinct, legally-freeable pointer.
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return make([]byte, n, size)
	}
	return b[:n]
}
