//go:build !linux && !darwin && !freebsd

package threadjit

// On platforms with no mmap/mprotect binding, the facility degrades to a
// stub that always fails: acquire disables the pool on its first
// call, and the caller falls back to whatever non-threaded path it already
// has. This mirrors blink's own jit.c, which compiles to a ladder of
// always-failing stubs on anything other than x86-64/ARM64.
func mapPageNear(hint uintptr) (p *Page, nextHint uintptr, ok bool) {
	return nil, 0, false
}

func unmapPage(addr uintptr, mem []byte) {}

func protectExecutable(addr uintptr, length int) error {
	return errUnsupportedPlatform
}

func systemPageSize() int {
	return PageSize
}
