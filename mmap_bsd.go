//go:build darwin || freebsd

package threadjit

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapPageNear maps a fresh PageSize region with read-write protection.
// Darwin and FreeBSD have no MAP_FIXED_NOREPLACE, so hint is advisory only
// — the kernel may return an address far from it, which surfaces later as
// the one-shot "suboptimal placement" warning rather than a retry loop.
func mapPageNear(hint uintptr) (p *Page, nextHint uintptr, ok bool) {
	mem, err := unix.Mmap(-1, 0, PageSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, 0, false
	}
	addr := uintptr(unsafe.Pointer(&mem[0]))
	debugf("mapped page at %#x (hint %#x, no fixed-placement support on this OS)", addr, hint)
	return newPage(addr, mem), addr + PageSize, true
}

func unmapPage(addr uintptr, mem []byte) {
	_ = unix.Munmap(mem)
}

func protectExecutable(addr uintptr, length int) error {
	return unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), unix.PROT_READ|unix.PROT_EXEC)
}

func systemPageSize() int {
	return unix.Getpagesize()
}
