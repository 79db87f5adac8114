//go:build linux

package threadjit

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapPageNear maps a fresh, zeroed PageSize region at or after hint with
// read-write protection and returns it along with the next hint a
// subsequent call should try. ok is false only on a terminal error; the
// caller is responsible for disabling the pool in that case.
//
// golang.org/x/sys/unix.Mmap doesn't let the caller propose an address, so
// — same as the raw mmap(2) syscalls the teacher's own codegen emits for
// its target programs' arena allocator (arena.go, codegen.go) — this goes
// straight to the syscall with MAP_FIXED_NOREPLACE, which either honors the
// exact address or fails with EEXIST. On EEXIST we bump the hint by one
// page and retry, the same recovery AcquireJit's reference design uses,
// rather than silently accepting whatever address the kernel would
// otherwise have chosen.
func mapPageNear(hint uintptr) (p *Page, nextHint uintptr, ok bool) {
	const flags = unix.MAP_PRIVATE | unix.MAP_ANONYMOUS | unix.MAP_FIXED_NOREPLACE
	for {
		r1, _, errno := unix.Syscall6(unix.SYS_MMAP, hint, PageSize,
			unix.PROT_READ|unix.PROT_WRITE, flags, ^uintptr(0), 0)
		if errno == 0 {
			addr := r1
			mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), PageSize)
			debugf("mapped page at %#x (hint %#x)", addr, hint)
			return newPage(addr, mem), addr + PageSize, true
		}
		if errno == unix.EEXIST {
			hint += PageSize
			continue
		}
		return nil, 0, false
	}
}

func unmapPage(addr uintptr, mem []byte) {
	_, _, _ = unix.Syscall(unix.SYS_MUNMAP, addr, PageSize, 0)
	_ = mem
}

func protectExecutable(addr uintptr, length int) error {
	return unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), unix.PROT_READ|unix.PROT_EXEC)
}

func systemPageSize() int {
	return unix.Getpagesize()
}
