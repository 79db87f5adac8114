package threadjit

import (
	"github.com/xyproto/threadjit/internal/dll"
)

// Page is a single contiguous, naturally-aligned region of executable
// memory, checked out to exactly one builder thread at a time. Three byte
// offsets into the region advance monotonically while it's in use:
//
//	committed ≤ start ≤ index ≤ PageSize (+1 only when poisoned)
//
// committed bytes have already been re-protected read-execute; start marks
// where the chunk currently being assembled began; index is the append
// cursor.
type Page struct {
	elem dll.Elem // linkage into the owning Jit's free-page list

	addr uintptr
	mem  []byte // read-write view of [0, PageSize) while committed < PageSize

	committed int
	start     int
	index     int

	setArgMask uint8 // bit i set => SetArg wrote param i since the last Call
	staged     dll.List
}

func newPage(addr uintptr, mem []byte) *Page {
	p := &Page{addr: addr, mem: mem}
	p.elem.Value = p
	return p
}

func (p *Page) destroy() {
	for e := p.staged.First(); e != nil; e = p.staged.First() {
		p.staged.Remove(e)
	}
	unmapPage(p.addr, p.mem)
}

// Remaining returns the number of bytes that can still be appended to this
// builder, or a negative number once a prior append has overflowed.
func (p *Page) Remaining() int {
	return PageSize - p.index
}

// PC returns the absolute address of the next byte that will be appended —
// the program counter the emitter computes displacements from.
func (p *Page) PC() uintptr {
	return p.addr + uintptr(p.index)
}

// Append copies data onto the page at the current cursor. If there isn't
// room, the cursor is poisoned (set past PageSize) and every subsequent
// Append, SetReg, Call, Jmp or SetArg on this builder also fails; the
// failure is only reported for real once the chunk is released, so callers
// may ignore the return value mid-chunk and check it once at the end.
func (p *Page) Append(data []byte) bool {
	if len(data) <= p.Remaining() {
		copy(p.mem[p.index:], data)
		p.index += len(data)
		return true
	}
	p.index = PageSize + 1
	return false
}
