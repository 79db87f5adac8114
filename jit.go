// Package threadjit implements a Just-In-Time function threader: a way to
// assemble, at runtime, small native functions whose body is a
// straight-line sequence of calls to already-compiled functions living
// elsewhere in the same process image, plus an optional tail-chain jump.
//
// The intended caller is an interpreter's dispatch loop. Rather than
// dispatching each virtual instruction through an indirect branch, the
// interpreter precomputes the handlers for a run of virtual instructions
// and threads them into one native function that invokes them back to
// back — no polymorphic branch for the predictor to lose track of.
//
// This package supplies the hard parts only: the executable-page memory
// manager, the per-page cooperative builder, the two-phase staging/commit
// protocol that makes newly written code visible atomically, and the
// x86-64/ARM64 code emitter. The virtual machine, its handler functions,
// and its dispatch loop are the caller's problem.
package threadjit

import (
	"sync"
	"sync/atomic"

	"github.com/xyproto/threadjit/internal/dll"
)

// PageSize is the size, in bytes, of every page this package mmaps. It must
// be a power of two and a multiple of the operating system's page size.
const PageSize = 64 * 1024

// PageAlign is the alignment, in bytes, imposed on every emitted function's
// start offset within a page.
const PageAlign = 16

// PageFit is the threshold below which a page is considered too full to
// bother reusing: if fewer than PageFit bytes remain after a chunk is
// released, the page is retired.
const PageFit = 256

// Jit is a pool of executable pages shared by any number of builder
// threads. The zero value is an empty, enabled pool; NewJit returns one.
type Jit struct {
	mu       sync.Mutex
	disabled atomic.Bool
	brk      uintptr
	pages    dll.List
}

// NewJit creates an empty, enabled pool of JIT pages.
func NewJit() *Jit {
	return &Jit{}
}

// mapPageNearFunc is the seam acquire calls through; tests swap it to
// inject a terminal mmap failure without needing a real one, the same way
// the teacher's test harness swaps fc.out writers for deterministic output.
var mapPageNearFunc = mapPageNear

// Close tears down every page owned by the pool, unmapping their backing
// memory. The caller must ensure no builder threads are outstanding —
// closing a pool with a page still checked out via Start is undefined.
func (j *Jit) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for e := j.pages.First(); e != nil; e = j.pages.First() {
		p := e.Value.(*Page)
		j.pages.Remove(e)
		p.destroy()
	}
}

// Disable permanently stops the pool from handing out new pages. It never
// un-disables; hooks staged before the call continue to be honored as
// their containing pages commit.
func (j *Jit) Disable() {
	j.disabled.Store(true)
}

// Disabled reports whether Disable was called, or whether a prior page
// acquisition failed for a reason other than "address already taken".
func (j *Jit) Disabled() bool {
	return j.disabled.Load()
}

// Hook is a pointer-sized, atomically-published memory cell. A dispatch
// loop reads it with Load; it holds either the staging sentinel the client
// chose at release time (meaning "not threaded yet, fall back to
// interpretation") or the entry address of a committed function. It never
// holds anything in between.
type Hook = atomic.Uintptr

// acquire returns a builder with at least reserve free bytes, or nil if the
// pool is disabled or out of memory. reserve must be positive and no larger
// than a page can ever hold.
func (j *Jit) acquire(reserve int) *Page {
	assert(reserve > 0, "acquire: reserve must be positive, got %d", reserve)
	assert(reserve <= PageSize-64, "acquire: reserve %d too large for a %d byte page", reserve, PageSize)

	j.mu.Lock()
	if j.disabled.Load() {
		j.mu.Unlock()
		return nil
	}

	if e := j.pages.First(); e != nil {
		p := e.Value.(*Page)
		if p.index+reserve <= PageSize {
			j.pages.Remove(e)
			j.mu.Unlock()
			return p
		}
	}

	if j.brk == 0 {
		j.brk = initialBrk()
	}
	hint := j.brk
	j.mu.Unlock()

	// mmap (and, on retry, the address probing that goes with it) must not
	// happen while holding the pool lock: it can block the OS thread for
	// an arbitrary amount of time, and every other builder in the process
	// is waiting on this same mutex to check out or return a page.
	p, nextHint, ok := mapPageNearFunc(hint)
	if !ok {
		j.disabled.Store(true)
		return nil
	}

	j.mu.Lock()
	if nextHint > j.brk {
		j.brk = nextHint
	}
	j.mu.Unlock()

	if distance := addrDistance(p.addr, imageBase()); distance > armDispMax*4/2 {
		warnSuboptimalPlacement.print(
			"mmap returned address %#x that is %d bytes from the program image; "+
				"ARM64 branches to compiled handlers may not reach", p.addr, distance)
	}

	return p
}

func addrDistance(a, b uintptr) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

// reinsert returns p to the pool's free list: at the front if it still has
// room for another chunk, at the back if it's been retired.
func (j *Jit) reinsert(p *Page) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.unlockedReinsert(p)
}
