package threadjit

import (
	"reflect"
	"testing"

	"github.com/xyproto/threadjit/internal/nativecall"
)

var (
	incrAddr   = reflect.ValueOf(nativecall.Incr).Pointer()
	doubleAddr = reflect.ValueOf(nativecall.Double).Pointer()
)

// TestRoundTripSingleCall covers scenario 1: a function threading a single
// call is invoked and its callee's return value comes back unmodified,
// using the argument the threaded function itself was called with.
func TestRoundTripSingleCall(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}
	if !p.Call(incrAddr) {
		t.Fatal("Call failed")
	}

	var hook Hook
	const sentinel = 0xdead
	hook.Store(sentinel)

	entry := j.Finish(p, &hook, sentinel)
	if entry == 0 {
		t.Fatal("Finish reported failure")
	}
	if got := hook.Load(); got != sentinel {
		t.Fatalf("hook before Flush = %#x, want sentinel %#x", got, sentinel)
	}

	j.Flush()
	if got := hook.Load(); got != entry {
		t.Fatalf("hook after Flush = %#x, want entry %#x", got, entry)
	}

	if got, want := nativecall.Call1(hook.Load(), 7), uintptr(8); got != want {
		t.Fatalf("threaded incr(7) = %d, want %d", got, want)
	}
}

// TestTwoCallExplicitArg covers scenario 2: an explicit SetArg overrides
// only the call that immediately follows it; a later Call with no SetArg
// falls back to the threaded function's own first argument.
func TestTwoCallExplicitArg(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}
	p.SetArg(0, 0x1234)
	if !p.Call(incrAddr) { // incr(0x1234), discarded
		t.Fatal("Call(incr) failed")
	}
	if !p.Call(doubleAddr) { // double(restored arg0)
		t.Fatal("Call(double) failed")
	}

	var hook Hook
	hook.Store(0)
	entry := j.Finish(p, &hook, 0)
	if entry == 0 {
		t.Fatal("Finish reported failure")
	}
	j.Flush()

	if got, want := nativecall.Call1(hook.Load(), 21), uintptr(42); got != want {
		t.Fatalf("threaded function(21) = %d, want %d (double of the caller's own arg0)", got, want)
	}
}

// TestOverflowRecovery covers scenario 3: a chunk that overflows its page
// fails Finish cleanly, leaves the hook untouched, and doesn't wedge the
// pool for the next builder.
func TestOverflowRecovery(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}

	chunk := make([]byte, 4096)
	for p.Append(chunk) {
	}
	if p.index <= PageSize {
		t.Fatalf("index after overflow = %d, want > %d", p.index, PageSize)
	}

	var hook Hook
	const sentinel = 0xbeef
	hook.Store(sentinel)
	if addr := j.Finish(p, &hook, sentinel); addr != 0 {
		t.Fatalf("Finish on an overflowed chunk returned %#x, want 0", addr)
	}
	if got := hook.Load(); got != sentinel {
		t.Fatalf("hook after overflowed Finish = %#x, want sentinel %#x", got, sentinel)
	}

	p2 := j.Start()
	if p2 == nil {
		t.Fatal("Start after an overflow failed to hand out a fresh page")
	}
	j.Abandon(p2)
}

// TestSpliceChain covers scenario 4: F1 executes its own body, tail-jumps
// into F2 past F2's prologue, and F2's epilogue returns directly to F1's
// caller.
func TestSpliceChain(t *testing.T) {
	j := NewJit()
	defer j.Close()

	// F2: double(100), regardless of who jumps into it.
	f2 := j.Start()
	if f2 == nil {
		t.Fatal("Start (f2) returned nil")
	}
	f2.SetArg(0, 100)
	if !f2.Call(doubleAddr) {
		t.Fatal("Call(double) on f2 failed")
	}
	var hook2 Hook
	hook2.Store(0)
	entry2 := j.Finish(f2, &hook2, 0)
	if entry2 == 0 {
		t.Fatal("Finish (f2) reported failure")
	}

	// F1: calls incr (discarded), then tail-jumps into F2's body.
	f1 := j.Start()
	if f1 == nil {
		t.Fatal("Start (f1) returned nil")
	}
	f1.SetArg(0, 7)
	if !f1.Call(incrAddr) {
		t.Fatal("Call(incr) on f1 failed")
	}
	var hook1 Hook
	hook1.Store(0)
	entry1 := j.Splice(f1, &hook1, 0, entry2)
	if entry1 == 0 {
		t.Fatal("Splice (f1) reported failure")
	}

	j.Flush()

	if got, want := nativecall.Call1(hook1.Load(), 0), uintptr(200); got != want {
		t.Fatalf("spliced f1() = %d, want %d (f2's double(100), reached via tail jump)", got, want)
	}
}

// TestDisableOnMmapFailure covers scenario 5: a terminal mmap failure
// disables the pool permanently but never revokes a hook already
// published before the failure.
func TestDisableOnMmapFailure(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}
	if !p.Call(incrAddr) {
		t.Fatal("Call failed")
	}
	var hook Hook
	hook.Store(0)
	entry := j.Finish(p, &hook, 0)
	if entry == 0 {
		t.Fatal("Finish reported failure")
	}
	j.Flush()
	published := hook.Load()
	if published != entry {
		t.Fatalf("hook after Flush = %#x, want entry %#x", published, entry)
	}

	// Mark the page that's sitting in the free list as full so the next
	// acquire has no choice but to try mapping a fresh one.
	p.index = PageSize

	old := mapPageNearFunc
	mapPageNearFunc = func(hint uintptr) (*Page, uintptr, bool) { return nil, 0, false }
	defer func() { mapPageNearFunc = old }()

	if got := j.acquire(PageSize - 128); got != nil {
		t.Fatal("acquire succeeded despite an injected mmap failure")
	}
	if !j.Disabled() {
		t.Fatal("pool did not disable itself after a terminal mmap failure")
	}

	if got := hook.Load(); got != published {
		t.Fatalf("previously published hook changed after disable: got %#x, want %#x", got, published)
	}
	if got, want := nativecall.Call1(hook.Load(), 41), uintptr(42); got != want {
		t.Fatalf("previously published hook no longer callable: incr(41) = %d, want %d", got, want)
	}
}
