package threadjit

import (
	"sync"
	"testing"
)

func TestNewJitStartsEnabled(t *testing.T) {
	j := NewJit()
	defer j.Close()
	if j.Disabled() {
		t.Fatal("a fresh pool reports Disabled()")
	}
}

func TestDisableIsPermanent(t *testing.T) {
	j := NewJit()
	defer j.Close()
	j.Disable()
	if !j.Disabled() {
		t.Fatal("Disable did not stick")
	}
	if p := j.Start(); p != nil {
		t.Fatal("Start returned a page from a disabled pool")
	}
	// Disabling twice is a no-op, not a panic.
	j.Disable()
	if !j.Disabled() {
		t.Fatal("Disabled() flipped back after a second Disable call")
	}
}

func TestAcquireReusesFreePage(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p1 := j.acquire(64)
	if p1 == nil {
		t.Fatal("first acquire returned nil")
	}
	j.reinsert(p1)

	p2 := j.acquire(64)
	if p2 != p1 {
		t.Fatalf("acquire(64) after reinsert got a different page (addr %#x vs %#x), want reuse", p2.addr, p1.addr)
	}
	j.reinsert(p2)
}

func TestAcquireMapsFreshPageWhenNoneFits(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p1 := j.acquire(PageSize - 128)
	if p1 == nil {
		t.Fatal("first acquire returned nil")
	}
	p1.start = PageSize - 64 // leave less room than the next reserve needs
	p1.index = p1.start
	j.reinsert(p1)

	p2 := j.acquire(256)
	if p2 == nil {
		t.Fatal("second acquire returned nil")
	}
	if p2 == p1 {
		t.Fatal("acquire reused a page that didn't have enough room left")
	}
	j.reinsert(p2)
}

func TestHookStartsAtStagingSentinel(t *testing.T) {
	var h Hook
	const staging = 0x1
	h.Store(staging)
	if got := h.Load(); got != staging {
		t.Fatalf("Hook.Load() = %#x, want %#x", got, staging)
	}
}

func TestConcurrentAcquireReinsertDoesNotRace(t *testing.T) {
	j := NewJit()
	defer j.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				p := j.acquire(512)
				if p == nil {
					return
				}
				j.reinsert(p)
			}
		}()
	}
	wg.Wait()
}
