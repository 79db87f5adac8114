package threadjit

import "testing"

func TestFinishThenFlushCommitsHook(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}
	p.SetArg(0, 1)
	if !p.Call(testHandler) {
		t.Fatal("Call failed")
	}

	var hook Hook
	const staging = 0x2
	hook.Store(staging)

	entry := j.Finish(p, &hook, staging)
	if entry == 0 {
		t.Fatal("Finish reported failure on a tiny chunk in a fresh page")
	}

	if got := hook.Load(); got != staging {
		t.Fatalf("hook committed before Flush: got %#x, want staging sentinel %#x", got, staging)
	}

	j.Flush()

	if got := hook.Load(); got != entry {
		t.Fatalf("hook after Flush = %#x, want entry address %#x", got, entry)
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	j := NewJit()
	defer j.Close()

	p := j.Start()
	if p == nil {
		t.Fatal("Start returned nil")
	}
	var hook Hook
	hook.Store(0)
	if j.Finish(p, &hook, 0) == 0 {
		t.Fatal("Finish reported failure")
	}

	first := j.Flush()
	if first == 0 {
		t.Fatal("first Flush committed nothing")
	}
	second := j.Flush()
	if second != 0 {
		t.Fatalf("second Flush committed %d more hooks, want 0", second)
	}
}

func TestFlushWithNothingStagedIsNoop(t *testing.T) {
	j := NewJit()
	defer j.Close()
	if n := j.Flush(); n != 0 {
		t.Fatalf("Flush on an empty pool committed %d, want 0", n)
	}
}
