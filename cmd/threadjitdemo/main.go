// Command threadjitdemo threads two leaf handlers into one native function
// and calls it, demonstrating the full Start/SetArg/Call/Finish/Flush round
// trip a dispatch loop would use.
package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/xyproto/threadjit"
	"github.com/xyproto/threadjit/internal/nativecall"
)

func main() {
	j := threadjit.NewJit()
	defer j.Close()

	incr := reflect.ValueOf(nativecall.Incr).Pointer()
	double := reflect.ValueOf(nativecall.Double).Pointer()

	p := j.Start()
	if p == nil {
		fmt.Fprintln(os.Stderr, "threadjitdemo: pool disabled or out of memory")
		os.Exit(1)
	}

	// Each Call's argument is explicit: SetArg overrides argument zero for
	// only the next Call, so this threads incr(41) followed by an
	// unrelated double(42) rather than composing their return values —
	// that's the handler's own job if it wants one, same as in a real
	// dispatch loop where each opcode handler takes the VM's state
	// pointer, not the previous handler's return value.
	p.SetArg(0, 41)
	p.Call(incr) // 41 -> 42, discarded

	p.SetArg(0, 42)
	p.Call(double) // 42 -> 84, becomes the threaded function's result

	var hook threadjit.Hook
	const staging = 0 // sentinel meaning "not threaded yet"
	hook.Store(staging)

	entry := j.Finish(p, &hook, staging)
	if entry == 0 {
		fmt.Fprintln(os.Stderr, "threadjitdemo: chunk did not fit, would fall back to interpretation")
		os.Exit(1)
	}

	if n := j.Flush(); n > 0 {
		fmt.Printf("committed %d staged hook(s)\n", n)
	}

	addr := hook.Load()
	if addr == staging {
		fmt.Fprintln(os.Stderr, "threadjitdemo: hook never committed")
		os.Exit(1)
	}

	result := nativecall.Call1(addr, 0) // arg0 unused: every Call above set it explicitly
	fmt.Printf("threaded incr(41) ; double(42) -> %d\n", result)
}
