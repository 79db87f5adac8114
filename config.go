package threadjit

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xyproto/env/v2"
)

// errUnsupportedPlatform is returned internally by protectExecutable on
// GOOS targets with no mmap/mprotect binding (see mmap_unsupported.go).
var errUnsupportedPlatform = errors.New("threadjit: unsupported platform")

// Verbose turns on the one-line trace that mapPageNear prints to stderr
// each time it maps a page. It defaults to the
// THREADJIT_VERBOSE environment variable, the same env-driven toggle style
// the teacher uses (FLAP_DEBUG in macho.go, VerboseMode elsewhere), but can
// be flipped at runtime by an embedding interpreter.
var Verbose = env.Bool("THREADJIT_VERBOSE", false)

// debugf prints a trace line when Verbose is set. It is not part of the
// one-shot warning path below; it is purely diagnostic chatter for someone
// staring at a dispatch loop that's gone slower than expected.
func debugf(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, "threadjit: "+format+"\n", args...)
	}
}

// warnOnce prints a message to stderr the first time it is reached,
// regardless of Verbose — these are genuine warnings (page size too small,
// JIT pages placed too far from the program image) and not debug noise.
type warnOnce struct {
	once sync.Once
}

func (w *warnOnce) print(format string, args ...any) {
	w.once.Do(func() {
		fmt.Fprintf(os.Stderr, "threadjit: "+format+"\n", args...)
	})
}

var (
	warnSuboptimalPlacement warnOnce
	warnPageTooSmall        warnOnce
)

// assert panics with a descriptive message when cond is false. It marks the
// programmer-error class of failure from spec §7 (negative reserve, a
// splice chunk without the prologue, an out-of-range ARM64 displacement):
// these are bugs in the caller, not runtime conditions to recover from.
// Releasing the same page twice is not detected by any assert.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("threadjit: assertion failed: "+format, args...))
	}
}
