//go:build amd64 || arm64

package nativecall

// Call1 invokes the function at fn as if it had Go signature
// func(uintptr) uintptr, passing arg0 in the first integer argument
// register and returning the callee's first return register. fn must
// follow the platform's C calling convention — exactly what this
// package's sibling, threadjit, guarantees for everything it emits.
func Call1(fn uintptr, arg0 uintptr) uintptr

// Incr and Double are small leaf functions implemented directly in
// per-architecture assembly, following the same calling convention as
// Call1's target. They exist only so a demo or test has something
// "already compiled elsewhere in the image" to thread together, the role
// a real embedder's opcode handlers would play.
func Incr(n uintptr) uintptr

func Double(n uintptr) uintptr
