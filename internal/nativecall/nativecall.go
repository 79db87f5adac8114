// Package nativecall supplies the minimum a demonstration or test needs to
// invoke a raw machine-code entry point from Go: a single-argument call
// trampoline per architecture, hand-written in assembly because no library
// in the examined corpus exposes "call this address as a plain C function"
// — the corpus's own JIT-adjacent code (the teacher's syscall-emitting
// codegen, the pack's wazero/sonic assemblers) always calls into code *it*
// generated from *its own* process, never an arbitrary foreign address from
// a pure Go caller.
package nativecall

import "reflect"

// FuncPC returns the entry address of a plain, top-level Go function
// value — the same address-of-a-compiled-function trick any embedder needs
// to feed (*threadjit.Page).Call. The demo and tests do not call it; they
// use reflect.ValueOf(...).Pointer() directly.
func FuncPC(f func()) uintptr {
	return reflect.ValueOf(f).Pointer()
}
