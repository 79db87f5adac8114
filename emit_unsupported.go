//go:build !amd64 && !arm64

package threadjit

// On any architecture other than x86-64 or ARM64 the emitter degrades to a
// stub that always fails, matching blink's own #else ladder at the bottom
// of jit.c. prologuePattern is non-empty only so Splice's length-prefixed
// memcmp has something well-defined to compare against; it is never
// actually written anywhere since appendPrologue always reports failure.
var prologuePattern = []byte{0}

func appendPrologue(p *Page) bool            { return false }
func appendEpilogue(p *Page) bool            { return false }
func appendCall(p *Page, fn uintptr) bool    { return false }
func appendJmp(p *Page, code uintptr) bool   { return false }
func appendSetReg(p *Page, reg int, v uint64) bool { return false }
func paramRegister(param int) int            { return param }
