package threadjit

import "reflect"

// imageBase returns an address known to lie inside this process's own
// statically-linked image. Nothing in the Go runtime exposes the true end
// of the image's .bss section the way blink's linker-provided END_OF_IMAGE
// symbol does, so this takes the entry point of a function defined in this
// package as a stand-in — it is guaranteed to sit in the same binary as
// the compiled handlers a dispatch loop will ask us to thread to, which is
// the only property acquire's placement heuristic actually needs.
func imageBase() uintptr {
	return reflect.ValueOf(imageBase).Pointer()
}

// initialBrk computes the first hint acquire tries: a megabyte past the
// image, rounded up to a page boundary, so that 32-bit (x86-64) and 26-bit
// (ARM64) PC-relative displacements to statically compiled handlers have
// the best chance of fitting.
func initialBrk() uintptr {
	const slack = 1024 * 1024
	base := imageBase() + slack
	return roundUp(base, PageSize)
}

func roundUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

func roundDown(v, align uintptr) uintptr {
	return v &^ (align - 1)
}
