//go:build arm64

package threadjit

import "encoding/binary"

const (
	armOpJmp    = 0x14000000 // B
	armOpCall   = 0x94000000 // BL
	armOpMovNex = 0xf2800000 // MOVK (keep): sets a 16-bit sub-word, leaves the rest
	armOpMovZex = 0xd2800000 // MOVZ: load imm, zero-extend the rest
	armOpMovSex = 0x92800000 // MOVN: load ones'-complement imm, sign-extend the rest

	armDispMaskW = 0x03ffffff // 26-bit branch displacement, in instructions

	armRegMask = 0x0000001f
	armImmOff  = 5
	armImmMask = 0x001fffe0
	armIdxOff  = 21

	regArgZero  = 0  // first function-call argument per AAPCS64
	regStickyX0 = 19 // callee-saved; holds the threaded function's arg0
)

// prologuePattern is pushed verbatim at the start of every emitted
// function and must be byte-identical across all of them: Splice detects a
// callable chunk by comparing its first bytes against this exact sequence.
//
//	stp x29, x30, [sp, #-32]!   save frame pointer + link register, open frame
//	mov x29, sp                 establish frame pointer
//	str x19, [sp, #16]          save the callee-saved "sticky arg0" register
//	mov x19, x0                 stash arg0
var prologuePattern = leWords(
	0xa9be7bfd,
	0x910003fd,
	0xf9000bf3,
	0xaa0003f3,
)

var epilogueBytes = leWords(
	0xf9400bf3, // ldr x19, [sp, #16]
	0xa8c27bfd, // ldp x29, x30, [sp], #32
	0xd65f03c0, // ret
)

func leWords(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

func appendPrologue(p *Page) bool { return p.Append(prologuePattern) }
func appendEpilogue(p *Page) bool { return p.Append(epilogueBytes) }

// paramRegister maps a 0-indexed call argument to its AAPCS64 register
// (X0..X5).
func paramRegister(param int) int {
	return param
}

func appendMovReg(p *Page, dst, src int) bool {
	word := uint32(0xaa0003e0) | uint32(src)<<16 | uint32(dst)
	return p.Append(leWords(word))
}

// appendCall emits a BL to fn. If the caller hasn't set argument zero for
// this call (setArgMask bit 0 clear), it first reloads it from the
// callee-saved register the prologue stashed it in. The displacement is
// required to fit in ARM64's 26-bit signed word offset — the pool's
// placement heuristic (acquire mapping new pages near the program
// image) makes that the normal case, and anything else is a programmer or
// deployment error, not a recoverable one.
func appendCall(p *Page, fn uintptr) bool {
	if p.setArgMask&1 == 0 {
		appendMovReg(p, regArgZero, regStickyX0)
	}
	p.setArgMask = 0

	disp := (int64(fn) - int64(p.PC())) >> 2
	assert(disp >= armDispMin && disp <= armDispMax, "appendCall: displacement to %#x out of ARM64 range", fn)
	word := uint32(armOpCall) | uint32(disp)&armDispMaskW
	return p.Append(leWords(word))
}

// appendJmp emits an unconditional B to code, using the same displacement
// arithmetic as appendCall.
func appendJmp(p *Page, code uintptr) bool {
	disp := (int64(code) - int64(p.PC())) >> 2
	assert(disp >= armDispMin && disp <= armDispMax, "appendJmp: displacement to %#x out of ARM64 range", code)
	word := uint32(armOpJmp) | uint32(disp)&armDispMaskW
	return p.Append(leWords(word))
}

// appendSetReg loads value into reg (X0..X30). A small negative value that
// sign-extends from 16 bits is loaded with a single MOVN; anything else is
// built from a MOVZ on the first nonzero 16-bit chunk followed by a MOVK
// for each subsequent nonzero chunk, 1-4 instructions in total.
func appendSetReg(p *Page, reg int, value uint64) bool {
	if int64(value) < 0 && int64(value) >= -0x8000 {
		word := uint32(armOpMovSex) | (^uint32(value))<<armImmOff | uint32(reg)
		return p.Append(leWords(word))
	}

	var words []uint32
	op := uint32(armOpMovZex)
	idx := uint32(0)
	v := value
	for v != 0 && v&0xffff == 0 {
		v >>= 16
		idx++
	}
	for {
		if chunk := v & 0xffff; chunk != 0 || len(words) == 0 {
			word := op | uint32(chunk)<<armImmOff | uint32(reg) | idx<<armIdxOff
			words = append(words, word)
			op = armOpMovNex
		}
		idx++
		v >>= 16
		if v == 0 {
			break
		}
	}
	return p.Append(leWords(words...))
}
