//go:build amd64

package threadjit

// x86-64 register numbers, in the order the ModRM/REX encoding expects
// them (0..7 native, 8..15 via REX.B/REX.R). Only the ones this emitter
// actually names get symbolic constants; the rest are reached through
// paramRegister/appendSetReg's plain integer argument.
const (
	regAX = 0 // first return value
	regCX = 1
	regDX = 2
	regBX = 3 // callee-saved scratch; holds the threaded function's arg0
	regSP = 4
	regBP = 5
	regSI = 6
	regDI = 7 // first function-call argument per the SysV ABI
)

const (
	opXor    = 0x31
	opJmp    = 0xe9
	opCall   = 0xe8
	opMovImm = 0xb8 // + reg, one-byte opcode family for MOV r64, imm

	rex   = 0x40 // turns ah/ch/dh/bh into spl/bpl/sil/dil
	rexB  = 0x41 // extends the r/m (or opcode-embedded reg) field to r8..r15
	rexR  = 0x44 // extends the reg field of ModRM to r8..r15
	rexW  = 0x48 // makes the instruction operate on 64 bits

	dispMin = -1 << 31
	dispMax = 1<<31 - 1
)

// prologuePattern is pushed verbatim at the start of every emitted
// function and must be byte-identical across all of them: Splice detects a
// callable chunk by comparing its first bytes against this exact sequence.
//
//	push %rbp
//	mov  %rsp, %rbp
//	push %rbx
//	push %rbx          (padding, keeps the stack 16-byte aligned post-call)
//	mov  %rdi, %rbx    (stash arg0 so later calls can reload it)
var prologuePattern = []byte{
	0x55,
	0x48, 0x89, 0xe5,
	0x53,
	0x53,
	0x48, 0x89, 0xfb,
}

var epilogueBytes = []byte{
	0x48, 0x8b, 0x5d, 0xf8, // mov -0x8(%rbp), %rbx
	0xc9, // leave
	0xc3, // ret
}

func appendPrologue(p *Page) bool { return p.Append(prologuePattern) }
func appendEpilogue(p *Page) bool { return p.Append(epilogueBytes) }

// paramRegister maps a 0-indexed call argument to its SysV ABI register,
// using this file's register numbering.
func paramRegister(param int) int {
	return [6]int{regDI, regSI, regDX, regCX, 8, 9}[param]
}

func appendMovReg(p *Page, dst, src int) bool {
	buf := [3]byte{
		rexW | regExtBit(dst, rexR) | regExtBit(src, rexB),
		0x89,
		0300 | byte(src&7)<<3 | byte(dst&7),
	}
	return p.Append(buf[:])
}

func regExtBit(reg int, bit byte) byte {
	if reg&8 != 0 {
		return bit
	}
	return 0
}

// appendCall emits a call to fn. If the caller hasn't set argument zero for
// this call (setArgMask bit 0 clear), it first reloads it from the
// callee-saved register the prologue stashed it in.
func appendCall(p *Page, fn uintptr) bool {
	if p.setArgMask&1 == 0 {
		appendMovReg(p, regDI, regBX)
	}
	p.setArgMask = 0

	disp := int64(fn) - int64(p.PC()) - 5
	if disp >= dispMin && disp <= dispMax {
		var buf [5]byte
		buf[0] = opCall
		putLE32(buf[1:], uint32(disp))
		return p.Append(buf[:])
	}
	appendSetReg(p, regAX, uint64(fn))
	return p.Append([]byte{0xff, 0xd0}) // call *%rax
}

// appendJmp emits an unconditional branch to code, using the same
// short-vs-indirect displacement logic as appendCall.
func appendJmp(p *Page, code uintptr) bool {
	disp := int64(code) - int64(p.PC()) - 5
	if disp >= dispMin && disp <= dispMax {
		var buf [5]byte
		buf[0] = opJmp
		putLE32(buf[1:], uint32(disp))
		return p.Append(buf[:])
	}
	appendSetReg(p, regAX, uint64(code))
	return p.Append([]byte{0xff, 0xe0}) // jmp *%rax
}

// appendSetReg loads value into reg. Zero is special-cased to an XOR,
// which is both shorter and avoids a false dependency on the register's
// previous value; otherwise it picks the 32-bit or 64-bit MOV immediate
// form depending on whether value's upper half is nonzero.
func appendSetReg(p *Page, reg int, value uint64) bool {
	var buf [10]byte
	n := 0
	var r byte
	if reg&8 != 0 {
		r |= rexB
	}
	if value == 0 {
		if reg&8 != 0 {
			r |= rexR
		}
		if r != 0 {
			buf[n] = r
			n++
		}
		buf[n] = opXor
		n++
		buf[n] = 0300 | byte(reg&7)<<3 | byte(reg&7)
		n++
		return p.Append(buf[:n])
	}
	if value > 0xffffffff {
		r |= rexW
	}
	if r != 0 {
		buf[n] = r
		n++
	}
	buf[n] = opMovImm | byte(reg&7)
	n++
	if r&rexW == 0 {
		putLE32(buf[n:], uint32(value))
		n += 4
	} else {
		putLE64(buf[n:], value)
		n += 8
	}
	return p.Append(buf[:n])
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
