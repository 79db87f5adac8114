package threadjit

// Start begins writing a new function: it acquires a page with room for at
// least one function body and appends the architecture prologue. It
// returns nil if the pool is disabled or out of memory, in which case the
// caller should fall back to its non-threaded path.
func (j *Jit) Start() *Page {
	const reserve = 4096
	p := j.acquire(reserve)
	if p == nil {
		return nil
	}
	if !appendPrologue(p) {
		// Either the page somehow had no room for a bare prologue, or
		// this is the unsupported-ISA stub build — either way there is
		// no function to build here.
		j.Abandon(p)
		return nil
	}
	return p
}

// SetArg sets the value the next Call will pass as its param-th argument
// (0-indexed, six total). It only affects the very next Call; SetArg state
// does not carry across calls.
func (p *Page) SetArg(param int, value uint64) bool {
	assert(param >= 0 && param < 6, "SetArg: param %d out of range [0,6)", param)
	p.setArgMask |= 1 << uint(param)
	return appendSetReg(p, paramRegister(param), value)
}

// Call appends a call to fn. If the caller never set argument zero for
// this call via SetArg, the threaded function's own first argument
// (preserved across calls in a callee-saved register since the prologue)
// is reloaded into it first.
func (p *Page) Call(fn uintptr) bool {
	return appendCall(p, fn)
}

// Jmp appends an unconditional branch to code. Unlike Call this does not
// touch argument zero or setArgMask.
func (p *Page) Jmp(code uintptr) bool {
	return appendJmp(p, code)
}

// SetReg loads an architectural register directly with an immediate value.
// Most callers want SetArg instead; SetReg is the primitive it's built on.
func (p *Page) SetReg(reg int, value uint64) bool {
	return appendSetReg(p, reg, value)
}

// release closes the chunk currently open on p: if hook is non-nil, the
// staging sentinel is published immediately and a stage is queued so that
// the real address follows once the containing OS page commits. The page
// is always returned to the pool, even on failure.
func (j *Jit) release(p *Page, hook *Hook, staging uintptr) uintptr {
	assert(p.index >= p.start, "release: index regressed past start")
	assert(p.start >= p.committed, "release: start regressed past committed")

	var addr uintptr
	if p.index > p.start {
		switch {
		case p.index <= PageSize:
			addr = p.addr + uintptr(p.start)
			p.index = roundUpInt(p.index, PageAlign)
			if hook != nil {
				hook.Store(staging)
				p.addStage(hook, p.start, p.index)
			}
			if p.index+PageFit > PageSize {
				p.index = PageSize
			}
		case p.start != 0:
			addr = 0 // overflowed mid-page; let the caller retry on a fresh chunk
		default:
			warnPageTooSmall.print("PageSize (%d) is too small to hold a single function", PageSize)
			if hook != nil {
				hook.Store(staging)
			}
			addr = 0
		}
		p.start = p.index
		p.commit(systemPageSize())
	}

	j.reinsert(p)
	return addr
}

// Finish appends the architecture epilogue and releases the chunk,
// publishing hook through the staging protocol described on Hook. It
// returns the function's entry address, or 0 if an earlier Append/SetReg/
// Call/Jmp ran out of room.
func (j *Jit) Finish(p *Page, hook *Hook, staging uintptr) uintptr {
	appendEpilogue(p)
	return j.release(p, hook, staging)
}

// Splice finishes a function by having it tail-call into a previously
// finished one, sharing the parent's stack frame instead of emitting a
// second prologue/epilogue. chunk must be the entry address of a function
// this package produced; passing any other address is undefined. If chunk
// is 0, Splice behaves exactly like Finish.
func (j *Jit) Splice(p *Page, hook *Hook, staging uintptr, chunk uintptr) uintptr {
	if chunk == 0 {
		return j.Finish(p, hook, staging)
	}
	assert(chunkHasPrologue(chunk), "Splice: chunk %#x does not start with the function prologue", chunk)
	appendJmp(p, chunk+uintptr(len(prologuePattern)))
	return j.release(p, hook, staging)
}

// Abandon discards everything appended since Start without publishing
// anything, and returns the page to the pool.
func (j *Jit) Abandon(p *Page) {
	p.index = p.start
	j.reinsert(p)
}

func chunkHasPrologue(chunk uintptr) bool {
	got := unsafeBytesAt(chunk, len(prologuePattern))
	for i, b := range prologuePattern {
		if got[i] != b {
			return false
		}
	}
	return true
}
