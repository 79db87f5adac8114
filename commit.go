package threadjit

// commit re-protects any newly-finished whole OS pages within this builder
// as read-execute, then publishes every staged hook whose function now
// lies entirely within the committed prefix. It must only be called with
// start == index (no chunk open) and returns the number of hooks
// published.
//
// Two requirements, named in the design notes, fall out of doing this in
// one place: some operating systems enforce write-xor-execute, so a region
// must never be simultaneously writable and executable; and on ARM64,
// instruction-cache maintenance for freshly written code happens as a side
// effect of the same mprotect call that makes it executable. Neither
// requirement is satisfied unless a hook is never published before its
// backing region has made this transition.
func (p *Page) commit(pagesize int) int {
	assert(p.start == p.index, "commit: page has an open chunk")
	assert(p.committed%pagesize == 0, "commit: committed offset not page-aligned")

	pageoff := roundDownInt(p.start, pagesize)
	if pageoff <= p.committed {
		return 0
	}

	if err := protectExecutable(p.addr+uintptr(p.committed), pageoff-p.committed); err != nil {
		// The region stays read-write; hooks in it remain staged at their
		// sentinel value and will be retried on the next commit attempt
		// (a subsequent release or Flush on this same page).
		return 0
	}

	count := 0
	for e := p.staged.First(); e != nil; e = p.staged.First() {
		s := e.Value.(*stage)
		if s.index > pageoff {
			break // list is emission-ordered; later stages aren't ready either
		}
		s.hook.Store(p.addr + uintptr(s.start))
		p.staged.Remove(e)
		count++
	}
	p.committed = pageoff
	return count
}

func roundDownInt(v, align int) int {
	return v &^ (align - 1)
}

func roundUpInt(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

// Flush forces commit of every page in the pool that has staged but
// uncommitted hooks, returning the total number of hooks published. For
// each such page it advances start up to the next OS-page boundary past
// the last stage's end — wasting the remainder of the current OS page so
// that it can be protected — then commits and reinserts it.
//
// The pool lock is released while a single page is being committed and the
// scan restarts from the front, so a concurrent Start/Call/Finish sequence
// on another page is never blocked behind a Flush.
func (j *Jit) Flush() int {
	pagesize := systemPageSize()
	count := 0

	j.mu.Lock()
	for {
		var target *Page
		for e := j.pages.First(); e != nil; e = j.pages.Next(e) {
			cand := e.Value.(*Page)
			if cand.start >= PageSize {
				break // free list is ordered with full pages at the back
			}
			if !cand.staged.Empty() {
				j.pages.Remove(e)
				target = cand
				break
			}
		}
		if target == nil {
			break
		}
		j.mu.Unlock()

		last := target.staged.Last().Value.(*stage)
		target.start = roundUpInt(last.index, pagesize)
		target.index = target.start
		count += target.commit(pagesize)

		j.mu.Lock()
		j.unlockedReinsert(target)
	}
	j.mu.Unlock()
	return count
}

// unlockedReinsert is reinsert's body for callers that already hold j.mu.
func (j *Jit) unlockedReinsert(p *Page) {
	assert(p.start == p.index, "reinsert: page has an open chunk")
	if p.index < PageSize {
		j.pages.PushFront(&p.elem)
	} else {
		j.pages.PushBack(&p.elem)
	}
}
