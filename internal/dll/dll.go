// Package dll implements the doubly-linked list primitive that the JIT
// pool and its pages use to track membership order. It exists because the
// core deliberately treats list bookkeeping as an external, narrow-interface
// collaborator (see threadjit's design notes) rather than something every
// call site reimplements.
//
// A List is intrusive: callers embed an Elem in the type they want to
// link, and get the owning value back out with Elem.Value. There is no
// allocation beyond what the caller already pays for its own node.
package dll

// Elem is one link in a List. The zero value is not linked into any list.
type Elem struct {
	next, prev *Elem
	list       *List
	Value      any
}

// List is a circular doubly-linked list with a sentinel root element. The
// zero value is an empty list ready to use.
type List struct {
	root Elem
	len  int
}

func (l *List) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.root.list = l
	}
}

// Empty reports whether the list has no elements.
func (l *List) Empty() bool {
	return l.len == 0
}

// Len reports the number of elements in the list.
func (l *List) Len() int {
	return l.len
}

// First returns the first element, or nil if the list is empty.
func (l *List) First() *Elem {
	if l.Empty() {
		return nil
	}
	return l.root.next
}

// Last returns the last element, or nil if the list is empty.
func (l *List) Last() *Elem {
	if l.Empty() {
		return nil
	}
	return l.root.prev
}

// Next returns the element following e, or nil if e is the last element.
func (l *List) Next(e *Elem) *Elem {
	if n := e.next; e.list == l && n != &l.root {
		return n
	}
	return nil
}

func (l *List) insert(e *Elem, at *Elem) *Elem {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++
	return e
}

func (l *List) remove(e *Elem) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

// PushFront links e at the front of the list.
func (l *List) PushFront(e *Elem) *Elem {
	l.lazyInit()
	return l.insert(e, &l.root)
}

// PushBack links e at the back of the list.
func (l *List) PushBack(e *Elem) *Elem {
	l.lazyInit()
	return l.insert(e, l.root.prev)
}

// MoveToFront relinks an already-inserted e to the front of the list.
func (l *List) MoveToFront(e *Elem) {
	if e.list == l && l.root.next == e {
		return
	}
	l.remove(e)
	l.insert(e, &l.root)
}

// Remove unlinks e from the list it belongs to. It is a no-op if e is not
// currently linked into l.
func (l *List) Remove(e *Elem) {
	if e.list == l {
		l.remove(e)
	}
}
