package threadjit

import "github.com/xyproto/threadjit/internal/dll"

// stage is a pending hook publication: a chunk has been released with a
// non-nil hook, but the OS page containing it hasn't been re-protected
// read-execute yet, so the hook still holds the staging sentinel. Once the
// containing region commits, the stage is published and discarded.
type stage struct {
	elem  dll.Elem
	hook  *Hook
	start int // in-page offset of the function's first byte
	index int // in-page offset just past the function's last byte
}

func newStage(hook *Hook, start, index int) *stage {
	s := &stage{hook: hook, start: start, index: index}
	s.elem.Value = s
	return s
}

// addStage appends a stage in emission order — the commit drain relies on
// this list being sorted by increasing start/index.
func (p *Page) addStage(hook *Hook, start, index int) {
	p.staged.PushBack(&newStage(hook, start, index).elem)
}
