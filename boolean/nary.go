package boolean

import (
	"container/heap"
	"sort"
)

// andCursor intersects its children. Children are kept sorted by
// ascending size estimate so the rarest list drives candidate selection;
// the sort is stable with respect to the order the query declared them.
type andCursor struct {
	children []Cursor
	floor    DocID
	cur      DocID
	have     bool
	done     bool
}

func newAnd(children []Cursor) Cursor {
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].EstimateSize() < children[j].EstimateSize()
	})
	return &andCursor{children: children}
}

// advance finds the next document present in every child, starting the
// search at the current floor. All children end up peeked at the match.
func (a *andCursor) advance() {
	cand, ok := a.children[0].SkipTo(a.floor)
	if !ok {
		a.done = true
		return
	}
	i := 1
	for i < len(a.children) {
		doc, ok := a.children[i].SkipTo(cand)
		if !ok {
			a.done = true
			return
		}
		if doc > cand {
			// A child overshot: adopt its document and re-check everyone.
			cand = doc
			i = 0
			continue
		}
		i++
	}
	a.cur = cand
	a.have = true
}

func (a *andCursor) Peek() (DocID, bool) {
	if !a.have && !a.done {
		a.advance()
	}
	if a.done {
		return 0, false
	}
	return a.cur, true
}

func (a *andCursor) Next() (DocID, bool) {
	doc, ok := a.Peek()
	if !ok {
		return 0, false
	}
	a.have = false
	a.floor = doc + 1
	return doc, true
}

func (a *andCursor) SkipTo(target DocID) (DocID, bool) {
	if a.have && a.cur >= target {
		return a.cur, true
	}
	if a.done {
		return 0, false
	}
	if target > a.floor {
		a.floor = target
	}
	a.have = false
	a.advance()
	if a.done {
		return 0, false
	}
	return a.cur, true
}

func (a *andCursor) EstimateSize() int {
	return a.children[0].EstimateSize()
}

func (a *andCursor) Err() error {
	for _, c := range a.children {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

// orHeap orders children by their peeked document id.
type orHeap []Cursor

func (h orHeap) Len() int { return len(h) }

func (h orHeap) Less(i, j int) bool {
	a, _ := h[i].Peek()
	b, _ := h[j].Peek()
	return a < b
}

func (h orHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *orHeap) Push(x any) { *h = append(*h, x.(Cursor)) }

func (h *orHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// orCursor merges its children, emitting the sorted union of their
// documents exactly once each.
type orCursor struct {
	h        orHeap
	children []Cursor
}

func newOr(children []Cursor) Cursor {
	o := &orCursor{children: children}
	for _, c := range children {
		if _, ok := c.Peek(); ok {
			o.h = append(o.h, c)
		}
	}
	heap.Init(&o.h)
	return o
}

func (o *orCursor) Peek() (DocID, bool) {
	if len(o.h) == 0 {
		return 0, false
	}
	return o.h[0].Peek()
}

func (o *orCursor) Next() (DocID, bool) {
	doc, ok := o.Peek()
	if !ok {
		return 0, false
	}
	// Advance every child sitting on the emitted document.
	for len(o.h) > 0 {
		head, _ := o.h[0].Peek()
		if head != doc {
			break
		}
		o.h[0].Next()
		if _, ok := o.h[0].Peek(); ok {
			heap.Fix(&o.h, 0)
		} else {
			heap.Pop(&o.h)
		}
	}
	return doc, true
}

func (o *orCursor) SkipTo(target DocID) (DocID, bool) {
	if doc, ok := o.Peek(); ok && doc >= target {
		return doc, true
	}
	live := o.h[:0]
	for _, c := range o.h {
		if _, ok := c.SkipTo(target); ok {
			live = append(live, c)
		}
	}
	o.h = live
	heap.Init(&o.h)
	return o.Peek()
}

func (o *orCursor) EstimateSize() int {
	total := 0
	for _, c := range o.children {
		total += c.EstimateSize()
	}
	return total
}

func (o *orCursor) Err() error {
	for _, c := range o.children {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}
