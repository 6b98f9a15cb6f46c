package boolean

import (
	"sort"

	"github.com/CurrySoftware/perlin/postings"
)

// positionalChild pairs an atom cursor with its offset relative to the
// phrase start.
type positionalChild struct {
	r      *postings.Reader
	offset uint32
}

// positionalCursor intersects its children on document ids, then checks
// that the children's occurrence positions line up with the configured
// offsets. A document is emitted at most once however many phrase
// occurrences it holds. The two intersection buffers are reused across
// documents.
type positionalCursor struct {
	children []positionalChild
	floor    DocID
	cur      DocID
	have     bool
	done     bool
	work     []postings.Position
	scratch  []postings.Position
}

func newPositional(children []positionalChild) Cursor {
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].r.EstimateSize() < children[j].r.EstimateSize()
	})
	return &positionalCursor{children: children}
}

// align appends child's positions shifted back by its offset, so a phrase
// starting at position s contributes s from every matching child.
func (p *positionalCursor) align(dst []postings.Position, c positionalChild) []postings.Position {
	for _, pos := range c.r.Positions() {
		if uint32(pos) >= c.offset {
			dst = append(dst, pos-postings.Position(c.offset))
		}
	}
	return dst
}

// intersect keeps the values present in both sorted slices, writing into
// dst.
func intersect(dst, a, b []postings.Position) []postings.Position {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			dst = append(dst, a[i])
			i++
			j++
		}
	}
	return dst
}

// nextDocCandidate runs the document-level intersection, leaving every
// child peeked at the returned candidate.
func (p *positionalCursor) nextDocCandidate() (DocID, bool) {
	cand, ok := p.children[0].r.SkipTo(p.floor)
	if !ok {
		return 0, false
	}
	i := 1
	for i < len(p.children) {
		doc, ok := p.children[i].r.SkipTo(cand)
		if !ok {
			return 0, false
		}
		if doc > cand {
			cand = doc
			i = 0
			continue
		}
		i++
	}
	return cand, true
}

func (p *positionalCursor) advance() {
	for {
		cand, ok := p.nextDocCandidate()
		if !ok {
			p.done = true
			return
		}
		p.work = p.align(p.work[:0], p.children[0])
		for i := 1; i < len(p.children) && len(p.work) > 0; i++ {
			p.scratch = p.align(p.scratch[:0], p.children[i])
			p.work = intersect(p.work[:0], p.work, p.scratch)
		}
		p.floor = cand + 1
		if len(p.work) > 0 {
			p.cur = cand
			p.have = true
			return
		}
		// Right terms, wrong positions: move on to the next document.
	}
}

func (p *positionalCursor) Peek() (DocID, bool) {
	if !p.have && !p.done {
		p.advance()
	}
	if p.done {
		return 0, false
	}
	return p.cur, true
}

func (p *positionalCursor) Next() (DocID, bool) {
	doc, ok := p.Peek()
	if !ok {
		return 0, false
	}
	p.have = false
	return doc, true
}

func (p *positionalCursor) SkipTo(target DocID) (DocID, bool) {
	if p.have && p.cur >= target {
		return p.cur, true
	}
	if p.done {
		return 0, false
	}
	if target > p.floor {
		p.floor = target
	}
	p.have = false
	p.advance()
	if p.done {
		return 0, false
	}
	return p.cur, true
}

func (p *positionalCursor) EstimateSize() int {
	return p.children[0].r.EstimateSize()
}

func (p *positionalCursor) Err() error {
	for _, c := range p.children {
		if err := c.r.Err(); err != nil {
			return err
		}
	}
	return nil
}
