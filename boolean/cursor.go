package boolean

import "github.com/CurrySoftware/perlin/postings"

// DocID aliases the posting-list document id for callers of this package.
type DocID = postings.DocID

// Cursor is a stateful, forward-only, skippable iterator over sorted
// document ids. Every cursor, composed or not, emits strictly ascending
// ids.
//
// Peek shows the id Next will emit without consuming it; SkipTo advances
// to the least id >= target and leaves it peeked; EstimateSize is an
// upper bound on the ids still to come, used to order children inside
// composers. After a cursor reports exhaustion, Err tells whether it ran
// dry or hit a decode failure.
type Cursor interface {
	Peek() (DocID, bool)
	Next() (DocID, bool)
	SkipTo(target DocID) (DocID, bool)
	EstimateSize() int
	Err() error
}

// CollectAll drains a cursor into a slice and surfaces any decode error
// recorded during iteration.
func CollectAll(c Cursor) ([]DocID, error) {
	var out []DocID
	for {
		doc, ok := c.Next()
		if !ok {
			break
		}
		out = append(out, doc)
	}
	return out, c.Err()
}

// emptyCursor is the result of querying a term absent from the
// vocabulary.
type emptyCursor struct{}

func (emptyCursor) Peek() (DocID, bool)        { return 0, false }
func (emptyCursor) Next() (DocID, bool)        { return 0, false }
func (emptyCursor) SkipTo(DocID) (DocID, bool) { return 0, false }
func (emptyCursor) EstimateSize() int          { return 0 }
func (emptyCursor) Err() error                 { return nil }
