// Package postings defines the posting-list data model and its chunked,
// delta-compressed on-storage encoding.
//
// A posting list is the ascending sequence of (document id, positions)
// records for one term. On storage it is laid out as a header followed by
// chunks of at most ChunkPostings postings:
//
//	vbyte(posting count)
//	vbyte(chunk count)
//	per chunk: vbyte(last doc-id delta), vbyte(chunk byte length)
//	chunk data
//
// Inside a chunk every posting is vbyte(doc-id delta), vbyte(position
// count), then vbyte-encoded position deltas. The first posting of a chunk
// is delta-coded against the previous chunk's last doc id, which makes the
// stream sequentially decodable while the per-chunk header doubles as a
// skip table for targeted seeks.
package postings

import (
	"errors"
	"fmt"
)

// DocID is the monotonically assigned identifier of a document.
type DocID uint64

// Position is the 0-based offset of a term occurrence inside a document.
type Position uint32

// ChunkPostings is the number of postings covered by one chunk. The last
// chunk of a list may hold fewer.
const ChunkPostings = 64

var (
	// ErrNonAscendingDocs is returned when postings are appended out of
	// document-id order.
	ErrNonAscendingDocs = errors.New("postings: document ids not strictly ascending")
	// ErrNonAscendingPositions is returned when a posting's positions are
	// not strictly ascending.
	ErrNonAscendingPositions = errors.New("postings: positions not strictly ascending")
	// ErrEmptyPosting is returned when a posting carries no positions.
	ErrEmptyPosting = errors.New("postings: posting without positions")
)

// Posting is one document's contribution to a term's posting list.
type Posting struct {
	Doc       DocID
	Positions []Position
}

// List is a full posting list held in memory, used by tests and by
// EncodeList.
type List []Posting

// Validate checks the list's ordering invariants.
func (l List) Validate() error {
	for i, p := range l {
		if i > 0 && p.Doc <= l[i-1].Doc {
			return fmt.Errorf("%w: doc %d after %d", ErrNonAscendingDocs, p.Doc, l[i-1].Doc)
		}
		if len(p.Positions) == 0 {
			return fmt.Errorf("%w: doc %d", ErrEmptyPosting, p.Doc)
		}
		for j := 1; j < len(p.Positions); j++ {
			if p.Positions[j] <= p.Positions[j-1] {
				return fmt.Errorf("%w: doc %d", ErrNonAscendingPositions, p.Doc)
			}
		}
	}
	return nil
}
