package postings

import (
	"fmt"

	"github.com/CurrySoftware/perlin/vbyte"
)

type skipEntry struct {
	lastDoc DocID
	byteLen int
}

// ListWriter accumulates one term's postings in document order and
// produces the encoded entry bytes. It is the chunk accumulator the index
// builder keeps per term while streaming documents.
type ListWriter struct {
	count   int
	started bool
	lastDoc DocID

	chunkBuf []byte
	inChunk  int
	data     []byte
	skip     []skipEntry
}

// NewListWriter returns an empty writer.
func NewListWriter() *ListWriter {
	return &ListWriter{}
}

// Append adds the posting for doc. Documents must arrive in strictly
// ascending order and positions must be strictly ascending and non-empty.
func (w *ListWriter) Append(doc DocID, positions []Position) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: doc %d", ErrEmptyPosting, doc)
	}
	if w.started && doc <= w.lastDoc {
		return fmt.Errorf("%w: doc %d after %d", ErrNonAscendingDocs, doc, w.lastDoc)
	}
	// Delta against the previous posting; for the first posting of a chunk
	// that previous posting is the preceding chunk's last document, so the
	// encoding is uniform.
	w.chunkBuf = vbyte.Append(w.chunkBuf, uint64(doc-w.lastDoc))
	w.chunkBuf = vbyte.Append(w.chunkBuf, uint64(len(positions)))
	var lastPos Position
	for i, pos := range positions {
		if i > 0 && pos <= lastPos {
			return fmt.Errorf("%w: doc %d position %d", ErrNonAscendingPositions, doc, pos)
		}
		w.chunkBuf = vbyte.Append(w.chunkBuf, uint64(pos-lastPos))
		lastPos = pos
	}
	w.lastDoc = doc
	w.started = true
	w.count++
	w.inChunk++
	if w.inChunk == ChunkPostings {
		w.closeChunk()
	}
	return nil
}

// Count reports the number of postings appended so far; it becomes the
// term's document frequency.
func (w *ListWriter) Count() int { return w.count }

// LastDoc returns the most recently appended document id.
func (w *ListWriter) LastDoc() DocID { return w.lastDoc }

func (w *ListWriter) closeChunk() {
	w.skip = append(w.skip, skipEntry{lastDoc: w.lastDoc, byteLen: len(w.chunkBuf)})
	w.data = append(w.data, w.chunkBuf...)
	w.chunkBuf = w.chunkBuf[:0]
	w.inChunk = 0
}

// Finish seals the list and returns the encoded entry bytes. The writer
// must not be reused afterwards.
func (w *ListWriter) Finish() []byte {
	if w.inChunk > 0 {
		w.closeChunk()
	}
	out := vbyte.Append(nil, uint64(w.count))
	out = vbyte.Append(out, uint64(len(w.skip)))
	var prevLast DocID
	for _, s := range w.skip {
		out = vbyte.Append(out, uint64(s.lastDoc-prevLast))
		out = vbyte.Append(out, uint64(s.byteLen))
		prevLast = s.lastDoc
	}
	return append(out, w.data...)
}

// EncodeList is a convenience that encodes a complete in-memory list.
func EncodeList(l List) ([]byte, error) {
	w := NewListWriter()
	for _, p := range l {
		if err := w.Append(p.Doc, p.Positions); err != nil {
			return nil, err
		}
	}
	return w.Finish(), nil
}
