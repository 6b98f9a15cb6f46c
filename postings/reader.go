package postings

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/CurrySoftware/perlin/storage"
	"github.com/CurrySoftware/perlin/vbyte"
)

// ErrCorruptedList is recorded on a Reader whose entry bytes cannot be
// decoded. It surfaces through Err after the cursor exhausts.
var ErrCorruptedList = errors.New("postings: corrupted posting list")

// Reader decodes a stored posting list and is the cursor driving atom
// queries. It advances one posting at a time, skips whole chunks via the
// skip table, and reuses a single positions buffer across documents.
//
// A Reader starts positioned before the first posting: Peek shows the
// posting Next will emit. Decode failures are reported as exhaustion with
// the cause retained for Err.
type Reader struct {
	cur   *storage.ByteCursor
	dec   *vbyte.Decoder
	count int

	skipLast  []DocID // absolute last doc id per chunk
	skipOff   []int   // absolute entry offset of each chunk's data
	dataStart int

	consumed int // postings decoded so far, buffered one included
	prevDoc  DocID
	buffered bool
	curDoc   DocID
	posBuf   []Position

	done bool
	err  error
}

// Open parses the entry header and skip table and returns a cursor over
// the list.
func Open(cur *storage.ByteCursor) (*Reader, error) {
	dec := vbyte.NewDecoder(cur)
	count, err := dec.Next()
	if err != nil {
		if err == io.EOF {
			// A zero-byte entry is an empty list.
			return &Reader{cur: cur, done: true}, nil
		}
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptedList, err)
	}
	chunks, err := dec.Next()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptedList, err)
	}
	r := &Reader{
		cur:      cur,
		dec:      dec,
		count:    int(count),
		skipLast: make([]DocID, 0, chunks),
		skipOff:  make([]int, 0, chunks),
	}
	var lastDoc DocID
	for i := 0; i < int(chunks); i++ {
		delta, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: skip table: %v", ErrCorruptedList, err)
		}
		byteLen, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: skip table: %v", ErrCorruptedList, err)
		}
		lastDoc += DocID(delta)
		r.skipLast = append(r.skipLast, lastDoc)
		r.skipOff = append(r.skipOff, int(byteLen))
	}
	// Turn chunk lengths into absolute offsets.
	r.dataStart = cur.Offset()
	off := r.dataStart
	for i := range r.skipOff {
		l := r.skipOff[i]
		r.skipOff[i] = off
		off += l
	}
	if r.count == 0 {
		r.done = true
	}
	return r, nil
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %v", ErrCorruptedList, err)
	}
	r.buffered = false
	r.done = true
}

// loadNext decodes the next posting into the buffer.
func (r *Reader) loadNext() bool {
	if r.done || r.err != nil {
		return false
	}
	if r.consumed >= r.count {
		r.done = true
		return false
	}
	delta, err := r.dec.Next()
	if err != nil {
		r.fail(err)
		return false
	}
	posCount, err := r.dec.Next()
	if err != nil {
		r.fail(err)
		return false
	}
	if posCount == 0 {
		r.fail(ErrEmptyPosting)
		return false
	}
	r.posBuf = r.posBuf[:0]
	var pos Position
	for i := uint64(0); i < posCount; i++ {
		pd, err := r.dec.Next()
		if err != nil {
			r.fail(err)
			return false
		}
		pos += Position(pd)
		r.posBuf = append(r.posBuf, pos)
	}
	r.curDoc = r.prevDoc + DocID(delta)
	r.prevDoc = r.curDoc
	r.consumed++
	r.buffered = true
	return true
}

// Peek returns the next document id without consuming it.
func (r *Reader) Peek() (DocID, bool) {
	if !r.buffered && !r.loadNext() {
		return 0, false
	}
	return r.curDoc, true
}

// Next advances the cursor and returns the emitted document id.
func (r *Reader) Next() (DocID, bool) {
	if !r.buffered && !r.loadNext() {
		return 0, false
	}
	r.buffered = false
	return r.curDoc, true
}

// SkipTo advances to the least document id >= target, leaving it peeked.
func (r *Reader) SkipTo(target DocID) (DocID, bool) {
	if r.buffered && r.curDoc >= target {
		return r.curDoc, true
	}
	if r.done || r.err != nil {
		return 0, false
	}
	if len(r.skipLast) == 0 || target > r.skipLast[len(r.skipLast)-1] {
		r.buffered = false
		r.done = true
		return 0, false
	}
	// First chunk whose last document can hold the target.
	c := sort.Search(len(r.skipLast), func(i int) bool { return r.skipLast[i] >= target })
	if c*ChunkPostings > r.consumed {
		// Jump over fully decodable chunks instead of scanning them.
		if err := r.cur.Seek(r.skipOff[c]); err != nil {
			r.fail(err)
			return 0, false
		}
		if c > 0 {
			r.prevDoc = r.skipLast[c-1]
		} else {
			r.prevDoc = 0
		}
		r.consumed = c * ChunkPostings
		r.buffered = false
	}
	for {
		if !r.loadNext() {
			return 0, false
		}
		if r.curDoc >= target {
			return r.curDoc, true
		}
		r.buffered = false
	}
}

// Positions returns the positions of the posting Peek currently shows.
// The slice is reused on the next advance and must not be retained.
func (r *Reader) Positions() []Position {
	if !r.buffered && !r.loadNext() {
		return nil
	}
	return r.posBuf
}

// EstimateSize is an upper bound on the number of documents left,
// including a peeked but unconsumed one.
func (r *Reader) EstimateSize() int {
	rem := r.count - r.consumed
	if r.buffered {
		rem++
	}
	if rem < 0 || r.done && !r.buffered {
		return 0
	}
	return rem
}

// Err reports the decode failure, if any, that exhausted the cursor.
func (r *Reader) Err() error { return r.err }
