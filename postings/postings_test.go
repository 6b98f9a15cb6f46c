package postings

import (
	"errors"
	"testing"

	"github.com/CurrySoftware/perlin/storage"
)

// storeList encodes l into a fresh memory store and opens a reader on it.
func storeList(t *testing.T, l List) *Reader {
	t.Helper()
	data, err := EncodeList(l)
	if err != nil {
		t.Fatalf("EncodeList: %v", err)
	}
	st := storage.NewMemoryPaged(64)
	id, err := st.Store(data)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	cur, err := st.Read(id)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	r, err := Open(cur)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

// synthetic builds a list of n postings with gappy doc ids and positions.
func synthetic(n int) List {
	l := make(List, 0, n)
	for i := 0; i < n; i++ {
		doc := DocID(i*i + i/3)
		positions := []Position{Position(i % 5), Position(i%5 + 7), Position(i%5 + 100)}
		l = append(l, Posting{Doc: doc, Positions: positions})
	}
	return l
}

func TestRoundTripSingleChunk(t *testing.T) {
	l := List{
		{Doc: 0, Positions: []Position{0, 4, 9}},
		{Doc: 3, Positions: []Position{1}},
		{Doc: 11, Positions: []Position{2, 3}},
	}
	r := storeList(t, l)
	if r.EstimateSize() != 3 {
		t.Errorf("EstimateSize = %d, want 3", r.EstimateSize())
	}
	for _, want := range l {
		doc, ok := r.Peek()
		if !ok {
			t.Fatalf("Peek exhausted early")
		}
		if doc != want.Doc {
			t.Errorf("Peek = %d, want %d", doc, want.Doc)
		}
		positions := r.Positions()
		if len(positions) != len(want.Positions) {
			t.Fatalf("doc %d: %d positions, want %d", doc, len(positions), len(want.Positions))
		}
		for i := range positions {
			if positions[i] != want.Positions[i] {
				t.Errorf("doc %d position %d = %d, want %d", doc, i, positions[i], want.Positions[i])
			}
		}
		if got, _ := r.Next(); got != want.Doc {
			t.Errorf("Next = %d, want %d", got, want.Doc)
		}
	}
	if _, ok := r.Next(); ok {
		t.Errorf("Next past end succeeded")
	}
	if r.Err() != nil {
		t.Errorf("Err = %v", r.Err())
	}
}

func TestRoundTripMultiChunk(t *testing.T) {
	l := synthetic(5*ChunkPostings + 13)
	r := storeList(t, l)
	i := 0
	for {
		doc, ok := r.Next()
		if !ok {
			break
		}
		if doc != l[i].Doc {
			t.Fatalf("posting %d: doc %d, want %d", i, doc, l[i].Doc)
		}
		i++
	}
	if i != len(l) {
		t.Errorf("decoded %d postings, want %d", i, len(l))
	}
	if r.Err() != nil {
		t.Errorf("Err = %v", r.Err())
	}
}

func TestPeekIsStable(t *testing.T) {
	r := storeList(t, synthetic(10))
	a, _ := r.Peek()
	b, _ := r.Peek()
	if a != b {
		t.Errorf("Peek not stable: %d then %d", a, b)
	}
}

func TestSkipTo(t *testing.T) {
	l := synthetic(4*ChunkPostings + 7)
	r := storeList(t, l)

	// Skip to an id that exists, far into a later chunk.
	target := l[3*ChunkPostings+5].Doc
	doc, ok := r.SkipTo(target)
	if !ok || doc != target {
		t.Fatalf("SkipTo(%d) = %d, %v", target, doc, ok)
	}
	// Skipping backwards is a no-op.
	if doc, _ = r.SkipTo(0); doc != target {
		t.Errorf("SkipTo(0) moved cursor to %d", doc)
	}
	// Skip to a gap: the next larger id must come back.
	gapTarget := l[3*ChunkPostings+8].Doc - 1
	doc, ok = r.SkipTo(gapTarget)
	if !ok || doc < gapTarget {
		t.Fatalf("SkipTo(%d) = %d, %v", gapTarget, doc, ok)
	}
	if doc != l[3*ChunkPostings+8].Doc {
		t.Errorf("SkipTo(%d) = %d, want %d", gapTarget, doc, l[3*ChunkPostings+8].Doc)
	}
	// Skip past the end exhausts.
	if _, ok = r.SkipTo(l[len(l)-1].Doc + 1); ok {
		t.Errorf("SkipTo past end still yielded a doc")
	}
	if r.Err() != nil {
		t.Errorf("Err = %v", r.Err())
	}
}

func TestSkipToEveryTarget(t *testing.T) {
	l := synthetic(2*ChunkPostings + 3)
	last := l[len(l)-1].Doc
	for target := DocID(0); target <= last+1; target++ {
		r := storeList(t, l)
		doc, ok := r.SkipTo(target)
		var want DocID
		found := false
		for _, p := range l {
			if p.Doc >= target {
				want, found = p.Doc, true
				break
			}
		}
		if ok != found || (found && doc != want) {
			t.Fatalf("SkipTo(%d) = (%d, %v), want (%d, %v)", target, doc, ok, want, found)
		}
	}
}

func TestPositionsAfterSkip(t *testing.T) {
	l := synthetic(3 * ChunkPostings)
	idx := 2*ChunkPostings + 17
	r := storeList(t, l)
	if _, ok := r.SkipTo(l[idx].Doc); !ok {
		t.Fatal("SkipTo failed")
	}
	positions := r.Positions()
	if len(positions) != len(l[idx].Positions) {
		t.Fatalf("got %d positions, want %d", len(positions), len(l[idx].Positions))
	}
	for i := range positions {
		if positions[i] != l[idx].Positions[i] {
			t.Errorf("position %d = %d, want %d", i, positions[i], l[idx].Positions[i])
		}
	}
}

func TestEstimateSizeShrinks(t *testing.T) {
	r := storeList(t, synthetic(100))
	if r.EstimateSize() != 100 {
		t.Fatalf("EstimateSize = %d, want 100", r.EstimateSize())
	}
	for i := 0; i < 40; i++ {
		r.Next()
	}
	if got := r.EstimateSize(); got != 60 {
		t.Errorf("EstimateSize after 40 = %d, want 60", got)
	}
}

func TestWriterRejectsBadInput(t *testing.T) {
	w := NewListWriter()
	if err := w.Append(5, []Position{1, 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(5, []Position{0}); !errors.Is(err, ErrNonAscendingDocs) {
		t.Errorf("duplicate doc: %v", err)
	}
	if err := w.Append(4, []Position{0}); !errors.Is(err, ErrNonAscendingDocs) {
		t.Errorf("descending doc: %v", err)
	}
	if err := w.Append(9, nil); !errors.Is(err, ErrEmptyPosting) {
		t.Errorf("empty positions: %v", err)
	}
	if err := w.Append(9, []Position{3, 3}); !errors.Is(err, ErrNonAscendingPositions) {
		t.Errorf("equal positions: %v", err)
	}
}

func TestCorruptedEntrySurfacesViaErr(t *testing.T) {
	data, err := EncodeList(synthetic(10))
	if err != nil {
		t.Fatal(err)
	}
	// Drop the tail so decoding runs off the end mid-posting.
	st := storage.NewMemoryPaged(64)
	id, _ := st.Store(data[:len(data)-4])
	cur, _ := st.Read(id)
	r, err := Open(cur)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	n := 0
	for {
		if _, ok := r.Next(); !ok {
			break
		}
		n++
	}
	if n >= 10 {
		t.Errorf("decoded %d postings from truncated entry", n)
	}
	if !errors.Is(r.Err(), ErrCorruptedList) {
		t.Errorf("Err = %v, want ErrCorruptedList", r.Err())
	}
}

func TestValidate(t *testing.T) {
	good := List{{Doc: 1, Positions: []Position{0, 2}}, {Doc: 4, Positions: []Position{1}}}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate(good) = %v", err)
	}
	bad := List{{Doc: 4, Positions: []Position{0}}, {Doc: 1, Positions: []Position{0}}}
	if err := bad.Validate(); !errors.Is(err, ErrNonAscendingDocs) {
		t.Errorf("Validate(bad docs) = %v", err)
	}
}
