package boolean

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"sort"

	"github.com/CurrySoftware/perlin/postings"
	"github.com/CurrySoftware/perlin/storage"
)

// ErrNonAscendingPositions is returned when a tokenized document's
// positions run backwards.
var ErrNonAscendingPositions = errors.New("boolean: token positions not ascending within document")

// Token is one analyzer emission: a term and its 0-based position inside
// the document.
type Token[T cmp.Ordered] struct {
	Term     T
	Position postings.Position
}

// Builder ingests a document collection in a single pass and produces an
// Index. By default the index is volatile; Persist switches it to a
// file-backed one written atomically into the given directory.
type Builder[T cmp.Ordered] struct {
	codec    TermCodec[T]
	dir      string
	pageSize int
	logger   *slog.Logger
}

// NewBuilder returns a Builder using codec to serialise terms.
func NewBuilder[T cmp.Ordered](codec TermCodec[T]) *Builder[T] {
	return &Builder[T]{
		codec:    codec,
		pageSize: storage.DefaultPageSize,
		logger:   slog.Default().With("component", "index-builder"),
	}
}

// Persist makes Create write the index into dir. The directory must not
// yet exist; it appears atomically once the build succeeds.
func (b *Builder[T]) Persist(dir string) *Builder[T] {
	b.dir = dir
	return b
}

// PageSize overrides the storage page size of a persistent build.
func (b *Builder[T]) PageSize(n int) *Builder[T] {
	b.pageSize = n
	return b
}

// termScratch is the per-term accumulation state while streaming
// documents: the open posting plus the writer holding finished ones.
type termScratch struct {
	w          *postings.ListWriter
	pendingDoc postings.DocID
	pending    []postings.Position
	hasPending bool
}

type buildState[T cmp.Ordered] struct {
	scratch  map[T]*termScratch
	docCount int
}

func (s *buildState[T]) add(term T, doc postings.DocID, pos postings.Position) error {
	ts, ok := s.scratch[term]
	if !ok {
		ts = &termScratch{w: postings.NewListWriter()}
		s.scratch[term] = ts
	}
	if ts.hasPending && ts.pendingDoc == doc {
		ts.pending = append(ts.pending, pos)
		return nil
	}
	if ts.hasPending {
		if err := ts.w.Append(ts.pendingDoc, ts.pending); err != nil {
			return err
		}
	}
	ts.pendingDoc = doc
	ts.pending = ts.pending[:0]
	ts.pending = append(ts.pending, pos)
	ts.hasPending = true
	return nil
}

// Create indexes the documents, deriving each term's position as its
// 0-based index in the document. Empty documents are legal and still
// consume a document id.
func (b *Builder[T]) Create(documents iter.Seq[[]T]) (*Index[T], error) {
	state := &buildState[T]{scratch: make(map[T]*termScratch)}
	for doc := range documents {
		id := postings.DocID(state.docCount)
		for i, term := range doc {
			if err := state.add(term, id, postings.Position(i)); err != nil {
				return nil, err
			}
		}
		state.docCount++
	}
	return b.finalise(state)
}

// CreateTokens indexes analyzer output carrying explicit positions. The
// position stream of each document must be strictly ascending.
func (b *Builder[T]) CreateTokens(documents iter.Seq[[]Token[T]]) (*Index[T], error) {
	state := &buildState[T]{scratch: make(map[T]*termScratch)}
	for doc := range documents {
		id := postings.DocID(state.docCount)
		for i, tok := range doc {
			if i > 0 && tok.Position <= doc[i-1].Position {
				return nil, fmt.Errorf("%w: document %d", ErrNonAscendingPositions, id)
			}
			if err := state.add(tok.Term, id, tok.Position); err != nil {
				return nil, err
			}
		}
		state.docCount++
	}
	return b.finalise(state)
}

// finalise flushes trailing postings, encodes every posting list into
// storage in deterministic term order, and persists the vocabulary and
// metadata when the build is file-backed.
func (b *Builder[T]) finalise(state *buildState[T]) (*Index[T], error) {
	terms := make([]T, 0, len(state.scratch))
	for term := range state.scratch {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		return bytes.Compare(b.codec.EncodeTerm(terms[i]), b.codec.EncodeTerm(terms[j])) < 0
	})

	var store storage.Storage
	tmpDir := ""
	if b.dir != "" {
		if _, err := os.Stat(b.dir); err == nil {
			return nil, fmt.Errorf("boolean: index directory %s already exists", b.dir)
		}
		tmpDir = b.dir + ".tmp"
		if err := os.RemoveAll(tmpDir); err != nil {
			return nil, fmt.Errorf("clearing temp build directory: %w", err)
		}
		fsStore, err := storage.CreateFS(tmpDir, b.pageSize)
		if err != nil {
			return nil, fmt.Errorf("creating index storage: %w", err)
		}
		store = fsStore
	} else {
		store = storage.NewMemoryPaged(b.pageSize)
	}
	fail := func(err error) (*Index[T], error) {
		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
		return nil, err
	}

	vocab := make(map[T]vocabEntry, len(terms))
	for _, term := range terms {
		ts := state.scratch[term]
		if ts.hasPending {
			if err := ts.w.Append(ts.pendingDoc, ts.pending); err != nil {
				return fail(err)
			}
		}
		id, err := store.Store(ts.w.Finish())
		if err != nil {
			return fail(fmt.Errorf("storing posting list: %w", err))
		}
		vocab[term] = vocabEntry{docFreq: ts.w.Count(), entry: id}
	}

	ix := &Index[T]{
		codec:    b.codec,
		vocab:    vocab,
		store:    store,
		docCount: state.docCount,
	}
	if b.dir != "" {
		if err := saveMeta(tmpDir, b.pageSize, state.docCount); err != nil {
			return fail(err)
		}
		if err := saveVocab(tmpDir, b.codec, terms, vocab); err != nil {
			return fail(err)
		}
		if fsStore, ok := store.(*storage.FS); ok {
			fsStore.Close()
		}
		if err := os.Rename(tmpDir, b.dir); err != nil {
			return fail(fmt.Errorf("publishing index directory: %w", err))
		}
		reopened, err := storage.OpenFS(b.dir, b.pageSize)
		if err != nil {
			return nil, fmt.Errorf("reopening index storage: %w", err)
		}
		ix.store = reopened
		ix.dir = b.dir
	}
	b.logger.Info("index finalised",
		"documents", state.docCount,
		"terms", len(terms),
		"persistent", b.dir != "",
	)
	return ix, nil
}
