// Package boolean implements the boolean information-retrieval index:
// a generic inverted index over any ordered, byte-serialisable term type,
// with lazy cursor-based query evaluation and optional file persistence.
package boolean

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/CurrySoftware/perlin/postings"
	"github.com/CurrySoftware/perlin/storage"
)

// ErrMalformedQuery is returned by ExecuteQuery for structurally invalid
// queries, such as an n-ary or positional node with no children. Atoms on
// unknown terms are not an error; they yield an empty cursor.
var ErrMalformedQuery = errors.New("boolean: malformed query")

type vocabEntry struct {
	docFreq int
	entry   storage.EntryID
}

// Index is an immutable boolean retrieval index. Once created or loaded
// it only serves queries; all mutable state lives inside the cursors
// ExecuteQuery returns, so any number of queries may run concurrently
// against the same Index.
type Index[T cmp.Ordered] struct {
	codec    TermCodec[T]
	vocab    map[T]vocabEntry
	store    storage.Storage
	docCount int
	dir      string
}

// DocumentCount reports how many documents the index covers, empty ones
// included.
func (ix *Index[T]) DocumentCount() int { return ix.docCount }

// TermCount reports the size of the vocabulary.
func (ix *Index[T]) TermCount() int { return len(ix.vocab) }

// Path returns the directory a file-backed index lives in, or "" for a
// volatile one.
func (ix *Index[T]) Path() string { return ix.dir }

// DocumentFrequency returns the number of documents containing term.
func (ix *Index[T]) DocumentFrequency(term T) int {
	return ix.vocab[term].docFreq
}

// ExecuteQuery compiles the query into a cursor tree over the index's
// posting lists. Evaluation is lazy: documents are matched as the caller
// pulls from the cursor.
func (ix *Index[T]) ExecuteQuery(q Query[T]) (Cursor, error) {
	return ix.run(q)
}

func (ix *Index[T]) run(q Query[T]) (Cursor, error) {
	switch node := q.(type) {
	case Atom[T]:
		return ix.runAtom(node.Term)
	case NAry[T]:
		if len(node.Children) == 0 {
			return nil, fmt.Errorf("%w: %s without operands", ErrMalformedQuery, node.Op)
		}
		children := make([]Cursor, 0, len(node.Children))
		for _, child := range node.Children {
			c, err := ix.run(child)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		if len(children) == 1 {
			return children[0], nil
		}
		if node.Op == OpAnd {
			return newAnd(children), nil
		}
		return newOr(children), nil
	case Positional[T]:
		return ix.runPositional(node)
	case Filter[T]:
		subject, err := ix.run(node.Subject)
		if err != nil {
			return nil, err
		}
		sieve, err := ix.run(node.Sieve)
		if err != nil {
			return nil, err
		}
		return newFilter(subject, sieve), nil
	default:
		return nil, fmt.Errorf("%w: unknown node %T", ErrMalformedQuery, q)
	}
}

func (ix *Index[T]) runAtom(term T) (Cursor, error) {
	r, ok, err := ix.openList(term)
	if err != nil {
		return nil, err
	}
	if !ok {
		return emptyCursor{}, nil
	}
	return r, nil
}

func (ix *Index[T]) runPositional(node Positional[T]) (Cursor, error) {
	if len(node.Children) == 0 {
		return nil, fmt.Errorf("%w: positional query without atoms", ErrMalformedQuery)
	}
	minOffset := node.Children[0].Offset
	for _, atom := range node.Children[1:] {
		if atom.Offset < minOffset {
			minOffset = atom.Offset
		}
	}
	children := make([]positionalChild, 0, len(node.Children))
	for _, atom := range node.Children {
		r, ok, err := ix.openList(atom.Term)
		if err != nil {
			return nil, err
		}
		if !ok {
			// One unknown term empties the whole phrase.
			return emptyCursor{}, nil
		}
		children = append(children, positionalChild{r: r, offset: atom.Offset - minOffset})
	}
	if len(children) == 1 {
		return children[0].r, nil
	}
	return newPositional(children), nil
}

// openList opens the atom cursor for term. ok is false when the term is
// not in the vocabulary.
func (ix *Index[T]) openList(term T) (*postings.Reader, bool, error) {
	entry, ok := ix.vocab[term]
	if !ok {
		return nil, false, nil
	}
	cur, err := ix.store.Read(entry.entry)
	if err != nil {
		return nil, false, fmt.Errorf("reading posting list: %w", err)
	}
	r, err := postings.Open(cur)
	if err != nil {
		return nil, false, fmt.Errorf("opening posting list: %w", err)
	}
	return r, true, nil
}
