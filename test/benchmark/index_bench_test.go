// Package benchmark contains Go benchmarks for index construction and
// query execution, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/CurrySoftware/perlin/boolean"
)

// corpus generates docs pseudo-random documents of docLen terms drawn
// from a vocabulary of vocabSize words.
func corpus(docs, docLen, vocabSize int) [][]string {
	rng := rand.New(rand.NewSource(42))
	vocab := make([]string, vocabSize)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("term%04d", i)
	}
	collection := make([][]string, docs)
	for i := range collection {
		doc := make([]string, docLen)
		for j := range doc {
			// Zipf-ish skew: low term ids are frequent.
			doc[j] = vocab[int(rng.ExpFloat64()*float64(vocabSize)/8)%vocabSize]
		}
		collection[i] = doc
	}
	return collection
}

func buildIndex(b *testing.B, docs, docLen, vocabSize int) *boolean.Index[string] {
	b.Helper()
	ix, err := boolean.NewBuilder[string](boolean.StringCodec{}).
		Create(slices.Values(corpus(docs, docLen, vocabSize)))
	if err != nil {
		b.Fatal(err)
	}
	return ix
}

// BenchmarkIndexBuild measures full single-pass build throughput over a
// 10k-document collection.
func BenchmarkIndexBuild(b *testing.B) {
	collection := corpus(10000, 50, 2000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix, err := boolean.NewBuilder[string](boolean.StringCodec{}).
			Create(slices.Values(collection))
		if err != nil {
			b.Fatal(err)
		}
		_ = ix
	}
}

// BenchmarkAtomQuery measures drain latency of a frequent term's cursor.
func BenchmarkAtomQuery(b *testing.B) {
	ix := buildIndex(b, 10000, 50, 2000)
	q := boolean.NewAtom("term0001")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := ix.ExecuteQuery(q)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, ok := c.Next(); !ok {
				break
			}
		}
	}
}

// BenchmarkAndQuery measures a conjunction of a frequent and a rare term,
// the case the skip table exists for.
func BenchmarkAndQuery(b *testing.B) {
	ix := buildIndex(b, 10000, 50, 2000)
	q := boolean.And(boolean.NewAtom("term0001"), boolean.NewAtom("term1800"))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := ix.ExecuteQuery(q)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, ok := c.Next(); !ok {
				break
			}
		}
	}
}

// BenchmarkOrQuery measures the heap merge across four terms.
func BenchmarkOrQuery(b *testing.B) {
	ix := buildIndex(b, 10000, 50, 2000)
	q := boolean.Or(
		boolean.NewAtom("term0001"),
		boolean.NewAtom("term0010"),
		boolean.NewAtom("term0100"),
		boolean.NewAtom("term1000"),
	)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := ix.ExecuteQuery(q)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, ok := c.Next(); !ok {
				break
			}
		}
	}
}

// BenchmarkPhraseQuery measures positional intersection on two frequent
// terms.
func BenchmarkPhraseQuery(b *testing.B) {
	ix := buildIndex(b, 10000, 50, 2000)
	q := boolean.Phrase("term0001", "term0002")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := ix.ExecuteQuery(q)
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, ok := c.Next(); !ok {
				break
			}
		}
	}
}

// BenchmarkSkipTo measures targeted seeks over a long posting list.
func BenchmarkSkipTo(b *testing.B) {
	ix := buildIndex(b, 20000, 50, 2000)
	q := boolean.NewAtom("term0000")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := ix.ExecuteQuery(q)
		if err != nil {
			b.Fatal(err)
		}
		for target := boolean.DocID(0); ; target += 500 {
			if _, ok := c.SkipTo(target); !ok {
				break
			}
		}
	}
}
