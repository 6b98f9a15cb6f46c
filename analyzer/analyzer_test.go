package analyzer

import (
	"reflect"
	"testing"
)

func TestBasic(t *testing.T) {
	tokens := Basic("The old night-keeper keeps the keep.")
	want := []string{"the", "old", "night", "keeper", "keeps", "the", "keep"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Term != want[i] {
			t.Errorf("token %d = %q, want %q", i, tok.Term, want[i])
		}
		if int(tok.Position) != i {
			t.Errorf("token %d position = %d", i, tok.Position)
		}
	}
}

func TestWithStopWords(t *testing.T) {
	tokens := WithStopWords("the keeper of the keep")
	var terms []string
	for _, tok := range tokens {
		terms = append(terms, tok.Term)
	}
	if !reflect.DeepEqual(terms, []string{"keeper", "keep"}) {
		t.Errorf("terms = %v", terms)
	}
	// Positions renumber over the emitted stream so phrases stay adjacent.
	if tokens[0].Position != 0 || tokens[1].Position != 1 {
		t.Errorf("positions = %d, %d", tokens[0].Position, tokens[1].Position)
	}
}

func TestEmptyInput(t *testing.T) {
	if tokens := Basic("  ...  "); len(tokens) != 0 {
		t.Errorf("got %d tokens from punctuation-only input", len(tokens))
	}
}
