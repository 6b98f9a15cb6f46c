// Package analyzer turns raw text into the ordered term sequences the
// index builder consumes. The basic analyzer lower-cases and splits on
// non-alphanumeric boundaries; a stop-word filtering variant is available
// for callers that want a smaller vocabulary. Positions are the 0-based
// index into the emitted token stream.
package analyzer

import (
	"strings"
	"unicode"

	"github.com/CurrySoftware/perlin/boolean"
	"github.com/CurrySoftware/perlin/postings"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// Analyzer converts a document into positioned string tokens.
type Analyzer func(text string) []boolean.Token[string]

// Basic is the default analyzer: lower-case, split on anything that is
// neither letter nor digit, keep everything.
func Basic(text string) []boolean.Token[string] {
	return tokenize(text, false)
}

// WithStopWords behaves like Basic but drops common English stop-words.
// Positions still count only emitted tokens, so phrases queried over the
// filtered stream stay adjacent.
func WithStopWords(text string) []boolean.Token[string] {
	return tokenize(text, true)
}

func tokenize(text string, filterStops bool) []boolean.Token[string] {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]boolean.Token[string], 0, len(words))
	pos := postings.Position(0)
	for _, word := range words {
		if filterStops {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		tokens = append(tokens, boolean.Token[string]{Term: word, Position: pos})
		pos++
	}
	return tokens
}

// Terms is a convenience for callers that only need the term sequence.
func Terms(text string) []string {
	tokens := Basic(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
