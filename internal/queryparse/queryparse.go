// Package queryparse compiles the search service's query-string syntax
// into the boolean query AST. The surface is deliberately small: terms
// joined by AND (default) or OR, NOT <term> exclusions, and quoted
// phrases.
package queryparse

import (
	"errors"
	"strings"

	"github.com/CurrySoftware/perlin/analyzer"
	"github.com/CurrySoftware/perlin/boolean"
)

// ErrEmptyQuery is returned when no terms survive parsing.
var ErrEmptyQuery = errors.New("queryparse: empty query")

// Parse turns a raw query string into an executable query tree.
func Parse(raw string) (boolean.Query[string], error) {
	var (
		operands []boolean.Query[string]
		excludes []boolean.Query[string]
		useOr    bool
		negate   bool
	)

	rest := strings.TrimSpace(raw)
	for rest != "" {
		var word string
		if rest[0] == '"' {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				// Unterminated quote: treat the remainder as the phrase.
				word, rest = rest[1:], ""
			} else {
				word, rest = rest[1:1+end], rest[2+end:]
			}
			terms := analyzer.Terms(word)
			if len(terms) > 0 {
				q := phraseOrAtom(terms)
				if negate {
					excludes = append(excludes, q)
					negate = false
				} else {
					operands = append(operands, q)
				}
			}
			rest = strings.TrimSpace(rest)
			continue
		}
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			word, rest = rest[:i], strings.TrimSpace(rest[i+1:])
		} else {
			word, rest = rest, ""
		}
		switch strings.ToUpper(word) {
		case "AND":
			useOr = false
			continue
		case "OR":
			useOr = true
			continue
		case "NOT":
			negate = true
			continue
		}
		terms := analyzer.Terms(word)
		if len(terms) == 0 {
			continue
		}
		q := phraseOrAtom(terms)
		if negate {
			excludes = append(excludes, q)
			negate = false
		} else {
			operands = append(operands, q)
		}
	}

	if len(operands) == 0 {
		return nil, ErrEmptyQuery
	}
	var q boolean.Query[string]
	switch {
	case len(operands) == 1:
		q = operands[0]
	case useOr:
		q = boolean.Or(operands...)
	default:
		q = boolean.And(operands...)
	}
	if len(excludes) > 0 {
		sieve := excludes[0]
		if len(excludes) > 1 {
			sieve = boolean.Or(excludes...)
		}
		q = boolean.Not[string](q, sieve)
	}
	return q, nil
}

// phraseOrAtom lifts a multi-term token run into a phrase query and a
// single term into an atom.
func phraseOrAtom(terms []string) boolean.Query[string] {
	if len(terms) == 1 {
		return boolean.NewAtom(terms[0])
	}
	return boolean.Phrase(terms...)
}
