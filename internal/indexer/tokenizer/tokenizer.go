// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, splits on non-alphanumeric boundaries, removes
// stop-words, and stems with the Snowball English stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenizer turns text into index terms. The zero value does not stem.
type Tokenizer struct {
	stem bool
}

// New returns a Tokenizer. Documents and queries must go through tokenizers
// with the same stemming setting or terms will not line up.
func New(stem bool) *Tokenizer {
	return &Tokenizer{stem: stem}
}

var std = New(true)

// Tokenize breaks text into stemmed tokens using the default tokenizer.
func Tokenize(text string) []Token {
	return std.Tokenize(text)
}

// Tokenize breaks text into a slice of lowercased Tokens with stop-words
// removed. Positions count only the tokens that survive filtering.
func (t *Tokenizer) Tokenize(text string) []Token {
	words := split(text)
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		term := t.normalize(word)
		if term == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     term,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns the distinct terms of text in first-seen order.
func (t *Tokenizer) Terms(text string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, word := range split(text) {
		term := t.normalize(word)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// IsStopWord reports whether word is dropped during tokenisation.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

func split(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (t *Tokenizer) normalize(word string) string {
	if len(word) < 2 {
		return ""
	}
	if _, isStop := stopWords[word]; isStop {
		return ""
	}
	if !t.stem {
		return word
	}
	return english.Stem(word, false)
}
