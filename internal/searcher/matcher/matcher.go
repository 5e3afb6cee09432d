// Package matcher implements postings-list matchers: cursors over sorted
// document id streams and the binary combinators (union, intersection,
// and-not, and-maybe, disjunction-max) that merge them with block-max
// quality skipping for top-K scoring.
//
// A matcher tree is driven by a single scan loop. Matchers are not safe for
// concurrent use; use Copy to scan the same tree from two places.
package matcher

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrReadTooFar is returned when a positional operation is invoked on a
// matcher that is no longer active.
var ErrReadTooFar = errors.New("matcher: read past end of postings")

// DocID identifies a document within one index shard.
type DocID uint32

// Capability names an auxiliary per-position value a matcher may expose.
type Capability string

const (
	// CapSpans means Spans returns positional data for the current document.
	CapSpans Capability = "spans"
)

// Span is a token position range within a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Matcher is a cursor over a non-decreasing sequence of document ids paired
// with a weight and score for the current position.
type Matcher interface {
	IsActive() bool
	// ID returns the current document. It panics if the matcher is inactive.
	ID() DocID
	Next() error
	SkipTo(target DocID) error
	// SkipToQuality skips whole blocks whose quality cannot exceed minQuality
	// and returns the number of postings passed over.
	SkipToQuality(minQuality float64) (int, error)
	Weight() float64
	Score() float64
	// MaxQuality is an upper bound on Score over all remaining positions.
	MaxQuality() float64
	// BlockQuality is an upper bound on Score within the current block.
	BlockQuality() float64
	SupportsBlockQuality() bool
	Supports(c Capability) bool
	Spans() []Span
	Reset()
	// Replace returns a possibly simplified matcher equivalent to this one for
	// every document that can still score at least minQuality. The caller must
	// use the returned matcher from then on.
	Replace(minQuality float64) Matcher
	Copy() Matcher
	Depth() int
	Children() []Matcher
}

func readTooFar(op string) error {
	return fmt.Errorf("%s: %w", op, ErrReadTooFar)
}

// mergeSpans returns the sorted, deduplicated union of a and b.
func mergeSpans(a, b []Span) []Span {
	out := make([]Span, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.SortFunc(out, func(x, y Span) int {
		if x.Start != y.Start {
			return x.Start - y.Start
		}
		return x.End - y.End
	})
	return slices.Compact(out)
}

// Describe renders the shape of a matcher tree, e.g.
// "Union(Intersection(List, List), List)".
func Describe(m Matcher) string {
	var sb strings.Builder
	describe(&sb, m)
	return sb.String()
}

func describe(sb *strings.Builder, m Matcher) {
	sb.WriteString(kindName(m))
	children := m.Children()
	if len(children) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			sb.WriteString(", ")
		}
		describe(sb, c)
	}
	sb.WriteByte(')')
}

func kindName(m Matcher) string {
	switch m.(type) {
	case *UnionMatcher:
		return "Union"
	case *DisjunctionMaxMatcher:
		return "DisMax"
	case *IntersectionMatcher:
		return "Intersection"
	case *AndNotMatcher:
		return "AndNot"
	case *AndMaybeMatcher:
		return "AndMaybe"
	case *ListMatcher:
		return "List"
	case nullMatcher:
		return "Null"
	default:
		return fmt.Sprintf("%T", m)
	}
}

// SameKind reports whether a and b are the same combinator type. Planners use
// it to compare tree shape without looking at the postings underneath.
func SameKind(a, b Matcher) bool {
	return kindName(a) == kindName(b)
}
