// Package parser turns query strings into QueryPlans.
//
// Syntax, by example:
//
//	golang search       bare terms, joined by the default operator
//	golang AND search   AND or OR anywhere switches the operator for the query
//	+golang search      golang is required, search is optional
//	-java, NOT java     java must not match
//	go|golang           one clause matched by either term, scored by the better
//	golang^2            boost a term's score
package parser

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
)

// MaxTerms bounds the number of distinct terms in one query.
const MaxTerms = 64

type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

type Term struct {
	Text  string  `json:"text"`
	Boost float64 `json:"boost"`
}

// Group is one query clause. A group of several terms matches a document
// containing any of them and scores it by the best one.
type Group []Term

type QueryPlan struct {
	Required []Group  `json:"required,omitempty"`
	Optional []Group  `json:"optional,omitempty"`
	Excluded []string `json:"excluded,omitempty"`
	Operator Operator `json:"operator"`
	RawQuery string   `json:"raw_query"`
}

type Parser struct {
	tok       *tokenizer.Tokenizer
	defaultOp Operator
}

// New returns a parser normalising terms with tok, which must match the
// tokenizer documents were indexed with.
func New(tok *tokenizer.Tokenizer, defaultOp Operator) *Parser {
	if defaultOp != OperatorAnd {
		defaultOp = OperatorOr
	}
	return &Parser{tok: tok, defaultOp: defaultOp}
}

type occur int

const (
	occurDefault occur = iota
	occurRequired
	occurExcluded
)

func (p *Parser) Parse(query string) (*QueryPlan, error) {
	plan := &QueryPlan{
		Operator: p.defaultOp,
		RawQuery: query,
	}
	words := strings.Fields(query)
	for _, w := range words {
		switch strings.ToUpper(w) {
		case "AND":
			plan.Operator = OperatorAnd
		case "OR":
			plan.Operator = OperatorOr
		}
	}

	excludeNext := false
	seen := make(map[string]struct{})
	for _, w := range words {
		switch strings.ToUpper(w) {
		case "AND", "OR":
			if excludeNext {
				return nil, invalid("NOT must be followed by a term, got %q", w)
			}
			continue
		case "NOT":
			excludeNext = true
			continue
		}

		oc := occurDefault
		if excludeNext {
			oc = occurExcluded
			excludeNext = false
		}
		switch w[0] {
		case '+':
			if oc != occurExcluded {
				oc = occurRequired
			}
			w = w[1:]
		case '-':
			oc = occurExcluded
			w = w[1:]
		}
		if w == "" {
			return nil, invalid("dangling operator in %q", query)
		}

		boost := 1.0
		if i := strings.LastIndexByte(w, '^'); i >= 0 {
			b, err := strconv.ParseFloat(w[i+1:], 64)
			if err != nil || b <= 0 || math.IsInf(b, 0) || math.IsNaN(b) {
				return nil, invalid("invalid boost %q", w[i:])
			}
			boost = b
			w = w[:i]
		}

		groups := p.groups(w, boost)
		for _, g := range groups {
			for _, t := range g {
				seen[t.Text] = struct{}{}
			}
			switch {
			case oc == occurExcluded:
				for _, t := range g {
					plan.Excluded = append(plan.Excluded, t.Text)
				}
			case oc == occurRequired || plan.Operator == OperatorAnd:
				plan.Required = append(plan.Required, g)
			default:
				plan.Optional = append(plan.Optional, g)
			}
		}
		if len(seen) > MaxTerms {
			return nil, invalid("query has more than %d terms", MaxTerms)
		}
	}
	if excludeNext {
		return nil, invalid("NOT at end of query")
	}
	return plan, nil
}

// groups splits one query word into clauses. Alternatives separated by |
// form a single group; a plain word that tokenizes into several terms gives
// one group per term.
func (p *Parser) groups(word string, boost float64) []Group {
	alts := strings.Split(word, "|")
	if len(alts) == 1 {
		var out []Group
		for _, term := range p.tok.Terms(word) {
			out = append(out, Group{{Text: term, Boost: boost}})
		}
		return out
	}
	var g Group
	inGroup := make(map[string]struct{})
	for _, alt := range alts {
		for _, term := range p.tok.Terms(alt) {
			if _, dup := inGroup[term]; dup {
				continue
			}
			inGroup[term] = struct{}{}
			g = append(g, Term{Text: term, Boost: boost})
		}
	}
	if len(g) == 0 {
		return nil
	}
	return []Group{g}
}

func invalid(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrInvalidQuery, http.StatusBadRequest, format, args...)
}

// Empty reports whether the plan has nothing that can match a document.
func (q *QueryPlan) Empty() bool {
	return len(q.Required) == 0 && len(q.Optional) == 0
}

// Terms returns the distinct scoring terms of the plan, sorted.
func (q *QueryPlan) Terms() []string {
	set := make(map[string]struct{})
	for _, groups := range [][]Group{q.Required, q.Optional} {
		for _, g := range groups {
			for _, t := range g {
				set[t.Text] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// String renders the plan canonically: two queries that match and score the
// same documents render the same string.
func (q *QueryPlan) String() string {
	var parts []string
	for _, g := range sortedGroups(q.Required) {
		parts = append(parts, "+"+g)
	}
	for _, g := range sortedGroups(q.Optional) {
		parts = append(parts, g)
	}
	excluded := append([]string(nil), q.Excluded...)
	sort.Strings(excluded)
	for i, t := range excluded {
		if i > 0 && t == excluded[i-1] {
			continue
		}
		parts = append(parts, "-"+t)
	}
	return strings.Join(parts, " ")
}

func sortedGroups(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.String()
	}
	sort.Strings(out)
	return out
}

func (g Group) String() string {
	if len(g) == 1 {
		return g[0].String()
	}
	alts := make([]string, len(g))
	for i, t := range g {
		alts[i] = t.String()
	}
	sort.Strings(alts)
	return "(" + strings.Join(alts, "|") + ")"
}

func (t Term) String() string {
	if t.Boost == 1 {
		return t.Text
	}
	return t.Text + "^" + strconv.FormatFloat(t.Boost, 'g', -1, 64)
}
