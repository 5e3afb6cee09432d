package executor

import (
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
)

// LeafFunc returns the leaf matcher of one term. A zero boost asks for a
// filter-only leaf whose scores are never used.
type LeafFunc func(term string, boost float64) matcher.Matcher

// Compile builds the matcher tree of a plan:
//
//	required clauses   Intersection
//	optional clauses   Union, or AndMaybe on top of the required tree
//	| alternatives     DisjunctionMax with tieBreak
//	exclusions         AndNot against the Union of excluded terms
//
// The tree is returned after Replace(0), so clauses whose terms have no
// postings are already folded away.
func Compile(plan *parser.QueryPlan, leaf LeafFunc, tieBreak float64) matcher.Matcher {
	required := fold(plan.Required, leaf, tieBreak, func(a, b matcher.Matcher) matcher.Matcher {
		return matcher.NewIntersection(a, b)
	})
	optional := fold(plan.Optional, leaf, tieBreak, func(a, b matcher.Matcher) matcher.Matcher {
		return matcher.NewUnion(a, b)
	})

	var tree matcher.Matcher
	switch {
	case required != nil && optional != nil:
		tree = matcher.NewAndMaybe(required, optional)
	case required != nil:
		tree = required
	case optional != nil:
		tree = optional
	default:
		return matcher.Null
	}

	var excluded matcher.Matcher
	for _, term := range plan.Excluded {
		l := leaf(term, 0)
		if excluded == nil {
			excluded = l
		} else {
			excluded = matcher.NewUnion(excluded, l)
		}
	}
	if excluded != nil {
		tree = matcher.NewAndNot(tree, excluded)
	}
	return tree.Replace(0)
}

func fold(groups []parser.Group, leaf LeafFunc, tieBreak float64, join func(a, b matcher.Matcher) matcher.Matcher) matcher.Matcher {
	var out matcher.Matcher
	for _, g := range groups {
		var clause matcher.Matcher
		for _, t := range g {
			l := leaf(t.Text, t.Boost)
			if clause == nil {
				clause = l
			} else {
				clause = matcher.NewDisjunctionMaxTieBreak(clause, l, tieBreak)
			}
		}
		if clause == nil {
			continue
		}
		if out == nil {
			out = clause
		} else {
			out = join(out, clause)
		}
	}
	return out
}
