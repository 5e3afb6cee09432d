package matcher

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"
)

type hit struct {
	id     DocID
	weight float64
	score  float64
}

// leaf builds a single-block ListMatcher where every posting has weight 1 and
// the given score.
func leaf(ids []DocID, scores ...float64) *ListMatcher {
	postings := make([]Posting, len(ids))
	for i, id := range ids {
		s := 1.0
		if i < len(scores) {
			s = scores[i]
		}
		postings[i] = Posting{ID: id, Weight: 1, Score: s}
	}
	return NewListMatcher(postings, 0)
}

func drain(t *testing.T, m Matcher) []hit {
	t.Helper()
	var hits []hit
	for m.IsActive() {
		hits = append(hits, hit{id: m.ID(), weight: m.Weight(), score: m.Score()})
		if err := m.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	return hits
}

func ids(hits []hit) []DocID {
	out := make([]DocID, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

func equalIDs(t *testing.T, got, want []DocID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d ids %v, want %d ids %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id[%d] = %d, want %d (got %v, want %v)", i, got[i], want[i], got, want)
		}
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// model is the expected output of a matcher tree keyed by document.
type model map[DocID]hit

func (md model) sorted() []hit {
	out := make([]hit, 0, len(md))
	for _, h := range md {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func equalHits(t *testing.T, got, want []hit) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d hits %v, want %d hits %v", len(got), got, len(want), want)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.id != w.id || !approx(g.score, w.score) || !approx(g.weight, w.weight) {
			t.Fatalf("hit[%d] = %+v, want %+v", i, g, w)
		}
	}
}

// randomLeaf returns a ListMatcher over a random subset of [0, universe) with
// scores in quarter steps, so sums stay exact.
func randomLeaf(rng *rand.Rand, universe int) (Matcher, model) {
	md := model{}
	var postings []Posting
	for id := 0; id < universe; id++ {
		if rng.IntN(3) != 0 {
			continue
		}
		p := Posting{
			ID:     DocID(id),
			Weight: float64(rng.IntN(3) + 1),
			Score:  float64(rng.IntN(12)+1) / 4,
		}
		postings = append(postings, p)
		md[p.ID] = hit{id: p.ID, weight: p.Weight, score: p.Score}
	}
	return NewListMatcher(postings, rng.IntN(6)+1), md
}

// randomTree builds a random combinator tree together with the model of what
// it must produce.
func randomTree(rng *rand.Rand, depth, universe int) (Matcher, model) {
	if depth == 0 || rng.IntN(4) == 0 {
		return randomLeaf(rng, universe)
	}
	a, ma := randomTree(rng, depth-1, universe)
	b, mb := randomTree(rng, depth-1, universe)
	out := model{}
	switch rng.IntN(5) {
	case 0:
		for id, h := range ma {
			out[id] = h
		}
		for id, h := range mb {
			if o, ok := out[id]; ok {
				out[id] = hit{id: id, weight: o.weight + h.weight, score: o.score + h.score}
			} else {
				out[id] = h
			}
		}
		return NewUnion(a, b), out
	case 1:
		for id, h := range ma {
			out[id] = h
		}
		for id, h := range mb {
			if o, ok := out[id]; ok {
				out[id] = hit{id: id, weight: o.weight + h.weight, score: max(o.score, h.score)}
			} else {
				out[id] = h
			}
		}
		return NewDisjunctionMax(a, b), out
	case 2:
		for id, h := range ma {
			if o, ok := mb[id]; ok {
				out[id] = hit{id: id, weight: h.weight + o.weight, score: h.score + o.score}
			}
		}
		return NewIntersection(a, b), out
	case 3:
		for id, h := range ma {
			if _, ok := mb[id]; !ok {
				out[id] = h
			}
		}
		return NewAndNot(a, b), out
	default:
		for id, h := range ma {
			if o, ok := mb[id]; ok {
				out[id] = hit{id: id, weight: h.weight + o.weight, score: h.score + o.score}
			} else {
				out[id] = h
			}
		}
		return NewAndMaybe(a, b), out
	}
}

// topScores runs a block-max top-K scan: the floor is the k-th best score
// collected so far, weak blocks are skipped and the tree is rewritten each
// time the floor rises.
func topScores(t *testing.T, m Matcher, k int) []float64 {
	t.Helper()
	var top []float64
	floor := 0.0
	m = m.Replace(0)
	for m.IsActive() {
		if len(top) == k && m.BlockQuality() <= floor {
			if _, err := m.SkipToQuality(floor); err != nil {
				t.Fatalf("SkipToQuality(%v) error = %v", floor, err)
			}
			continue
		}
		id := m.ID()
		if s := m.Score(); len(top) < k || s > floor {
			top = append(top, s)
			sort.Sort(sort.Reverse(sort.Float64Slice(top)))
			if len(top) > k {
				top = top[:k]
			}
			if len(top) == k && top[k-1] > floor {
				floor = top[k-1]
				m = m.Replace(floor)
				if !m.IsActive() {
					break
				}
				// A rewrite may already have moved past the collected document.
				if m.ID() != id {
					continue
				}
			}
		}
		if err := m.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	return top
}

func exhaustiveTop(md model, k int) []float64 {
	scores := make([]float64, 0, len(md))
	for _, h := range md {
		scores = append(scores, h.score)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	if len(scores) > k {
		scores = scores[:k]
	}
	return scores
}
