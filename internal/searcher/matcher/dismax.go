package matcher

// DisjunctionMaxMatcher matches the same documents as UnionMatcher but scores
// a document found in both children by the higher of the two scores, plus
// tieBreak times the lower one. tieBreak is expected in [0, 1].
type DisjunctionMaxMatcher struct {
	UnionMatcher
	tieBreak float64
}

func NewDisjunctionMax(a, b Matcher) *DisjunctionMaxMatcher {
	return NewDisjunctionMaxTieBreak(a, b, 0)
}

func NewDisjunctionMaxTieBreak(a, b Matcher, tieBreak float64) *DisjunctionMaxMatcher {
	return &DisjunctionMaxMatcher{
		UnionMatcher: UnionMatcher{additive: additive{biMatcher{a: a, b: b}}},
		tieBreak:     tieBreak,
	}
}

func (m *DisjunctionMaxMatcher) combine(x, y float64) float64 {
	return max(x, y) + m.tieBreak*min(x, y)
}

func (m *DisjunctionMaxMatcher) Score() float64 {
	aAt, bAt := m.current()
	switch {
	case aAt && bAt:
		return m.combine(m.a.Score(), m.b.Score())
	case aAt:
		return m.a.Score()
	case bAt:
		return m.b.Score()
	}
	return 0
}

func (m *DisjunctionMaxMatcher) MaxQuality() float64 {
	return m.combine(maxQ(m.a), maxQ(m.b))
}

func (m *DisjunctionMaxMatcher) BlockQuality() float64 {
	return m.combine(blockQ(m.a), blockQ(m.b))
}

// budget is the highest score a child may have on a skipped document when its
// sibling may still contribute up to other. Without a tie-break the sibling
// never adds to the score; with one, combine never exceeds the plain sum.
func (m *DisjunctionMaxMatcher) budget(minQuality, other float64) float64 {
	if m.tieBreak == 0 {
		return minQuality
	}
	return minQuality - other
}

// SkipToQuality advances each child independently: a child may skip any
// block that cannot beat the floor by itself.
func (m *DisjunctionMaxMatcher) SkipToQuality(minQuality float64) (int, error) {
	m.hasID = false
	a, b := m.a, m.b
	if !a.IsActive() && !b.IsActive() {
		return 0, readTooFar("dismax quality skip")
	}
	skipped := 0
	aq, bq := blockQ(a), blockQ(b)
	for a.IsActive() && b.IsActive() && m.combine(aq, bq) <= minQuality {
		aFloor := m.budget(minQuality, b.MaxQuality())
		bFloor := m.budget(minQuality, a.MaxQuality())
		moved := false
		if aq <= aFloor {
			n, err := a.SkipToQuality(aFloor)
			if err != nil {
				return skipped, err
			}
			skipped += n
			moved = moved || n > 0
			aq = blockQ(a)
		}
		if b.IsActive() && bq <= bFloor {
			n, err := b.SkipToQuality(bFloor)
			if err != nil {
				return skipped, err
			}
			skipped += n
			moved = moved || n > 0
			bq = blockQ(b)
		}
		if !moved && a.IsActive() && b.IsActive() {
			// The current document cannot beat the floor; step past it.
			if err := m.Next(); err != nil {
				return skipped, err
			}
			skipped++
			aq, bq = blockQ(a), blockQ(b)
		}
	}
	n, err := skipSurvivor(a, b, minQuality)
	return skipped + n, err
}

func (m *DisjunctionMaxMatcher) Replace(minQuality float64) Matcher {
	a, b := m.a, m.b
	aActive, bActive := a.IsActive(), b.IsActive()
	if minQuality > 0 && aActive && bActive {
		aMax, bMax := a.MaxQuality(), b.MaxQuality()
		if m.combine(aMax, bMax) < minQuality {
			// Scores are not added, so co-occurrence cannot rescue anything.
			return Null
		}
		if m.tieBreak == 0 {
			if bMax < minQuality {
				return a.Replace(minQuality)
			}
			if aMax < minQuality {
				return b.Replace(minQuality)
			}
		}
	}
	switch {
	case !aActive && !bActive:
		return Null
	case !aActive:
		return b.Replace(minQuality)
	case !bActive:
		return a.Replace(minQuality)
	}

	floor := minQuality
	if m.tieBreak > 0 {
		// Dropping either side would change the tie-break share of documents
		// found in both.
		floor = 0
	}
	newA := a.Replace(floor)
	newB := b.Replace(floor)
	switch {
	case !newA.IsActive() && !newB.IsActive():
		return Null
	case !newA.IsActive():
		return newB
	case !newB.IsActive():
		return newA
	case changed(a, newA) || changed(b, newB):
		return NewDisjunctionMaxTieBreak(newA, newB, m.tieBreak)
	}
	m.hasID = false
	return m
}

func (m *DisjunctionMaxMatcher) Copy() Matcher {
	return NewDisjunctionMaxTieBreak(m.a.Copy(), m.b.Copy(), m.tieBreak)
}
