package matcher

import "github.com/RoaringBitmap/roaring/v2"

// AndMaybeMatcher matches the documents of a. When b holds the same document
// its weight and score are added on top.
type AndMaybeMatcher struct {
	additive
}

func NewAndMaybe(a, b Matcher) *AndMaybeMatcher {
	m := &AndMaybeMatcher{additive: additive{biMatcher{a: a, b: b}}}
	if err := m.catchUp(); err != nil {
		panic("matcher: and-maybe catch-up: " + err.Error())
	}
	return m
}

// catchUp moves b to a's document so the two can be compared.
func (m *AndMaybeMatcher) catchUp() error {
	if m.a.IsActive() && m.b.IsActive() && m.b.ID() < m.a.ID() {
		return m.b.SkipTo(m.a.ID())
	}
	return nil
}

func (m *AndMaybeMatcher) IsActive() bool {
	return m.a.IsActive()
}

func (m *AndMaybeMatcher) ID() DocID {
	return m.a.ID()
}

func (m *AndMaybeMatcher) Next() error {
	if !m.a.IsActive() {
		return readTooFar("and-maybe next")
	}
	if err := m.a.Next(); err != nil {
		return err
	}
	return m.catchUp()
}

func (m *AndMaybeMatcher) SkipTo(target DocID) error {
	if !m.a.IsActive() {
		return readTooFar("and-maybe skip")
	}
	if err := m.a.SkipTo(target); err != nil {
		return err
	}
	// a may land past target; b has to follow it there, not to target.
	return m.catchUp()
}

func (m *AndMaybeMatcher) coincide() bool {
	return m.a.IsActive() && m.b.IsActive() && m.a.ID() == m.b.ID()
}

func (m *AndMaybeMatcher) Weight() float64 {
	if m.coincide() {
		return m.a.Weight() + m.b.Weight()
	}
	return m.a.Weight()
}

func (m *AndMaybeMatcher) Score() float64 {
	if m.coincide() {
		return m.a.Score() + m.b.Score()
	}
	return m.a.Score()
}

func (m *AndMaybeMatcher) Spans() []Span {
	if m.coincide() {
		return mergeSpans(m.a.Spans(), m.b.Spans())
	}
	return m.a.Spans()
}

func (m *AndMaybeMatcher) SupportsBlockQuality() bool {
	return m.a.SupportsBlockQuality() && m.b.SupportsBlockQuality()
}

func (m *AndMaybeMatcher) Supports(c Capability) bool {
	return m.a.Supports(c)
}

func (m *AndMaybeMatcher) SkipToQuality(minQuality float64) (int, error) {
	a, b := m.a, m.b
	if !a.IsActive() {
		return 0, readTooFar("and-maybe quality skip")
	}
	if !b.IsActive() {
		return a.SkipToQuality(minQuality)
	}
	skipped := 0
	aq, bq := a.BlockQuality(), b.BlockQuality()
	for a.IsActive() && b.IsActive() && aq+bq <= minQuality {
		n, err := skipWeaker(a, b, aq, bq, minQuality)
		if err == nil {
			if n == 0 {
				err = m.Next()
				n = 1
			} else {
				err = m.catchUp()
			}
		}
		if err != nil {
			return skipped, err
		}
		skipped += n
		aq, bq = blockQ(a), blockQ(b)
	}
	if a.IsActive() && !b.IsActive() {
		n, err := a.SkipToQuality(minQuality)
		return skipped + n, err
	}
	return skipped, nil
}

func (m *AndMaybeMatcher) Reset() {
	m.resetChildren()
	if err := m.catchUp(); err != nil {
		panic("matcher: and-maybe catch-up after reset: " + err.Error())
	}
}

func (m *AndMaybeMatcher) Replace(minQuality float64) Matcher {
	a, b := m.a, m.b
	if !a.IsActive() {
		return Null
	}
	if !b.IsActive() {
		return a.Replace(minQuality)
	}
	aMax, bMax := a.MaxQuality(), b.MaxQuality()
	if minQuality > 0 {
		if aMax+bMax < minQuality {
			return Null
		}
		if aMax < minQuality {
			// b is no longer optional: a document needs both to reach the floor.
			return NewIntersection(a, b).Replace(minQuality)
		}
	}
	newA := a.Replace(reduced(minQuality, bMax))
	newB := b.Replace(reduced(minQuality, aMax))
	switch {
	case !newA.IsActive():
		return Null
	case !newB.IsActive():
		return newA
	case changed(a, newA) || changed(b, newB):
		return NewAndMaybe(newA, newB)
	}
	return m
}

func (m *AndMaybeMatcher) Copy() Matcher {
	return NewAndMaybe(m.a.Copy(), m.b.Copy())
}

func (m *AndMaybeMatcher) allIDs() *roaring.Bitmap {
	return AllIDs(m.a)
}
