package matcher

import "github.com/RoaringBitmap/roaring/v2"

// UnionMatcher matches documents in either child. Documents found in both
// are produced once, with their weights and scores summed.
type UnionMatcher struct {
	additive
	// id caches min(a.ID(), b.ID()); cleared by every move.
	id    DocID
	hasID bool
}

func NewUnion(a, b Matcher) *UnionMatcher {
	return &UnionMatcher{additive: additive{biMatcher{a: a, b: b}}}
}

func (m *UnionMatcher) IsActive() bool {
	return m.a.IsActive() || m.b.IsActive()
}

func (m *UnionMatcher) ID() DocID {
	if m.hasID {
		return m.id
	}
	var id DocID
	switch {
	case !m.a.IsActive():
		id = m.b.ID()
	case !m.b.IsActive():
		id = m.a.ID()
	default:
		id = min(m.a.ID(), m.b.ID())
	}
	m.id, m.hasID = id, true
	return id
}

// current reports which children sit on the union's current document.
func (m *UnionMatcher) current() (aAt, bAt bool) {
	aActive, bActive := m.a.IsActive(), m.b.IsActive()
	if !aActive || !bActive {
		return aActive, bActive
	}
	aID, bID := m.a.ID(), m.b.ID()
	return aID <= bID, bID <= aID
}

func (m *UnionMatcher) Next() error {
	m.hasID = false
	a, b := m.a, m.b
	aActive, bActive := a.IsActive(), b.IsActive()
	switch {
	case !aActive && !bActive:
		return readTooFar("union next")
	case !aActive:
		return b.Next()
	case !bActive:
		return a.Next()
	}
	aID, bID := a.ID(), b.ID()
	if aID <= bID {
		if err := a.Next(); err != nil {
			return err
		}
	}
	if bID <= aID {
		if err := b.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (m *UnionMatcher) SkipTo(target DocID) error {
	m.hasID = false
	if !m.IsActive() {
		return readTooFar("union skip")
	}
	if m.a.IsActive() {
		if err := m.a.SkipTo(target); err != nil {
			return err
		}
	}
	if m.b.IsActive() {
		if err := m.b.SkipTo(target); err != nil {
			return err
		}
	}
	return nil
}

func (m *UnionMatcher) Weight() float64 {
	aAt, bAt := m.current()
	var w float64
	if aAt {
		w += m.a.Weight()
	}
	if bAt {
		w += m.b.Weight()
	}
	return w
}

func (m *UnionMatcher) Score() float64 {
	aAt, bAt := m.current()
	var s float64
	if aAt {
		s += m.a.Score()
	}
	if bAt {
		s += m.b.Score()
	}
	return s
}

func (m *UnionMatcher) Spans() []Span {
	aAt, bAt := m.current()
	switch {
	case aAt && bAt:
		return mergeSpans(m.a.Spans(), m.b.Spans())
	case aAt:
		return m.a.Spans()
	case bAt:
		return m.b.Spans()
	}
	return nil
}

// SkipToQuality drains the child with the lower block quality first while the
// two current blocks together cannot beat the floor.
func (m *UnionMatcher) SkipToQuality(minQuality float64) (int, error) {
	m.hasID = false
	a, b := m.a, m.b
	if !a.IsActive() && !b.IsActive() {
		return 0, readTooFar("union quality skip")
	}
	skipped := 0
	aq, bq := blockQ(a), blockQ(b)
	for a.IsActive() && b.IsActive() && aq+bq <= minQuality {
		n, err := skipWeaker(a, b, aq, bq, minQuality)
		if err == nil && n == 0 {
			// No bulk skip is safe, but the current document cannot reach
			// the floor either.
			err = m.Next()
			n = 1
		}
		if err != nil {
			return skipped, err
		}
		skipped += n
		aq, bq = blockQ(a), blockQ(b)
	}
	n, err := skipSurvivor(a, b, minQuality)
	return skipped + n, err
}

func (m *UnionMatcher) Reset() {
	m.hasID = false
	m.resetChildren()
}

func (m *UnionMatcher) Replace(minQuality float64) Matcher {
	a, b := m.a, m.b
	aActive, bActive := a.IsActive(), b.IsActive()
	if minQuality > 0 && aActive && bActive {
		aMax, bMax := a.MaxQuality(), b.MaxQuality()
		switch {
		case aMax < minQuality && bMax < minQuality:
			// Only documents in both children can reach the floor.
			return NewIntersection(a, b).Replace(minQuality)
		case aMax < minQuality:
			return NewAndMaybe(b, a).Replace(minQuality)
		case bMax < minQuality:
			return NewAndMaybe(a, b).Replace(minQuality)
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

	newA := a.Replace(reduced(minQuality, b.MaxQuality()))
	newB := b.Replace(reduced(minQuality, a.MaxQuality()))
	switch {
	case !newA.IsActive() && !newB.IsActive():
		return Null
	case !newA.IsActive():
		return newB
	case !newB.IsActive():
		return newA
	case changed(a, newA) || changed(b, newB):
		return NewUnion(newA, newB)
	}
	m.hasID = false
	return m
}

func (m *UnionMatcher) Copy() Matcher {
	return NewUnion(m.a.Copy(), m.b.Copy())
}

func (m *UnionMatcher) allIDs() *roaring.Bitmap {
	return roaring.Or(AllIDs(m.a), AllIDs(m.b))
}
