package matcher

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// IntersectionMatcher matches documents present in both children. While
// active, both children are parked on the same document.
type IntersectionMatcher struct {
	additive
}

func NewIntersection(a, b Matcher) *IntersectionMatcher {
	m := &IntersectionMatcher{additive: additive{biMatcher{a: a, b: b}}}
	m.findFirst()
	return m
}

func (m *IntersectionMatcher) findFirst() {
	if m.a.IsActive() && m.b.IsActive() && m.a.ID() != m.b.ID() {
		if err := m.findNext(); err != nil {
			panic(fmt.Sprintf("matcher: synchronizing active children: %v", err))
		}
	}
}

// findNext leapfrogs the children until they agree on a document or one of
// them runs out.
func (m *IntersectionMatcher) findNext() error {
	a, b := m.a, m.b
	aID, bID := a.ID(), b.ID()
	if aID == bID {
		panic("matcher: intersection resynchronized while already in sync")
	}
	for aID != bID {
		if aID < bID {
			if err := a.SkipTo(bID); err != nil {
				return err
			}
			if !a.IsActive() {
				return nil
			}
			aID = a.ID()
		} else {
			if err := b.SkipTo(aID); err != nil {
				return err
			}
			if !b.IsActive() {
				return nil
			}
			bID = b.ID()
		}
	}
	return nil
}

func (m *IntersectionMatcher) IsActive() bool {
	return m.a.IsActive() && m.b.IsActive()
}

func (m *IntersectionMatcher) ID() DocID {
	if !m.IsActive() {
		panic(readTooFar("intersection id"))
	}
	return m.a.ID()
}

func (m *IntersectionMatcher) synced() bool {
	return !m.IsActive() || m.a.ID() == m.b.ID()
}

func (m *IntersectionMatcher) Next() error {
	if !m.IsActive() {
		return readTooFar("intersection next")
	}
	// b sits on the same document as a; the resync moves it past.
	if err := m.a.Next(); err != nil {
		return err
	}
	if m.synced() {
		return nil
	}
	return m.findNext()
}

func (m *IntersectionMatcher) SkipTo(target DocID) error {
	if !m.IsActive() {
		return readTooFar("intersection skip")
	}
	if err := m.a.SkipTo(target); err != nil {
		return err
	}
	if err := m.b.SkipTo(target); err != nil {
		return err
	}
	if m.synced() {
		return nil
	}
	return m.findNext()
}

func (m *IntersectionMatcher) SkipToQuality(minQuality float64) (int, error) {
	if !m.IsActive() {
		return 0, readTooFar("intersection quality skip")
	}
	a, b := m.a, m.b
	skipped := 0
	aq, bq := a.BlockQuality(), b.BlockQuality()
	for a.IsActive() && b.IsActive() && aq+bq <= minQuality {
		n, err := skipWeaker(a, b, aq, bq, minQuality)
		if err == nil && n == 0 {
			// Neither side could skip a block; step past the current
			// document so the loop makes progress.
			err = a.Next()
			n = 1
		}
		if err != nil {
			return skipped, err
		}
		skipped += n
		if !a.IsActive() || !b.IsActive() {
			break
		}
		if a.ID() != b.ID() {
			if err := m.findNext(); err != nil {
				return skipped, err
			}
		}
		aq, bq = blockQ(a), blockQ(b)
	}
	return skipped, nil
}

func (m *IntersectionMatcher) Spans() []Span {
	if !m.IsActive() {
		return nil
	}
	return mergeSpans(m.a.Spans(), m.b.Spans())
}

func (m *IntersectionMatcher) Reset() {
	m.resetChildren()
	m.findFirst()
}

func (m *IntersectionMatcher) Replace(minQuality float64) Matcher {
	a, b := m.a, m.b
	if !a.IsActive() || !b.IsActive() {
		return Null
	}
	var aMin, bMin float64
	if minQuality > 0 {
		aMax, bMax := a.MaxQuality(), b.MaxQuality()
		if aMax+bMax < minQuality {
			return Null
		}
		aMin, bMin = minQuality-bMax, minQuality-aMax
	}
	newA := a.Replace(aMin)
	newB := b.Replace(bMin)
	switch {
	case !newA.IsActive() || !newB.IsActive():
		return Null
	case changed(a, newA) || changed(b, newB):
		return NewIntersection(newA, newB)
	}
	return m
}

func (m *IntersectionMatcher) Copy() Matcher {
	return NewIntersection(m.a.Copy(), m.b.Copy())
}

// allIDs intersects the full id sets of both children. It holds both sets in
// memory at once; prefer scanning for large postings lists.
func (m *IntersectionMatcher) allIDs() *roaring.Bitmap {
	return roaring.And(AllIDs(m.a), AllIDs(m.b))
}
