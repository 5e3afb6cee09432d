package matcher

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// AndNotMatcher matches documents of a (the positive side) that are absent
// from b (the negative side). Weight, score and spans come from a alone.
type AndNotMatcher struct {
	biMatcher
}

func NewAndNot(pos, neg Matcher) *AndNotMatcher {
	m := &AndNotMatcher{biMatcher{a: pos, b: neg}}
	if err := m.findNext(); err != nil {
		panic(fmt.Sprintf("matcher: excluding negative postings: %v", err))
	}
	return m
}

// findNext moves pos past every document also present in neg.
func (m *AndNotMatcher) findNext() error {
	pos, neg := m.a, m.b
	if !pos.IsActive() || !neg.IsActive() {
		return nil
	}
	posID := pos.ID()
	if neg.ID() < posID {
		if err := neg.SkipTo(posID); err != nil {
			return err
		}
	}
	for pos.IsActive() && neg.IsActive() && posID == neg.ID() {
		if err := pos.Next(); err != nil {
			return err
		}
		if !pos.IsActive() {
			break
		}
		posID = pos.ID()
		if err := neg.SkipTo(posID); err != nil {
			return err
		}
	}
	return nil
}

func (m *AndNotMatcher) IsActive() bool {
	return m.a.IsActive()
}

func (m *AndNotMatcher) ID() DocID {
	return m.a.ID()
}

func (m *AndNotMatcher) Next() error {
	if !m.a.IsActive() {
		return readTooFar("and-not next")
	}
	if err := m.a.Next(); err != nil {
		return err
	}
	return m.findNext()
}

func (m *AndNotMatcher) SkipTo(target DocID) error {
	if !m.a.IsActive() {
		return readTooFar("and-not skip")
	}
	if target <= m.a.ID() {
		return nil
	}
	if err := m.a.SkipTo(target); err != nil {
		return err
	}
	return m.findNext()
}

func (m *AndNotMatcher) SkipToQuality(minQuality float64) (int, error) {
	if !m.a.IsActive() {
		return 0, readTooFar("and-not quality skip")
	}
	skipped := 0
	// Stepping past an excluded document can land in a weaker block, so
	// keep going until the current block can beat the floor.
	for m.a.IsActive() && m.a.BlockQuality() <= minQuality {
		n, err := m.a.SkipToQuality(minQuality)
		if err != nil {
			return skipped, err
		}
		skipped += n
		if err := m.findNext(); err != nil {
			return skipped, err
		}
		if n == 0 {
			break
		}
	}
	return skipped, nil
}

func (m *AndNotMatcher) Weight() float64            { return m.a.Weight() }
func (m *AndNotMatcher) Score() float64             { return m.a.Score() }
func (m *AndNotMatcher) MaxQuality() float64        { return m.a.MaxQuality() }
func (m *AndNotMatcher) BlockQuality() float64      { return m.a.BlockQuality() }
func (m *AndNotMatcher) SupportsBlockQuality() bool { return m.a.SupportsBlockQuality() }
func (m *AndNotMatcher) Supports(c Capability) bool { return m.a.Supports(c) }
func (m *AndNotMatcher) Spans() []Span              { return m.a.Spans() }

func (m *AndNotMatcher) Reset() {
	m.resetChildren()
	if err := m.findNext(); err != nil {
		panic(fmt.Sprintf("matcher: excluding negative postings: %v", err))
	}
}

func (m *AndNotMatcher) Replace(minQuality float64) Matcher {
	a, b := m.a, m.b
	if !a.IsActive() {
		return Null
	}
	if minQuality > 0 && a.MaxQuality() < minQuality {
		return Null
	}
	if !b.IsActive() {
		return a.Replace(minQuality)
	}
	newA := a.Replace(minQuality)
	// The negative side must be walked in full to know what to exclude.
	newB := b.Replace(0)
	switch {
	case !newA.IsActive():
		return Null
	case !newB.IsActive():
		return newA
	case changed(a, newA) || changed(b, newB):
		return NewAndNot(newA, newB)
	}
	return m
}

func (m *AndNotMatcher) Copy() Matcher {
	return NewAndNot(m.a.Copy(), m.b.Copy())
}

func (m *AndNotMatcher) allIDs() *roaring.Bitmap {
	return roaring.AndNot(AllIDs(m.a), AllIDs(m.b))
}
