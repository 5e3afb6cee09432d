package matcher

import "github.com/RoaringBitmap/roaring/v2"

type idLister interface {
	allIDs() *roaring.Bitmap
}

// AllIDs materializes every document id m can still produce. Combinators
// compute it with bitmap set algebra over their children; other matchers are
// drained, so m may be advanced. Pass a Copy if m will be scanned afterwards.
func AllIDs(m Matcher) *roaring.Bitmap {
	if !m.IsActive() {
		return roaring.New()
	}
	if l, ok := m.(idLister); ok {
		return l.allIDs()
	}
	bm := roaring.New()
	for m.IsActive() {
		bm.Add(uint32(m.ID()))
		if err := m.Next(); err != nil {
			break
		}
	}
	return bm
}
