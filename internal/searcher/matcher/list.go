package matcher

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Posting is one entry of a postings list as seen by a ListMatcher.
type Posting struct {
	ID     DocID
	Weight float64
	Score  float64
	Spans  []Span
}

// ListMatcher is a leaf matcher over an in-memory postings list. The list is
// split into fixed-size blocks; the block quality of a block is the highest
// score it contains.
type ListMatcher struct {
	postings  []Posting
	blockSize int
	blockMax  []float64
	// suffixMax[i] is the highest score in blocks i..end.
	suffixMax []float64
	hasSpans  bool
	pos       int
}

// NewListMatcher builds a leaf over postings, which must be sorted by ID in
// ascending order without duplicates. A blockSize <= 0 puts the whole list in
// a single block. The postings slice is shared by copies and must not be
// modified afterwards.
func NewListMatcher(postings []Posting, blockSize int) *ListMatcher {
	for i := 1; i < len(postings); i++ {
		if postings[i].ID <= postings[i-1].ID {
			panic(fmt.Sprintf("matcher: postings out of order at %d: %d after %d",
				i, postings[i].ID, postings[i-1].ID))
		}
	}
	if blockSize <= 0 || blockSize > len(postings) {
		blockSize = max(len(postings), 1)
	}
	numBlocks := (len(postings) + blockSize - 1) / blockSize
	blockMax := make([]float64, numBlocks)
	for i, p := range postings {
		blk := i / blockSize
		if i%blockSize == 0 || p.Score > blockMax[blk] {
			blockMax[blk] = p.Score
		}
	}
	suffixMax := make([]float64, numBlocks)
	for i := numBlocks - 1; i >= 0; i-- {
		suffixMax[i] = blockMax[i]
		if i+1 < numBlocks && suffixMax[i+1] > suffixMax[i] {
			suffixMax[i] = suffixMax[i+1]
		}
	}
	hasSpans := len(postings) > 0
	for _, p := range postings {
		if p.Spans == nil {
			hasSpans = false
			break
		}
	}
	return &ListMatcher{
		postings:  postings,
		blockSize: blockSize,
		blockMax:  blockMax,
		suffixMax: suffixMax,
		hasSpans:  hasSpans,
	}
}

func (l *ListMatcher) IsActive() bool {
	return l.pos < len(l.postings)
}

func (l *ListMatcher) ID() DocID {
	if !l.IsActive() {
		panic(readTooFar("list matcher id"))
	}
	return l.postings[l.pos].ID
}

func (l *ListMatcher) Next() error {
	if !l.IsActive() {
		return readTooFar("list matcher next")
	}
	l.pos++
	return nil
}

func (l *ListMatcher) SkipTo(target DocID) error {
	if !l.IsActive() {
		return readTooFar("list matcher skip")
	}
	if l.postings[l.pos].ID >= target {
		return nil
	}
	rest := l.postings[l.pos:]
	l.pos += sort.Search(len(rest), func(i int) bool {
		return rest[i].ID >= target
	})
	return nil
}

func (l *ListMatcher) SkipToQuality(minQuality float64) (int, error) {
	if !l.IsActive() {
		return 0, readTooFar("list matcher quality skip")
	}
	skipped := 0
	for l.IsActive() && l.blockMax[l.block()] <= minQuality {
		end := min((l.block()+1)*l.blockSize, len(l.postings))
		skipped += end - l.pos
		l.pos = end
	}
	return skipped, nil
}

func (l *ListMatcher) block() int {
	return l.pos / l.blockSize
}

func (l *ListMatcher) Weight() float64 {
	if !l.IsActive() {
		return 0
	}
	return l.postings[l.pos].Weight
}

func (l *ListMatcher) Score() float64 {
	if !l.IsActive() {
		return 0
	}
	return l.postings[l.pos].Score
}

func (l *ListMatcher) MaxQuality() float64 {
	if !l.IsActive() {
		return 0
	}
	return l.suffixMax[l.block()]
}

func (l *ListMatcher) BlockQuality() float64 {
	if !l.IsActive() {
		return 0
	}
	return l.blockMax[l.block()]
}

func (l *ListMatcher) SupportsBlockQuality() bool { return true }

func (l *ListMatcher) Supports(c Capability) bool {
	return c == CapSpans && l.hasSpans
}

func (l *ListMatcher) Spans() []Span {
	if !l.IsActive() {
		return nil
	}
	return mergeSpans(l.postings[l.pos].Spans, nil)
}

func (l *ListMatcher) Reset() {
	l.pos = 0
}

func (l *ListMatcher) Replace(minQuality float64) Matcher {
	if !l.IsActive() {
		return Null
	}
	if minQuality > 0 && l.MaxQuality() < minQuality {
		return Null
	}
	return l
}

func (l *ListMatcher) Copy() Matcher {
	c := *l
	return &c
}

func (l *ListMatcher) Depth() int { return 0 }

func (l *ListMatcher) Children() []Matcher { return nil }

// Remaining returns the number of postings not yet passed.
func (l *ListMatcher) Remaining() int {
	return len(l.postings) - l.pos
}

func (l *ListMatcher) allIDs() *roaring.Bitmap {
	bm := roaring.New()
	for _, p := range l.postings[l.pos:] {
		bm.Add(uint32(p.ID))
	}
	return bm
}
