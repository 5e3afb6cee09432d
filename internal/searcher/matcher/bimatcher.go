package matcher

// biMatcher holds the two children shared by every combinator. A combinator
// owns its children exclusively.
type biMatcher struct {
	a Matcher
	b Matcher
}

func (m *biMatcher) Children() []Matcher {
	return []Matcher{m.a, m.b}
}

func (m *biMatcher) Depth() int {
	return 1 + max(m.a.Depth(), m.b.Depth())
}

func (m *biMatcher) SupportsBlockQuality() bool {
	return m.a.SupportsBlockQuality() && m.b.SupportsBlockQuality()
}

func (m *biMatcher) Supports(c Capability) bool {
	return m.a.Supports(c) && m.b.Supports(c)
}

func (m *biMatcher) resetChildren() {
	m.a.Reset()
	m.b.Reset()
}

// additive is a biMatcher whose weight and score are the sum of its children.
type additive struct {
	biMatcher
}

func (m *additive) MaxQuality() float64 {
	return maxQ(m.a) + maxQ(m.b)
}

func (m *additive) BlockQuality() float64 {
	return blockQ(m.a) + blockQ(m.b)
}

func (m *additive) Weight() float64 {
	return m.a.Weight() + m.b.Weight()
}

func (m *additive) Score() float64 {
	return m.a.Score() + m.b.Score()
}

func maxQ(m Matcher) float64 {
	if !m.IsActive() {
		return 0
	}
	return m.MaxQuality()
}

func blockQ(m Matcher) float64 {
	if !m.IsActive() {
		return 0
	}
	return m.BlockQuality()
}

// reduced is the floor left for one child once its sibling may already
// contribute up to other.
func reduced(minQuality, other float64) float64 {
	if minQuality <= 0 {
		return 0
	}
	return minQuality - other
}

// skipWeaker quality-skips the child with the lower block quality, or its
// sibling when that one cannot move. A child's budget is the floor less the
// sibling's max quality: the sibling's block quality only bounds documents
// inside its current block.
func skipWeaker(a, b Matcher, aq, bq, minQuality float64) (int, error) {
	first, second := b, a
	if aq < bq {
		first, second = a, b
	}
	n, err := first.SkipToQuality(minQuality - second.MaxQuality())
	if err != nil || n > 0 {
		return n, err
	}
	return second.SkipToQuality(minQuality - first.MaxQuality())
}

// skipSurvivor finishes a quality skip once at most one child is active.
func skipSurvivor(a, b Matcher, minQuality float64) (int, error) {
	switch {
	case a.IsActive() && !b.IsActive():
		return a.SkipToQuality(minQuality)
	case b.IsActive() && !a.IsActive():
		return b.SkipToQuality(minQuality)
	}
	return 0, nil
}

// changed reports whether Replace produced a different child.
func changed(old, replaced Matcher) bool {
	return old != replaced
}
