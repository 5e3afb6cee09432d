package matcher

type nullMatcher struct{}

// Null is the always-inactive matcher. Replace returns it when no document
// can reach the requested quality.
var Null Matcher = nullMatcher{}

// IsNull reports whether m is the Null sentinel.
func IsNull(m Matcher) bool {
	_, ok := m.(nullMatcher)
	return ok
}

func (nullMatcher) IsActive() bool { return false }

func (nullMatcher) ID() DocID { panic(readTooFar("null matcher id")) }

func (nullMatcher) Next() error { return readTooFar("null matcher next") }

func (nullMatcher) SkipTo(DocID) error { return readTooFar("null matcher skip") }

func (nullMatcher) SkipToQuality(float64) (int, error) {
	return 0, readTooFar("null matcher quality skip")
}

func (nullMatcher) Weight() float64 { return 0 }
func (nullMatcher) Score() float64 { return 0 }
func (nullMatcher) MaxQuality() float64 { return 0 }
func (nullMatcher) BlockQuality() float64 { return 0 }
func (nullMatcher) SupportsBlockQuality() bool { return true }
func (nullMatcher) Supports(Capability) bool { return false }
func (nullMatcher) Spans() []Span { return nil }
func (nullMatcher) Reset() {}
func (n nullMatcher) Replace(float64) Matcher { return n }
func (n nullMatcher) Copy() Matcher { return n }
func (nullMatcher) Depth() int { return 0 }
func (nullMatcher) Children() []Matcher { return nil }
