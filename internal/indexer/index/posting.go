package index

import "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"

// Posting records the occurrences of one term in one document.
type Posting struct {
	Doc       matcher.DocID
	Frequency int
	Positions []int
}

// PostingList is sorted by Doc in ascending order.
type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}

// DocMeta is what the index keeps about a document besides its postings.
type DocMeta struct {
	ExternalID string
	Title      string
	Length     int
}
