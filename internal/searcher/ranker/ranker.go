// Package ranker implements Okapi BM25 term scoring over collection-wide
// statistics, and the result types returned to clients.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
)

const (
	k1 = 1.2
	b  = 0.75
)

type ScoredDoc struct {
	DocID     string         `json:"doc_id"`
	Score     float64        `json:"score"`
	Title     string         `json:"title,omitempty"`
	Shard     int            `json:"shard"`
	Positions []matcher.Span `json:"positions,omitempty"`
}

// CollectionStats are the corpus figures BM25 needs. Shards each report
// their own and the executor sums them so that every shard scores with the
// same IDF.
type CollectionStats struct {
	TotalDocs   int64
	TotalTokens int64
	DocFreq     map[string]int64
}

func (s CollectionStats) AvgDocLength() float64 {
	if s.TotalDocs == 0 {
		return 0
	}
	return float64(s.TotalTokens) / float64(s.TotalDocs)
}

// Add folds the statistics of another shard into s.
func (s *CollectionStats) Add(o CollectionStats) {
	s.TotalDocs += o.TotalDocs
	s.TotalTokens += o.TotalTokens
	if s.DocFreq == nil {
		s.DocFreq = make(map[string]int64, len(o.DocFreq))
	}
	for term, df := range o.DocFreq {
		s.DocFreq[term] += df
	}
}

// BM25 scores one query term.
type BM25 struct {
	idf       float64
	avgDocLen float64
	boost     float64
}

func NewBM25(stats CollectionStats, term string, boost float64) BM25 {
	if boost <= 0 {
		boost = 1
	}
	return BM25{
		idf:       computeIDF(stats.TotalDocs, stats.DocFreq[term]),
		avgDocLen: stats.AvgDocLength(),
		boost:     boost,
	}
}

func (s BM25) IDF() float64 { return s.idf }

// Score returns the boosted BM25 contribution of a term occurring termFreq
// times in a document of docLength tokens. It is never negative.
func (s BM25) Score(termFreq, docLength int) float64 {
	return s.boost * s.idf * computeTFNorm(float64(termFreq), float64(docLength), s.avgDocLen)
}

// Round trims a score to four decimals for presentation.
func Round(score float64) float64 {
	return math.Round(score*10000) / 10000
}

// Sort orders results by descending score, then ascending document id.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].DocID < docs[j].DocID
	})
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	if docFreq > totalDocs {
		docFreq = totalDocs
	}
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
