package ranker

import (
	"math"
	"testing"
)

func TestIDFDecreasesWithDocFreq(t *testing.T) {
	rare := computeIDF(1000, 1)
	common := computeIDF(1000, 900)
	if rare <= common || common < 0 {
		t.Fatalf("idf rare=%v common=%v, want rare > common >= 0", rare, common)
	}
	if got := computeIDF(10, 10); got < 0 {
		t.Fatalf("idf for a term in every doc = %v, want >= 0", got)
	}
}

func TestTFNormSaturates(t *testing.T) {
	one := computeTFNorm(1, 100, 100)
	ten := computeTFNorm(10, 100, 100)
	if !(one < ten && ten < k1+1) {
		t.Fatalf("tfnorm(1)=%v tfnorm(10)=%v, want increasing and below %v", one, ten, k1+1)
	}
	if short, long := computeTFNorm(2, 50, 100), computeTFNorm(2, 200, 100); short <= long {
		t.Fatalf("short doc %v should outscore long doc %v", short, long)
	}
	if computeTFNorm(3, 10, 0) != 0 {
		t.Fatal("empty collection should score zero")
	}
}

func TestBM25Boost(t *testing.T) {
	stats := CollectionStats{TotalDocs: 100, TotalTokens: 1000, DocFreq: map[string]int64{"go": 5}}
	plain := NewBM25(stats, "go", 1)
	boosted := NewBM25(stats, "go", 2.5)
	if math.Abs(boosted.Score(2, 10)-2.5*plain.Score(2, 10)) > 1e-12 {
		t.Fatalf("boost not applied: %v vs %v", boosted.Score(2, 10), plain.Score(2, 10))
	}
	if NewBM25(stats, "go", 0).Score(2, 10) != plain.Score(2, 10) {
		t.Fatal("non-positive boost should default to 1")
	}
}

func TestCollectionStatsAdd(t *testing.T) {
	var total CollectionStats
	total.Add(CollectionStats{TotalDocs: 2, TotalTokens: 10, DocFreq: map[string]int64{"a": 1}})
	total.Add(CollectionStats{TotalDocs: 3, TotalTokens: 20, DocFreq: map[string]int64{"a": 2, "b": 1}})
	if total.TotalDocs != 5 || total.DocFreq["a"] != 3 || total.DocFreq["b"] != 1 {
		t.Fatalf("Add() = %+v", total)
	}
	if total.AvgDocLength() != 6 {
		t.Fatalf("AvgDocLength() = %v, want 6", total.AvgDocLength())
	}
}

func TestSortAndRound(t *testing.T) {
	docs := []ScoredDoc{{DocID: "b", Score: 1}, {DocID: "a", Score: 1}, {DocID: "c", Score: 2}}
	Sort(docs)
	if docs[0].DocID != "c" || docs[1].DocID != "a" || docs[2].DocID != "b" {
		t.Fatalf("Sort() = %v", docs)
	}
	if Round(1.234567) != 1.2346 {
		t.Fatalf("Round() = %v", Round(1.234567))
	}
}
