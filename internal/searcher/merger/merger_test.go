package merger

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
)

func TestMergeAcrossShards(t *testing.T) {
	shards := [][]ranker.ScoredDoc{
		{{DocID: "a", Score: 3}, {DocID: "b", Score: 1}},
		{{DocID: "c", Score: 2}, {DocID: "d", Score: 3}},
		nil,
	}
	got := Merge(shards, 3)
	want := []string{"a", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("Merge() = %v", got)
	}
	for i, id := range want {
		if got[i].DocID != id {
			t.Fatalf("Merge()[%d] = %s, want %s (got %v)", i, got[i].DocID, id, got)
		}
	}
}

func TestMergeDefaultLimit(t *testing.T) {
	var docs []ranker.ScoredDoc
	for i := 0; i < 20; i++ {
		docs = append(docs, ranker.ScoredDoc{DocID: string(rune('a' + i)), Score: float64(i)})
	}
	if got := Merge([][]ranker.ScoredDoc{docs}, 0); len(got) != 10 || got[0].Score != 19 {
		t.Fatalf("Merge(limit 0) = %v", got)
	}
}

func TestTopKFloor(t *testing.T) {
	top := NewTopK(2, func(a, b Entry[int]) bool {
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Item > b.Item
	})
	if top.Floor() != 0 || top.Full() {
		t.Fatal("empty TopK should have floor 0")
	}
	top.Offer(1, 5)
	top.Offer(2, 1)
	if !top.Full() || top.Floor() != 1 {
		t.Fatalf("floor = %v, want 1", top.Floor())
	}
	if top.Offer(3, 1) {
		t.Fatal("a later entry with the floor score must not displace an earlier one")
	}
	if !top.Offer(4, 2) || top.Floor() != 2 {
		t.Fatalf("floor after better offer = %v, want 2", top.Floor())
	}
	res := top.Results()
	if len(res) != 2 || res[0].Item != 1 || res[1].Item != 4 {
		t.Fatalf("Results() = %v", res)
	}
}
