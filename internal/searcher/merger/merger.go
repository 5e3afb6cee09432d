// Package merger keeps the best-scoring entries of a stream with a bounded
// min-heap: TopK during collection inside a shard, Merge across shards.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
)

type Entry[T any] struct {
	Item  T
	Score float64
}

// TopK retains the k best entries offered to it. worse(a, b) reports whether
// a ranks below b; it must order entries with equal scores consistently.
type TopK[T any] struct {
	k int
	h entryHeap[T]
}

func NewTopK[T any](k int, worse func(a, b Entry[T]) bool) *TopK[T] {
	if k < 1 {
		k = 1
	}
	return &TopK[T]{k: k, h: entryHeap[T]{worse: worse}}
}

// Offer adds an entry if it beats the current worst one, and reports whether
// it was kept.
func (t *TopK[T]) Offer(item T, score float64) bool {
	e := Entry[T]{Item: item, Score: score}
	if t.h.Len() < t.k {
		heap.Push(&t.h, e)
		return true
	}
	if !t.h.worse(t.h.items[0], e) {
		return false
	}
	t.h.items[0] = e
	heap.Fix(&t.h, 0)
	return true
}

// Full reports whether k entries are held.
func (t *TopK[T]) Full() bool { return t.h.Len() >= t.k }

func (t *TopK[T]) Len() int { return t.h.Len() }

// Floor is the score an entry must beat to get in once the heap is full.
func (t *TopK[T]) Floor() float64 {
	if !t.Full() {
		return 0
	}
	return t.h.items[0].Score
}

// Results drains the heap, best entry first.
func (t *TopK[T]) Results() []Entry[T] {
	out := make([]Entry[T], t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(Entry[T])
	}
	return out
}

// Merge combines per-shard result lists into the global top limit, ordered
// by descending score then ascending document id.
func Merge(shardResults [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		limit = 10
	}
	top := NewTopK(limit, func(a, b Entry[ranker.ScoredDoc]) bool {
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Item.DocID > b.Item.DocID
	})
	for _, results := range shardResults {
		for _, doc := range results {
			top.Offer(doc, doc.Score)
		}
	}
	entries := top.Results()
	result := make([]ranker.ScoredDoc, len(entries))
	for i, e := range entries {
		result[i] = e.Item
	}
	return result
}

type entryHeap[T any] struct {
	items []Entry[T]
	worse func(a, b Entry[T]) bool
}

func (h entryHeap[T]) Len() int { return len(h.items) }

func (h entryHeap[T]) Less(i, j int) bool { return h.worse(h.items[i], h.items[j]) }

func (h entryHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *entryHeap[T]) Push(x any) {
	h.items = append(h.items, x.(Entry[T]))
}

func (h *entryHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
