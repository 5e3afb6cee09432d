package shard

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

func TestShardForIsStableAndSpread(t *testing.T) {
	r, err := NewRouter(config.IndexerConfig{NumShards: 4, BlockSize: 8}, nil)
	if err != nil {
		t.Fatal(err)
	}
	counts := make([]int, 4)
	for i := 0; i < 400; i++ {
		id := fmt.Sprintf("doc-%d", i)
		s := r.ShardFor(id)
		if s != r.ShardFor(id) {
			t.Fatalf("ShardFor(%s) not stable", id)
		}
		counts[s]++
	}
	for s, n := range counts {
		if n == 0 {
			t.Errorf("shard %d received no documents: %v", s, counts)
		}
	}
}

func TestIndexRoutesAndCounts(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r, err := NewRouter(config.IndexerConfig{NumShards: 3, BlockSize: 8}, m)
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Index("alpha", "Alpha", "first document body")
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if res.ShardID != r.ShardFor("alpha") || res.TokenCount != 4 {
		t.Fatalf("Index() = %+v", res)
	}
	engine, _ := r.Route(res.ShardID)
	if !engine.HasDocument("alpha") {
		t.Fatal("document not in its routed shard")
	}
	if _, err := r.Index("alpha", "", "dup"); !apperrors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("duplicate Index() error = %v", err)
	}
	if got := testutil.ToFloat64(m.DocsIndexedTotal); got != 1 {
		t.Errorf("docs indexed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveShards); got != 3 {
		t.Errorf("active shards = %v, want 3", got)
	}
	if r.DocCount() != 1 || len(r.Engines()) != 3 {
		t.Fatal("router bookkeeping wrong")
	}
}

func TestRouteBounds(t *testing.T) {
	r, _ := NewRouter(config.IndexerConfig{NumShards: 2}, nil)
	if _, err := r.Route(2); err == nil {
		t.Fatal("Route(2) succeeded on a two-shard router")
	}
	if _, err := NewRouter(config.IndexerConfig{}, nil); err == nil {
		t.Fatal("NewRouter with zero shards succeeded")
	}
}
