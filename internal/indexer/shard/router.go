// Package shard provides hash-based shard routing for index engines. Each
// shard owns an independent indexer.Engine and the Router picks the shard of
// a document from a hash of its id.
package shard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

// IndexResult describes where and how a document was indexed.
type IndexResult struct {
	ShardID    int
	TokenCount int
	Latency    time.Duration
}

// Router maps shard IDs to dedicated indexer.Engine instances.
type Router struct {
	engines []*indexer.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRouter creates cfg.NumShards engines. m may be nil.
func NewRouter(cfg config.IndexerConfig, m *metrics.Metrics) (*Router, error) {
	if cfg.NumShards < 1 {
		return nil, fmt.Errorf("shard count must be positive, got %d", cfg.NumShards)
	}
	r := &Router{
		engines: make([]*indexer.Engine, cfg.NumShards),
		metrics: m,
		logger:  slog.Default().With("component", "shard-router"),
	}
	for i := range r.engines {
		r.engines[i] = indexer.NewEngine(i, cfg)
	}
	if m != nil {
		m.ActiveShards.Set(float64(cfg.NumShards))
	}
	r.logger.Info("shard router ready", "num_shards", cfg.NumShards, "block_size", cfg.BlockSize)
	return r, nil
}

// ShardFor returns the shard that owns docID.
func (r *Router) ShardFor(docID string) int {
	return int(xxhash.Sum64String(docID) % uint64(len(r.engines)))
}

// Index adds a document to the shard that owns it.
func (r *Router) Index(docID, title, body string) (IndexResult, error) {
	start := time.Now()
	shardID := r.ShardFor(docID)
	engine := r.engines[shardID]
	tokens, err := engine.IndexDocument(docID, title, body)
	if err != nil {
		return IndexResult{ShardID: shardID}, fmt.Errorf("indexing document %s in shard %d: %w", docID, shardID, err)
	}
	if r.metrics != nil {
		r.metrics.DocsIndexedTotal.Inc()
		r.metrics.ShardDocCount.WithLabelValues(fmt.Sprint(shardID)).Set(float64(engine.DocCount()))
	}
	return IndexResult{ShardID: shardID, TokenCount: tokens, Latency: time.Since(start)}, nil
}

// Route returns the Engine responsible for the given shard ID.
func (r *Router) Route(shardID int) (*indexer.Engine, error) {
	if shardID < 0 || shardID >= len(r.engines) {
		return nil, fmt.Errorf("unknown shard ID %d (valid range: 0-%d)", shardID, len(r.engines)-1)
	}
	return r.engines[shardID], nil
}

// Engines returns every shard engine ordered by shard ID.
func (r *Router) Engines() []*indexer.Engine {
	out := make([]*indexer.Engine, len(r.engines))
	copy(out, r.engines)
	return out
}

// NumShards returns the number of shards managed by this router.
func (r *Router) NumShards() int {
	return len(r.engines)
}

// DocCount is the number of documents across all shards.
func (r *Router) DocCount() int {
	total := 0
	for _, e := range r.engines {
		total += e.DocCount()
	}
	return total
}
