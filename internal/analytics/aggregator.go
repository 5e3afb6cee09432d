package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/resilience"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	TotalDocIndexed   int64        `json:"total_docs_indexed"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`

	DocsScored      int64   `json:"docs_scored"`
	PostingsSkipped int64   `json:"postings_skipped"`
	TreeRewrites    int64   `json:"tree_rewrites"`
	MaxTreeDepth    int64   `json:"max_tree_depth"`
	ShardFailures   int64   `json:"shard_failures"`
	SkipRatio       float64 `json:"skip_ratio"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Consumer feeds events into the aggregator; *kafka.Consumer implements it.
type Consumer interface {
	Start(ctx context.Context) error
}

// Aggregator keeps running totals of search and index events. It also
// implements kafka.Publisher, so a Collector can feed it directly when no
// broker is configured.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     atomic.Int64
	totalDocIndexed   atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	zeroResults       atomic.Int64
	docsScored        atomic.Int64
	postingsSkipped   atomic.Int64
	treeRewrites      atomic.Int64
	maxTreeDepth      atomic.Int64
	shardFailures     atomic.Int64
	latencies         []int64
	latencyNext       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	topN              int
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		topN:              topN,
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start runs consumer until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context, consumer Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent decodes one analytics message and records it. Unknown or
// malformed messages are permanent failures.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		return agg.handle(value)
	}
}

func (a *Aggregator) handle(value []byte) error {
	envelope, err := kafka.DecodeJSON[struct {
		Type EventType `json:"type"`
	}](value)
	if err != nil {
		a.logger.Error("failed to decode analytics event", "error", err)
		return err
	}
	switch envelope.Type {
	case EventSearch, EventCacheHit, EventCacheMiss, EventZeroResult:
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			return err
		}
		a.recordSearchEvent(event)
	case EventIndexDoc:
		event, err := kafka.DecodeJSON[IndexEvent](value)
		if err != nil {
			return err
		}
		a.recordIndexEvent(event)
	default:
		return resilience.Permanent(fmt.Errorf("unknown analytics event type %q", envelope.Type))
	}
	return nil
}

func (a *Aggregator) Publish(_ context.Context, event kafka.Event) error {
	data, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("marshaling analytics event: %w", err)
	}
	return a.handle(data)
}

func (a *Aggregator) PublishBatch(ctx context.Context, events []kafka.Event) error {
	var errs []error
	for _, e := range events {
		if err := a.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("recording %d of %d events failed: %w", len(errs), len(events), errs[0])
	}
	return nil
}

func (a *Aggregator) recordSearchEvent(event SearchEvent) {
	a.totalSearches.Add(1)

	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	if event.TotalHits == 0 {
		a.zeroResults.Add(1)
	}
	a.docsScored.Add(int64(event.DocsScored))
	a.postingsSkipped.Add(int64(event.PostingsSkipped))
	a.treeRewrites.Add(int64(event.TreeRewrites))
	a.shardFailures.Add(int64(event.ShardsFailed))
	for depth := int64(event.TreeDepth); ; {
		cur := a.maxTreeDepth.Load()
		if depth <= cur || a.maxTreeDepth.CompareAndSwap(cur, depth) {
			break
		}
	}

	a.mu.Lock()
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.latencyNext] = event.LatencyMs
		a.latencyNext = (a.latencyNext + 1) % maxLatencySamples
	}
	a.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		a.zeroResultQueries[event.Query]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordIndexEvent(IndexEvent) {
	a.totalDocIndexed.Add(1)
}

// Restore seeds the counters from a persisted snapshot so totals survive a
// restart. Latency samples are not restored.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.totalSearches.Add(s.TotalSearches)
	a.totalDocIndexed.Add(s.TotalDocIndexed)
	a.cacheHits.Add(s.CacheHits)
	a.cacheMisses.Add(s.CacheMisses)
	a.zeroResults.Add(s.ZeroResultCount)
	a.docsScored.Add(s.DocsScored)
	a.postingsSkipped.Add(s.PostingsSkipped)
	a.treeRewrites.Add(s.TreeRewrites)
	a.shardFailures.Add(s.ShardFailures)
	if s.MaxTreeDepth > a.maxTreeDepth.Load() {
		a.maxTreeDepth.Store(s.MaxTreeDepth)
	}

	a.mu.Lock()
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] += q.Count
	}
	for _, q := range s.ZeroResultQueries {
		a.zeroResultQueries[q.Query] += q.Count
	}
	a.mu.Unlock()
	a.logger.Info("analytics restored from snapshot", "total_searches", s.TotalSearches)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches.Load(),
		TotalDocIndexed: a.totalDocIndexed.Load(),
		CacheHits:       a.cacheHits.Load(),
		CacheMisses:     a.cacheMisses.Load(),
		ZeroResultCount: a.zeroResults.Load(),
		DocsScored:      a.docsScored.Load(),
		PostingsSkipped: a.postingsSkipped.Load(),
		TreeRewrites:    a.treeRewrites.Load(),
		MaxTreeDepth:    a.maxTreeDepth.Load(),
		ShardFailures:   a.shardFailures.Load(),
	}
	if touched := stats.DocsScored + stats.PostingsSkipped; touched > 0 {
		stats.SkipRatio = float64(stats.PostingsSkipped) / float64(touched)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, a.topN)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, a.topN)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
