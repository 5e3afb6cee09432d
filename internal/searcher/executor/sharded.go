package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

// ShardedExecutor fans a query out to every shard and merges the per-shard
// top-K lists. Shards that fail or time out are left out of the result as
// long as one shard answers.
type ShardedExecutor struct {
	engines []*indexer.Engine
	opts    Options
	sem     *semaphore.Weighted
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSharded returns an executor over engines. maxConcurrent bounds the
// number of queries in flight; 0 means unbounded. m may be nil.
func NewSharded(engines []*indexer.Engine, opts Options, maxConcurrent int, m *metrics.Metrics) *ShardedExecutor {
	se := &ShardedExecutor{
		engines: engines,
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "sharded-executor"),
	}
	if maxConcurrent > 0 {
		se.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return se
}

func (se *ShardedExecutor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if plan.Empty() {
		return emptyResult(plan), nil
	}
	if se.sem != nil {
		if !se.sem.TryAcquire(1) {
			return nil, apperrors.New(apperrors.ErrOverloaded, http.StatusTooManyRequests, "query rejected")
		}
		defer se.sem.Release(1)
	}

	terms := plan.Terms()
	var global ranker.CollectionStats
	for _, eng := range se.engines {
		global.Add(eng.Stats(terms))
	}

	results, errs := se.fanOut(ctx, plan, global, limit)

	var stats ExecStats
	shardDocs := make([][]ranker.ScoredDoc, 0, len(results))
	total, exact := 0, true
	for _, sr := range results {
		shardDocs = append(shardDocs, sr.docs)
		total += sr.total
		exact = exact && sr.exact
		stats.add(sr.stats)
	}
	stats.ShardsQueried = len(se.engines)
	stats.ShardsFailed = len(errs)
	recordStats(se.metrics, stats)

	if len(results) == 0 && len(se.engines) > 0 {
		return nil, fmt.Errorf("%w: all %d shards failed: %w",
			apperrors.ErrShardUnavailable, len(se.engines), errors.Join(errs...))
	}
	for _, err := range errs {
		se.logger.Error("shard query failed", "query", plan.RawQuery, "error", err)
	}

	merged := merger.Merge(shardDocs, limit)
	se.logger.Info("sharded query executed",
		"query", plan.RawQuery,
		"plan", plan.String(),
		"shards_queried", stats.ShardsQueried,
		"shards_failed", stats.ShardsFailed,
		"total_hits", total,
		"results", len(merged),
		"postings_skipped", stats.PostingsSkipped,
		"tree_rewrites", stats.TreeRewrites,
	)
	return &SearchResult{
		Query:          plan.RawQuery,
		Plan:           plan.String(),
		TotalHits:      total,
		TotalHitsExact: exact && len(errs) == 0,
		Results:        merged,
		TermStats:      termStats(terms, global),
		Stats:          stats,
	}, nil
}

// fanOut searches every shard concurrently. Shard errors are collected
// rather than cancelling the group so healthy shards still answer.
func (se *ShardedExecutor) fanOut(ctx context.Context, plan *parser.QueryPlan, global ranker.CollectionStats, limit int) ([]shardResult, []error) {
	results := make([]shardResult, len(se.engines))
	errs := make([]error, len(se.engines))
	var g errgroup.Group
	for i, eng := range se.engines {
		g.Go(func() error {
			shardCtx := ctx
			if se.opts.TimeoutPerShard > 0 {
				var cancel context.CancelFunc
				shardCtx, cancel = context.WithTimeout(ctx, se.opts.TimeoutPerShard)
				defer cancel()
			}
			results[i], errs[i] = searchShard(shardCtx, eng, plan, global, limit, se.opts)
			return nil
		})
	}
	_ = g.Wait()

	ok := make([]shardResult, 0, len(results))
	var failed []error
	for i := range results {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		ok = append(ok, results[i])
	}
	return ok, failed
}
