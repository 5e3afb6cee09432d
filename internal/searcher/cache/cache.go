// Package cache stores search results in Redis keyed by the canonical query
// plan. Concurrent identical queries share one execution, and a circuit
// breaker takes Redis out of the request path while it is failing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the key-value backend; *redis.Client implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Option func(*QueryCache)

// WithGeneration mixes an index generation into every key, so results
// cached before a document was indexed are never served after it.
func WithGeneration(gen func() uint64) Option {
	return func(c *QueryCache) { c.generation = gen }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) { c.metrics = m }
}

func WithBreaker(b *resilience.Breaker) Option {
	return func(c *QueryCache) { c.breaker = b }
}

type QueryCache struct {
	store      Store
	ttl        time.Duration
	breaker    *resilience.Breaker
	generation func() uint64
	metrics    *metrics.Metrics
	group      singleflight.Group
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(store Store, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker("query-cache", resilience.BreakerConfig{})
	}
	return c
}

// Get reads a cached result. Errors and misses both report false.
func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(plan, limit)
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if isMiss(err) {
			return nil
		}
		return err
	})
	if err != nil || data == nil {
		if err != nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "plan", plan.String(), "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := c.buildKey(plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	}); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for plan or runs computeFn once for
// all concurrent callers asking the same question.
//
// The shared computation runs under a context detached from the first
// caller's cancellation but bounded by its deadline, so one client going
// away does not fail everyone else waiting on the same key. Each caller still
// returns as soon as its own ctx is done.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	computeFn func(ctx context.Context) (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(plan, limit)
	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := detach(ctx)
		defer cancel()
		result, err := computeFn(flightCtx)
		if err != nil {
			return nil, err
		}
		c.Set(flightCtx, plan, limit, result)
		return result, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*executor.SearchResult), false, nil
	}
}

// detach keeps ctx's values and deadline but drops its cancellation.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithCancel(detached)
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState reports whether the cache is currently bypassed.
func (c *QueryCache) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func isMiss(err error) bool {
	return pkgredis.IsNilError(err)
}

func (c *QueryCache) buildKey(plan *parser.QueryPlan, limit int) string {
	raw := plan.String() + "\x00limit=" + strconv.Itoa(limit)
	if c.generation != nil {
		raw += "\x00gen=" + strconv.FormatUint(c.generation(), 10)
	}
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
