// Package handler serves the search API: query parsing, cached execution
// across shards, and per-query analytics.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// Tracker receives analytics events; *analytics.Collector implements it.
type Tracker interface {
	Track(event any)
}

type Option func(*Handler)

func WithCache(c *cache.QueryCache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithTracker(t Tracker) Option {
	return func(h *Handler) { h.tracker = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

type Handler struct {
	executor     SearchExecutor
	parser       *parser.Parser
	cache        *cache.QueryCache
	tracker      Tracker
	metrics      *metrics.Metrics
	shards       int
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(exec SearchExecutor, p *parser.Parser, shards, defaultLimit, maxResults int, opts ...Option) *Handler {
	h := &Handler{
		executor:     exec,
		parser:       p,
		shards:       shards,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	plan, err := h.parser.Parse(query)
	if err != nil {
		h.countQuery("error")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	if plan.Empty() {
		h.countQuery("zero_result")
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:          query,
			Plan:           plan.String(),
			TotalHitsExact: true,
			Results:        []ranker.ScoredDoc{},
		})
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, plan, limit, func(ctx context.Context) (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}

	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "status", status, "error", err)
		if status == http.StatusGatewayTimeout {
			h.countQuery("timeout")
		} else {
			h.countQuery("error")
		}
		message := err.Error()
		if status == http.StatusInternalServerError {
			message = "search failed"
		}
		h.writeError(w, status, message)
		return
	}

	// The cached result may be shared with concurrent callers.
	resp := *result
	resp.Query = query

	latency := time.Since(start)
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(resp.Results)))
	}
	if resp.TotalHits == 0 {
		h.countQuery("zero_result")
	} else {
		h.countQuery("hit")
	}

	log.Info("search completed",
		"query", query,
		"plan", resp.Plan,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"postings_skipped", resp.Stats.PostingsSkipped,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		event := analytics.SearchEvent{
			Query:     query,
			Plan:      resp.Plan,
			Terms:     plan.Terms(),
			TotalHits: resp.TotalHits,
			Returned:  len(resp.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			RequestID: middleware.GetRequestID(r),
		}
		if !cacheHit {
			event.ShardCount = resp.Stats.ShardsQueried
			event.ShardsFailed = resp.Stats.ShardsFailed
			event.DocsScored = resp.Stats.DocsScored
			event.PostingsSkipped = resp.Stats.PostingsSkipped
			event.TreeRewrites = resp.Stats.TreeRewrites
			event.TreeDepth = resp.Stats.TreeDepth
		}
		h.tracker.Track(analytics.NewSearchEvent(event))
	}

	w.Header().Set("X-Cache", cacheStatus)
	h.writeJSON(w, http.StatusOK, &resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  h.cache.BreakerState().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "shards": h.shards})
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
