// Package executor runs query plans against index shards. Each shard compiles
// the plan into a matcher tree and collects its top-K with block-max
// pruning; ShardedExecutor merges the shard results.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

// deadlineCheckInterval is how many scan steps pass between context checks.
const deadlineCheckInterval = 256

type SearchResult struct {
	Query          string             `json:"query"`
	Plan           string             `json:"plan"`
	TotalHits      int                `json:"total_hits"`
	TotalHitsExact bool               `json:"total_hits_exact"`
	Results        []ranker.ScoredDoc `json:"results"`
	TermStats      map[string]int     `json:"term_stats"`
	Stats          ExecStats          `json:"stats"`
}

// ExecStats describes the work done by the matcher trees of a query.
type ExecStats struct {
	ShardsQueried   int    `json:"shards_queried"`
	ShardsFailed    int    `json:"shards_failed"`
	DocsScored      int    `json:"docs_scored"`
	PostingsSkipped int    `json:"postings_skipped"`
	TreeRewrites    int    `json:"tree_rewrites"`
	TreeDepth       int    `json:"tree_depth"`
	Tree            string `json:"tree,omitempty"`
}

func (s *ExecStats) add(o ExecStats) {
	s.DocsScored += o.DocsScored
	s.PostingsSkipped += o.PostingsSkipped
	s.TreeRewrites += o.TreeRewrites
	if o.TreeDepth > s.TreeDepth {
		s.TreeDepth = o.TreeDepth
	}
	if s.Tree == "" {
		s.Tree = o.Tree
	}
}

type Options struct {
	// Pruning enables SkipToQuality and Replace against the top-K floor.
	Pruning bool
	// ExactTotals counts every matching document; otherwise TotalHits is
	// the number of documents scored, a lower bound when pruning.
	ExactTotals     bool
	TieBreak        float64
	TimeoutPerShard time.Duration
}

func OptionsFrom(cfg config.SearchConfig) Options {
	return Options{
		Pruning:         cfg.Pruning,
		ExactTotals:     cfg.ExactTotals,
		TieBreak:        cfg.TieBreak,
		TimeoutPerShard: cfg.TimeoutPerShard,
	}
}

// Executor searches a single engine.
type Executor struct {
	engine  *indexer.Engine
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns an Executor over one engine. m may be nil.
func New(engine *indexer.Engine, opts Options, m *metrics.Metrics) *Executor {
	return &Executor{
		engine:  engine,
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if plan.Empty() {
		return emptyResult(plan), nil
	}
	terms := plan.Terms()
	stats := e.engine.Stats(terms)
	sr, err := searchShard(ctx, e.engine, plan, stats, limit, e.opts)
	if err != nil {
		return nil, err
	}
	recordStats(e.metrics, sr.stats)
	sr.stats.ShardsQueried = 1
	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"plan", plan.String(),
		"total_hits", sr.total,
		"results", len(sr.docs),
		"postings_skipped", sr.stats.PostingsSkipped,
	)
	return &SearchResult{
		Query:          plan.RawQuery,
		Plan:           plan.String(),
		TotalHits:      sr.total,
		TotalHitsExact: sr.exact,
		Results:        sr.docs,
		TermStats:      termStats(terms, stats),
		Stats:          sr.stats,
	}, nil
}

func emptyResult(plan *parser.QueryPlan) *SearchResult {
	return &SearchResult{
		Query:          plan.RawQuery,
		Plan:           plan.String(),
		TotalHitsExact: true,
		Results:        []ranker.ScoredDoc{},
		TermStats:      map[string]int{},
	}
}

func termStats(terms []string, stats ranker.CollectionStats) map[string]int {
	out := make(map[string]int, len(terms))
	for _, t := range terms {
		out[t] = int(stats.DocFreq[t])
	}
	return out
}

func recordStats(m *metrics.Metrics, s ExecStats) {
	if m == nil {
		return
	}
	m.PostingsSkippedTotal.Add(float64(s.PostingsSkipped))
	m.TreeRewritesTotal.Add(float64(s.TreeRewrites))
	m.MatcherTreeDepth.Observe(float64(s.TreeDepth))
}

type shardResult struct {
	docs  []ranker.ScoredDoc
	total int
	exact bool
	stats ExecStats
}

// searchShard scores plan on one engine using collection-wide stats.
func searchShard(ctx context.Context, engine *indexer.Engine, plan *parser.QueryPlan, stats ranker.CollectionStats, limit int, opts Options) (shardResult, error) {
	leaf := func(term string, boost float64) matcher.Matcher {
		if boost == 0 {
			return engine.TermMatcher(term, ranker.BM25{})
		}
		return engine.TermMatcher(term, ranker.NewBM25(stats, term, boost))
	}
	tree := Compile(plan, leaf, opts.TieBreak)

	var res shardResult
	res.stats.TreeDepth = tree.Depth()
	res.stats.Tree = matcher.Describe(tree)
	if opts.ExactTotals {
		res.total = int(matcher.AllIDs(tree.Copy()).GetCardinality())
		res.exact = true
	}

	hits, cs, err := collect(ctx, tree, limit, opts.Pruning)
	if err != nil {
		return res, fmt.Errorf("shard %d: %w", engine.ShardID(), err)
	}
	res.stats.DocsScored = cs.scored
	res.stats.PostingsSkipped = cs.skipped
	res.stats.TreeRewrites = cs.rewrites
	if !opts.ExactTotals {
		res.total = cs.scored
		res.exact = !opts.Pruning
	}

	res.docs = make([]ranker.ScoredDoc, 0, len(hits))
	for _, h := range hits {
		meta, ok := engine.Document(h.Item.doc)
		if !ok {
			return res, fmt.Errorf("shard %d: unknown document %d", engine.ShardID(), h.Item.doc)
		}
		res.docs = append(res.docs, ranker.ScoredDoc{
			DocID:     meta.ExternalID,
			Title:     meta.Title,
			Score:     ranker.Round(h.Score),
			Shard:     engine.ShardID(),
			Positions: h.Item.spans,
		})
	}
	return res, nil
}

type hit struct {
	doc   matcher.DocID
	spans []matcher.Span
}

type collectStats struct {
	scored   int
	skipped  int
	rewrites int
}

// collect scans tree for its k best documents. With pruning on, once k
// documents are held their lowest score becomes a floor: blocks that cannot
// beat it are skipped and the tree is rewritten each time it rises.
func collect(ctx context.Context, tree matcher.Matcher, k int, pruning bool) ([]merger.Entry[hit], collectStats, error) {
	var cs collectStats
	top := merger.NewTopK(k, func(a, b merger.Entry[hit]) bool {
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Item.doc > b.Item.doc
	})
	withSpans := tree.Supports(matcher.CapSpans)
	floor := 0.0
	m := tree
	for steps := 1; m.IsActive(); steps++ {
		if steps%deadlineCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, cs, apperrors.Newf(apperrors.ErrTimeout, http.StatusGatewayTimeout,
					"collection stopped after %d documents: %v", cs.scored, err)
			}
		}
		if pruning && top.Full() && m.BlockQuality() <= floor {
			n, err := m.SkipToQuality(floor)
			if err != nil {
				return nil, cs, err
			}
			cs.skipped += n
			continue
		}

		id := m.ID()
		score := m.Score()
		cs.scored++
		if !top.Full() || score > top.Floor() {
			h := hit{doc: id}
			if withSpans {
				h.spans = m.Spans()
			}
			top.Offer(h, score)
			if pruning && top.Full() && top.Floor() > floor {
				floor = top.Floor()
				replaced := m.Replace(floor)
				if replaced != m {
					cs.rewrites++
				}
				m = replaced
				if !m.IsActive() {
					break
				}
				// The rewrite may already have moved past id.
				if m.ID() != id {
					continue
				}
			}
		}
		if err := m.Next(); err != nil {
			return nil, cs, err
		}
	}
	return top.Results(), cs, nil
}
