// Command searcher runs the sharded in-memory search service.
//
// Documents are accepted at POST /api/v1/documents and indexed either
// in-process or through Kafka, queries are answered at GET /api/v1/search by
// block-max pruned matcher trees, and results are cached in Redis when it is
// enabled.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/searcher.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and SP_* env vars otherwise)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"num_shards", cfg.Indexer.NumShards,
		"pruning", cfg.Search.Pruning,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	router, err := shard.NewRouter(cfg.Indexer, m)
	if err != nil {
		slog.Error("failed to create shard router", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d shards, %d documents", router.NumShards(), router.DocCount()),
		}
	})

	// Analytics: events go to Kafka when it is enabled, otherwise straight
	// into the local aggregator.
	agg := analytics.NewAggregator(cfg.Analytics.TopQueries)
	var analyticsSink kafka.Publisher = agg
	var producers []*kafka.Producer
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, kafka.StreamAnalytics, cfg.Kafka.Topics.AnalyticsEvents,
			kafka.WithProducerMetrics(m))
		producers = append(producers, analyticsProducer)
		analyticsSink = analyticsProducer
		analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
		go func() {
			if err := agg.Start(ctx, analyticsConsumer); err != nil {
				slog.Error("analytics aggregator error", "error", err)
			}
		}()
	}
	collector := analytics.NewCollector(analyticsSink, analytics.CollectorConfig{})
	collector.Start(ctx)
	defer collector.Close()

	onIndexed := func(ctx context.Context, doc ingestion.Indexed) {
		collector.Track(analytics.IndexEvent{
			Type:       analytics.EventIndexDoc,
			DocumentID: doc.Event.DocumentID,
			ShardID:    doc.ShardID,
			TokenCount: doc.TokenCount,
			SizeBytes:  len(doc.Event.Title) + len(doc.Event.Body),
			LatencyMs:  doc.Latency.Milliseconds(),
			Timestamp:  doc.Event.IngestedAt,
		})
	}

	var snapshots analytics.SnapshotLister
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store := aggregator.NewStore(db, m)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate analytics store", "error", err)
			os.Exit(1)
		}
		if latest, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not restore analytics snapshot", "error", err)
		} else if latest != nil {
			agg.Restore(*latest)
		}
		if cfg.Analytics.Enabled {
			done := store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
			defer func() { <-done }()
		}
		snapshots = store
		checker.Register("postgres", health.PingCheck(db.Ping))
	}

	// Document ingestion.
	var ingester ingestion.Ingester
	if cfg.Kafka.Enabled {
		ingestProducer := kafka.NewProducer(cfg.Kafka, kafka.StreamIngest, cfg.Kafka.Topics.DocumentIngest,
			kafka.WithProducerMetrics(m))
		producers = append(producers, ingestProducer)
		ingester = publisher.New(router, ingestProducer)

		indexConsumer := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest,
			consumer.HandleMessage(router, onIndexed)))
		go func() {
			if err := indexConsumer.Start(ctx); err != nil {
				slog.Error("index consumer error", "error", err)
			}
		}()
		slog.Info("kafka ingestion enabled", "brokers", strings.Join(cfg.Kafka.Brokers, ","))
	} else {
		ingester = publisher.NewDirect(router, onIndexed)
	}
	defer func() {
		for _, p := range producers {
			if err := p.Close(); err != nil {
				slog.Error("closing kafka producer", "error", err)
			}
		}
	}()

	// Result cache.
	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewBreaker("redis-cache", resilience.BreakerConfig{
				OnStateChange: func(name string, from, to resilience.State) {
					slog.Warn("cache circuit changed", "name", name, "from", from.String(), "to", to.String())
				},
			})
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL,
				cache.WithBreaker(breaker),
				cache.WithMetrics(m),
				cache.WithGeneration(func() uint64 { return uint64(router.DocCount()) }),
			)
			checker.Register("redis", health.PingCheck(redisClient.Ping))
			if cfg.Kafka.Enabled {
				invalidations := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate,
					func(ctx context.Context, _, _ []byte) error { return queryCache.Invalidate(ctx) })
				go func() {
					if err := invalidations.Start(ctx); err != nil {
						slog.Error("cache invalidation consumer error", "error", err)
					}
				}()
			}
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	exec := executor.NewSharded(router.Engines(), executor.OptionsFrom(cfg.Search), cfg.Search.MaxConcurrentQueries, m)
	queryParser := parser.New(tokenizer.New(cfg.Indexer.Stemming), parser.Operator(strings.ToUpper(cfg.Search.DefaultOperator)))
	searchH := handler.New(exec, queryParser, router.NumShards(), cfg.Search.DefaultLimit, cfg.Search.MaxResults,
		handler.WithCache(queryCache),
		handler.WithTracker(collector),
		handler.WithMetrics(m),
	)
	ingestH := ingesthandler.New(ingester)
	analyticsH := analytics.NewHandler(agg, snapshots)

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /api/v1/search", searchH.Search},
		{"POST /api/v1/documents", ingestH.Ingest},
		{"GET /api/v1/cache/stats", searchH.CacheStats},
		{"POST /api/v1/cache/invalidate", searchH.CacheInvalidate},
		{"GET /api/v1/analytics", analyticsH.Stats},
		{"GET /api/v1/analytics/snapshots", analyticsH.Snapshots},
		{"GET /health", searchH.Health},
		{"GET /health/live", checker.LiveHandler()},
		{"GET /health/ready", checker.ReadyHandler()},
	}
	mux := http.NewServeMux()
	paths := make([]string, 0, len(routes))
	for _, route := range routes {
		mux.HandleFunc(route.pattern, route.handler)
		_, path, _ := strings.Cut(route.pattern, " ")
		paths = append(paths, path)
	}

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m, paths...),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
