// Package aggregator persists periodic snapshots of the analytics aggregator
// in PostgreSQL.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/postgres"
)

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	data        JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createSnapshotsIndex = `CREATE INDEX IF NOT EXISTS analytics_snapshots_captured_at_idx
	ON analytics_snapshots (captured_at DESC)`

// StatsSource is what the periodic saver snapshots; *analytics.Aggregator
// implements it.
type StatsSource interface {
	Stats() analytics.AggregatedStats
}

type Store struct {
	db      *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStore wraps db. m may be nil.
func NewStore(db *postgres.Client, m *metrics.Metrics) *Store {
	return &Store{
		db:      db,
		metrics: m,
		logger:  slog.Default().With("component", "analytics-store"),
	}
}

// Migrate creates the snapshots table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.Migrate(ctx, createSnapshotsTable, createSnapshotsIndex); err != nil {
		return fmt.Errorf("migrating analytics store: %w", err)
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		s.count("error")
		return fmt.Errorf("marshaling stats: %w", err)
	}

	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		data, time.Now().UTC(),
	)
	if err != nil {
		s.count("error")
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.count("ok")

	s.logger.Info("analytics snapshot saved",
		"total_searches", stats.TotalSearches,
		"total_docs_indexed", stats.TotalDocIndexed,
	)
	return nil
}

// LatestSnapshot returns nil, nil if no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// ListSnapshots returns the last limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []analytics.AggregatedStats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}

	return snapshots, rows.Err()
}

// StartPeriodicSave snapshots src every interval and once more when ctx is
// cancelled. The returned channel is closed after the final snapshot.
func (s *Store) StartPeriodicSave(ctx context.Context, src StatsSource, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, src.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := s.SaveSnapshot(shutdownCtx, src.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
	return done
}

func (s *Store) count(status string) {
	if s.metrics != nil {
		s.metrics.SnapshotsTotal.WithLabelValues(status).Inc()
	}
}
