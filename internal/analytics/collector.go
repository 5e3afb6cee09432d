package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
)

const eventKey = "analytics"

// CollectorConfig sizes the in-memory queue and the publish batches.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector takes events off the request path and publishes them in batches,
// either when a batch fills up or when FlushInterval passes. Track never
// blocks: events are dropped while the queue is full.
type Collector struct {
	publisher     kafka.Publisher
	eventCh       chan any
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	dropped  atomic.Int64
	failed   atomic.Int64
}

func NewCollector(publisher kafka.Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan any, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until ctx is cancelled or Close
// is called, and flushes whatever is queued before returning.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event := <-c.eventCh:
				batch = append(batch, kafka.Event{Key: eventKey, Value: event})
				if len(batch) >= c.batchSize {
					batch = c.flush(ctx, batch)
				}
			case <-ticker.C:
				batch = c.flush(ctx, batch)
			case <-ctx.Done():
				c.drain(batch)
				return
			case <-c.stop:
				c.drain(batch)
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) Track(event any) {
	select {
	case <-c.stop:
		c.dropped.Add(1)
		return
	default:
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops the loop and waits for the final flush. Start must have been
// called.
func (c *Collector) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Dropped is the number of events lost to a full queue or a failed publish.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load() + c.failed.Load()
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.failed.Add(int64(len(batch)))
		c.logger.Error("failed to publish analytics batch", "batch_size", len(batch), "error", err)
	} else {
		c.logger.Debug("analytics batch published", "events", len(batch))
	}
	return batch[:0]
}

func (c *Collector) drain(batch []kafka.Event) {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, kafka.Event{Key: eventKey, Value: event})
			continue
		default:
		}
		break
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx, batch)
}
