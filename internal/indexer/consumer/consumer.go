// Package consumer reads ingestion events from Kafka and indexes them into
// the shard that owns each document.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/resilience"
)

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that indexes each ingest event
// into the shard the router assigns. The shard carried by the event is only
// advisory; the router is authoritative. onIndexed may be nil.
func HandleMessage(router *shard.Router, onIndexed ingestion.IndexedFunc) kafka.MessageHandler {
	log := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			log.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return err
		}
		if event.RequestID != "" {
			ctx = logger.WithRequestID(ctx, event.RequestID)
		}

		res, err := router.Index(event.DocumentID, event.Title, event.Body)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrDocumentExists) {
				logger.FromContext(ctx).Warn("skipping duplicate document", "doc_id", event.DocumentID)
				return resilience.Permanent(err)
			}
			return err
		}
		if res.ShardID != event.ShardID {
			log.Warn("document routed to a different shard than published",
				"doc_id", event.DocumentID,
				"published_shard", event.ShardID,
				"shard_id", res.ShardID,
			)
		}
		logger.FromContext(ctx).Info("document indexed",
			"doc_id", event.DocumentID,
			"shard_id", res.ShardID,
			"tokens", res.TokenCount,
		)
		if onIndexed != nil {
			onIndexed(ctx, ingestion.Indexed{
				Event:      event,
				ShardID:    res.ShardID,
				TokenCount: res.TokenCount,
				Latency:    res.Latency,
			})
		}
		return nil
	}
}
