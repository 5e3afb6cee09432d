// Package publisher accepts documents for indexing. Publisher hands them to
// the indexer through Kafka; Direct indexes them in-process when Kafka is
// not configured.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
)

// Publisher publishes ingest events to Kafka for the index consumer.
type Publisher struct {
	router   *shard.Router
	producer kafka.Publisher
	logger   *slog.Logger
}

func New(router *shard.Router, producer kafka.Publisher) *Publisher {
	return &Publisher{
		router:   router,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest assigns the document a shard and publishes it. Documents already in
// the index are rejected up front; a duplicate racing through Kafka is
// rejected by the consumer instead.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	docID := documentID(req)
	shardID := p.router.ShardFor(docID)
	if engine, err := p.router.Route(shardID); err == nil && engine.HasDocument(docID) {
		return nil, apperrors.Newf(apperrors.ErrDocumentExists, http.StatusConflict, "document %q", docID)
	}

	event := kafka.Event{
		Key: strconv.Itoa(shardID),
		Value: ingestion.IngestEvent{
			DocumentID: docID,
			Title:      req.Title,
			Body:       req.Body,
			ShardID:    shardID,
			IngestedAt: time.Now().UTC(),
			RequestID:  logger.RequestID(ctx),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("publishing document %s: %w", docID, err)
	}
	p.logger.Debug("ingest event published", "doc_id", docID, "shard_id", shardID)
	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     ingestion.StatusPending,
		ShardID:    shardID,
	}, nil
}

// Direct indexes documents synchronously through the shard router.
type Direct struct {
	router    *shard.Router
	onIndexed ingestion.IndexedFunc
}

// NewDirect returns a Direct ingester. onIndexed may be nil.
func NewDirect(router *shard.Router, onIndexed ingestion.IndexedFunc) *Direct {
	return &Direct{router: router, onIndexed: onIndexed}
}

func (d *Direct) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	docID := documentID(req)
	res, err := d.router.Index(docID, req.Title, req.Body)
	if err != nil {
		return nil, err
	}
	if d.onIndexed != nil {
		d.onIndexed(ctx, ingestion.Indexed{
			Event: ingestion.IngestEvent{
				DocumentID: docID,
				Title:      req.Title,
				Body:       req.Body,
				ShardID:    res.ShardID,
				IngestedAt: time.Now().UTC(),
				RequestID:  logger.RequestID(ctx),
			},
			ShardID:    res.ShardID,
			TokenCount: res.TokenCount,
			Latency:    res.Latency,
		})
	}
	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     ingestion.StatusIndexed,
		ShardID:    res.ShardID,
		TokenCount: res.TokenCount,
	}, nil
}

func documentID(req *ingestion.IngestRequest) string {
	if req.ID != "" {
		return req.ID
	}
	return uuid.NewString()
}
