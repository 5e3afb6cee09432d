// Package ingestion defines the request/response types and Kafka event schemas
// used by the document ingestion pipeline.
package ingestion

import (
	"context"
	"time"
)

const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
)

// IngestRequest is the JSON body accepted by the document endpoint. An empty
// ID is replaced by a generated one.
type IngestRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	ShardID    int    `json:"shard_id"`
	TokenCount int    `json:"token_count,omitempty"`
}

// IngestEvent is the Kafka message payload consumed by the indexer.
type IngestEvent struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ShardID    int       `json:"shard_id"`
	IngestedAt time.Time `json:"ingested_at"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Indexed reports a document that reached its shard's index.
type Indexed struct {
	Event      IngestEvent
	ShardID    int
	TokenCount int
	Latency    time.Duration
}

// IndexedFunc is notified after every successfully indexed document.
type IndexedFunc func(ctx context.Context, doc Indexed)

// Ingester accepts documents for indexing.
type Ingester interface {
	Ingest(ctx context.Context, req *IngestRequest) (*IngestResponse, error)
}
