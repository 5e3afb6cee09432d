package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/resilience"
)

func encode(t *testing.T, ev ingestion.IngestEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMessageIndexes(t *testing.T) {
	r, err := shard.NewRouter(config.IndexerConfig{NumShards: 2, BlockSize: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var indexed []ingestion.Indexed
	h := HandleMessage(r, func(_ context.Context, doc ingestion.Indexed) {
		indexed = append(indexed, doc)
	})

	ev := ingestion.IngestEvent{DocumentID: "doc-7", Title: "Hello", Body: "matcher world", ShardID: r.ShardFor("doc-7")}
	if err := h(context.Background(), []byte("k"), encode(t, ev)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if r.DocCount() != 1 {
		t.Fatalf("DocCount = %d, want 1", r.DocCount())
	}
	if len(indexed) != 1 || indexed[0].TokenCount != 3 || indexed[0].ShardID != ev.ShardID {
		t.Fatalf("indexed = %+v", indexed)
	}

	err = h(context.Background(), nil, encode(t, ev))
	if !apperrors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("duplicate error = %v, want ErrDocumentExists", err)
	}
	if !resilience.IsPermanent(err) {
		t.Fatal("duplicate documents should not be retried")
	}
}

func TestHandleMessageBadPayload(t *testing.T) {
	r, _ := shard.NewRouter(config.IndexerConfig{NumShards: 1}, nil)
	err := HandleMessage(r, nil)(context.Background(), nil, []byte("{not json"))
	if err == nil || !resilience.IsPermanent(err) {
		t.Fatalf("error = %v, want permanent decode error", err)
	}
	var syntax *json.SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("error = %v, want wrapped json.SyntaxError", err)
	}
}
