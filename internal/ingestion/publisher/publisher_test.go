package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
)

type fakeProducer struct {
	events []kafka.Event
	err    error
}

func (f *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeProducer) PublishBatch(ctx context.Context, events []kafka.Event) error {
	for _, e := range events {
		if err := f.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func newRouter(t *testing.T) *shard.Router {
	t.Helper()
	r, err := shard.NewRouter(config.IndexerConfig{NumShards: 2, BlockSize: 4}, nil)
	require.NoError(t, err)
	return r
}

func TestPublisherIngest(t *testing.T) {
	r := newRouter(t)
	prod := &fakeProducer{}
	p := New(r, prod)
	ctx := logger.WithRequestID(context.Background(), "req-1")

	resp, err := p.Ingest(ctx, &ingestion.IngestRequest{ID: "doc-1", Title: "T", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, ingestion.StatusPending, resp.Status)
	assert.Equal(t, r.ShardFor("doc-1"), resp.ShardID)

	require.Len(t, prod.events, 1)
	ev, ok := prod.events[0].Value.(ingestion.IngestEvent)
	require.True(t, ok)
	assert.Equal(t, "doc-1", ev.DocumentID)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Zero(t, r.DocCount(), "publishing must not index in-process")
}

func TestPublisherRejectsIndexedDocument(t *testing.T) {
	r := newRouter(t)
	_, err := r.Index("doc-1", "", "body")
	require.NoError(t, err)
	_, err = New(r, &fakeProducer{}).Ingest(context.Background(), &ingestion.IngestRequest{ID: "doc-1", Body: "x"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
}

func TestPublisherKafkaFailure(t *testing.T) {
	boom := errors.New("broker down")
	_, err := New(newRouter(t), &fakeProducer{err: boom}).Ingest(context.Background(), &ingestion.IngestRequest{Body: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestDirectIngest(t *testing.T) {
	r := newRouter(t)
	var seen []ingestion.Indexed
	d := NewDirect(r, func(_ context.Context, doc ingestion.Indexed) { seen = append(seen, doc) })

	resp, err := d.Ingest(context.Background(), &ingestion.IngestRequest{Title: "Generated", Body: "some words here"})
	require.NoError(t, err)
	assert.Equal(t, ingestion.StatusIndexed, resp.Status)
	assert.NotEmpty(t, resp.DocumentID)
	assert.Equal(t, 4, resp.TokenCount)
	assert.Equal(t, 1, r.DocCount())
	require.Len(t, seen, 1)
	assert.Equal(t, resp.DocumentID, seen[0].Event.DocumentID)

	_, err = d.Ingest(context.Background(), &ingestion.IngestRequest{ID: resp.DocumentID, Body: "again"})
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
	assert.Len(t, seen, 1)
}
