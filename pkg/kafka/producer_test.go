package kafka

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/metrics"
)

func TestEncodeBatch(t *testing.T) {
	messages, size, err := encodeBatch([]Event{
		{Key: "0", Value: map[string]string{"document_id": "d1"}},
		{Key: "1", Value: map[string]string{"document_id": "d2"}},
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "1", string(messages[1].Key))
	assert.JSONEq(t, `{"document_id":"d2"}`, string(messages[1].Value))
	assert.Equal(t, len(messages[0].Value)+len(messages[1].Value), size)
}

func TestEncodeBatchRejectsWholeBatch(t *testing.T) {
	messages, _, err := encodeBatch([]Event{
		{Key: "ok", Value: 1},
		{Key: "bad", Value: make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Nil(t, messages)
}

func TestProducerCountsPerStream(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	p := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, StreamIngest, "document-ingest",
		WithProducerMetrics(m))
	defer p.Close()

	p.count("ok", 3)
	p.count("error", 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.KafkaMessagesTotal.WithLabelValues(StreamIngest, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaMessagesTotal.WithLabelValues(StreamIngest, "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.KafkaMessagesTotal.WithLabelValues(StreamAnalytics, "ok")))
}
