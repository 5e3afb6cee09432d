package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSnapshots struct {
	snaps []AggregatedStats
	err   error
	limit int
}

func (s *stubSnapshots) ListSnapshots(_ context.Context, limit int) ([]AggregatedStats, error) {
	s.limit = limit
	return s.snaps, s.err
}

func TestStatsHandler(t *testing.T) {
	agg := NewAggregator(5)
	agg.recordSearchEvent(SearchEvent{Query: "go", TotalHits: 1, LatencyMs: 5})
	h := NewHandler(agg, nil)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(1), got.TotalSearches)
}

func TestSnapshotsHandler(t *testing.T) {
	tests := []struct {
		name     string
		store    SnapshotLister
		query    string
		wantCode int
	}{
		{"disabled", nil, "", http.StatusServiceUnavailable},
		{"bad limit", &stubSnapshots{}, "?limit=0", http.StatusBadRequest},
		{"store error", &stubSnapshots{err: errors.New("db down")}, "", http.StatusInternalServerError},
		{"ok", &stubSnapshots{snaps: []AggregatedStats{{TotalSearches: 3}}}, "?limit=5", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(NewAggregator(5), tt.store)
			rec := httptest.NewRecorder()
			h.Snapshots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/snapshots"+tt.query, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
