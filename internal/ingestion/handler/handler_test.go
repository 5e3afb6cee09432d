package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
)

type stubIngester struct {
	resp *ingestion.IngestResponse
	err  error
	got  *ingestion.IngestRequest
}

func (s *stubIngester) Ingest(_ context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	s.got = req
	return s.resp, s.err
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body)))
	return rec
}

func TestIngestStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		stub *stubIngester
		body string
		want int
	}{
		{"indexed", &stubIngester{resp: &ingestion.IngestResponse{DocumentID: "d", Status: ingestion.StatusIndexed}}, `{"id":"d","body":"x"}`, http.StatusCreated},
		{"queued", &stubIngester{resp: &ingestion.IngestResponse{DocumentID: "d", Status: ingestion.StatusPending}}, `{"body":"x"}`, http.StatusAccepted},
		{"bad json", &stubIngester{}, `{`, http.StatusBadRequest},
		{"invalid", &stubIngester{}, `{"body":""}`, http.StatusBadRequest},
		{"duplicate", &stubIngester{err: apperrors.New(apperrors.ErrDocumentExists, http.StatusConflict, "d")}, `{"id":"d","body":"x"}`, http.StatusConflict},
		{"failure", &stubIngester{err: errors.New("boom")}, `{"body":"x"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(New(tt.stub), tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestIngestValidationFields(t *testing.T) {
	stub := &stubIngester{}
	rec := post(New(stub), `{"id":"has space","body":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "id")
	assert.Nil(t, stub.got, "invalid requests must not reach the ingester")
}
