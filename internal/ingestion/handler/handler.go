package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/logger"
)

// maxRequestBytes leaves room for JSON escaping around a maximal body.
const maxRequestBytes = 4 << 20

type Handler struct {
	ingester ingestion.Ingester
	logger   *slog.Logger
}

func New(ingester ingestion.Ingester) *Handler {
	return &Handler{
		ingester: ingester,
		logger:   slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateIngestRequest(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"error", err,
			"status_code", statusCode,
		)
		msg := "ingestion failed"
		if statusCode == http.StatusConflict {
			msg = "document already exists"
		}
		h.writeError(w, statusCode, msg)
		return
	}
	log.Info("document ingested",
		"doc_id", resp.DocumentID,
		"shard_id", resp.ShardID,
		"status", resp.Status,
	)
	status := http.StatusAccepted
	if resp.Status == ingestion.StatusIndexed {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
