package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
)

func TestValidateIngestRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   ingestion.IngestRequest
		field string
	}{
		{"ok", ingestion.IngestRequest{ID: "doc-1", Title: "t", Body: "b"}, ""},
		{"generated id", ingestion.IngestRequest{Body: "b"}, ""},
		{"title only", ingestion.IngestRequest{Title: "just a title"}, ""},
		{"empty", ingestion.IngestRequest{Title: " ", Body: "  "}, "body"},
		{"space in id", ingestion.IngestRequest{ID: "doc 1", Body: "b"}, "id"},
		{"long id", ingestion.IngestRequest{ID: strings.Repeat("x", 256), Body: "b"}, "id"},
		{"long title", ingestion.IngestRequest{Title: strings.Repeat("x", 1025), Body: "b"}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngestRequest(&tt.req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("fields = %v, want %q", verr.Fields, tt.field)
			}
		})
	}
}
