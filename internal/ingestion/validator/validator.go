// Package validator provides input validation for ingestion requests. It
// enforces id, title and body constraints and returns per-field error
// details.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/ingestion"
)

const (
	maxIDLength    = 255
	maxTitleLength = 1024
	maxBodyLength  = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks the id, title and body of the request and
// returns a ValidationError if any is unacceptable.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if len(req.ID) > maxIDLength {
		errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	} else if strings.IndexFunc(req.ID, unicode.IsSpace) >= 0 {
		errs["id"] = "id must not contain whitespace"
	}
	if len(req.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	body := strings.TrimSpace(req.Body)
	if body == "" && strings.TrimSpace(req.Title) == "" {
		errs["body"] = "body or title is required"
	} else if len(req.Body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d characters", maxBodyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
