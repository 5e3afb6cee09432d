package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("parse: %w", ErrInvalidQuery), http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("index: %w", ErrDocumentExists), http.StatusConflict},
		{ErrDocumentNotFound, http.StatusNotFound},
		{ErrOverloaded, http.StatusTooManyRequests},
		{fmt.Errorf("shard 2: %w", ErrTimeout), http.StatusGatewayTimeout},
		{ErrShardUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{New(ErrInternal, http.StatusTeapot, "custom"), http.StatusTeapot},
	}
	for _, tt := range tests {
		if got := HTTPStatusCode(tt.err); got != tt.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("handler: %w", Newf(ErrInvalidQuery, http.StatusBadRequest, "unbalanced %q", "("))
	if !Is(err, ErrInvalidQuery) {
		t.Fatal("wrapped AppError does not match its sentinel")
	}
	var appErr *AppError
	if !As(err, &appErr) || appErr.Message != `unbalanced "("` {
		t.Fatalf("As() = %+v", appErr)
	}
	if got := err.Error(); got != `handler: invalid query: unbalanced "("` {
		t.Fatalf("Error() = %q", got)
	}
}
