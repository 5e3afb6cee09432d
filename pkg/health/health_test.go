package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunReportsWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("index", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusUp}
	})
	c.Register("redis", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: StatusDegraded, Message: "cache disabled"}
	})
	if got := c.Run(context.Background()).Status; got != StatusDegraded {
		t.Fatalf("status = %s, want degraded", got)
	}

	c.Register("postgres", PingCheck(func(context.Context) error { return errors.New("refused") }))
	report := c.Run(context.Background())
	if report.Status != StatusDown {
		t.Fatalf("status = %s, want down", report.Status)
	}
	if got := report.Components["postgres"].Message; got != "refused" {
		t.Fatalf("postgres message = %q", got)
	}
	if len(report.Components) != 3 {
		t.Fatalf("got %d components, want 3", len(report.Components))
	}
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("index", PingCheck(func(context.Context) error { return nil }))
	rec := httptest.NewRecorder()
	c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	c.Register("kafka", PingCheck(func(context.Context) error { return errors.New("no brokers") }))
	rec = httptest.NewRecorder()
	c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
