package indexer

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(0, config.IndexerConfig{NumShards: 1, BlockSize: 2})
	docs := []struct{ id, body string }{
		{"d1", "golang search engine"},
		{"d2", "golang golang golang"},
		{"d3", "python search"},
		{"d4", "rust engine golang"},
	}
	for _, d := range docs {
		if _, err := e.IndexDocument(d.id, "", d.body); err != nil {
			t.Fatalf("IndexDocument(%s) error = %v", d.id, err)
		}
	}
	return e
}

func TestTermMatcherScoresPostings(t *testing.T) {
	e := newEngine(t)
	stats := e.Stats([]string{"golang"})
	if stats.TotalDocs != 4 || stats.DocFreq["golang"] != 3 {
		t.Fatalf("Stats() = %+v", stats)
	}
	m := e.TermMatcher("golang", ranker.NewBM25(stats, "golang", 1))
	var ids []matcher.DocID
	var best float64
	var bestID matcher.DocID
	for m.IsActive() {
		ids = append(ids, m.ID())
		if m.Score() > best {
			best, bestID = m.Score(), m.ID()
		}
		if m.ID() == 1 && m.Weight() != 3 {
			t.Errorf("weight of d2 = %v, want term frequency 3", m.Weight())
		}
		if err := m.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 1 || ids[2] != 3 {
		t.Fatalf("ids = %v, want [0 1 3]", ids)
	}
	if bestID != 1 {
		t.Errorf("best doc = %d, want d2 with the highest frequency", bestID)
	}
	if !m.SupportsBlockQuality() {
		t.Error("leaf should support block quality")
	}
}

func TestTermMatcherSpans(t *testing.T) {
	e := newEngine(t)
	m := e.TermMatcher("engine", ranker.NewBM25(e.Stats([]string{"engine"}), "engine", 1))
	if !m.Supports(matcher.CapSpans) {
		t.Fatal("leaf should expose spans")
	}
	spans := m.Spans()
	if len(spans) != 1 || spans[0].Start != 2 {
		t.Fatalf("Spans() = %v, want [{2 3}]", spans)
	}
}

func TestTermMatcherUnknownTerm(t *testing.T) {
	e := newEngine(t)
	if m := e.TermMatcher("java", ranker.BM25{}); !matcher.IsNull(m) {
		t.Fatalf("TermMatcher(java) = %s, want Null", matcher.Describe(m))
	}
}

func TestIndexDocumentDuplicate(t *testing.T) {
	e := newEngine(t)
	if _, err := e.IndexDocument("d1", "", "again"); !apperrors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("error = %v, want ErrDocumentExists", err)
	}
	if !e.HasDocument("d3") || e.HasDocument("d9") {
		t.Fatal("HasDocument wrong")
	}
	meta, ok := e.Document(2)
	if !ok || meta.ExternalID != "d3" || meta.Length != 2 {
		t.Fatalf("Document(2) = %+v, %v", meta, ok)
	}
}
