// Package indexer owns the per-shard index engine: it tokenizes documents
// into an in-memory inverted index and turns postings into scored leaf
// matchers for the searcher.
package indexer

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/config"
)

type Engine struct {
	shardID  int
	memIndex *index.MemoryIndex
	tok      *tokenizer.Tokenizer
	cfg      config.IndexerConfig
	logger   *slog.Logger
}

func NewEngine(shardID int, cfg config.IndexerConfig) *Engine {
	return &Engine{
		shardID:  shardID,
		memIndex: index.NewMemoryIndex(),
		tok:      tokenizer.New(cfg.Stemming),
		cfg:      cfg,
		logger:   slog.Default().With("component", "indexer", "shard_id", shardID),
	}
}

// IndexDocument tokenizes title and body and adds them to the index. It
// returns the number of tokens indexed.
func (e *Engine) IndexDocument(docID string, title string, body string) (int, error) {
	tokens := e.tok.Tokenize(title + " " + body)
	doc, err := e.memIndex.AddDocument(docID, title, tokens)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("document indexed in memory",
		"doc_id", docID,
		"doc", doc,
		"token_count", len(tokens),
		"mem_size", e.memIndex.Size(),
	)
	return len(tokens), nil
}

// Stats reports this shard's share of the collection statistics for terms.
func (e *Engine) Stats(terms []string) ranker.CollectionStats {
	stats := ranker.CollectionStats{
		TotalDocs:   int64(e.memIndex.DocCount()),
		TotalTokens: e.memIndex.TotalTokens(),
		DocFreq:     make(map[string]int64, len(terms)),
	}
	for _, term := range terms {
		stats.DocFreq[term] = int64(e.memIndex.DocFreq(term))
	}
	return stats
}

// TermMatcher returns a leaf over the postings of an already normalised
// term, scored with scorer. Terms with no postings yield matcher.Null.
func (e *Engine) TermMatcher(term string, scorer ranker.BM25) matcher.Matcher {
	list, lengths := e.memIndex.SearchWithLengths(term)
	if len(list) == 0 {
		return matcher.Null
	}
	postings := make([]matcher.Posting, len(list))
	for i, p := range list {
		spans := make([]matcher.Span, len(p.Positions))
		for j, pos := range p.Positions {
			spans[j] = matcher.Span{Start: pos, End: pos + 1}
		}
		postings[i] = matcher.Posting{
			ID:     p.Doc,
			Weight: float64(p.Frequency),
			Score:  scorer.Score(p.Frequency, lengths[i]),
			Spans:  spans,
		}
	}
	return matcher.NewListMatcher(postings, e.cfg.BlockSize)
}

// Document resolves a shard-local document number.
func (e *Engine) Document(doc matcher.DocID) (index.DocMeta, bool) {
	return e.memIndex.Doc(doc)
}

func (e *Engine) HasDocument(docID string) bool {
	_, ok := e.memIndex.Lookup(docID)
	return ok
}

func (e *Engine) ShardID() int { return e.shardID }

func (e *Engine) DocCount() int { return e.memIndex.DocCount() }

func (e *Engine) TermCount() int { return e.memIndex.TermCount() }

func (e *Engine) Size() int64 { return e.memIndex.Size() }

func (e *Engine) Tokenizer() *tokenizer.Tokenizer { return e.tok }
