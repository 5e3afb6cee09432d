// Package index holds the in-memory inverted index of one shard. Documents
// are numbered densely in arrival order, so appending a document keeps every
// postings list sorted.
package index

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-matcher-engine/internal/searcher/matcher"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-matcher-engine/pkg/errors"
)

type MemoryIndex struct {
	mu          sync.RWMutex
	postings    map[string]PostingList
	docs        []DocMeta
	byExternal  map[string]matcher.DocID
	totalTokens int64
	size        int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		postings:   make(map[string]PostingList),
		byExternal: make(map[string]matcher.DocID),
	}
}

// AddDocument indexes the tokens of a document and returns its shard-local
// number. Adding an external id twice fails with ErrDocumentExists.
func (m *MemoryIndex) AddDocument(externalID, title string, tokens []tokenizer.Token) (matcher.DocID, error) {
	termData := make(map[string]*Posting)
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		p, exists := termData[token.Term]
		if !exists {
			p = &Posting{Positions: make([]int, 0, 4)}
			termData[token.Term] = p
			order = append(order, token.Term)
		}
		p.Frequency++
		p.Positions = append(p.Positions, token.Position)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byExternal[externalID]; exists {
		return 0, apperrors.Newf(apperrors.ErrDocumentExists, http.StatusConflict, "document %q", externalID)
	}
	if uint64(len(m.docs)) > uint64(^matcher.DocID(0)) {
		return 0, fmt.Errorf("index full at %d documents", len(m.docs))
	}
	doc := matcher.DocID(len(m.docs))
	m.docs = append(m.docs, DocMeta{ExternalID: externalID, Title: title, Length: len(tokens)})
	m.byExternal[externalID] = doc

	for _, term := range order {
		p := termData[term]
		p.Doc = doc
		m.postings[term] = append(m.postings[term], *p)
		m.size += int64(len(term) + len(p.Positions)*8 + 32)
	}
	m.size += int64(len(externalID) + len(title) + 48)
	m.totalTokens += int64(len(tokens))
	return doc, nil
}

// Search returns the postings of term. The result is a read-only view that
// later additions never modify.
func (m *MemoryIndex) Search(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.postings[term]
	return list[:len(list):len(list)]
}

// SearchWithLengths is Search plus the token count of each posting's
// document, read under a single lock.
func (m *MemoryIndex) SearchWithLengths(term string) (PostingList, []int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.postings[term]
	lengths := make([]int, len(list))
	for i, p := range list {
		lengths[i] = m.docs[p.Doc].Length
	}
	return list[:len(list):len(list)], lengths
}

// DocFreq is the number of documents containing term.
func (m *MemoryIndex) DocFreq(term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings[term])
}

// Doc returns the metadata of a shard-local document number.
func (m *MemoryIndex) Doc(doc matcher.DocID) (DocMeta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(doc) >= len(m.docs) {
		return DocMeta{}, false
	}
	return m.docs[doc], true
}

// Lookup maps an external document id to its shard-local number.
func (m *MemoryIndex) Lookup(externalID string) (matcher.DocID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byExternal[externalID]
	return doc, ok
}

// DocLength returns the token count of doc, or 0 for unknown documents.
func (m *MemoryIndex) DocLength(doc matcher.DocID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(doc) >= len(m.docs) {
		return 0
	}
	return m.docs[doc].Length
}

// Snapshot returns every term with its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.postings))
	for term, list := range m.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: list[:len(list):len(list)],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func (m *MemoryIndex) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryIndex) TotalTokens() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalTokens
}

func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.postings)
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = make(map[string]PostingList)
	m.docs = nil
	m.byExternal = make(map[string]matcher.DocID)
	m.totalTokens = 0
	m.size = 0
}
