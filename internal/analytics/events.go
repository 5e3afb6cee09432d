package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventIndexDoc   EventType = "index_document"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent is emitted once per answered query. The matcher fields come
// from the executor's per-query stats and are zero on cache hits.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Plan      string    `json:"plan"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`

	ShardCount      int `json:"shard_count"`
	ShardsFailed    int `json:"shards_failed"`
	DocsScored      int `json:"docs_scored"`
	PostingsSkipped int `json:"postings_skipped"`
	TreeRewrites    int `json:"tree_rewrites"`
	TreeDepth       int `json:"tree_depth"`

	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	ShardID    int       `json:"shard_id"`
	TokenCount int       `json:"token_count"`
	SizeBytes  int       `json:"size_bytes"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// searchEventType picks the event type recorded for a finished query.
func searchEventType(totalHits int, cacheHit bool) EventType {
	switch {
	case totalHits == 0:
		return EventZeroResult
	case cacheHit:
		return EventCacheHit
	default:
		return EventCacheMiss
	}
}

// NewSearchEvent stamps the type and timestamp of a search event.
func NewSearchEvent(e SearchEvent) SearchEvent {
	e.Type = searchEventType(e.TotalHits, e.CacheHit)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}
