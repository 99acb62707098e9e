package backend

import (
	"context"
	"encoding/json"
)

// Backend is the narrow contract the core holds against the search
// engine. The engine is opaque: full-text, filters, aggregations, geo,
// dense-vector k-NN, and RRF retrievers are all expressed in the query
// document, never in this interface.
type Backend interface {
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// EnsureIndex creates the index with the given mapping and settings
	// if it does not exist. If it exists with an incompatible mapping
	// and forceRecreate is false, a schema_conflict error is returned;
	// with forceRecreate true the index is deleted and recreated.
	EnsureIndex(ctx context.Context, name string, mapping, settings json.RawMessage, forceRecreate bool) error

	// DeleteIndex removes an index. Missing indices are not an error.
	DeleteIndex(ctx context.Context, name string) error

	// BulkWrite indexes documents with caller-supplied ids (upserts).
	// Per-document failures are reported in the result, not as an error;
	// the returned error is reserved for whole-request failures.
	BulkWrite(ctx context.Context, index string, docs []Document) (*BulkResult, error)

	// Search executes a query document against one or more indices.
	Search(ctx context.Context, indices []string, body any) (*SearchResult, error)

	// Refresh makes recent writes visible to search.
	Refresh(ctx context.Context, index string) error

	// UpdateSettings applies dynamic settings to an existing index
	// (used to relax and restore the refresh interval around bulk loads).
	UpdateSettings(ctx context.Context, index string, settings json.RawMessage) error
}

// Document is a single bulk-write item with its deterministic id.
type Document struct {
	ID   string // Document id; never auto-generated
	Body any    // Marshaled as the document source
}

// BulkItemError records one failed document within a bulk request.
type BulkItemError struct {
	ID     string // Document id that failed
	Status int    // Backend status code for the item
	Reason string // Backend-reported reason
}

// BulkResult aggregates the outcome of one BulkWrite call.
type BulkResult struct {
	Indexed int             // Documents accepted
	Failed  int             // Documents rejected
	Errors  []BulkItemError // Per-document failure details
}

// Hit is one search result document.
type Hit struct {
	Index      string              `json:"_index"` // Index the hit came from
	ID         string              `json:"_id"`    // Document id
	Score      float64             `json:"_score"` // Relevance score (0 when sorted without scoring)
	Source     json.RawMessage     `json:"_source"`
	Highlights map[string][]string `json:"highlight,omitempty"`
	Sort       []any               `json:"sort,omitempty"` // Sort values for search_after pagination
}

// SearchResult is the engine-neutral response shape.
type SearchResult struct {
	Took         int64                      // Backend-reported latency in ms
	Total        int64                      // Total matching documents
	Hits         []Hit                      // Returned page of hits
	Aggregations map[string]json.RawMessage // Raw aggregation payloads by name
}

// DecodeSource unmarshals a hit's source into out.
func (h Hit) DecodeSource(out any) error {
	return json.Unmarshal(h.Source, out)
}
