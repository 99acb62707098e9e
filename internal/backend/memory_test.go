package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func seedProperties(t *testing.T, m *MemoryBackend) {
	t.Helper()
	docs := []Document{
		{ID: "prop-001", Body: map[string]any{
			"listing_id":  "prop-001",
			"description": "modern kitchen with stainless steel appliances",
			"price":       750000.0,
			"bedrooms":    2,
			"address":     map[string]any{"city": "San Francisco", "state": "CA"},
			"embedding":   []float64{1, 0, 0},
		}},
		{ID: "prop-002", Body: map[string]any{
			"listing_id":  "prop-002",
			"description": "cozy cottage near the park",
			"price":       450000.0,
			"bedrooms":    3,
			"address":     map[string]any{"city": "Oakland", "state": "CA"},
			"embedding":   []float64{0, 1, 0},
		}},
		{ID: "prop-003", Body: map[string]any{
			"listing_id":  "prop-003",
			"description": "spacious loft with modern kitchen",
			"price":       950000.0,
			"bedrooms":    1,
			"address":     map[string]any{"city": "San Francisco", "state": "CA"},
			"embedding":   []float64{0.9, 0.1, 0},
		}},
	}
	result, err := m.BulkWrite(context.Background(), "properties", docs)
	if err != nil {
		t.Fatalf("BulkWrite failed: %v", err)
	}
	if result.Indexed != 3 {
		t.Fatalf("Expected 3 indexed, got %d", result.Indexed)
	}
}

func TestEnsureIndexSchemaConflict(t *testing.T) {
	m := NewMemoryBackend()
	ctx := context.Background()
	mappingA := json.RawMessage(`{"properties":{"price":{"type":"double"}}}`)
	mappingB := json.RawMessage(`{"properties":{"price":{"type":"keyword"}}}`)

	if err := m.EnsureIndex(ctx, "properties", mappingA, nil, false); err != nil {
		t.Fatalf("First EnsureIndex failed: %v", err)
	}
	if err := m.EnsureIndex(ctx, "properties", mappingA, nil, false); err != nil {
		t.Fatalf("Idempotent EnsureIndex failed: %v", err)
	}
	err := m.EnsureIndex(ctx, "properties", mappingB, nil, false)
	if !IsKind(err, KindSchemaConflict) {
		t.Errorf("Expected schema_conflict, got %v", err)
	}
	if err := m.EnsureIndex(ctx, "properties", mappingB, nil, true); err != nil {
		t.Errorf("force_recreate should succeed, got %v", err)
	}
}

func TestBulkWriteIsolatesBadDocument(t *testing.T) {
	m := NewMemoryBackend()
	m.SetValidator(func(index, id string, source map[string]any) error {
		addr, _ := source["address"].(map[string]any)
		if state, _ := addr["state"].(string); len(state) > 2 {
			return errors.New("state must be a 2-letter code")
		}
		return nil
	})

	docs := make([]Document, 0, 100)
	for i := 0; i < 100; i++ {
		state := "CA"
		if i == 42 {
			state = "CAL"
		}
		docs = append(docs, Document{
			ID:   fmt.Sprintf("prop-%03d", i),
			Body: map[string]any{"address": map[string]any{"state": state}},
		})
	}
	result, err := m.BulkWrite(context.Background(), "properties", docs)
	if err != nil {
		t.Fatalf("BulkWrite failed: %v", err)
	}
	if result.Indexed != 99 || result.Failed != 1 {
		t.Errorf("Expected {indexed:99, failed:1}, got {indexed:%d, failed:%d}", result.Indexed, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].ID != "prop-042" {
		t.Errorf("Expected failure detail for prop-042, got %v", result.Errors)
	}
}

func TestSearchTermFilterIsCaseInsensitive(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"address.city": "san francisco"}},
				},
			},
		},
		"size": 10,
	}
	result, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(result.Hits))
	}
	for _, hit := range result.Hits {
		var doc struct {
			Address struct {
				City string `json:"city"`
			} `json:"address"`
		}
		if err := hit.DecodeSource(&doc); err != nil {
			t.Fatalf("DecodeSource failed: %v", err)
		}
		if doc.Address.City != "San Francisco" {
			t.Errorf("Expected San Francisco hit, got %s", doc.Address.City)
		}
	}
}

func TestSearchKNNRanksByCosine(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)

	body := map[string]any{
		"knn": map[string]any{
			"field":        "embedding",
			"query_vector": []float64{1, 0, 0},
			"k":            2,
		},
	}
	result, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(result.Hits))
	}
	if result.Hits[0].ID != "prop-001" {
		t.Errorf("Expected prop-001 closest, got %s", result.Hits[0].ID)
	}
	if result.Hits[1].ID != "prop-003" {
		t.Errorf("Expected prop-003 second, got %s", result.Hits[1].ID)
	}
}

func TestSearchRRFRetrieverFusesLists(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)

	body := map[string]any{
		"retriever": map[string]any{
			"rrf": map[string]any{
				"rank_constant":    60,
				"rank_window_size": 100,
				"retrievers": []any{
					map[string]any{"standard": map[string]any{
						"query": map[string]any{"multi_match": map[string]any{
							"query":  "modern kitchen",
							"fields": []any{"description^2.0"},
						}},
					}},
					map[string]any{"knn": map[string]any{
						"field":        "embedding",
						"query_vector": []float64{1, 0, 0},
						"k":            3,
					}},
				},
			},
		},
		"size": 10,
	}
	result, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Hits) == 0 {
		t.Fatal("Expected fused hits")
	}
	// prop-001 ranks first in both lists, so it must win fusion.
	if result.Hits[0].ID != "prop-001" {
		t.Errorf("Expected prop-001 fused first, got %s", result.Hits[0].ID)
	}
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i].Score > result.Hits[i-1].Score {
			t.Errorf("Fused scores must be non-increasing at %d", i)
		}
	}
}

func TestSearchAggregations(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)

	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"price_stats": map[string]any{"stats": map[string]any{"field": "price"}},
		},
	}
	result, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	raw, ok := result.Aggregations["price_stats"]
	if !ok {
		t.Fatal("Missing price_stats aggregation")
	}
	var stats struct {
		Count int     `json:"count"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Count != 3 || stats.Min != 450000 || stats.Max != 950000 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestSearchSortWithSearchAfter(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)

	body := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"listing_id": map[string]any{"order": "asc"}}},
		"size":  2,
	}
	first, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("First page failed: %v", err)
	}
	if len(first.Hits) != 2 || first.Hits[0].ID != "prop-001" {
		t.Fatalf("Unexpected first page: %v", first.Hits)
	}

	body["search_after"] = first.Hits[len(first.Hits)-1].Sort
	second, err := m.Search(context.Background(), []string{"properties"}, body)
	if err != nil {
		t.Fatalf("Second page failed: %v", err)
	}
	if len(second.Hits) != 1 || second.Hits[0].ID != "prop-003" {
		t.Errorf("Expected prop-003 on second page, got %v", second.Hits)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	m := NewMemoryBackend()
	seedProperties(t, m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Search(ctx, []string{"properties"}, map[string]any{"query": map[string]any{"match_all": map[string]any{}}})
	if !IsKind(err, KindCancelled) {
		t.Errorf("Expected cancelled error, got %v", err)
	}
}

func TestErrorKindClassification(t *testing.T) {
	err := NewError(KindTransport, "search", "connection refused", errors.New("dial tcp"))
	wrapped := fmt.Errorf("demo failed: %w", err)

	if KindOf(wrapped) != KindTransport {
		t.Errorf("Expected transport kind through wrapping, got %s", KindOf(wrapped))
	}
	if !Retryable(wrapped) {
		t.Error("Transport errors must be retryable")
	}
	if Retryable(NewError(KindValidation, "bulk_write", "bad doc", nil)) {
		t.Error("Validation errors must not be retryable")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("Plain errors carry no kind")
	}
}
