package indexer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/config"
	"homesearch/internal/core"
)

func testCatalog() *catalog.Catalog {
	names := config.Indices{
		Property:              "properties",
		Neighborhood:          "neighborhoods",
		Wikipedia:             "wikipedia",
		PropertyRelationships: "property_relationships",
	}
	return catalog.NewWithVector(names, catalog.DefaultVectorSpec(16))
}

func TestEnsureAllIndices(t *testing.T) {
	mem := backend.NewMemoryBackend()
	ix := New(mem, testCatalog(), 0, 0)

	if err := ix.EnsureAllIndices(context.Background(), false); err != nil {
		t.Fatalf("EnsureAllIndices failed: %v", err)
	}
	// Idempotent when mappings are unchanged.
	if err := ix.EnsureAllIndices(context.Background(), false); err != nil {
		t.Fatalf("Second EnsureAllIndices failed: %v", err)
	}
}

func TestIndexPropertiesFinalizesAndWrites(t *testing.T) {
	mem := backend.NewMemoryBackend()
	ix := New(mem, testCatalog(), 10, 1)

	properties := make([]core.Property, 25)
	for i := range properties {
		properties[i] = core.Property{
			ListingID:    fmt.Sprintf("prop-%03d", i),
			PropertyType: "condo",
			Price:        500000,
			SquareFeet:   1000,
		}
	}
	stats, err := ix.IndexProperties(context.Background(), properties)
	if err != nil {
		t.Fatalf("IndexProperties failed: %v", err)
	}
	if stats.Indexed != 25 || stats.Failed != 0 {
		t.Errorf("Expected {indexed:25, failed:0}, got %+v", stats)
	}
	if mem.Count("properties") != 25 {
		t.Errorf("Expected 25 stored docs, got %d", mem.Count("properties"))
	}
	doc, ok := mem.GetDoc("properties", "prop-000")
	if !ok {
		t.Fatal("Missing prop-000")
	}
	if doc["price_per_sqft"] != float64(500) {
		t.Errorf("Finalize must run before indexing, got price_per_sqft=%v", doc["price_per_sqft"])
	}
}

func TestSingleBadDocumentDoesNotAbortBatch(t *testing.T) {
	mem := backend.NewMemoryBackend()
	mem.SetValidator(func(index, id string, source map[string]any) error {
		addr, _ := source["address"].(map[string]any)
		if state, _ := addr["state"].(string); len(state) > 2 {
			return errors.New("state must be a 2-letter code")
		}
		return nil
	})
	ix := New(mem, testCatalog(), 100, 1)

	properties := make([]core.Property, 100)
	for i := range properties {
		state := "CA"
		if i == 7 {
			state = "CAL"
		}
		properties[i] = core.Property{
			ListingID: fmt.Sprintf("prop-%03d", i),
			Address:   core.Address{City: "San Francisco", State: state},
		}
	}
	stats, err := ix.IndexProperties(context.Background(), properties)
	if err != nil {
		t.Fatalf("IndexProperties failed: %v", err)
	}
	if stats.Indexed != 99 || stats.Failed != 1 {
		t.Errorf("Expected {indexed:99, failed:1}, got {indexed:%d, failed:%d}", stats.Indexed, stats.Failed)
	}
	if len(stats.Errors) != 1 || stats.Errors[0].ID != "prop-007" {
		t.Errorf("Expected error detail for prop-007, got %v", stats.Errors)
	}
	if mem.Count("properties") != 99 {
		t.Errorf("Other documents must be unaffected, got %d stored", mem.Count("properties"))
	}
}

// transientBackend fails the first n BulkWrite calls with a transport
// error, then delegates.
type transientBackend struct {
	*backend.MemoryBackend
	failures int
	calls    int
}

func (tb *transientBackend) BulkWrite(ctx context.Context, index string, docs []backend.Document) (*backend.BulkResult, error) {
	tb.calls++
	if tb.calls <= tb.failures {
		return nil, backend.NewError(backend.KindTransport, "bulk_write", "connection reset", nil)
	}
	return tb.MemoryBackend.BulkWrite(ctx, index, docs)
}

func TestTransportErrorsAreRetried(t *testing.T) {
	tb := &transientBackend{MemoryBackend: backend.NewMemoryBackend(), failures: 2}
	ix := New(tb, testCatalog(), 100, 3)

	stats, err := ix.IndexNeighborhoods(context.Background(), []core.Neighborhood{
		{NeighborhoodID: "n1", Name: "Noe Valley", City: "San Francisco", State: "CA"},
	})
	if err != nil {
		t.Fatalf("Expected retries to recover, got %v", err)
	}
	if stats.Indexed != 1 {
		t.Errorf("Expected 1 indexed after retries, got %d", stats.Indexed)
	}
	if tb.calls != 3 {
		t.Errorf("Expected 3 bulk attempts, got %d", tb.calls)
	}
}

func TestSchemaConflictIsNotRetried(t *testing.T) {
	tb := &transientBackend{MemoryBackend: backend.NewMemoryBackend(), failures: 0}
	mem := tb.MemoryBackend
	ix := New(tb, testCatalog(), 100, 3)
	ctx := context.Background()

	if err := ix.EnsureIndex(ctx, core.EntityProperty, false); err != nil {
		t.Fatalf("EnsureIndex failed: %v", err)
	}
	// Recreate the index with a different mapping out of band, then
	// ensure again: the conflict must surface, not retry forever.
	if err := mem.DeleteIndex(ctx, "properties"); err != nil {
		t.Fatalf("DeleteIndex failed: %v", err)
	}
	if err := mem.EnsureIndex(ctx, "properties", []byte(`{"properties":{"price":{"type":"keyword"}}}`), nil, false); err != nil {
		t.Fatalf("Seeding conflicting index failed: %v", err)
	}
	err := ix.EnsureIndex(ctx, core.EntityProperty, false)
	if !backend.IsKind(err, backend.KindSchemaConflict) {
		t.Errorf("Expected schema_conflict, got %v", err)
	}
	if err := ix.EnsureIndex(ctx, core.EntityProperty, true); err != nil {
		t.Errorf("force_recreate must clear the conflict, got %v", err)
	}
}

func TestIndexAllRunsAllWriters(t *testing.T) {
	mem := backend.NewMemoryBackend()
	ix := New(mem, testCatalog(), 50, 1)

	stats, err := ix.IndexAll(context.Background(),
		[]core.Property{{ListingID: "p1"}},
		[]core.Neighborhood{{NeighborhoodID: "n1"}, {NeighborhoodID: "n2"}},
		[]core.WikipediaArticle{{PageID: "w1"}, {PageID: "w2"}, {PageID: "w3"}},
	)
	if err != nil {
		t.Fatalf("IndexAll failed: %v", err)
	}
	if stats[core.EntityProperty].Indexed != 1 ||
		stats[core.EntityNeighborhood].Indexed != 2 ||
		stats[core.EntityWikipedia].Indexed != 3 {
		t.Errorf("Unexpected per-entity stats: %+v", stats)
	}
}
