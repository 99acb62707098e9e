package retriever

import (
	"context"
	"fmt"
	"math"
	"testing"

	"homesearch/internal/backend"
	"homesearch/internal/config"
	"homesearch/internal/embedding"
	"homesearch/internal/query"
)

func hybridConfig() config.Hybrid {
	return config.Hybrid{RankConstant: 60, RankWindowSize: 100, KnnK: 10, KnnNumCandidates: 100}
}

func testEngine(t *testing.T) (*Engine, *backend.MemoryBackend, *embedding.Batcher) {
	t.Helper()
	mem := backend.NewMemoryBackend()
	batcher := embedding.NewBatcher(embedding.NewMockProvider(16), config.Embedding{BatchSize: 8, MaxRetries: 1})
	return NewEngine(mem, batcher, hybridConfig()), mem, batcher
}

func seedCorpus(t *testing.T, mem *backend.MemoryBackend, batcher *embedding.Batcher) {
	t.Helper()
	ctx := context.Background()
	descriptions := map[string]map[string]any{
		"prop-001": {
			"description": "modern kitchen with stainless steel appliances",
			"address":     map[string]any{"city": "San Francisco", "state": "CA"},
			"bedrooms":    2,
		},
		"prop-002": {
			"description": "cozy cottage with a garden",
			"address":     map[string]any{"city": "Oakland", "state": "CA"},
			"bedrooms":    3,
		},
		"prop-003": {
			"description": "loft with modern kitchen and city views",
			"address":     map[string]any{"city": "San Francisco", "state": "CA"},
			"bedrooms":    1,
		},
	}
	var docs []backend.Document
	for id, source := range descriptions {
		vec, err := batcher.EmbedOne(ctx, source["description"].(string))
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
		source["listing_id"] = id
		source["embedding"] = vec
		docs = append(docs, backend.Document{ID: id, Body: source})
	}
	if _, err := mem.BulkWrite(ctx, "properties", docs); err != nil {
		t.Fatalf("BulkWrite failed: %v", err)
	}
}

func TestFuseRRFExactScores(t *testing.T) {
	lists := [][]Hit{
		{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		{{ID: "b"}, {ID: "a"}},
	}
	fused := FuseRRF(lists, 60, 100)

	if len(fused) != 3 {
		t.Fatalf("Expected 3 fused docs, got %d", len(fused))
	}
	// a and b both score 1/61 + 1/62 and both have min rank 1, so the
	// id tie-break decides.
	expected := 1.0/61 + 1.0/62
	if math.Abs(fused[0].HybridScore-expected) > 1e-12 {
		t.Errorf("Expected fused score %f, got %f", expected, fused[0].HybridScore)
	}
	if fused[0].ID != "a" || fused[1].ID != "b" {
		t.Errorf("Tie must break by id: got %s, %s", fused[0].ID, fused[1].ID)
	}
	if fused[2].ID != "c" {
		t.Errorf("Expected c last, got %s", fused[2].ID)
	}
	if math.Abs(fused[2].HybridScore-1.0/63) > 1e-12 {
		t.Errorf("Single-list doc must score 1/63, got %f", fused[2].HybridScore)
	}
}

func TestFuseRRFDeterministicTieBreak(t *testing.T) {
	// Symmetric lists: x and y score identically with min rank 1, so
	// the id tie-break decides and the order must be stable.
	lists := [][]Hit{
		{{ID: "x"}, {ID: "y"}},
		{{ID: "y"}, {ID: "x"}},
	}
	first := FuseRRF(lists, 60, 100)
	for i := 0; i < 5; i++ {
		again := FuseRRF(lists, 60, 100)
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatal("Fusion order must be deterministic")
			}
		}
	}
	if first[0].ID != "x" {
		t.Errorf("Equal score and min rank must fall through to id order, got %s", first[0].ID)
	}
}

func TestFuseRRFWindowTruncation(t *testing.T) {
	var long []Hit
	for i := 0; i < 10; i++ {
		long = append(long, Hit{ID: fmt.Sprintf("doc-%02d", i)})
	}
	fused := FuseRRF([][]Hit{long}, 60, 3)
	if len(fused) != 3 {
		t.Errorf("Docs beyond the rank window must not contribute, got %d", len(fused))
	}
}

func TestHybridEndToEnd(t *testing.T) {
	engine, mem, batcher := testEngine(t)
	seedCorpus(t, mem, batcher)

	rs, err := engine.Hybrid(context.Background(), "properties",
		"modern kitchen with stainless steel appliances in San Francisco", query.SearchFilters{}, 10)
	if err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}
	if !rs.Fused {
		t.Error("Hybrid result must be marked fused")
	}
	if !rs.Intent.HasLocation || rs.Intent.City != "san francisco" {
		t.Errorf("Expected extracted location, got %+v", rs.Intent)
	}
	if len(rs.Hits) == 0 {
		t.Fatal("Expected hits")
	}
	// Oakland's prop-002 must be filtered out by the location filter.
	for _, hit := range rs.Hits {
		if hit.ID == "prop-002" {
			t.Error("Location filter must exclude Oakland listings")
		}
		if hit.HybridScore <= 0 {
			t.Errorf("Hybrid hits must carry hybrid_score, got %f", hit.HybridScore)
		}
	}
	if rs.Hits[0].ID != "prop-001" {
		t.Errorf("Exact match must fuse first, got %s", rs.Hits[0].ID)
	}
}

func TestHybridClientSideMatchesFilters(t *testing.T) {
	engine, mem, batcher := testEngine(t)
	seedCorpus(t, mem, batcher)

	rs, err := engine.HybridClientSide(context.Background(), "properties",
		"modern kitchen in San Francisco", query.SearchFilters{}, 10)
	if err != nil {
		t.Fatalf("HybridClientSide failed: %v", err)
	}
	for _, hit := range rs.Hits {
		if hit.ID == "prop-002" {
			t.Error("Both retrievers must carry the location filter")
		}
	}
	if !rs.Fused || len(rs.Hits) == 0 {
		t.Errorf("Expected fused non-empty result, got %+v", rs)
	}
}

func TestSemanticOnlyHasNoHybridScore(t *testing.T) {
	engine, mem, batcher := testEngine(t)
	seedCorpus(t, mem, batcher)

	rs, err := engine.Semantic(context.Background(), "properties", "modern kitchen", query.SearchFilters{}, 2)
	if err != nil {
		t.Fatalf("Semantic failed: %v", err)
	}
	if rs.Fused {
		t.Error("Pure k-NN result must not be marked fused")
	}
	if len(rs.Hits) == 0 || len(rs.Hits) > 2 {
		t.Fatalf("Expected at most 2 hits, got %d", len(rs.Hits))
	}
	for i, hit := range rs.Hits {
		if hit.HybridScore != 0 {
			t.Error("hybrid_score must be absent outside hybrid results")
		}
		if i > 0 && hit.Score > rs.Hits[i-1].Score {
			t.Error("k-NN hits must be sorted by vector score descending")
		}
	}
}

func TestHybridCancellationReturnsNothing(t *testing.T) {
	engine, mem, batcher := testEngine(t)
	seedCorpus(t, mem, batcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs, err := engine.Hybrid(ctx, "properties", "modern kitchen", query.SearchFilters{}, 10)
	if err == nil {
		t.Fatal("Cancelled hybrid query must fail")
	}
	if rs != nil {
		t.Error("Cancelled hybrid query must not return partial hits")
	}
}

func TestCompareRunsBothArms(t *testing.T) {
	engine, mem, batcher := testEngine(t)
	seedCorpus(t, mem, batcher)

	lexical, semantic, err := engine.Compare(context.Background(), "properties", "modern kitchen", query.SearchFilters{}, 5)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(lexical.Hits) == 0 || len(semantic.Hits) == 0 {
		t.Errorf("Expected hits from both arms: lexical=%d semantic=%d", len(lexical.Hits), len(semantic.Hits))
	}
}
