package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/config"
	"homesearch/internal/core"
	"homesearch/internal/embedding"
	"homesearch/internal/indexer"
	"homesearch/internal/relationship"
	"homesearch/internal/retriever"
	"homesearch/internal/seed"
)

func demoEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()

	names := config.Indices{
		Property:              "properties",
		Neighborhood:          "neighborhoods",
		Wikipedia:             "wikipedia",
		PropertyRelationships: "property_relationships",
	}
	cat := catalog.NewWithVector(names, catalog.DefaultVectorSpec(8))
	mem := backend.NewMemoryBackend()
	batcher := embedding.NewBatcher(embedding.NewMockProvider(8), config.Embedding{
		Dimension: 8, BatchSize: 16, MaxRetries: 1,
	})
	ix := indexer.New(mem, cat, 100, 1)

	properties := seed.Properties()
	for i := range properties {
		vec, err := batcher.EmbedOne(ctx, embedding.PropertyText(properties[i]))
		if err != nil {
			t.Fatalf("Embedding seed property failed: %v", err)
		}
		properties[i].Embedding = vec
	}
	if _, err := ix.IndexProperties(ctx, properties); err != nil {
		t.Fatalf("Seeding properties failed: %v", err)
	}
	if _, err := ix.IndexNeighborhoods(ctx, seed.Neighborhoods()); err != nil {
		t.Fatalf("Seeding neighborhoods failed: %v", err)
	}
	if _, err := ix.IndexArticles(ctx, seed.Articles()); err != nil {
		t.Fatalf("Seeding articles failed: %v", err)
	}

	builder := relationship.NewBuilder(mem, cat, ix, config.Relationships{
		BatchSize: 500, MaxArticlesPerProperty: 10, RefreshOnComplete: true,
	})
	if _, err := builder.Build(ctx, false); err != nil {
		t.Fatalf("Relationship build failed: %v", err)
	}

	hybrid := config.Hybrid{RankConstant: 60, RankWindowSize: 100, KnnK: 10, KnnNumCandidates: 100}
	return &Env{
		Backend:  mem,
		Engine:   retriever.NewEngine(mem, batcher, hybrid),
		Catalog:  cat,
		Embedder: batcher,
		Size:     5,
	}
}

func TestRegistryOrderedAndUnique(t *testing.T) {
	registry := NewRegistry()
	demos := registry.All()
	if len(demos) == 0 {
		t.Fatal("Expected built-in demos")
	}
	prev := 0
	for _, d := range demos {
		meta := d.Meta()
		if meta.ID <= prev {
			t.Errorf("Expected strictly ascending ids, got %d after %d", meta.ID, prev)
		}
		prev = meta.ID
		if meta.Name == "" || meta.Category == "" {
			t.Errorf("Demo %d is missing metadata: %+v", meta.ID, meta)
		}
	}
	if _, ok := registry.Get(1); !ok {
		t.Error("Expected demo 1 to be registered")
	}
	if _, ok := registry.Get(999); ok {
		t.Error("Expected no demo 999")
	}
}

func TestRegisterDuplicateIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate demo id")
		}
	}()
	registry := NewRegistry()
	registry.Register(&plannerDemo{meta: Meta{ID: 1, Name: "dup"}})
}

func TestAllDemosRunAgainstSeedCorpus(t *testing.T) {
	env := demoEnv(t)
	registry := NewRegistry()
	ctx := context.Background()

	for _, d := range registry.All() {
		meta := d.Meta()
		result, err := registry.RunDemo(ctx, meta.ID, env)
		if err != nil {
			t.Errorf("Demo %d (%s) failed: %v", meta.ID, meta.Name, err)
			continue
		}
		var buf bytes.Buffer
		result.Display(&buf)
		if buf.Len() == 0 {
			t.Errorf("Demo %d (%s) rendered no output", meta.ID, meta.Name)
		}
	}
}

func TestHybridDemoFusesScores(t *testing.T) {
	env := demoEnv(t)
	registry := NewRegistry()

	result, err := registry.RunDemo(context.Background(), 7, env)
	if err != nil {
		t.Fatalf("Hybrid demo failed: %v", err)
	}
	pr, ok := result.(*PropertyResult)
	if !ok {
		t.Fatalf("Expected *PropertyResult, got %T", result)
	}
	if !pr.Fused {
		t.Error("Expected fused scores on the hybrid result")
	}
	if len(pr.Hits) == 0 {
		t.Fatal("Expected hybrid hits against the seed corpus")
	}
	for _, hit := range pr.Hits {
		if hit.HybridScore <= 0 {
			t.Errorf("%s: expected positive hybrid score, got %f", hit.Property.ListingID, hit.HybridScore)
		}
		if hit.Property.Address.City != "San Francisco" {
			t.Errorf("%s: location filter must restrict hits to San Francisco, got %s",
				hit.Property.ListingID, hit.Property.Address.City)
		}
	}
}

func TestRelationshipDemoJoinsEntities(t *testing.T) {
	env := demoEnv(t)
	registry := NewRegistry()

	result, err := registry.RunDemo(context.Background(), 11, env)
	if err != nil {
		t.Fatalf("Relationship demo failed: %v", err)
	}
	rr, ok := result.(*RelationshipResult)
	if !ok {
		t.Fatalf("Expected *RelationshipResult, got %T", result)
	}
	if len(rr.Relationships) != 3 {
		t.Fatalf("Expected 3 relationship documents, got %d", len(rr.Relationships))
	}
	for _, rel := range rr.Relationships {
		if rel.Neighborhood == nil {
			t.Errorf("%s: expected a joined neighborhood", rel.ListingID)
		}
	}
}

func TestComparisonOverlapStats(t *testing.T) {
	hit := func(id string) PropertyHit {
		return PropertyHit{Property: core.Property{ListingID: id}}
	}
	left := []PropertyHit{hit("a"), hit("b"), hit("c")}
	right := []PropertyHit{hit("b"), hit("c"), hit("d"), hit("e")}

	r := NewComparisonResult("t", "q", "[LEXICAL]", "[SEMANTIC]", left, right)
	if r.Intersection != 2 {
		t.Errorf("Expected intersection 2, got %d", r.Intersection)
	}
	if r.OnlyLeft != 1 {
		t.Errorf("Expected 1 lexical-only hit, got %d", r.OnlyLeft)
	}
	if r.OnlyRight != 2 {
		t.Errorf("Expected 2 semantic-only hits, got %d", r.OnlyRight)
	}
}

func TestComparisonDisplayLabels(t *testing.T) {
	r := NewComparisonResult("Lexical vs semantic", "garden", "[LEXICAL]", "[SEMANTIC]",
		[]PropertyHit{{Property: core.Property{ListingID: "a"}}},
		[]PropertyHit{{Property: core.Property{ListingID: "b"}}})

	var buf bytes.Buffer
	r.Display(&buf)
	out := buf.String()
	if !strings.Contains(out, "[LEXICAL]") || !strings.Contains(out, "[SEMANTIC]") {
		t.Errorf("Expected both arm labels in output, got:\n%s", out)
	}
}

func TestRunDemoWrapsErrors(t *testing.T) {
	env := demoEnv(t)
	registry := NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := registry.RunDemo(ctx, 1, env)
	if err == nil {
		t.Fatal("Expected an error from a cancelled context")
	}
	er, ok := result.(*ErrorResult)
	if !ok {
		t.Fatalf("Expected *ErrorResult, got %T", result)
	}
	if er.Kind != backend.KindCancelled {
		t.Errorf("Expected cancelled kind, got %s", er.Kind)
	}
	var buf bytes.Buffer
	er.Display(&buf)
	if buf.Len() == 0 {
		t.Error("Expected a rendered diagnostic")
	}
}

func TestRunDemoUnknownID(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.RunDemo(context.Background(), 999, &Env{}); err == nil {
		t.Error("Expected an error for an unknown demo id")
	}
}
