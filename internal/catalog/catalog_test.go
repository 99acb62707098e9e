package catalog

import (
	"encoding/json"
	"testing"

	"homesearch/internal/config"
	"homesearch/internal/core"
)

func testCatalog() *Catalog {
	names := config.Indices{
		Property:              "properties",
		Neighborhood:          "neighborhoods",
		Wikipedia:             "wikipedia",
		PropertyRelationships: "property_relationships",
	}
	return NewWithVector(names, DefaultVectorSpec(1024))
}

func mappingProperties(t *testing.T, def IndexDefinition) map[string]any {
	t.Helper()
	var mapping map[string]any
	if err := json.Unmarshal(def.Mapping, &mapping); err != nil {
		t.Fatalf("Failed to unmarshal mapping for %s: %v", def.Name, err)
	}
	props, ok := mapping["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Mapping for %s has no properties object", def.Name)
	}
	return props
}

func TestIndexNames(t *testing.T) {
	c := testCatalog()
	if got := c.IndexName(core.EntityProperty); got != "properties" {
		t.Errorf("Expected property index 'properties', got %s", got)
	}
	if got := c.IndexName(core.EntityWikipedia); got != "wikipedia" {
		t.Errorf("Expected wikipedia index 'wikipedia', got %s", got)
	}
	if got := c.RelationshipsIndexName(); got != "property_relationships" {
		t.Errorf("Expected relationships index 'property_relationships', got %s", got)
	}
}

func TestPropertyMappingFields(t *testing.T) {
	c := testCatalog()
	def, err := c.Definition(core.EntityProperty)
	if err != nil {
		t.Fatalf("Definition failed: %v", err)
	}
	props := mappingProperties(t, def)

	for _, field := range []string{"listing_id", "neighborhood_id", "property_type", "search_tags"} {
		spec, ok := props[field].(map[string]any)
		if !ok {
			t.Fatalf("Missing field %s", field)
		}
		if spec["type"] != "keyword" {
			t.Errorf("Expected %s to be keyword, got %v", field, spec["type"])
		}
	}

	address, ok := props["address"].(map[string]any)
	if !ok {
		t.Fatal("Missing nested address object")
	}
	addrProps := address["properties"].(map[string]any)
	if _, ok := addrProps["state"]; !ok {
		t.Error("Address mapping must contain 'state'")
	}
	if _, ok := addrProps["state_code"]; ok {
		t.Error("Address mapping must never contain 'state_code'")
	}
	location := addrProps["location"].(map[string]any)
	if location["type"] != "geo_point" {
		t.Errorf("Expected address.location to be geo_point, got %v", location["type"])
	}

	desc := props["description"].(map[string]any)
	fields, ok := desc["fields"].(map[string]any)
	if !ok {
		t.Fatal("description must carry a .keyword sub-field")
	}
	if _, ok := fields["keyword"]; !ok {
		t.Error("description.fields must contain 'keyword'")
	}
}

func TestDenseVectorSpec(t *testing.T) {
	c := testCatalog()
	for _, entity := range []core.EntityType{core.EntityProperty, core.EntityNeighborhood, core.EntityWikipedia} {
		def, err := c.Definition(entity)
		if err != nil {
			t.Fatalf("Definition(%s) failed: %v", entity, err)
		}
		props := mappingProperties(t, def)
		embedding, ok := props["embedding"].(map[string]any)
		if !ok {
			t.Fatalf("Missing embedding field on %s", entity)
		}
		if embedding["type"] != "dense_vector" {
			t.Errorf("Expected dense_vector on %s, got %v", entity, embedding["type"])
		}
		if embedding["dims"] != float64(1024) {
			t.Errorf("Expected dims 1024 on %s, got %v", entity, embedding["dims"])
		}
		if embedding["similarity"] != "cosine" {
			t.Errorf("Expected cosine similarity on %s, got %v", entity, embedding["similarity"])
		}
		opts := embedding["index_options"].(map[string]any)
		if opts["m"] != float64(16) || opts["ef_construction"] != float64(200) {
			t.Errorf("Expected HNSW m=16 ef_construction=200 on %s, got %v", entity, opts)
		}
	}
}

func TestAnalyzersDeclared(t *testing.T) {
	c := testCatalog()
	def, err := c.Definition(core.EntityProperty)
	if err != nil {
		t.Fatalf("Definition failed: %v", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(def.Settings, &settings); err != nil {
		t.Fatalf("Failed to unmarshal settings: %v", err)
	}
	if settings["number_of_shards"] != float64(1) {
		t.Errorf("Expected single shard, got %v", settings["number_of_shards"])
	}
	if settings["number_of_replicas"] != float64(0) {
		t.Errorf("Expected zero replicas, got %v", settings["number_of_replicas"])
	}
	analysis := settings["analysis"].(map[string]any)
	analyzers := analysis["analyzer"].(map[string]any)
	for _, name := range []string{"property_analyzer", "address_analyzer", "feature_analyzer", "wikipedia_analyzer"} {
		if _, ok := analyzers[name]; !ok {
			t.Errorf("Missing analyzer %s", name)
		}
	}
	wiki := analyzers["wikipedia_analyzer"].(map[string]any)
	foundShingle := false
	for _, f := range wiki["filter"].([]any) {
		if f == "shingle_filter" {
			foundShingle = true
		}
	}
	if !foundShingle {
		t.Error("wikipedia_analyzer must include the shingle filter")
	}
}

func TestRelationshipsMappingDisablesVectorIndex(t *testing.T) {
	c := testCatalog()
	def, err := c.RelationshipsDefinition()
	if err != nil {
		t.Fatalf("RelationshipsDefinition failed: %v", err)
	}
	props := mappingProperties(t, def)
	property := props["property"].(map[string]any)["properties"].(map[string]any)
	embedding := property["embedding"].(map[string]any)
	if embedding["index"] != false {
		t.Errorf("Expected nested property embedding to be unindexed, got %v", embedding["index"])
	}
	if _, ok := props["built_at"]; !ok {
		t.Error("Relationships mapping must contain built_at")
	}
}

func TestBulkLoadSettingsRoundTrip(t *testing.T) {
	var relaxed, restored map[string]map[string]string
	if err := json.Unmarshal(BulkLoadSettings(), &relaxed); err != nil {
		t.Fatalf("BulkLoadSettings is not valid JSON: %v", err)
	}
	if err := json.Unmarshal(RestoreSettings(), &restored); err != nil {
		t.Fatalf("RestoreSettings is not valid JSON: %v", err)
	}
	if relaxed["index"]["refresh_interval"] != "-1" {
		t.Errorf("Expected relaxed refresh_interval -1, got %s", relaxed["index"]["refresh_interval"])
	}
	if restored["index"]["refresh_interval"] != "1s" {
		t.Errorf("Expected restored refresh_interval 1s, got %s", restored["index"]["refresh_interval"])
	}
}
