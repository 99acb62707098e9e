// Package catalog owns the index schemas: one mapping per entity type,
// the shared analyzers, and the load-time settings. Everything the
// backend needs to create an index comes from here, so mapping drift
// between writers and readers is impossible.
package catalog

import (
	"encoding/json"
	"fmt"

	"homesearch/internal/config"
	"homesearch/internal/core"
)

// VectorSpec carries the dense-vector field parameters. Dimension is
// fixed per deployment; changing it invalidates every stored embedding.
type VectorSpec struct {
	Dimension      int // Vector length, typically 1024
	M              int // HNSW graph connectivity
	EfConstruction int // HNSW build-time beam width
	EfSearch       int // Query-time beam width floor, used as a num_candidates minimum
}

// DefaultVectorSpec returns the standard HNSW parameters.
func DefaultVectorSpec(dimension int) VectorSpec {
	return VectorSpec{Dimension: dimension, M: 16, EfConstruction: 200, EfSearch: 100}
}

// IndexDefinition is everything needed to create one index.
type IndexDefinition struct {
	Name     string
	Entity   core.EntityType
	Mapping  json.RawMessage
	Settings json.RawMessage
}

// Catalog resolves entity types to their configured index names and
// generated schemas.
type Catalog struct {
	names  config.Indices
	vector VectorSpec
}

// New builds a catalog from configuration.
func New(cfg *config.Config) *Catalog {
	return &Catalog{
		names:  cfg.Indices,
		vector: DefaultVectorSpec(cfg.Embedding.Dimension),
	}
}

// NewWithVector builds a catalog with explicit HNSW parameters.
func NewWithVector(names config.Indices, vector VectorSpec) *Catalog {
	return &Catalog{names: names, vector: vector}
}

// IndexName returns the configured index name for an entity type.
func (c *Catalog) IndexName(entity core.EntityType) string {
	switch entity {
	case core.EntityProperty:
		return c.names.Property
	case core.EntityNeighborhood:
		return c.names.Neighborhood
	case core.EntityWikipedia:
		return c.names.Wikipedia
	}
	return ""
}

// EntityFor maps an index name back to its entity type. Unknown names
// return the empty entity type.
func (c *Catalog) EntityFor(index string) core.EntityType {
	switch index {
	case c.names.Property:
		return core.EntityProperty
	case c.names.Neighborhood:
		return core.EntityNeighborhood
	case c.names.Wikipedia:
		return core.EntityWikipedia
	}
	return ""
}

// RelationshipsIndexName returns the derived relationships index name.
func (c *Catalog) RelationshipsIndexName() string {
	return c.names.PropertyRelationships
}

// Definition returns the full index definition for an entity type.
func (c *Catalog) Definition(entity core.EntityType) (IndexDefinition, error) {
	var mapping map[string]any
	switch entity {
	case core.EntityProperty:
		mapping = propertyMapping(c.vector)
	case core.EntityNeighborhood:
		mapping = neighborhoodMapping(c.vector)
	case core.EntityWikipedia:
		mapping = wikipediaMapping(c.vector)
	default:
		return IndexDefinition{}, fmt.Errorf("unknown entity type %q", entity)
	}
	return c.definition(c.IndexName(entity), entity, mapping)
}

// RelationshipsDefinition returns the definition for the denormalized
// property-relationships index.
func (c *Catalog) RelationshipsDefinition() (IndexDefinition, error) {
	return c.definition(c.names.PropertyRelationships, core.EntityProperty, relationshipsMapping(c.vector))
}

// AllDefinitions returns the three primary definitions in a stable order.
func (c *Catalog) AllDefinitions() ([]IndexDefinition, error) {
	entities := []core.EntityType{core.EntityProperty, core.EntityNeighborhood, core.EntityWikipedia}
	defs := make([]IndexDefinition, 0, len(entities))
	for _, e := range entities {
		def, err := c.Definition(e)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (c *Catalog) definition(name string, entity core.EntityType, mapping map[string]any) (IndexDefinition, error) {
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return IndexDefinition{}, fmt.Errorf("failed to marshal mapping for %s: %w", name, err)
	}
	settingsJSON, err := json.Marshal(indexSettings())
	if err != nil {
		return IndexDefinition{}, fmt.Errorf("failed to marshal settings for %s: %w", name, err)
	}
	return IndexDefinition{Name: name, Entity: entity, Mapping: mappingJSON, Settings: settingsJSON}, nil
}

// BulkLoadSettings disables periodic refresh for the duration of a bulk
// load. Pair with RestoreSettings when the load completes.
func BulkLoadSettings() json.RawMessage {
	return json.RawMessage(`{"index":{"refresh_interval":"-1"}}`)
}

// RestoreSettings restores the default refresh interval after a load.
func RestoreSettings() json.RawMessage {
	return json.RawMessage(`{"index":{"refresh_interval":"1s"}}`)
}

// indexSettings returns the shared load-profile settings: single shard,
// zero replicas, and the analyzer definitions.
func indexSettings() map[string]any {
	return map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
		"analysis": map[string]any{
			"normalizer": map[string]any{
				"lowercase_normalizer": map[string]any{
					"type":   "custom",
					"filter": []string{"lowercase"},
				},
			},
			"filter": map[string]any{
				"english_stemmer": map[string]any{
					"type":     "stemmer",
					"language": "english",
				},
				"english_stop": map[string]any{
					"type":      "stop",
					"stopwords": "_english_",
				},
				"shingle_filter": map[string]any{
					"type":             "shingle",
					"min_shingle_size": 2,
					"max_shingle_size": 3,
				},
			},
			"analyzer": map[string]any{
				"property_analyzer": map[string]any{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "english_stop", "english_stemmer"},
				},
				// Addresses keep their tokens intact: no stemming, so
				// "St" never collapses into "Street" stems.
				"address_analyzer": map[string]any{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase"},
				},
				"feature_analyzer": map[string]any{
					"type":      "custom",
					"tokenizer": "keyword",
					"filter":    []string{"lowercase"},
				},
				"wikipedia_analyzer": map[string]any{
					"type":      "custom",
					"tokenizer": "standard",
					"filter":    []string{"lowercase", "english_stemmer", "shingle_filter"},
				},
			},
		},
	}
}

func denseVectorField(v VectorSpec) map[string]any {
	return map[string]any{
		"type":       "dense_vector",
		"dims":       v.Dimension,
		"index":      true,
		"similarity": "cosine",
		"index_options": map[string]any{
			"type":            "hnsw",
			"m":               v.M,
			"ef_construction": v.EfConstruction,
		},
	}
}

func keywordField() map[string]any {
	return map[string]any{"type": "keyword"}
}

// lowercaseKeywordField matches case-insensitively on exact terms, which
// is what the lowercased city/state filters rely on.
func lowercaseKeywordField() map[string]any {
	return map[string]any{"type": "keyword", "normalizer": "lowercase_normalizer"}
}

func textField(analyzer string) map[string]any {
	return map[string]any{"type": "text", "analyzer": analyzer}
}

// textWithKeyword indexes analyzed text plus a .keyword sub-field for
// aggregations and exact matching.
func textWithKeyword(analyzer string) map[string]any {
	return map[string]any{
		"type":     "text",
		"analyzer": analyzer,
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
}

func addressProperties() map[string]any {
	return map[string]any{
		"street": textField("address_analyzer"),
		"city":   lowercaseKeywordField(),
		"state":  lowercaseKeywordField(),
		"zip":    keywordField(),
		"location": map[string]any{
			"type": "geo_point",
		},
	}
}

func propertyProperties(v VectorSpec) map[string]any {
	return map[string]any{
		"listing_id":      keywordField(),
		"neighborhood_id": keywordField(),
		"address": map[string]any{
			"type":       "object",
			"properties": addressProperties(),
		},
		"property_type":  keywordField(),
		"price":          map[string]any{"type": "double"},
		"bedrooms":       map[string]any{"type": "integer"},
		"bathrooms":      map[string]any{"type": "double"},
		"square_feet":    map[string]any{"type": "integer"},
		"year_built":     map[string]any{"type": "integer"},
		"status":         keywordField(),
		"listed_date":    map[string]any{"type": "date"},
		"days_on_market": map[string]any{"type": "integer"},
		"has_parking":    map[string]any{"type": "boolean"},
		"description":    textWithKeyword("property_analyzer"),
		"features":       textField("feature_analyzer"),
		"amenities":      textField("feature_analyzer"),
		"price_per_sqft": map[string]any{"type": "double"},
		"search_tags":    keywordField(),
		"price_history": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date":  map[string]any{"type": "date"},
				"price": map[string]any{"type": "double"},
			},
		},
		"embedding": denseVectorField(v),
	}
}

func propertyMapping(v VectorSpec) map[string]any {
	return map[string]any{"properties": propertyProperties(v)}
}

func neighborhoodProperties(v VectorSpec) map[string]any {
	return map[string]any{
		"neighborhood_id": keywordField(),
		"name":            textWithKeyword("address_analyzer"),
		"city":            lowercaseKeywordField(),
		"state":           lowercaseKeywordField(),
		"description":     textField("property_analyzer"),
		"population":      map[string]any{"type": "integer"},
		"median_income":   map[string]any{"type": "double"},
		"walk_score":      map[string]any{"type": "integer"},
		"school_rating":   map[string]any{"type": "double"},
		"lifestyle_tags":  keywordField(),
		"wikipedia_refs":  keywordField(),
		"boundaries":      map[string]any{"type": "geo_point"},
		"embedding":       denseVectorField(v),
	}
}

func neighborhoodMapping(v VectorSpec) map[string]any {
	return map[string]any{"properties": neighborhoodProperties(v)}
}

func wikipediaProperties(v VectorSpec) map[string]any {
	return map[string]any{
		"page_id":      keywordField(),
		"title":        textWithKeyword("wikipedia_analyzer"),
		"long_summary": textField("wikipedia_analyzer"),
		"full_content": textField("wikipedia_analyzer"),
		"categories":   keywordField(),
		"key_topics":   keywordField(),
		"location": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city":  lowercaseKeywordField(),
				"state": lowercaseKeywordField(),
			},
		},
		"relevance_score": map[string]any{"type": "double"},
		"confidence":      map[string]any{"type": "double"},
		"embedding":       denseVectorField(v),
	}
}

func wikipediaMapping(v VectorSpec) map[string]any {
	return map[string]any{"properties": wikipediaProperties(v)}
}

// relationshipsMapping nests full copies of the joined entities. The
// nested embeddings are stored but not vector-indexed; k-NN runs against
// the primary indices only.
func relationshipsMapping(v VectorSpec) map[string]any {
	property := propertyProperties(v)
	property["embedding"] = map[string]any{"type": "dense_vector", "dims": v.Dimension, "index": false}
	neighborhood := neighborhoodProperties(v)
	neighborhood["embedding"] = map[string]any{"type": "dense_vector", "dims": v.Dimension, "index": false}
	wikipedia := wikipediaProperties(v)
	wikipedia["embedding"] = map[string]any{"type": "dense_vector", "dims": v.Dimension, "index": false}

	return map[string]any{
		"properties": map[string]any{
			"listing_id": keywordField(),
			"property": map[string]any{
				"type":       "object",
				"properties": property,
			},
			"neighborhood": map[string]any{
				"type":       "object",
				"properties": neighborhood,
			},
			"wikipedia_articles": map[string]any{
				"type":       "object",
				"properties": wikipedia,
			},
			"built_at": map[string]any{"type": "date"},
		},
	}
}
