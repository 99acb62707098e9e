package demo

import (
	"context"
	"encoding/json"
	"time"

	"homesearch/internal/core"
	"homesearch/internal/location"
	"homesearch/internal/query"
	"homesearch/internal/retriever"
)

const defaultSize = 5

func sizeOf(env *Env) int {
	if env.Size > 0 {
		return env.Size
	}
	return defaultSize
}

func propertyIndex(env *Env) []string {
	return []string{env.Catalog.IndexName(core.EntityProperty)}
}

// builtinDemos returns the full demo set, one per query family.
func builtinDemos() []Demo {
	return []Demo{
		lexicalDemo(),
		filteredDemo(),
		geoDemo(),
		priceRangeDemo(),
		wikipediaDemo(),
		semanticDemo(),
		hybridDemo(),
		hybridClientSideDemo(),
		comparisonDemo(),
		semanticBatchDemo(),
		relationshipDemo(),
		corpusOverviewDemo(),
		multiIndexDemo(),
	}
}

func lexicalDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 1, Name: "Lexical search", Category: "lexical",
			Description: "Full-text match with field boosts, fuzziness, and extracted location filters",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			q := "modern kitchen in San Francisco"
			rs, err := env.Engine.Lexical(ctx, env.Catalog.IndexName(core.EntityProperty), q, query.SearchFilters{}, sizeOf(env))
			if err != nil {
				return nil, err
			}
			result, err := propertyResult("Lexical search", rs)
			if err != nil {
				return nil, err
			}
			result.Query = q
			return result, nil
		},
	}
}

func filteredDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 2, Name: "Filtered search", Category: "lexical",
			Description: "Pure filter-context search: price band, bedrooms, and city with no scoring clause",
		},
		indices: propertyIndex,
		build: func(env *Env) (*query.Doc, error) {
			filters := query.SearchFilters{
				PriceMin:    700_000,
				PriceMax:    1_500_000,
				BedroomsMin: 2,
				Cities:      []string{"San Francisco"},
			}
			return query.Filtered(filters).WithSize(sizeOf(env)), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			return propertyResult("Filtered search: SF, $700k-$1.5M, 2+ bd", rs)
		},
	}
}

func geoDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 3, Name: "Geo-distance search", Category: "lexical",
			Description: "Listings within a radius of a center point, optionally text-scored",
		},
		indices: propertyIndex,
		build: func(env *Env) (*query.Doc, error) {
			filters := query.SearchFilters{
				Geo: &query.GeoFilter{
					// Dolores Park.
					Center: core.GeoPoint{Lat: 37.7596, Lon: -122.4269},
					Radius: 2,
					Unit:   "km",
				},
			}
			return query.Geo("", filters).WithSize(sizeOf(env)), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			return propertyResult("Geo search: 2km around Dolores Park", rs)
		},
	}
}

func priceRangeDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 4, Name: "Price range with aggregations", Category: "aggregation",
			Description: "Range-filtered search carrying price stats, a type breakdown, and a histogram",
		},
		indices: propertyIndex,
		build: func(env *Env) (*query.Doc, error) {
			return query.PriceRange(500_000, 1_500_000, 250_000).WithSize(sizeOf(env)), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			return aggregationResult("Price range: $500k-$1.5M", rs)
		},
	}
}

func wikipediaDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 5, Name: "Wikipedia full-text search", Category: "lexical",
			Description: "Article search over full content with related-term boosts",
		},
		indices: func(env *Env) []string {
			return []string{env.Catalog.IndexName(core.EntityWikipedia)}
		},
		build: func(env *Env) (*query.Doc, error) {
			doc := query.Wikipedia("history of the neighborhood", []string{"park", "architecture"}, nil, location.Extract("in San Francisco"))
			return doc.WithSize(sizeOf(env)), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			hits, err := entityHits(rs, env.Catalog)
			if err != nil {
				return nil, err
			}
			return &MixedEntityResult{
				Title: "Wikipedia search",
				Query: "history of the neighborhood",
				Hits:  hits,
				Took:  rs.Took,
			}, nil
		},
	}
}

func semanticDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 6, Name: "Semantic search", Category: "semantic",
			Description: "Pure dense-vector k-NN over property embeddings",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			q := "cozy home with character near good food"
			rs, err := env.Engine.Semantic(ctx, env.Catalog.IndexName(core.EntityProperty), q, query.SearchFilters{}, sizeOf(env))
			if err != nil {
				return nil, err
			}
			result, err := propertyResult("Semantic search", rs)
			if err != nil {
				return nil, err
			}
			result.Query = q
			return result, nil
		},
	}
}

func hybridDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 7, Name: "Hybrid search", Category: "hybrid",
			Description: "Lexical and k-NN retrievers fused with reciprocal rank fusion",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			q := "remodeled kitchen in Noe Valley"
			rs, err := env.Engine.Hybrid(ctx, env.Catalog.IndexName(core.EntityProperty), q, query.SearchFilters{}, sizeOf(env))
			if err != nil {
				return nil, err
			}
			result, err := propertyResult("Hybrid search", rs)
			if err != nil {
				return nil, err
			}
			result.Query = q
			return result, nil
		},
	}
}

func hybridClientSideDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 8, Name: "Hybrid search (client-side fusion)", Category: "hybrid",
			Description: "Both retrieval arms run concurrently and fuse locally, for backends without native fusion",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			q := "remodeled kitchen in Noe Valley"
			rs, err := env.Engine.HybridClientSide(ctx, env.Catalog.IndexName(core.EntityProperty), q, query.SearchFilters{}, sizeOf(env))
			if err != nil {
				return nil, err
			}
			result, err := propertyResult("Hybrid search, fused client-side", rs)
			if err != nil {
				return nil, err
			}
			result.Query = q
			return result, nil
		},
	}
}

func comparisonDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 9, Name: "Lexical vs semantic", Category: "comparison",
			Description: "The same query through both arms, side by side with overlap statistics",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			q := "bright home with a garden"
			index := env.Catalog.IndexName(core.EntityProperty)
			lexical, semantic, err := env.Engine.Compare(ctx, index, q, query.SearchFilters{}, sizeOf(env))
			if err != nil {
				return nil, err
			}
			left, err := propertyResult("", lexical)
			if err != nil {
				return nil, err
			}
			right, err := propertyResult("", semantic)
			if err != nil {
				return nil, err
			}
			return NewComparisonResult("Lexical vs semantic", q, "[LEXICAL]", "[SEMANTIC]", left.Hits, right.Hits), nil
		},
	}
}

func semanticBatchDemo() Demo {
	return &plannerDemo{
		meta: Meta{
			ID: 10, Name: "Semantic batch", Category: "semantic",
			Description: "Several natural-language queries through the semantic arm with aggregate timing",
		},
		run: func(ctx context.Context, env *Env) (Result, error) {
			queries := []string{
				"walkable neighborhood near cafes",
				"family home with a backyard",
				"new construction with smart appliances",
			}
			index := env.Catalog.IndexName(core.EntityProperty)
			out := &SemanticBatchResult{Title: "Semantic batch"}
			start := time.Now()
			for _, q := range queries {
				rs, err := env.Engine.Semantic(ctx, index, q, query.SearchFilters{}, sizeOf(env))
				if err != nil {
					return nil, err
				}
				result, err := propertyResult("", rs)
				if err != nil {
					return nil, err
				}
				result.Query = q
				out.Entries = append(out.Entries, BatchEntry{Query: q, Result: result})
			}
			out.TotalTook = time.Since(start)
			return out, nil
		},
	}
}

func relationshipDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 11, Name: "Relationship lookup", Category: "relationship",
			Description: "Denormalized property documents with joined neighborhood and Wikipedia articles",
		},
		indices: func(env *Env) []string {
			return []string{env.Catalog.RelationshipsIndexName()}
		},
		build: func(env *Env) (*query.Doc, error) {
			return query.RelationshipLookup([]string{"prop-001", "prop-002", "prop-007"}), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			out := &RelationshipResult{Title: "Relationship lookup", Took: rs.Took}
			for _, hit := range rs.Hits {
				var rel core.PropertyRelationship
				if err := json.Unmarshal(hit.Source, &rel); err != nil {
					return nil, err
				}
				out.Relationships = append(out.Relationships, rel)
			}
			return out, nil
		},
	}
}

func corpusOverviewDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 12, Name: "Corpus overview", Category: "aggregation",
			Description: "Zero-hit aggregation request: price stats, type and city breakdowns, histogram",
		},
		indices: propertyIndex,
		build: func(env *Env) (*query.Doc, error) {
			return query.AggregationOnly(query.SearchFilters{}, 250_000), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			return aggregationResult("Corpus overview", rs)
		},
	}
}

func multiIndexDemo() Demo {
	return &docDemo{
		meta: Meta{
			ID: 13, Name: "Multi-index search", Category: "lexical",
			Description: "One query across properties, neighborhoods, and articles with entity-tagged hits",
		},
		indices: func(env *Env) []string {
			return []string{
				env.Catalog.IndexName(core.EntityProperty),
				env.Catalog.IndexName(core.EntityNeighborhood),
				env.Catalog.IndexName(core.EntityWikipedia),
			}
		},
		build: func(env *Env) (*query.Doc, error) {
			return query.Lexical("victorian san francisco", query.SearchFilters{}).WithSize(sizeOf(env)), nil
		},
		toResult: func(env *Env, rs *retriever.ResultSet) (Result, error) {
			hits, err := entityHits(rs, env.Catalog)
			if err != nil {
				return nil, err
			}
			return &MixedEntityResult{
				Title: "Multi-index search",
				Query: "victorian san francisco",
				Hits:  hits,
				Took:  rs.Took,
			}, nil
		},
	}
}
