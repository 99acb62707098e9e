// Package query builds the query documents the backend executes. Each
// builder returns a Doc, a small owned representation serialized to the
// backend's wire form at the edge. Builders never execute anything.
package query

import (
	"encoding/json"

	"homesearch/internal/config"
	"homesearch/internal/location"
)

// lexicalFields are the boosted fields of the lexical property search.
var lexicalFields = []string{
	"description^2.0",
	"features^1.5",
	"amenities^1.5",
	"address.street",
	"address.city",
	"neighborhood.name",
}

// Doc is one query document. Fields map one-to-one onto the wire body;
// zero fields are omitted.
type Doc struct {
	query       map[string]any
	knn         map[string]any
	retriever   map[string]any
	size        *int
	sort        []any
	searchAfter []any
	aggs        map[string]any
	highlight   map[string]any
	source      any
}

// Body renders the document as the backend wire form.
func (d *Doc) Body() map[string]any {
	body := map[string]any{}
	if d.query != nil {
		body["query"] = d.query
	}
	if d.knn != nil {
		body["knn"] = d.knn
	}
	if d.retriever != nil {
		body["retriever"] = d.retriever
	}
	if d.size != nil {
		body["size"] = *d.size
	}
	if d.sort != nil {
		body["sort"] = d.sort
	}
	if d.searchAfter != nil {
		body["search_after"] = d.searchAfter
	}
	if d.aggs != nil {
		body["aggs"] = d.aggs
	}
	if d.highlight != nil {
		body["highlight"] = d.highlight
	}
	if d.source != nil {
		body["_source"] = d.source
	}
	return body
}

// MarshalJSON lets a Doc be passed directly as a search body.
func (d *Doc) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Body())
}

// WithSize sets the requested page size.
func (d *Doc) WithSize(size int) *Doc {
	d.size = &size
	return d
}

// WithHighlights requests match highlighting on the given fields.
func (d *Doc) WithHighlights(fields ...string) *Doc {
	spec := map[string]any{}
	for _, f := range fields {
		spec[f] = map[string]any{}
	}
	d.highlight = map[string]any{"fields": spec}
	return d
}

// boolQuery assembles a bool clause from optional parts.
func boolQuery(must []map[string]any, should []map[string]any, filter []map[string]any) map[string]any {
	b := map[string]any{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(should) > 0 {
		b["should"] = should
	}
	if len(filter) > 0 {
		b["filter"] = filter
	}
	if len(b) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": b}
}

// lexicalClause is the shared multi_match over the boosted fields.
func lexicalClause(text string) map[string]any {
	return map[string]any{
		"multi_match": map[string]any{
			"query":     text,
			"fields":    lexicalFields,
			"type":      "best_fields",
			"fuzziness": "AUTO",
		},
	}
}

// Lexical builds the lexical property search: boosted multi_match with
// filters in non-scoring context.
func Lexical(text string, filters SearchFilters) *Doc {
	return &Doc{
		query: boolQuery([]map[string]any{lexicalClause(text)}, nil, filters.Clauses()),
	}
}

// Filtered builds a pure filter search with no scoring clause.
func Filtered(filters SearchFilters) *Doc {
	return &Doc{
		query: boolQuery(nil, nil, filters.Clauses()),
	}
}

// Geo builds a geo-distance search, optionally scored by a text query.
func Geo(text string, filters SearchFilters) *Doc {
	var must []map[string]any
	if text != "" {
		must = append(must, lexicalClause(text))
	}
	return &Doc{
		query: boolQuery(must, nil, filters.Clauses()),
	}
}

// PriceRange builds a range-filtered search carrying price statistics,
// a property-type breakdown, and a price histogram in one request.
func PriceRange(minPrice, maxPrice float64, histogramInterval float64) *Doc {
	filters := SearchFilters{PriceMin: minPrice, PriceMax: maxPrice}
	return &Doc{
		query: boolQuery(nil, nil, filters.Clauses()),
		aggs: map[string]any{
			"price_stats": map[string]any{"stats": map[string]any{"field": "price"}},
			"property_types": map[string]any{
				"terms": map[string]any{"field": "property_type", "size": 5},
			},
			"price_histogram": map[string]any{
				"histogram": map[string]any{"field": "price", "interval": histogramInterval},
			},
		},
	}
}

// Wikipedia builds the article full-text search: a required match on
// full_content, optional related-term should clauses, and optional
// category and location filters.
func Wikipedia(text string, relatedTerms []string, categories []string, intent location.Intent) *Doc {
	must := []map[string]any{
		{"match": map[string]any{"full_content": map[string]any{"query": text}}},
	}
	var should []map[string]any
	for _, term := range relatedTerms {
		should = append(should, map[string]any{"match": map[string]any{"full_content": term}})
	}
	var filter []map[string]any
	if len(categories) > 0 {
		filter = append(filter, termsClause("categories", categories))
	}
	if intent.City != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"location.city": intent.City}})
	}
	if intent.State != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"location.state": intent.State}})
	}
	return &Doc{
		query: boolQuery(must, should, filter),
	}
}

// KNN builds a pure dense-vector search. The candidate pool is
// max(2k, numCandidatesFloor) so recall does not collapse for small k.
func KNN(vector []float32, k int, numCandidatesFloor int, filters SearchFilters) *Doc {
	knn := knnClause(vector, k, numCandidatesFloor, filters.Clauses())
	return &Doc{knn: knn}
}

func knnClause(vector []float32, k, numCandidatesFloor int, filter []map[string]any) map[string]any {
	numCandidates := 2 * k
	if numCandidates < numCandidatesFloor {
		numCandidates = numCandidatesFloor
	}
	clause := map[string]any{
		"field":          "embedding",
		"query_vector":   vector,
		"k":              k,
		"num_candidates": numCandidates,
	}
	if len(filter) > 0 {
		clause["filter"] = boolQuery(nil, nil, filter)
	}
	return clause
}

// Hybrid builds the fused lexical + k-NN search. The location intent
// and user filters combine into one shared filter attached to both
// retrievers, then an RRF node fuses them.
func Hybrid(cleanedQuery string, vector []float32, intent location.Intent, filters SearchFilters, cfg config.Hybrid) *Doc {
	shared := append(LocationClauses(intent), filters.Clauses()...)

	lexical := map[string]any{
		"standard": map[string]any{
			"query": boolQuery([]map[string]any{lexicalClause(cleanedQuery)}, nil, shared),
		},
	}
	knn := map[string]any{
		"knn": knnClause(vector, cfg.KnnK, cfg.KnnNumCandidates, shared),
	}

	return &Doc{
		retriever: map[string]any{
			"rrf": map[string]any{
				"retrievers":       []any{lexical, knn},
				"rank_constant":    cfg.RankConstant,
				"rank_window_size": cfg.RankWindowSize,
			},
		},
	}
}

// AggregationOnly builds a zero-hit request carrying the standard
// corpus statistics.
func AggregationOnly(filters SearchFilters, histogramInterval float64) *Doc {
	size := 0
	doc := &Doc{
		size: &size,
		aggs: map[string]any{
			"price_stats": map[string]any{"stats": map[string]any{"field": "price"}},
			"property_types": map[string]any{
				"terms": map[string]any{"field": "property_type", "size": 10},
			},
			"cities": map[string]any{
				"terms": map[string]any{"field": "address.city", "size": 10},
			},
			"price_histogram": map[string]any{
				"histogram": map[string]any{"field": "price", "interval": histogramInterval},
			},
		},
	}
	if clauses := filters.Clauses(); len(clauses) > 0 {
		doc.query = boolQuery(nil, nil, clauses)
	}
	return doc
}

// RelationshipLookup fetches denormalized documents by listing id.
func RelationshipLookup(listingIDs []string) *Doc {
	size := len(listingIDs)
	return &Doc{
		query: map[string]any{"terms": map[string]any{"listing_id": listingIDs}},
		size:  &size,
	}
}

// Scan builds one page of a stable full-index scan ordered by listing
// id. Pass the previous page's last sort values to continue.
func Scan(after []any, pageSize int) *Doc {
	doc := &Doc{
		query: map[string]any{"match_all": map[string]any{}},
		sort:  []any{map[string]any{"listing_id": map[string]any{"order": "asc"}}},
	}
	doc.size = &pageSize
	if after != nil {
		doc.searchAfter = after
	}
	return doc
}

// TermsLookup fetches documents where field matches any of values.
func TermsLookup(field string, values []string) *Doc {
	size := len(values)
	if size < 10 {
		size = 10
	}
	return &Doc{
		query: map[string]any{"terms": map[string]any{field: values}},
		size:  &size,
	}
}

// NeighborhoodArticles builds the Wikipedia candidate query for the
// relationship join: articles located in any of the given (city, state)
// pairs, or mentioning any of the neighborhood names.
func NeighborhoodArticles(cityStates [][2]string, neighborhoodNames []string, size int) *Doc {
	var should []map[string]any
	for _, cs := range cityStates {
		should = append(should, map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"location.city": cs[0]}},
					{"term": map[string]any{"location.state": cs[1]}},
				},
			},
		})
	}
	for _, name := range neighborhoodNames {
		should = append(should, map[string]any{"match_phrase": map[string]any{"title": name}})
		should = append(should, map[string]any{"match_phrase": map[string]any{"long_summary": name}})
	}
	return &Doc{
		query: boolQuery(nil, should, nil),
		size:  &size,
	}
}
