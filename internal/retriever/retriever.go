// Package retriever executes query documents and fuses hybrid results.
// It is the only package that talks to the backend on the read path.
package retriever

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"homesearch/internal/backend"
	"homesearch/internal/config"
	"homesearch/internal/embedding"
	"homesearch/internal/location"
	"homesearch/internal/logger"
	"homesearch/internal/query"
)

// Hit is one retrieved document in engine-neutral form.
type Hit struct {
	ID          string
	Index       string
	Score       float64
	HybridScore float64 // RRF-fused score; zero outside hybrid results
	Source      json.RawMessage
	Highlights  map[string][]string
}

// ResultSet is the typed outcome of one retrieval.
type ResultSet struct {
	Hits         []Hit
	Total        int64
	Took         time.Duration
	Fused        bool            // True when scores are RRF-fused
	Intent       location.Intent // Location intent applied, zero if none
	Aggregations map[string]json.RawMessage
}

// Engine plans and executes retrievals: location extraction, query
// embedding, query building, execution, and fusion.
type Engine struct {
	backend  backend.Backend
	embedder *embedding.Batcher
	hybrid   config.Hybrid
}

// NewEngine wires a retrieval engine.
func NewEngine(b backend.Backend, embedder *embedding.Batcher, hybrid config.Hybrid) *Engine {
	return &Engine{backend: b, embedder: embedder, hybrid: hybrid}
}

// Execute runs one query document against the given indices.
func (e *Engine) Execute(ctx context.Context, indices []string, doc *query.Doc) (*ResultSet, error) {
	start := time.Now()
	result, err := e.backend.Search(ctx, indices, doc)
	if err != nil {
		return nil, err
	}
	rs := &ResultSet{
		Total:        result.Total,
		Took:         time.Since(start),
		Aggregations: result.Aggregations,
	}
	for _, h := range result.Hits {
		rs.Hits = append(rs.Hits, Hit{
			ID:         h.ID,
			Index:      h.Index,
			Score:      h.Score,
			Source:     h.Source,
			Highlights: h.Highlights,
		})
	}
	return rs, nil
}

// Lexical runs the lexical property search over the raw query text.
func (e *Engine) Lexical(ctx context.Context, index, text string, filters query.SearchFilters, size int) (*ResultSet, error) {
	intent := location.Extract(text)
	doc := query.Lexical(intent.CleanedQuery, withLocation(filters, intent))
	rs, err := e.Execute(ctx, []string{index}, doc.WithSize(size).WithHighlights("description", "features"))
	if err != nil {
		return nil, err
	}
	rs.Intent = intent
	return rs, nil
}

// Semantic embeds the query text and runs a pure k-NN search.
func (e *Engine) Semantic(ctx context.Context, index, text string, filters query.SearchFilters, size int) (*ResultSet, error) {
	intent := location.Extract(text)
	vector, err := e.embedder.EmbedOne(ctx, intent.CleanedQuery)
	if err != nil {
		return nil, err
	}
	k := size
	if k < e.hybrid.KnnK {
		k = e.hybrid.KnnK
	}
	doc := query.KNN(vector, k, e.hybrid.KnnNumCandidates, withLocation(filters, intent))
	rs, err := e.Execute(ctx, []string{index}, doc.WithSize(size))
	if err != nil {
		return nil, err
	}
	rs.Intent = intent
	return rs, nil
}

// Hybrid runs the fused lexical + k-NN search as a single native RRF
// request. Both retrievers carry the identical location + user filter.
func (e *Engine) Hybrid(ctx context.Context, index, text string, filters query.SearchFilters, size int) (*ResultSet, error) {
	intent := location.Extract(text)
	vector, err := e.embedder.EmbedOne(ctx, intent.CleanedQuery)
	if err != nil {
		return nil, err
	}

	doc := query.Hybrid(intent.CleanedQuery, vector, intent, filters, e.hybrid)
	rs, err := e.Execute(ctx, []string{index}, doc.WithSize(size))
	if err != nil {
		return nil, err
	}
	rs.Fused = true
	rs.Intent = intent
	for i := range rs.Hits {
		rs.Hits[i].HybridScore = rs.Hits[i].Score
	}
	logger.Debug("Hybrid search complete",
		"query", intent.CleanedQuery, "hits", len(rs.Hits), "has_location", intent.HasLocation)
	return rs, nil
}

// HybridClientSide runs the two retrievers concurrently and fuses the
// ranked lists locally. Used when the backend lacks native RRF, and by
// the comparison demos that need the per-retriever lists. Cancellation
// aborts both requests and discards any partial list.
func (e *Engine) HybridClientSide(ctx context.Context, index, text string, filters query.SearchFilters, size int) (*ResultSet, error) {
	intent := location.Extract(text)
	vector, err := e.embedder.EmbedOne(ctx, intent.CleanedQuery)
	if err != nil {
		return nil, err
	}
	merged := withLocation(filters, intent)

	lexicalDoc := query.Lexical(intent.CleanedQuery, merged).WithSize(e.hybrid.RankWindowSize)
	knnDoc := query.KNN(vector, e.hybrid.KnnK, e.hybrid.KnnNumCandidates, merged).WithSize(e.hybrid.RankWindowSize)

	var lexical, semantic *ResultSet
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = e.Execute(gctx, []string{index}, lexicalDoc)
		return err
	})
	g.Go(func() error {
		var err error
		semantic, err = e.Execute(gctx, []string{index}, knnDoc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fusedHits := FuseRRF([][]Hit{lexical.Hits, semantic.Hits}, e.hybrid.RankConstant, e.hybrid.RankWindowSize)
	if len(fusedHits) > size {
		fusedHits = fusedHits[:size]
	}
	return &ResultSet{
		Hits:   fusedHits,
		Total:  int64(len(fusedHits)),
		Took:   lexical.Took + semantic.Took,
		Fused:  true,
		Intent: intent,
	}, nil
}

// Compare runs lexical-only and semantic-only retrievals concurrently
// with the same text and filters, for side-by-side demos.
func (e *Engine) Compare(ctx context.Context, index, text string, filters query.SearchFilters, size int) (lexical, semantic *ResultSet, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = e.Lexical(gctx, index, text, filters, size)
		return err
	})
	g.Go(func() error {
		var err error
		semantic, err = e.Semantic(gctx, index, text, filters, size)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lexical, semantic, nil
}

// withLocation merges a location intent into the user-supplied filters
// so every retriever sees the same constraint set.
func withLocation(filters query.SearchFilters, intent location.Intent) query.SearchFilters {
	if intent.City != "" {
		filters.Cities = append([]string{intent.City}, filters.Cities...)
	}
	if intent.State != "" {
		filters.States = append([]string{intent.State}, filters.States...)
	}
	return filters
}
