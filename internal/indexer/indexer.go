// Package indexer owns the write path: index creation from the catalog
// and streaming batched bulk writes with retry and error accounting.
package indexer

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/core"
	"homesearch/internal/logger"
)

// DefaultBatchSize is the number of documents per bulk request.
const DefaultBatchSize = 100

// Stats aggregates the outcome of one indexing run.
type Stats struct {
	Indexed int
	Failed  int
	Errors  []backend.BulkItemError
}

// Indexer writes entity documents through the backend. One Indexer
// serializes writes to each index; distinct entity writers may run in
// parallel via IndexAll.
type Indexer struct {
	backend    backend.Backend
	catalog    *catalog.Catalog
	batchSize  int
	maxRetries int
}

// New builds an indexer. batchSize and maxRetries fall back to their
// defaults when non-positive.
func New(b backend.Backend, cat *catalog.Catalog, batchSize, maxRetries int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Indexer{backend: b, catalog: cat, batchSize: batchSize, maxRetries: maxRetries}
}

// EnsureIndex creates an entity's index from its catalog definition.
func (ix *Indexer) EnsureIndex(ctx context.Context, entity core.EntityType, forceRecreate bool) error {
	def, err := ix.catalog.Definition(entity)
	if err != nil {
		return err
	}
	return ix.backend.EnsureIndex(ctx, def.Name, def.Mapping, def.Settings, forceRecreate)
}

// EnsureAllIndices creates the three primary indices.
func (ix *Indexer) EnsureAllIndices(ctx context.Context, forceRecreate bool) error {
	defs, err := ix.catalog.AllDefinitions()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := ix.backend.EnsureIndex(ctx, def.Name, def.Mapping, def.Settings, forceRecreate); err != nil {
			return fmt.Errorf("failed to ensure index %s: %w", def.Name, err)
		}
		logger.Info("Index ready", "index", def.Name)
	}
	return nil
}

// IndexProperties finalizes and writes property documents.
func (ix *Indexer) IndexProperties(ctx context.Context, properties []core.Property) (*Stats, error) {
	docs := make([]backend.Document, len(properties))
	for i := range properties {
		properties[i].Finalize()
		docs[i] = backend.Document{ID: properties[i].ListingID, Body: properties[i]}
	}
	return ix.writeAll(ctx, ix.catalog.IndexName(core.EntityProperty), docs)
}

// IndexNeighborhoods writes neighborhood documents.
func (ix *Indexer) IndexNeighborhoods(ctx context.Context, neighborhoods []core.Neighborhood) (*Stats, error) {
	docs := make([]backend.Document, len(neighborhoods))
	for i, n := range neighborhoods {
		docs[i] = backend.Document{ID: n.NeighborhoodID, Body: n}
	}
	return ix.writeAll(ctx, ix.catalog.IndexName(core.EntityNeighborhood), docs)
}

// IndexArticles writes Wikipedia article documents.
func (ix *Indexer) IndexArticles(ctx context.Context, articles []core.WikipediaArticle) (*Stats, error) {
	docs := make([]backend.Document, len(articles))
	for i, a := range articles {
		docs[i] = backend.Document{ID: a.PageID, Body: a}
	}
	return ix.writeAll(ctx, ix.catalog.IndexName(core.EntityWikipedia), docs)
}

// IndexAll writes all three entity streams, one writer per entity,
// writers running in parallel. Returns per-entity stats keyed by type.
func (ix *Indexer) IndexAll(ctx context.Context, properties []core.Property, neighborhoods []core.Neighborhood, articles []core.WikipediaArticle) (map[core.EntityType]*Stats, error) {
	results := make(map[core.EntityType]*Stats, 3)
	g, gctx := errgroup.WithContext(ctx)
	var propStats, hoodStats, wikiStats *Stats

	g.Go(func() error {
		var err error
		propStats, err = ix.IndexProperties(gctx, properties)
		return err
	})
	g.Go(func() error {
		var err error
		hoodStats, err = ix.IndexNeighborhoods(gctx, neighborhoods)
		return err
	})
	g.Go(func() error {
		var err error
		wikiStats, err = ix.IndexArticles(gctx, articles)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	results[core.EntityProperty] = propStats
	results[core.EntityNeighborhood] = hoodStats
	results[core.EntityWikipedia] = wikiStats
	return results, nil
}

// WriteBatches is the generic write entry point used by the
// relationship builder.
func (ix *Indexer) WriteBatches(ctx context.Context, index string, docs []backend.Document) (*Stats, error) {
	return ix.writeAll(ctx, index, docs)
}

// writeAll relaxes the refresh interval, streams batches, restores the
// interval, and refreshes so the documents become searchable.
func (ix *Indexer) writeAll(ctx context.Context, index string, docs []backend.Document) (*Stats, error) {
	stats := &Stats{}
	if len(docs) == 0 {
		return stats, nil
	}

	if err := ix.backend.UpdateSettings(ctx, index, catalog.BulkLoadSettings()); err != nil {
		logger.Warn("Could not relax refresh interval", "index", index, "error", err.Error())
	}
	defer func() {
		restoreCtx := context.WithoutCancel(ctx)
		if err := ix.backend.UpdateSettings(restoreCtx, index, catalog.RestoreSettings()); err != nil {
			logger.Warn("Could not restore refresh interval", "index", index, "error", err.Error())
		}
	}()

	for start := 0; start < len(docs); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		result, err := ix.writeBatch(ctx, index, docs[start:end])
		if err != nil {
			return stats, err
		}
		stats.Indexed += result.Indexed
		stats.Failed += result.Failed
		stats.Errors = append(stats.Errors, result.Errors...)
		for _, item := range result.Errors {
			logger.Warn("Document rejected", "index", index, "doc_id", item.ID, "reason", item.Reason)
		}
	}

	if err := ix.backend.Refresh(ctx, index); err != nil {
		logger.Warn("Refresh failed after bulk load", "index", index, "error", err.Error())
	}
	logger.Info("Bulk load complete", "index", index, "indexed", stats.Indexed, "failed", stats.Failed)
	return stats, nil
}

// writeBatch sends one bulk request, retrying transport failures with
// exponential backoff. Per-document failures are not retried; they are
// final and land in the stats.
func (ix *Indexer) writeBatch(ctx context.Context, index string, docs []backend.Document) (*backend.BulkResult, error) {
	var result *backend.BulkResult

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(ix.maxRetries)),
		ctx,
	)
	err := backoff.Retry(func() error {
		res, err := ix.backend.BulkWrite(ctx, index, docs)
		if err != nil {
			if !backend.Retryable(err) {
				return backoff.Permanent(err)
			}
			logger.Warn("Bulk write failed, retrying", "index", index, "batch_size", len(docs), "error", err.Error())
			return err
		}
		result = res
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return result, nil
}
