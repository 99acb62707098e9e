// Package relationship builds the denormalized property-relationships
// index: every property joined with its neighborhood and its linked
// Wikipedia articles, written as one self-contained document.
package relationship

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/config"
	"homesearch/internal/core"
	"homesearch/internal/indexer"
	"homesearch/internal/logger"
	"homesearch/internal/query"
)

// State is the builder's lifecycle phase.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateJoining  State = "joining"
	StateWriting  State = "writing"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Stats summarizes one build run. Failed counts per-property problems;
// the builder never aborts on them.
type Stats struct {
	Scanned               int
	Written               int
	SkippedNoNeighborhood int
	Failed                int
	Duration              time.Duration
}

// Builder scans the property index and writes the relationships index.
// Safe to rerun: documents are keyed by listing_id and replaced.
type Builder struct {
	backend backend.Backend
	catalog *catalog.Catalog
	indexer *indexer.Indexer
	cfg     config.Relationships

	mu    sync.Mutex
	state State
}

// NewBuilder wires a relationship builder.
func NewBuilder(b backend.Backend, cat *catalog.Catalog, ix *indexer.Indexer, cfg config.Relationships) *Builder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.MaxArticlesPerProperty <= 0 {
		cfg.MaxArticlesPerProperty = 10
	}
	return &Builder{backend: b, catalog: cat, indexer: ix, cfg: cfg, state: StateIdle}
}

// State returns the current lifecycle phase.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Builder) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Build runs the full scan-join-write pipeline. With rebuild, the
// relationships index is dropped and recreated first. The scan of the
// next page overlaps with the join and write of the previous one;
// writes stay serialized so statistics follow listing order.
func (b *Builder) Build(ctx context.Context, rebuild bool) (*Stats, error) {
	start := time.Now()
	runID := uuid.New().String()
	stats := &Stats{}
	logger.Info("Relationship build starting", "run_id", runID, "rebuild", rebuild)

	def, err := b.catalog.RelationshipsDefinition()
	if err != nil {
		b.setState(StateFailed)
		return stats, err
	}
	if err := b.backend.EnsureIndex(ctx, def.Name, def.Mapping, def.Settings, rebuild); err != nil {
		b.setState(StateFailed)
		return stats, err
	}

	pages := make(chan []core.Property, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pages)
		return b.scan(gctx, pages)
	})
	g.Go(func() error {
		for batch := range pages {
			stats.Scanned += len(batch)
			b.setState(StateJoining)
			docs, batchStats, err := b.joinBatch(gctx, batch)
			if err != nil {
				return err
			}
			stats.SkippedNoNeighborhood += batchStats.SkippedNoNeighborhood
			stats.Failed += batchStats.Failed

			b.setState(StateWriting)
			written, err := b.indexer.WriteBatches(gctx, def.Name, docs)
			if err != nil {
				return err
			}
			stats.Written += written.Indexed
			stats.Failed += written.Failed
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		b.setState(StateFailed)
		stats.Duration = time.Since(start)
		return stats, err
	}

	if b.cfg.RefreshOnComplete {
		if err := b.backend.Refresh(ctx, def.Name); err != nil {
			logger.Warn("Refresh after relationship build failed", "index", def.Name, "error", err.Error())
		}
	}

	b.setState(StateDone)
	stats.Duration = time.Since(start)
	logger.Info("Relationship build complete",
		"run_id", runID,
		"scanned", stats.Scanned, "written", stats.Written,
		"skipped_no_neighborhood", stats.SkippedNoNeighborhood, "failed", stats.Failed)
	return stats, nil
}

// scan pages through the property index ordered by listing_id and
// feeds batches downstream.
func (b *Builder) scan(ctx context.Context, pages chan<- []core.Property) error {
	b.setState(StateScanning)
	index := b.catalog.IndexName(core.EntityProperty)
	var after []any

	for {
		doc := query.Scan(after, b.cfg.BatchSize)
		result, err := b.backend.Search(ctx, []string{index}, doc)
		if err != nil {
			return fmt.Errorf("property scan failed: %w", err)
		}
		if len(result.Hits) == 0 {
			return nil
		}

		batch := make([]core.Property, 0, len(result.Hits))
		for _, hit := range result.Hits {
			var p core.Property
			if err := hit.DecodeSource(&p); err != nil {
				logger.Warn("Skipping undecodable property", "doc_id", hit.ID, "error", err.Error())
				continue
			}
			batch = append(batch, p)
		}
		select {
		case pages <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}

		after = result.Hits[len(result.Hits)-1].Sort
		if after == nil || len(result.Hits) < b.cfg.BatchSize {
			return nil
		}
	}
}

// joinBatch resolves neighborhoods and Wikipedia candidates for one
// page of properties and assembles the denormalized documents.
func (b *Builder) joinBatch(ctx context.Context, batch []core.Property) ([]backend.Document, *Stats, error) {
	stats := &Stats{}

	neighborhoods, err := b.lookupNeighborhoods(ctx, batch)
	if err != nil {
		return nil, nil, err
	}
	candidates, err := b.lookupArticles(ctx, batch, neighborhoods)
	if err != nil {
		return nil, nil, err
	}

	builtAt := time.Now().UTC()
	var docs []backend.Document
	for _, p := range batch {
		if p.NeighborhoodID == "" {
			stats.SkippedNoNeighborhood++
			continue
		}
		rel := core.PropertyRelationship{
			ListingID: p.ListingID,
			Property:  p,
			BuiltAt:   builtAt,
		}
		if n, ok := neighborhoods[p.NeighborhoodID]; ok {
			hood := n
			rel.Neighborhood = &hood
		}
		rel.WikipediaArticles = matchArticles(p, rel.Neighborhood, candidates, b.cfg.MaxArticlesPerProperty)
		docs = append(docs, backend.Document{ID: p.ListingID, Body: rel})
	}
	return docs, stats, nil
}

// lookupNeighborhoods bulk-fetches the distinct neighborhoods of a batch.
func (b *Builder) lookupNeighborhoods(ctx context.Context, batch []core.Property) (map[string]core.Neighborhood, error) {
	ids := distinct(batch, func(p core.Property) string { return p.NeighborhoodID })
	if len(ids) == 0 {
		return map[string]core.Neighborhood{}, nil
	}

	index := b.catalog.IndexName(core.EntityNeighborhood)
	result, err := b.backend.Search(ctx, []string{index}, query.TermsLookup("neighborhood_id", ids))
	if err != nil {
		if backend.IsKind(err, backend.KindNotFound) {
			return map[string]core.Neighborhood{}, nil
		}
		return nil, fmt.Errorf("neighborhood lookup failed: %w", err)
	}

	out := make(map[string]core.Neighborhood, len(result.Hits))
	for _, hit := range result.Hits {
		var n core.Neighborhood
		if err := hit.DecodeSource(&n); err != nil {
			logger.Warn("Skipping undecodable neighborhood", "doc_id", hit.ID, "error", err.Error())
			continue
		}
		out[n.NeighborhoodID] = n
	}
	return out, nil
}

// lookupArticles bulk-fetches Wikipedia candidates for a batch: articles
// located in any of the batch's (city, state) pairs or mentioning any of
// its neighborhood names.
func (b *Builder) lookupArticles(ctx context.Context, batch []core.Property, neighborhoods map[string]core.Neighborhood) ([]core.WikipediaArticle, error) {
	pairSeen := map[[2]string]bool{}
	var pairs [][2]string
	for _, p := range batch {
		city := strings.ToLower(p.Address.City)
		state := p.Address.State
		if city == "" || state == "" {
			continue
		}
		key := [2]string{city, state}
		if !pairSeen[key] {
			pairSeen[key] = true
			pairs = append(pairs, key)
		}
	}
	nameSeen := map[string]bool{}
	var names []string
	for _, n := range neighborhoods {
		if n.Name != "" && !nameSeen[n.Name] {
			nameSeen[n.Name] = true
			names = append(names, n.Name)
		}
	}
	if len(pairs) == 0 && len(names) == 0 {
		return nil, nil
	}

	index := b.catalog.IndexName(core.EntityWikipedia)
	// The candidate pool is bounded per batch, not per property.
	size := b.cfg.MaxArticlesPerProperty * (len(pairs) + len(names) + 1)
	result, err := b.backend.Search(ctx, []string{index}, query.NeighborhoodArticles(pairs, names, size))
	if err != nil {
		if backend.IsKind(err, backend.KindNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("wikipedia candidate lookup failed: %w", err)
	}

	articles := make([]core.WikipediaArticle, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var a core.WikipediaArticle
		if err := hit.DecodeSource(&a); err != nil {
			logger.Warn("Skipping undecodable article", "doc_id", hit.ID, "error", err.Error())
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// matchArticles selects the articles linked to one property: explicit
// neighborhood references, location matches, and neighborhood-name
// mentions, deduped by page_id, ordered by relevance_score desc then
// confidence desc then page_id asc, truncated to maxArticles.
func matchArticles(p core.Property, hood *core.Neighborhood, candidates []core.WikipediaArticle, maxArticles int) []core.WikipediaArticle {
	explicit := map[string]bool{}
	hoodName := ""
	if hood != nil {
		hoodName = strings.ToLower(hood.Name)
		for _, ref := range hood.WikipediaRefs {
			explicit[ref] = true
		}
	}
	city := strings.ToLower(p.Address.City)
	state := p.Address.State

	seen := map[string]bool{}
	var matched []core.WikipediaArticle
	for _, a := range candidates {
		if seen[a.PageID] {
			continue
		}
		locationMatch := city != "" && state != "" &&
			strings.ToLower(a.Location.City) == city &&
			strings.EqualFold(a.Location.State, state)
		nameMatch := hoodName != "" &&
			(strings.Contains(strings.ToLower(a.Title), hoodName) ||
				strings.Contains(strings.ToLower(a.LongSummary), hoodName))
		if explicit[a.PageID] || locationMatch || nameMatch {
			seen[a.PageID] = true
			matched = append(matched, a)
		}
	}

	sortArticles(matched)
	if len(matched) > maxArticles {
		matched = matched[:maxArticles]
	}
	return matched
}

func sortArticles(articles []core.WikipediaArticle) {
	sort.SliceStable(articles, func(i, j int) bool { return articleLess(articles[i], articles[j]) })
}

func articleLess(a, b core.WikipediaArticle) bool {
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.PageID < b.PageID
}

func distinct(batch []core.Property, key func(core.Property) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range batch {
		k := key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
