package demo

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"homesearch/internal/backend"
	"homesearch/internal/core"
	"homesearch/internal/location"
	"homesearch/internal/retriever"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	entityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
)

// PropertyHit is one listing in a property result.
type PropertyHit struct {
	Property    core.Property
	Score       float64
	HybridScore float64
	Highlights  map[string][]string
}

// PropertyResult is the standard single-index listing result.
type PropertyResult struct {
	Title  string
	Query  string
	Intent location.Intent
	Hits   []PropertyHit
	Total  int64
	Took   time.Duration
	Fused  bool
}

// Display renders the listing table.
func (r *PropertyResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	if r.Query != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Query:"), r.Query)
	}
	if r.Intent.HasLocation {
		fmt.Fprintf(w, "%s city=%q state=%q neighborhood=%q confidence=%.2f\n",
			labelStyle.Render("Location:"), r.Intent.City, r.Intent.State, r.Intent.Neighborhood, r.Intent.Confidence)
	}
	fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("%d of %d hits in %s", len(r.Hits), r.Total, r.Took.Round(time.Millisecond))))

	if len(r.Hits) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No matching listings."))
		return
	}
	for i, hit := range r.Hits {
		p := hit.Property
		score := hit.Score
		scoreLabel := "score"
		if r.Fused {
			score = hit.HybridScore
			scoreLabel = "hybrid_score"
		}
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, p.ListingID,
			scoreStyle.Render(fmt.Sprintf("%s=%.4f", scoreLabel, score)))
		fmt.Fprintf(w, "    %s, %s, %s — %s, %d bd / %.1f ba, $%.0f\n",
			p.Address.Street, p.Address.City, p.Address.State,
			p.PropertyType, p.Bedrooms, p.Bathrooms, p.Price)
		for field, fragments := range hit.Highlights {
			for _, frag := range fragments {
				fmt.Fprintf(w, "    %s %s\n", dimStyle.Render(field+":"), frag)
			}
		}
	}
}

// EntityHit is one tagged hit of a multi-index search.
type EntityHit struct {
	EntityType   core.EntityType
	Score        float64
	Property     *core.Property
	Neighborhood *core.Neighborhood
	Article      *core.WikipediaArticle
}

// Label returns the hit's display line based on its tag.
func (h EntityHit) Label() string {
	switch h.EntityType {
	case core.EntityProperty:
		return fmt.Sprintf("%s — %s, %s", h.Property.ListingID, h.Property.Address.Street, h.Property.Address.City)
	case core.EntityNeighborhood:
		return fmt.Sprintf("%s (%s, %s)", h.Neighborhood.Name, h.Neighborhood.City, h.Neighborhood.State)
	case core.EntityWikipedia:
		return h.Article.Title
	}
	return "unknown"
}

// MixedEntityResult carries hits from more than one index, each tagged
// with its entity type.
type MixedEntityResult struct {
	Title string
	Query string
	Hits  []EntityHit
	Took  time.Duration
}

// Display renders the tagged hit list.
func (r *MixedEntityResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	if r.Query != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Query:"), r.Query)
	}
	fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("%d hits in %s", len(r.Hits), r.Took.Round(time.Millisecond))))
	for i, hit := range r.Hits {
		fmt.Fprintf(w, "%2d. %s %s  %s\n", i+1,
			entityStyle.Render(fmt.Sprintf("[%s]", hit.EntityType)),
			hit.Label(),
			scoreStyle.Render(fmt.Sprintf("score=%.4f", hit.Score)))
	}
}

// Bucket is one aggregation bucket.
type Bucket struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}

// StatsSummary is the numeric stats aggregation payload.
type StatsSummary struct {
	Count int64    `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Sum   float64  `json:"sum"`
}

// AggregationResult carries buckets and stats; hits are optional and
// usually absent.
type AggregationResult struct {
	Title   string
	Total   int64
	Stats   map[string]StatsSummary
	Buckets map[string][]Bucket
	Took    time.Duration
}

// Display renders each aggregation in a stable order.
func (r *AggregationResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("%d matching documents in %s", r.Total, r.Took.Round(time.Millisecond))))

	for _, name := range sortedKeys(r.Stats) {
		s := r.Stats[name]
		if s.Count == 0 || s.Min == nil {
			fmt.Fprintf(w, "%s empty\n", labelStyle.Render(name+":"))
			continue
		}
		fmt.Fprintf(w, "%s count=%d min=%.0f max=%.0f avg=%.0f\n",
			labelStyle.Render(name+":"), s.Count, *s.Min, *s.Max, *s.Avg)
	}
	for _, name := range sortedKeys(r.Buckets) {
		fmt.Fprintln(w, labelStyle.Render(name+":"))
		for _, b := range r.Buckets[name] {
			fmt.Fprintf(w, "    %v — %d\n", b.Key, b.DocCount)
		}
	}
}

// ComparisonResult is two labeled ranked lists plus overlap statistics.
type ComparisonResult struct {
	Title      string
	Query      string
	LeftLabel  string
	RightLabel string
	Left       []PropertyHit
	Right      []PropertyHit

	Intersection int
	OnlyLeft     int
	OnlyRight    int
}

// NewComparisonResult computes the overlap statistics for two lists.
func NewComparisonResult(title, q, leftLabel, rightLabel string, left, right []PropertyHit) *ComparisonResult {
	inLeft := map[string]bool{}
	for _, h := range left {
		inLeft[h.Property.ListingID] = true
	}
	r := &ComparisonResult{
		Title: title, Query: q,
		LeftLabel: leftLabel, RightLabel: rightLabel,
		Left: left, Right: right,
	}
	seen := map[string]bool{}
	for _, h := range right {
		seen[h.Property.ListingID] = true
		if inLeft[h.Property.ListingID] {
			r.Intersection++
		} else {
			r.OnlyRight++
		}
	}
	for id := range inLeft {
		if !seen[id] {
			r.OnlyLeft++
		}
	}
	return r
}

// Display renders both lists and the overlap summary.
func (r *ComparisonResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Query:"), r.Query)

	renderSide := func(label string, hits []PropertyHit) {
		fmt.Fprintln(w, labelStyle.Render(label))
		for i, h := range hits {
			fmt.Fprintf(w, "%2d. %s  %s  %s\n", i+1, h.Property.ListingID,
				h.Property.Description,
				scoreStyle.Render(fmt.Sprintf("score=%.4f", h.Score)))
		}
	}
	renderSide(r.LeftLabel, r.Left)
	renderSide(r.RightLabel, r.Right)

	fmt.Fprintf(w, "%s intersection=%d only_%s=%d only_%s=%d\n",
		labelStyle.Render("Overlap:"), r.Intersection,
		r.LeftLabel, r.OnlyLeft, r.RightLabel, r.OnlyRight)
}

// BatchEntry pairs one query with its result.
type BatchEntry struct {
	Query  string
	Result *PropertyResult
}

// SemanticBatchResult runs several queries and reports per-query
// results with aggregate timing.
type SemanticBatchResult struct {
	Title     string
	Entries   []BatchEntry
	TotalTook time.Duration
}

// Display renders each query's top hits and the aggregate timing.
func (r *SemanticBatchResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%s %s %s\n", labelStyle.Render("Query:"), e.Query,
			dimStyle.Render(fmt.Sprintf("(%d hits, %s)", len(e.Result.Hits), e.Result.Took.Round(time.Millisecond))))
		for i, hit := range e.Result.Hits {
			fmt.Fprintf(w, "  %2d. %s — %s\n", i+1, hit.Property.ListingID, hit.Property.Description)
		}
	}
	fmt.Fprintf(w, "%s %s across %d queries\n",
		labelStyle.Render("Total:"), r.TotalTook.Round(time.Millisecond), len(r.Entries))
}

// RelationshipResult shows denormalized property-relationship documents.
type RelationshipResult struct {
	Title         string
	Relationships []core.PropertyRelationship
	Took          time.Duration
}

// Display renders each relationship with its joined entities.
func (r *RelationshipResult) Display(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render(r.Title))
	fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("%d documents in %s", len(r.Relationships), r.Took.Round(time.Millisecond))))
	for _, rel := range r.Relationships {
		fmt.Fprintln(w, labelStyle.Render(rel.ListingID))
		fmt.Fprintf(w, "    %s, %s, %s\n", rel.Property.Address.Street, rel.Property.Address.City, rel.Property.Address.State)
		if rel.Neighborhood != nil {
			fmt.Fprintf(w, "    %s %s (%s, %s)\n", entityStyle.Render("[neighborhood]"),
				rel.Neighborhood.Name, rel.Neighborhood.City, rel.Neighborhood.State)
		} else {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render("no neighborhood on record"))
		}
		for _, a := range rel.WikipediaArticles {
			fmt.Fprintf(w, "    %s %s %s\n", entityStyle.Render("[wikipedia]"), a.Title,
				scoreStyle.Render(fmt.Sprintf("relevance=%.2f", a.RelevanceScore)))
		}
	}
}

// ErrorResult is the typed outcome of a failed demo.
type ErrorResult struct {
	Demo    string
	Kind    backend.Kind
	Message string
}

// Display renders a short diagnostic in place of hits.
func (r *ErrorResult) Display(w io.Writer) {
	kind := string(r.Kind)
	if kind == "" {
		kind = "error"
	}
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%s failed (%s)", r.Demo, kind)))
	fmt.Fprintln(w, r.Message)
}

// propertyResult decodes a result set into the property family.
func propertyResult(title string, rs *retriever.ResultSet) (*PropertyResult, error) {
	out := &PropertyResult{
		Title:  title,
		Intent: rs.Intent,
		Total:  rs.Total,
		Took:   rs.Took,
		Fused:  rs.Fused,
	}
	for _, hit := range rs.Hits {
		var p core.Property
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			return nil, fmt.Errorf("failed to decode property %s: %w", hit.ID, err)
		}
		out.Hits = append(out.Hits, PropertyHit{
			Property:    p,
			Score:       hit.Score,
			HybridScore: hit.HybridScore,
			Highlights:  hit.Highlights,
		})
	}
	return out, nil
}

// aggregationResult decodes a result set's aggregations into the typed
// stats and bucket maps. A stats payload carries count/min/max/avg;
// everything else is treated as a bucketed aggregation.
func aggregationResult(title string, rs *retriever.ResultSet) (*AggregationResult, error) {
	out := &AggregationResult{
		Title:   title,
		Total:   rs.Total,
		Took:    rs.Took,
		Stats:   map[string]StatsSummary{},
		Buckets: map[string][]Bucket{},
	}
	for name, raw := range rs.Aggregations {
		var bucketed struct {
			Buckets []Bucket `json:"buckets"`
		}
		if err := json.Unmarshal(raw, &bucketed); err == nil && bucketed.Buckets != nil {
			out.Buckets[name] = bucketed.Buckets
			continue
		}
		var stats StatsSummary
		if err := json.Unmarshal(raw, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode aggregation %s: %w", name, err)
		}
		out.Stats[name] = stats
	}
	return out, nil
}

// entityHits tags hits from a multi-index result by their source index.
func entityHits(rs *retriever.ResultSet, cat indexResolver) ([]EntityHit, error) {
	var out []EntityHit
	for _, hit := range rs.Hits {
		h := EntityHit{Score: hit.Score, EntityType: cat.EntityFor(hit.Index)}
		switch h.EntityType {
		case core.EntityProperty:
			h.Property = &core.Property{}
			if err := json.Unmarshal(hit.Source, h.Property); err != nil {
				return nil, err
			}
		case core.EntityNeighborhood:
			h.Neighborhood = &core.Neighborhood{}
			if err := json.Unmarshal(hit.Source, h.Neighborhood); err != nil {
				return nil, err
			}
		case core.EntityWikipedia:
			h.Article = &core.WikipediaArticle{}
			if err := json.Unmarshal(hit.Source, h.Article); err != nil {
				return nil, err
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// indexResolver maps an index name back to its entity type.
type indexResolver interface {
	EntityFor(index string) core.EntityType
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
