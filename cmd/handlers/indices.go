package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"homesearch/internal/core"
	"homesearch/internal/demo"
	"homesearch/internal/embedding"
	"homesearch/internal/indexer"
	"homesearch/internal/query"
	"homesearch/internal/relationship"
	"homesearch/internal/seed"
)

// NewIndicesCmd creates the parent indices command with subcommands
func NewIndicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Manage the search indices",
		Long: `Create, seed, and inspect the property, neighborhood, Wikipedia,
and relationship indices.

Examples:
  # Create the indices (idempotent)
  homesearch indices setup

  # Drop and recreate everything, then rebuild relationships
  homesearch indices setup --clear --rebuild-relationships

  # Embed and load the bundled sample corpus
  homesearch indices seed

  # Show per-index document counts
  homesearch indices stats`,
	}

	cmd.AddCommand(NewIndicesSetupCmd())
	cmd.AddCommand(NewIndicesSeedCmd())
	cmd.AddCommand(NewIndicesStatsCmd())

	return cmd
}

// NewIndicesSetupCmd creates the setup subcommand
func NewIndicesSetupCmd() *cobra.Command {
	var (
		clear                bool
		rebuildRelationships bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the search indices",
		Long:  `Create every index with its mapping and settings. Safe to rerun; --clear drops and recreates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndicesSetup(clear, rebuildRelationships)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Drop and recreate the indices")
	cmd.Flags().BoolVar(&rebuildRelationships, "rebuild-relationships", false, "Rebuild the relationships index after setup")

	return cmd
}

// NewIndicesSeedCmd creates the seed subcommand
func NewIndicesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Embed and index the bundled sample corpus",
		Long:  `Embed the bundled listings, neighborhoods, and articles with the configured provider and bulk-index them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndicesSeed()
		},
	}
}

// NewIndicesStatsCmd creates the stats subcommand
func NewIndicesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-index document counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndicesStats()
		},
	}
}

func runIndicesSetup(clear, rebuildRelationships bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env, err := wireEnv(ctx, 0)
	if err != nil {
		return err
	}
	ix := newIndexer(env)

	if err := ix.EnsureAllIndices(ctx, clear); err != nil {
		return fmt.Errorf("index setup failed: %w", err)
	}
	fmt.Println("Indices ready.")

	if rebuildRelationships {
		return buildRelationships(ctx, env, true)
	}
	return nil
}

func runIndicesSeed() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	env, err := wireEnv(ctx, 0)
	if err != nil {
		return err
	}
	ix := newIndexer(env)
	if err := ix.EnsureAllIndices(ctx, false); err != nil {
		return fmt.Errorf("index setup failed: %w", err)
	}

	properties := seed.Properties()
	neighborhoods := seed.Neighborhoods()
	articles := seed.Articles()

	fmt.Printf("Embedding %d listings, %d neighborhoods, %d articles...\n",
		len(properties), len(neighborhoods), len(articles))
	if err := embedCorpus(ctx, env, properties, neighborhoods, articles); err != nil {
		return err
	}

	stats, err := ix.IndexAll(ctx, properties, neighborhoods, articles)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	failed := 0
	for entity, s := range stats {
		fmt.Printf("%-22s indexed=%d failed=%d\n", entity, s.Indexed, s.Failed)
		failed += s.Failed
	}
	if failed > 0 {
		return &exitError{code: exitPartial, err: fmt.Errorf("%d documents failed to index", failed)}
	}
	return nil
}

// embedCorpus fills in the embedding field of every seed document.
func embedCorpus(ctx context.Context, env *demo.Env, properties []core.Property, neighborhoods []core.Neighborhood, articles []core.WikipediaArticle) error {
	texts := make([]string, 0, len(properties)+len(neighborhoods)+len(articles))
	for _, p := range properties {
		texts = append(texts, embedding.PropertyText(p))
	}
	for _, n := range neighborhoods {
		texts = append(texts, embedding.NeighborhoodText(n))
	}
	for _, a := range articles {
		texts = append(texts, embedding.WikipediaText(a))
	}

	vectors, err := env.Embedder.EmbedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding seed corpus failed: %w", err)
	}

	i := 0
	for j := range properties {
		properties[j].Embedding = vectors[i]
		i++
	}
	for j := range neighborhoods {
		neighborhoods[j].Embedding = vectors[i]
		i++
	}
	for j := range articles {
		articles[j].Embedding = vectors[i]
		i++
	}
	return nil
}

func runIndicesStats() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env, err := wireEnv(ctx, 0)
	if err != nil {
		return err
	}

	names := []string{
		env.Catalog.IndexName(core.EntityProperty),
		env.Catalog.IndexName(core.EntityNeighborhood),
		env.Catalog.IndexName(core.EntityWikipedia),
		env.Catalog.RelationshipsIndexName(),
	}
	for _, name := range names {
		doc := query.Filtered(query.SearchFilters{}).WithSize(0)
		result, err := env.Backend.Search(ctx, []string{name}, doc)
		if err != nil {
			fmt.Printf("%-24s unavailable: %v\n", name, err)
			continue
		}
		fmt.Printf("%-24s %d documents\n", name, result.Total)
	}
	return nil
}

func newIndexer(env *demo.Env) *indexer.Indexer {
	return indexer.New(env.Backend, env.Catalog, indexer.DefaultBatchSize, env.Config.SearchBackend.MaxRetries)
}

// buildRelationships runs the join pipeline and reports its statistics.
func buildRelationships(ctx context.Context, env *demo.Env, rebuild bool) error {
	builder := relationship.NewBuilder(env.Backend, env.Catalog, newIndexer(env), env.Config.Relationships)
	stats, err := builder.Build(ctx, rebuild)
	if err != nil {
		return fmt.Errorf("relationship build failed: %w", err)
	}
	fmt.Printf("Relationships built: scanned=%d written=%d skipped_no_neighborhood=%d failed=%d in %s\n",
		stats.Scanned, stats.Written, stats.SkippedNoNeighborhood, stats.Failed, stats.Duration.Round(time.Millisecond))
	if stats.Failed > 0 {
		return &exitError{code: exitPartial, err: fmt.Errorf("%d properties failed during the build", stats.Failed)}
	}
	return nil
}
