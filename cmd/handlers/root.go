package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"homesearch/internal/backend"
	"homesearch/internal/catalog"
	"homesearch/internal/config"
	"homesearch/internal/demo"
	"homesearch/internal/embedding"
	"homesearch/internal/relationship"
	"homesearch/internal/retriever"
	"homesearch/internal/seed"
)

// Exit codes: 0 success, 2 usage, 3 backend unavailable, 4 partial failure.
const (
	exitUsage       = 2
	exitUnavailable = 3
	exitPartial     = 4
)

var cfgFile string

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "homesearch",
		Short: "Homesearch is a hybrid search engine over real-estate listings.",
		Long: `Homesearch indexes property listings, neighborhoods, and Wikipedia
articles, and retrieves them with lexical search, dense-vector k-NN,
and reciprocal-rank-fused hybrid search.

Typical flow:
  homesearch indices setup          # create the indices
  homesearch indices seed           # embed and load the sample corpus
  homesearch relationships build    # build the denormalized join index
  homesearch demo list              # see the available query demos
  homesearch demo run 7             # run the hybrid search demo`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.homesearch.yaml)")

	rootCmd.AddCommand(NewIndicesCmd())
	rootCmd.AddCommand(NewDemoCmd())
	rootCmd.AddCommand(NewRelationshipsCmd())

	return rootCmd
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(exitUsage)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(exitUsage)
	}
}

// wireEnv connects the backend and builds the shared collaborators the
// commands run against. A failed ping maps to the unavailable exit code.
func wireEnv(ctx context.Context, size int) (*demo.Env, error) {
	cfg := config.Get()

	b, err := backend.NewElasticBackend(cfg.SearchBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend client: %w", err)
	}
	if err := b.Ping(ctx); err != nil {
		return nil, &exitError{code: exitUnavailable, err: fmt.Errorf("search backend unavailable: %w", err)}
	}

	provider, err := embedding.NewProvider(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding provider: %w", err)
	}

	batcher := embedding.NewBatcher(provider, cfg.Embedding)
	return &demo.Env{
		Backend:  b,
		Engine:   retriever.NewEngine(b, batcher, cfg.Hybrid),
		Catalog:  catalog.New(cfg),
		Embedder: batcher,
		Config:   cfg,
		Size:     size,
	}, nil
}

// wireOfflineEnv builds a fully self-contained environment: an in-memory
// backend seeded with the sample corpus, mock embeddings, and a built
// relationships index. No external services are contacted.
func wireOfflineEnv(ctx context.Context, size int) (*demo.Env, error) {
	cfg := config.Get()

	mem := backend.NewMemoryBackend()
	batcher := embedding.NewBatcher(embedding.NewMockProvider(cfg.Embedding.Dimension), cfg.Embedding)
	env := &demo.Env{
		Backend:  mem,
		Engine:   retriever.NewEngine(mem, batcher, cfg.Hybrid),
		Catalog:  catalog.New(cfg),
		Embedder: batcher,
		Config:   cfg,
		Size:     size,
	}

	ix := newIndexer(env)
	if err := ix.EnsureAllIndices(ctx, false); err != nil {
		return nil, fmt.Errorf("offline index setup failed: %w", err)
	}

	properties := seed.Properties()
	neighborhoods := seed.Neighborhoods()
	articles := seed.Articles()
	if err := embedCorpus(ctx, env, properties, neighborhoods, articles); err != nil {
		return nil, err
	}
	if _, err := ix.IndexAll(ctx, properties, neighborhoods, articles); err != nil {
		return nil, fmt.Errorf("offline seeding failed: %w", err)
	}

	builder := relationship.NewBuilder(mem, env.Catalog, ix, cfg.Relationships)
	if _, err := builder.Build(ctx, false); err != nil {
		return nil, fmt.Errorf("offline relationship build failed: %w", err)
	}
	return env, nil
}
