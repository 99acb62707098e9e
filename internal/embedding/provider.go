package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/cenkalti/backoff/v4"

	"homesearch/internal/backend"
	"homesearch/internal/config"
	"homesearch/internal/logger"
)

// Provider is the narrow embedding contract: a batch of texts in, one
// vector per text out, every vector of the declared dimension. Vectors
// are deterministic for a given (provider, model, text) within a run.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}

// Batcher wraps a Provider with batch splitting, bounded retries with
// exponential backoff and jitter, and unit normalization for cosine
// similarity. All embedding calls in the system go through a Batcher.
type Batcher struct {
	provider   Provider
	batchSize  int
	maxRetries int
	normalize  bool
}

// NewBatcher builds the batching adapter from configuration. The
// catalog declares cosine similarity, so normalization is on.
func NewBatcher(provider Provider, cfg config.Embedding) *Batcher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Batcher{
		provider:   provider,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		normalize:  true,
	}
}

// Dimension reports the wrapped provider's output dimension.
func (b *Batcher) Dimension() int { return b.provider.Dimension() }

// EmbedAll embeds texts in provider-sized batches. A persistently
// failing batch aborts the whole call; there is no partial result.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := b.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedOne embeds a single text, used for query vectors.
func (b *Batcher) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := b.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (b *Batcher) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(b.maxRetries)),
		ctx,
	)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		result, err := b.provider.Embed(ctx, texts)
		if err != nil {
			if !backend.Retryable(err) && backend.KindOf(err) != "" {
				return backoff.Permanent(err)
			}
			logger.Warn("Embedding batch failed, retrying",
				"provider", b.provider.Name(), "attempt", attempt, "batch_size", len(texts), "error", err.Error())
			return err
		}
		vectors = result
		return nil
	}, policy)
	if err != nil {
		if backend.KindOf(err) != "" {
			return nil, err
		}
		return nil, backend.NewError(backend.KindProvider, "embed",
			fmt.Sprintf("provider %s failed after %d attempts", b.provider.Name(), attempt), err)
	}

	if len(vectors) != len(texts) {
		return nil, backend.NewError(backend.KindProvider, "embed",
			fmt.Sprintf("provider %s returned %d vectors for %d texts", b.provider.Name(), len(vectors), len(texts)), nil)
	}
	dim := b.provider.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return nil, backend.NewError(backend.KindProvider, "embed",
				fmt.Sprintf("vector %d has dimension %d, want %d", i, len(v), dim), nil)
		}
		if b.normalize {
			vectors[i] = Normalize(v)
		}
	}
	return vectors, nil
}

// Normalize scales a vector to unit length. Zero vectors pass through
// unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// NewProvider selects a provider by configuration key.
func NewProvider(ctx context.Context, cfg config.Embedding) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "mock":
		return NewMockProvider(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
