package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"homesearch/internal/backend"
	"homesearch/internal/config"
)

// GeminiProvider embeds text with the Gemini embedding API. The model
// supports Matryoshka truncation, so the output dimensionality follows
// the configured catalog dimension.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewGeminiProvider creates a Gemini-backed provider from configuration.
func NewGeminiProvider(ctx context.Context, cfg config.Embedding) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key (GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GeminiProvider{client: client, model: model, dimension: cfg.Dimension}, nil
}

// Name returns the provider configuration key.
func (g *GeminiProvider) Name() string { return "gemini" }

// Dimension returns the configured output dimension.
func (g *GeminiProvider) Dimension() int { return g.dimension }

// Embed requests one embedding per text in a single API call.
func (g *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  "user",
		})
	}

	dims := int32(g.dimension)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, backend.NewError(classifyProviderError(err), "embed", "Gemini embedding call failed", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, backend.NewError(backend.KindProvider, "embed",
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), got), nil)
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, backend.NewError(backend.KindProvider, "embed",
				fmt.Sprintf("empty embedding at position %d", i), nil)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// classifyProviderError separates quota and transient failures, which
// the batcher retries, from terminal request errors.
func classifyProviderError(err error) backend.Kind {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context canceled") || strings.Contains(msg, "deadline exceeded"):
		return backend.KindCancelled
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate") ||
		strings.Contains(msg, "429") || strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "500") || strings.Contains(msg, "503"):
		return backend.KindProvider
	default:
		return backend.KindValidation
	}
}
