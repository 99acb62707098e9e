package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider produces deterministic pseudo-vectors from a text hash.
// Identical texts always embed identically, and nearby texts do not —
// enough structure for tests and offline demos without an API key.
type MockProvider struct {
	dimension int
}

// NewMockProvider creates a mock provider with the given dimension.
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 1024
	}
	return &MockProvider{dimension: dimension}
}

func (m *MockProvider) Name() string   { return "mock" }
func (m *MockProvider) Dimension() int { return m.dimension }

// Embed hashes each text into a deterministic unit-length vector.
func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

func (m *MockProvider) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	v := make([]float32, m.dimension)
	var sum float64
	for i := range v {
		// xorshift64 keeps the sequence deterministic per seed.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		x := float64(int64(state)) / float64(math.MaxInt64)
		v[i] = float32(x)
		sum += x * x
	}
	norm := float32(math.Sqrt(sum))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
