package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homesearch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load(writeConfig(t, "embedding:\n  provider: mock\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hybrid.RankConstant != 60 {
		t.Errorf("Expected rank_constant 60, got %d", cfg.Hybrid.RankConstant)
	}
	if cfg.Hybrid.RankWindowSize != 100 {
		t.Errorf("Expected rank_window_size 100, got %d", cfg.Hybrid.RankWindowSize)
	}
	if cfg.Relationships.BatchSize != 500 {
		t.Errorf("Expected relationships batch_size 500, got %d", cfg.Relationships.BatchSize)
	}
	if cfg.Relationships.MaxArticlesPerProperty != 10 {
		t.Errorf("Expected max_articles_per_property 10, got %d", cfg.Relationships.MaxArticlesPerProperty)
	}
	if cfg.Indices.Property != "properties" || cfg.Indices.PropertyRelationships != "property_relationships" {
		t.Errorf("Unexpected default index names: %+v", cfg.Indices)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("Expected file value to override the default provider, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension != 1024 {
		t.Errorf("Expected default dimension 1024, got %d", cfg.Embedding.Dimension)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Load(writeConfig(t, "embeddings:\n  provider: mock\n"))
	if err == nil {
		t.Fatal("Expected an error for an unknown top-level key")
	}
}

func TestLoadValidatesValues(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Load(writeConfig(t, "embedding:\n  dimension: -1\n"))
	if err == nil {
		t.Fatal("Expected an error for a non-positive dimension")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Load(writeConfig(t, "search_backend:\n  request_timeout: soon\n"))
	if err == nil {
		t.Fatal("Expected an error for an unparseable request_timeout")
	}
}

func TestTimeoutParsing(t *testing.T) {
	s := SearchBackend{RequestTimeout: "45s"}
	if got := s.Timeout().Seconds(); got != 45 {
		t.Errorf("Expected 45s timeout, got %vs", got)
	}
	broken := SearchBackend{RequestTimeout: ""}
	if got := broken.Timeout().Seconds(); got != 30 {
		t.Errorf("Expected 30s fallback, got %vs", got)
	}
}
