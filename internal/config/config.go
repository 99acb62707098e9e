package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Embedding     Embedding     `mapstructure:"embedding"`
	SearchBackend SearchBackend `mapstructure:"search_backend"`
	Indices       Indices       `mapstructure:"indices"`
	Hybrid        Hybrid        `mapstructure:"hybrid"`
	Relationships Relationships `mapstructure:"relationships"`
}

// Embedding holds embedding provider configuration
type Embedding struct {
	Provider   string `mapstructure:"provider"`    // Provider key (e.g., "gemini", "mock")
	Model      string `mapstructure:"model"`       // Embedding model name
	APIKey     string `mapstructure:"api_key"`     // Provider API key (env: GEMINI_API_KEY)
	Dimension  int    `mapstructure:"dimension"`   // Output vector dimension
	BatchSize  int    `mapstructure:"batch_size"`  // Texts per provider call
	MaxRetries int    `mapstructure:"max_retries"` // Bounded retries on provider errors
}

// SearchBackend holds search backend connection configuration
type SearchBackend struct {
	Hosts          []string `mapstructure:"hosts"`           // Backend node URLs
	Username       string   `mapstructure:"username"`        // Optional basic-auth user
	Password       string   `mapstructure:"password"`        // Optional basic-auth password
	RequestTimeout string   `mapstructure:"request_timeout"` // Per-call timeout (duration string)
	MaxRetries     int      `mapstructure:"max_retries"`     // Transport retries on 5xx/network errors
	MaxInflight    int      `mapstructure:"max_inflight"`    // Cap on concurrent backend requests
}

// Indices holds the names of the four indices
type Indices struct {
	Property              string `mapstructure:"property"`
	Neighborhood          string `mapstructure:"neighborhood"`
	Wikipedia             string `mapstructure:"wikipedia"`
	PropertyRelationships string `mapstructure:"property_relationships"`
}

// Hybrid holds hybrid-search tuning parameters
type Hybrid struct {
	RankConstant     int `mapstructure:"rank_constant"`      // RRF k (default 60)
	RankWindowSize   int `mapstructure:"rank_window_size"`   // Per-retriever rank window (default 100)
	KnnK             int `mapstructure:"knn_k"`              // k for the k-NN retriever
	KnnNumCandidates int `mapstructure:"knn_num_candidates"` // HNSW candidate pool floor
}

// Relationships holds relationship-builder configuration
type Relationships struct {
	BatchSize              int  `mapstructure:"batch_size"`                // Properties per scan page
	MaxArticlesPerProperty int  `mapstructure:"max_articles_per_property"` // Cap on joined Wikipedia articles
	RefreshOnComplete      bool `mapstructure:"refresh_on_complete"`       // Refresh relationships index after build
}

var globalConfig *Config

// Load loads the configuration from file, environment, and defaults.
// Unknown keys in the config file are rejected.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".homesearch")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// UnmarshalExact rejects keys that do not map to a known field
	config := &Config{}
	if err := viper.UnmarshalExact(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	// Embedding defaults
	viper.SetDefault("embedding.provider", "gemini")
	viper.SetDefault("embedding.model", "gemini-embedding-001")
	viper.SetDefault("embedding.dimension", 1024)
	viper.SetDefault("embedding.batch_size", 32)
	viper.SetDefault("embedding.max_retries", 3)

	// Search backend defaults
	viper.SetDefault("search_backend.hosts", []string{"http://localhost:9200"})
	viper.SetDefault("search_backend.request_timeout", "30s")
	viper.SetDefault("search_backend.max_retries", 3)
	viper.SetDefault("search_backend.max_inflight", 8)

	// Index name defaults
	viper.SetDefault("indices.property", "properties")
	viper.SetDefault("indices.neighborhood", "neighborhoods")
	viper.SetDefault("indices.wikipedia", "wikipedia")
	viper.SetDefault("indices.property_relationships", "property_relationships")

	// Hybrid search defaults
	viper.SetDefault("hybrid.rank_constant", 60)
	viper.SetDefault("hybrid.rank_window_size", 100)
	viper.SetDefault("hybrid.knn_k", 50)
	viper.SetDefault("hybrid.knn_num_candidates", 100)

	// Relationship builder defaults
	viper.SetDefault("relationships.batch_size", 500)
	viper.SetDefault("relationships.max_articles_per_property", 10)
	viper.SetDefault("relationships.refresh_on_complete", true)
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("embedding.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("search_backend.username", []string{"SEARCH_BACKEND_USERNAME", "ELASTIC_USERNAME"})
	bindEnvKeys("search_backend.password", []string{"SEARCH_BACKEND_PASSWORD", "ELASTIC_PASSWORD"})
}

// bindEnvKeys binds the first set environment variable to a config key
func bindEnvKeys(configKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(configKey, value)
			return
		}
	}
}

// validateConfig checks cross-field constraints after unmarshaling
func validateConfig(config *Config) error {
	if config.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", config.Embedding.Dimension)
	}
	if config.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", config.Embedding.BatchSize)
	}
	if len(config.SearchBackend.Hosts) == 0 {
		return fmt.Errorf("search_backend.hosts must not be empty")
	}
	if _, err := time.ParseDuration(config.SearchBackend.RequestTimeout); err != nil {
		return fmt.Errorf("search_backend.request_timeout is not a valid duration: %w", err)
	}
	if config.Hybrid.RankConstant <= 0 {
		return fmt.Errorf("hybrid.rank_constant must be positive, got %d", config.Hybrid.RankConstant)
	}
	if config.Hybrid.RankWindowSize <= 0 {
		return fmt.Errorf("hybrid.rank_window_size must be positive, got %d", config.Hybrid.RankWindowSize)
	}
	if config.Relationships.BatchSize <= 0 {
		return fmt.Errorf("relationships.batch_size must be positive, got %d", config.Relationships.BatchSize)
	}
	return nil
}

// Timeout returns the backend per-call timeout as a duration
func (s SearchBackend) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
