// Package config provides configuration loading and structs for the docsy server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/docsy/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds local paths for the index status database and the
// snapshot of the in-memory vector index.
type StorageConfig struct {
	DatabasePath       string `yaml:"database_path"`
	VectorSnapshotPath string `yaml:"vector_snapshot_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // gemini, openai, mock
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	MaxInputChars     int     `yaml:"max_input_chars"`
	BatchSize         int     `yaml:"batch_size"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables rate limiting
	CacheSize         int     `yaml:"cache_size"`          // 0 disables caching
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	Type        string `yaml:"type"` // qdrant, memory
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkingConfig holds chunker settings. Sizes are in characters.
type ChunkingConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	MinChunkChars int `yaml:"min_chunk_chars"`
}

// RetrievalConfig holds result limits for chat-turn and search retrieval.
type RetrievalConfig struct {
	ChatLimit   int `yaml:"chat_limit"`
	SearchLimit int `yaml:"search_limit"`
	MaxLimit    int `yaml:"max_limit"`
}

// WatchConfig holds inbox directory settings. Each root contains one
// subdirectory per notebook holding extracted text files.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, expands paths, and validates the result.
// Returns an error if the file cannot be read, parsed, or is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Storage.VectorSnapshotPath != "" {
		cfg.Storage.VectorSnapshotPath = expandPath(cfg.Storage.VectorSnapshotPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration built from defaults and the environment only.
func Default() *Config {
	var cfg Config
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv fills unset secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) {
	if cfg.Embedding.APIKey == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		case "mock":
		default:
			cfg.Embedding.APIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
		}
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = os.Getenv("QDRANT_URL")
	}
	if cfg.Vector.APIKey == "" {
		cfg.Vector.APIKey = os.Getenv("QDRANT_API_KEY")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate rejects settings that would make chunking or provider selection
// impossible. It performs no I/O.
func (c *Config) Validate() error {
	ch := c.Chunking
	if ch.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", models.ErrInvalidInput)
	}
	if ch.ChunkOverlap <= 0 || ch.ChunkOverlap >= ch.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in (0, chunk_size), got %d with chunk_size %d",
			models.ErrInvalidInput, ch.ChunkOverlap, ch.ChunkSize)
	}
	switch c.Embedding.Provider {
	case "gemini", "openai", "mock":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q (supported: gemini, openai, mock)",
			models.ErrInvalidInput, c.Embedding.Provider)
	}
	switch c.Vector.Type {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("%w: unknown vector index type %q (supported: qdrant, memory)",
			models.ErrInvalidInput, c.Vector.Type)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch_size must be positive", models.ErrInvalidInput)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
