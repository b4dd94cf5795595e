package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/models"
)

// ProviderConfig holds the settings shared by remote providers.
type ProviderConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig) (Provider, error) {
	pc := ProviderConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Dimensions: cfg.Dimensions,
	}
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiProvider(ctx, pc)
	case "openai":
		return NewOpenAIProvider(pc)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", models.ErrConfiguration, cfg.Provider)
	}
}

// NewFromConfig builds a Client around the configured provider.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (*Client, error) {
	p, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(p,
		WithLogger(logger),
		WithMaxInputChars(cfg.MaxInputChars),
		WithBatchSize(cfg.BatchSize),
		WithTimeout(time.Duration(cfg.TimeoutSecs)*time.Second),
		WithRateLimit(cfg.RequestsPerSecond, cfg.BatchSize),
		WithCache(cfg.CacheSize),
	)
}
