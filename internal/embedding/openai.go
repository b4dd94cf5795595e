package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/docsy/internal/models"
)

// DefaultOpenAIModel is the OpenAI embedding model used when none is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIProvider embeds text with an OpenAI-compatible embeddings endpoint.
// Setting BaseURL points it at a compatible server such as Ollama.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAIProvider creates an OpenAI provider. An API key is required unless
// a custom base URL is configured.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", models.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
		if model == "text-embedding-3-large" {
			dims = 3072
		}
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		dims:   dims,
	}, nil
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

// Embed embeds a single text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: []string{text},
	}
	// Only the text-embedding-3 family accepts a dimensions parameter.
	if strings.HasPrefix(p.model, "text-embedding-3") {
		req.Dimensions = p.dims
	}
	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: openai embeddings returned %d: %s", models.ErrProvider, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: openai embeddings: %w", models.ErrProvider, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: openai returned no embedding data", models.ErrProvider)
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured embedding dimension.
func (p *OpenAIProvider) Dimensions() int { return p.dims }

// Close is a no-op for OpenAIProvider.
func (p *OpenAIProvider) Close() error { return nil }
