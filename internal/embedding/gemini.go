package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/pkg/utils"
)

// DefaultGeminiModel is the Gemini embedding model used when none is configured.
const DefaultGeminiModel = "text-embedding-004"

// GeminiProvider embeds text with the Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGeminiProvider creates a Gemini provider. It returns models.ErrConfiguration
// when no API key is set.
func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key not set (GOOGLE_API_KEY or GEMINI_API_KEY)", models.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %w", models.ErrConfiguration, err)
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 768
	}
	return &GeminiProvider{client: client, model: model, dims: dims}, nil
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return "gemini" }

// Embed embeds a single text.
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(p.dims)
	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed content: %w", models.ErrProvider, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no embedding", models.ErrProvider)
	}
	out := append([]float32(nil), resp.Embeddings[0].Values...)
	// Embeddings truncated by OutputDimensionality are not unit length.
	utils.NormalizeL2(out)
	return out, nil
}

// Dimensions returns the configured output dimensionality.
func (p *GeminiProvider) Dimensions() int { return p.dims }

// Close is a no-op; the genai client holds no resources that need releasing.
func (p *GeminiProvider) Close() error { return nil }
