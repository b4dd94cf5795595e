// Package embedding turns text into fixed-length vectors through a remote
// provider, with batching, truncation, rate limiting and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. EmbedBatch preserves input
// order and length, and returns no vectors at all when any input fails.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider embeds a single, already truncated text. Implementations wrap
// remote failures in models.ErrProvider and missing credentials in
// models.ErrConfiguration.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
