package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/pkg/utils"
)

// Client defaults.
const (
	DefaultMaxInputChars = 10000
	DefaultBatchSize     = 10
	DefaultTimeout       = 30 * time.Second
)

// Client implements Embedder over a Provider. Inputs are truncated before
// submission and batches run in sequential sub-batches whose members are
// embedded concurrently.
type Client struct {
	provider      Provider
	maxInputChars int
	batchSize     int
	timeout       time.Duration
	limiter       *rate.Limiter
	cache         *EmbeddingCache
	logger        *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithMaxInputChars sets the rune limit applied to every input.
func WithMaxInputChars(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxInputChars = n
		}
	}
}

// WithBatchSize sets how many inputs are embedded concurrently.
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps provider calls at rps per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache keeps up to size embeddings in an LRU cache. A non-positive size disables caching.
func WithCache(size int) ClientOption {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = NewEmbeddingCache(size)
	}
}

// NewClient wraps provider. It returns models.ErrConfiguration when provider is nil.
func NewClient(provider Provider, opts ...ClientOption) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: no embedding provider", models.ErrConfiguration)
	}
	c := &Client{
		provider:      provider,
		maxInputChars: DefaultMaxInputChars,
		batchSize:     DefaultBatchSize,
		timeout:       DefaultTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// Prepare truncates text to maxChars runes and trims surrounding whitespace.
func Prepare(text string, maxChars int) string {
	return strings.TrimSpace(utils.ClipRunes(text, maxChars))
}

// Embed embeds a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	input := Prepare(text, c.maxInputChars)
	if input == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", models.ErrInvalidInput)
	}
	return c.embedOne(ctx, input)
}

// EmbedBatch embeds texts in sub-batches. The first failure cancels the
// remaining calls of its sub-batch and the whole batch returns no vectors.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = Prepare(t, c.maxInputChars)
		if inputs[i] == "" {
			return nil, fmt.Errorf("%w: cannot embed empty text at index %d", models.ErrInvalidInput, i)
		}
	}

	out := make([][]float32, len(inputs))
	for lo := 0; lo < len(inputs); lo += c.batchSize {
		hi := lo + c.batchSize
		if hi > len(inputs) {
			hi = len(inputs)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				v, err := c.embedOne(gctx, inputs[i])
				if err != nil {
					return err
				}
				out[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.logger.Warn("embedding batch failed",
				zap.String("provider", c.provider.Name()),
				zap.Int("batch_start", lo),
				zap.Int("total", len(inputs)),
				zap.Error(err))
			return nil, err
		}
	}
	c.logger.Debug("embedded batch",
		zap.String("provider", c.provider.Name()),
		zap.Int("count", len(inputs)))
	return out, nil
}

func (c *Client) embedOne(ctx context.Context, input string) ([]float32, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(input); ok {
			return v, nil
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", models.ErrProvider, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	v, err := c.provider.Embed(callCtx, input)
	if err != nil {
		if errors.Is(err, models.ErrProvider) || errors.Is(err, models.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", models.ErrProvider, c.provider.Name(), err)
	}
	if want := c.provider.Dimensions(); want > 0 && len(v) != want {
		return nil, fmt.Errorf("%w: %s returned %d dimensions, want %d",
			models.ErrProvider, c.provider.Name(), len(v), want)
	}
	if c.cache != nil {
		c.cache.Set(input, v)
	}
	return v, nil
}

// Dimensions returns the provider's embedding dimension.
func (c *Client) Dimensions() int {
	return c.provider.Dimensions()
}

// Close releases the provider.
func (c *Client) Close() error {
	return c.provider.Close()
}
