package embedding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/docsy/internal/models"
)

// recordingProvider returns a one-dimensional vector holding the rune count of
// the input and records every call.
type recordingProvider struct {
	mu       sync.Mutex
	inputs   []string
	inFlight int32
	maxSeen  int32
	failOn   string
	dims     int
	delay    time.Duration
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	n := atomic.AddInt32(&p.inFlight, 1)
	defer atomic.AddInt32(&p.inFlight, -1)
	for {
		old := atomic.LoadInt32(&p.maxSeen)
		if n <= old || atomic.CompareAndSwapInt32(&p.maxSeen, old, n) {
			break
		}
	}
	p.mu.Lock()
	p.inputs = append(p.inputs, text)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.failOn != "" && text == p.failOn {
		return nil, errors.New("boom")
	}
	dims := p.dims
	if dims == 0 {
		dims = 1
	}
	v := make([]float32, dims)
	v[0] = float32(len([]rune(text)))
	return v, nil
}

func (p *recordingProvider) Dimensions() int {
	if p.dims == 0 {
		return 1
	}
	return p.dims
}

func (p *recordingProvider) Close() error { return nil }

func TestNewClient_nilProvider(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestClient_EmbedTruncatesAndTrims(t *testing.T) {
	p := &recordingProvider{}
	c, err := NewClient(p, WithMaxInputChars(10))
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Embed(context.Background(), "  abcdefgh  tail beyond limit")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.inputs[0]; got != "abcdefgh" {
		t.Errorf("provider input = %q, want %q", got, "abcdefgh")
	}
	if v[0] != 8 {
		t.Errorf("vector = %v", v)
	}
}

func TestClient_EmbedEmpty(t *testing.T) {
	c, _ := NewClient(&recordingProvider{})
	if _, err := c.Embed(context.Background(), "   "); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_EmbedBatchPreservesOrder(t *testing.T) {
	p := &recordingProvider{delay: time.Millisecond}
	c, _ := NewClient(p, WithBatchSize(3))
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg"}
	out, err := c.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(texts) {
		t.Fatalf("len = %d, want %d", len(out), len(texts))
	}
	for i, v := range out {
		if int(v[0]) != i+1 {
			t.Errorf("out[%d] = %v, want %d", i, v, i+1)
		}
	}
	if peak := atomic.LoadInt32(&p.maxSeen); peak > 3 {
		t.Errorf("max concurrent calls = %d, want <= 3", peak)
	}
}

func TestClient_EmbedBatchFailFast(t *testing.T) {
	p := &recordingProvider{failOn: "bad"}
	c, _ := NewClient(p, WithBatchSize(2))
	out, err := c.EmbedBatch(context.Background(), []string{"ok", "bad", "later", "never"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, models.ErrProvider) {
		t.Errorf("expected ErrProvider, got %v", err)
	}
	if out != nil {
		t.Errorf("partial results returned: %v", out)
	}
	for _, in := range p.inputs {
		if in == "never" || in == "later" {
			t.Errorf("sub-batch after failure should not run, saw %q", in)
		}
	}
}

func TestClient_DimensionMismatch(t *testing.T) {
	p := &mismatchProvider{}
	c, _ := NewClient(p)
	if _, err := c.Embed(context.Background(), "text"); !errors.Is(err, models.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

type mismatchProvider struct{}

func (mismatchProvider) Name() string { return "mismatch" }
func (mismatchProvider) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 2}, nil
}
func (mismatchProvider) Dimensions() int { return 3 }
func (mismatchProvider) Close() error    { return nil }

func TestClient_Cache(t *testing.T) {
	p := &recordingProvider{}
	c, _ := NewClient(p, WithCache(10))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Embed(ctx, "same text"); err != nil {
			t.Fatal(err)
		}
	}
	if len(p.inputs) != 1 {
		t.Errorf("provider calls = %d, want 1", len(p.inputs))
	}
}

func TestClient_Timeout(t *testing.T) {
	p := &recordingProvider{delay: time.Second}
	c, _ := NewClient(p, WithTimeout(10*time.Millisecond))
	_, err := c.Embed(context.Background(), "slow")
	if !errors.Is(err, models.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestClient_RateLimitCanceled(t *testing.T) {
	p := &recordingProvider{}
	c, _ := NewClient(p, WithRateLimit(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.Embed(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	cancel()
	if _, err := c.Embed(ctx, "second"); err == nil {
		t.Fatal("expected rate limiter error after cancel")
	}
}

func TestMockEmbedder_similarity(t *testing.T) {
	m := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := m.Embed(ctx, "photosynthesis converts light energy")
	b, _ := m.Embed(ctx, "Photosynthesis converts light energy.")
	if len(a) != 64 {
		t.Fatalf("dims = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("case and punctuation should not change the vector")
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v * v)
	}
	if norm < 0.999 || norm > 1.001 {
		t.Errorf("vector not unit length: %f", norm)
	}
}

func TestPrepare(t *testing.T) {
	if got := Prepare("  "+strings.Repeat("x", 20), 5); got != "xxx" {
		t.Errorf("Prepare = %q, want %q", got, "xxx")
	}
}
