package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/models"
)

// DefaultCollection is the Qdrant collection holding every notebook's chunks.
const DefaultCollection = "docsy_documents"

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// QdrantIndex is a minimal REST client to Qdrant. It uses cosine distance and
// keyword payload indexes on notebookId and documentId. Calls are never retried.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
	ready      atomic.Bool
	logger     *zap.Logger
}

// QdrantOption configures a QdrantIndex.
type QdrantOption func(*QdrantIndex)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) QdrantOption {
	return func(q *QdrantIndex) { q.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) QdrantOption {
	return func(q *QdrantIndex) { q.client = c }
}

// NewQdrantIndex creates a client. It returns models.ErrConfiguration when the
// URL or dimension is missing. EnsureCollection must succeed before any other call.
func NewQdrantIndex(cfg QdrantConfig, opts ...QdrantOption) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url not set (QDRANT_URL)", models.ErrConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", models.ErrConfiguration)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	q := &QdrantIndex{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = zap.NewNop()
	}
	return q, nil
}

// Type returns "qdrant".
func (q *QdrantIndex) Type() string { return string(IndexTypeQdrant) }

// EnsureCollection creates the collection with cosine distance when it does not
// exist, then creates the keyword payload indexes used by filters.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	status, err := q.do(ctx, http.MethodGet, q.collectionPath(""), nil, nil)
	switch {
	case err == nil:
		q.logger.Debug("qdrant collection exists", zap.String("collection", q.collection))
	case status == http.StatusNotFound:
		body := map[string]any{
			"vectors": map[string]any{
				"size":     q.dimensions,
				"distance": "Cosine",
			},
		}
		if _, err := q.do(ctx, http.MethodPut, q.collectionPath(""), body, nil); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", q.collection, err)
		}
		q.logger.Info("qdrant collection created",
			zap.String("collection", q.collection),
			zap.Int("dimensions", q.dimensions))
	default:
		return fmt.Errorf("failed to get collection %s: %w", q.collection, err)
	}

	for _, field := range []string{models.PayloadNotebookID, models.PayloadDocumentID} {
		body := map[string]any{"field_name": field, "field_schema": "keyword"}
		if _, err := q.do(ctx, http.MethodPut, q.collectionPath("/index?wait=true"), body, nil); err != nil {
			return fmt.Errorf("failed to create payload index %s: %w", field, err)
		}
	}
	q.ready.Store(true)
	return nil
}

// Upsert writes points and waits until they are indexed.
func (q *QdrantIndex) Upsert(ctx context.Context, chunks []models.IndexedChunk) error {
	if err := q.checkReady(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		if len(ch.Vector) != q.dimensions {
			return fmt.Errorf("%w: vector dimension mismatch: got %d, expected %d",
				models.ErrInvalidInput, len(ch.Vector), q.dimensions)
		}
		points[i] = map[string]any{
			"id":      ch.ID,
			"vector":  ch.Vector,
			"payload": ch.Payload,
		}
	}
	body := map[string]any{"points": points}
	if _, err := q.do(ctx, http.MethodPut, q.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search runs a filtered similarity search.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, filter Filter, limit int) ([]*VectorResult, error) {
	if err := q.checkReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
	}
	if f := qdrantFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			ID      json.RawMessage     `json:"id"`
			Score   float64             `json:"score"`
			Payload models.ChunkPayload `json:"payload"`
		} `json:"result"`
	}
	if _, err := q.do(ctx, http.MethodPost, q.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	results := make([]*VectorResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, &VectorResult{
			ID:      pointID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return results, nil
}

// DeleteByFilter removes every point matching filter and waits for completion.
func (q *QdrantIndex) DeleteByFilter(ctx context.Context, filter Filter) error {
	if filter.IsEmpty() {
		return fmt.Errorf("%w: refusing to delete with an empty filter", models.ErrInvalidInput)
	}
	if err := q.checkReady(); err != nil {
		return err
	}
	body := map[string]any{"filter": qdrantFilter(filter)}
	if _, err := q.do(ctx, http.MethodPost, q.collectionPath("/points/delete?wait=true"), body, nil); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Count returns the exact number of points matching filter.
func (q *QdrantIndex) Count(ctx context.Context, filter Filter) (int, error) {
	if err := q.checkReady(); err != nil {
		return 0, err
	}
	body := map[string]any{"exact": true}
	if f := qdrantFilter(filter); f != nil {
		body["filter"] = f
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if _, err := q.do(ctx, http.MethodPost, q.collectionPath("/points/count"), body, &resp); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return resp.Result.Count, nil
}

// Close releases idle connections.
func (q *QdrantIndex) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *QdrantIndex) checkReady() error {
	if !q.ready.Load() {
		return fmt.Errorf("%w: call EnsureCollection first (collection %s)", models.ErrCollectionNotReady, q.collection)
	}
	return nil
}

func (q *QdrantIndex) collectionPath(suffix string) string {
	return q.url + "/collections/" + url.PathEscape(q.collection) + suffix
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
// Non-2xx responses are wrapped in models.ErrProvider; the status code is
// returned so callers can branch on 404.
func (q *QdrantIndex) do(ctx context.Context, method, endpoint string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant %s %s: %w", models.ErrProvider, method, endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%w: qdrant %s %s failed: %s: %s",
			models.ErrProvider, method, endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to decode qdrant response: %w", models.ErrProvider, err)
		}
	}
	return resp.StatusCode, nil
}

// qdrantFilter renders f as a Qdrant "must" filter, or nil when f is empty.
func qdrantFilter(f Filter) map[string]any {
	if f.IsEmpty() {
		return nil
	}
	var must []map[string]any
	if f.NotebookID != "" {
		must = append(must, map[string]any{
			"key":   models.PayloadNotebookID,
			"match": map[string]any{"value": f.NotebookID},
		})
	}
	switch len(f.DocumentIDs) {
	case 0:
	case 1:
		must = append(must, map[string]any{
			"key":   models.PayloadDocumentID,
			"match": map[string]any{"value": f.DocumentIDs[0]},
		})
	default:
		must = append(must, map[string]any{
			"key":   models.PayloadDocumentID,
			"match": map[string]any{"any": f.DocumentIDs},
		})
	}
	return map[string]any{"must": must}
}

// pointID returns a point id as a string; Qdrant ids are UUID strings or integers.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
