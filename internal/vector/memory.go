package vector

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hyperjump/docsy/internal/models"
)

// MemoryIndex is an in-process vector index using brute-force cosine search.
// It has the same filter and upsert semantics as QdrantIndex and is used for
// tests and local development. With a snapshot path it is loaded on creation
// and saved on Close.
type MemoryIndex struct {
	dimensions   int
	points       map[string]models.IndexedChunk
	snapshotPath string
	mu           sync.RWMutex
}

// MemoryOption configures a MemoryIndex.
type MemoryOption func(*MemoryIndex)

// WithSnapshot persists the index as JSON at path.
func WithSnapshot(path string) MemoryOption {
	return func(m *MemoryIndex) { m.snapshotPath = path }
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int, opts ...MemoryOption) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", models.ErrConfiguration)
	}
	m := &MemoryIndex{
		dimensions: dimensions,
		points:     make(map[string]models.IndexedChunk),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.snapshotPath != "" {
		if err := m.Load(m.snapshotPath); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// EnsureCollection is a no-op; the in-memory collection always exists.
func (m *MemoryIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

// Upsert inserts or replaces points by id.
func (m *MemoryIndex) Upsert(ctx context.Context, chunks []models.IndexedChunk) error {
	for _, ch := range chunks {
		if len(ch.Vector) != m.dimensions {
			return fmt.Errorf("%w: vector dimension mismatch: got %d, expected %d",
				models.ErrInvalidInput, len(ch.Vector), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range chunks {
		vec := make([]float32, m.dimensions)
		copy(vec, ch.Vector)
		ch.Vector = vec
		m.points[ch.ID] = ch
	}
	return nil
}

// Search returns the top matches by cosine similarity. Equal scores are
// ordered by id so results are stable.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, filter Filter, limit int) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query dimension mismatch: got %d, expected %d",
			models.ErrInvalidInput, len(query), m.dimensions)
	}
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	results := make([]*VectorResult, 0, len(m.points))
	for id, p := range m.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		results = append(results, &VectorResult{
			ID:      id,
			Score:   CosineSimilarity(query, p.Vector),
			Payload: p.Payload,
		})
	}
	m.mu.RUnlock()

	slices.SortFunc(results, func(a, b *VectorResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByFilter removes every point matching filter.
func (m *MemoryIndex) DeleteByFilter(ctx context.Context, filter Filter) error {
	if filter.IsEmpty() {
		return fmt.Errorf("%w: refusing to delete with an empty filter", models.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.points {
		if filter.Matches(p.Payload) {
			delete(m.points, id)
		}
	}
	return nil
}

// Count returns the number of points matching filter.
func (m *MemoryIndex) Count(ctx context.Context, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.points {
		if filter.Matches(p.Payload) {
			n++
		}
	}
	return n, nil
}

// Size returns the number of points in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

type snapshot struct {
	Dimensions int                   `json:"dimensions"`
	Points     []models.IndexedChunk `json:"points"`
}

// Save writes the index to path as JSON. The directory is created if needed.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	snap := snapshot{Dimensions: m.dimensions, Points: make([]models.IndexedChunk, 0, len(m.points))}
	for _, p := range m.points {
		snap.Points = append(snap.Points, p)
	}
	m.mu.RUnlock()
	slices.SortFunc(snap.Points, func(a, b models.IndexedChunk) int { return cmp.Compare(a.ID, b.ID) })

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents with the snapshot at path. Dimensions must
// match. A missing file leaves the index unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Dimensions != m.dimensions {
		return fmt.Errorf("%w: snapshot has %d dimensions, index expects %d",
			models.ErrConfiguration, snap.Dimensions, m.dimensions)
	}
	points := make(map[string]models.IndexedChunk, len(snap.Points))
	for _, p := range snap.Points {
		points[p.ID] = p
	}
	m.mu.Lock()
	m.points = points
	m.mu.Unlock()
	return nil
}

// Close saves the snapshot when one is configured.
func (m *MemoryIndex) Close() error {
	return m.Save(m.snapshotPath)
}
