// Package vector provides the vector index used to store chunk embeddings and
// run filtered similarity search.
package vector

import (
	"context"
	"slices"

	"github.com/hyperjump/docsy/internal/models"
)

// VectorIndex stores embedded chunks and answers filtered similarity queries.
type VectorIndex interface {
	// EnsureCollection creates the collection and its payload indexes if missing.
	EnsureCollection(ctx context.Context) error
	// Upsert writes chunks and returns once they are visible to Search.
	Upsert(ctx context.Context, chunks []models.IndexedChunk) error
	// Search returns up to limit hits matching filter, best first.
	Search(ctx context.Context, query []float32, filter Filter, limit int) ([]*VectorResult, error)
	// DeleteByFilter removes every point matching filter. An empty filter is rejected.
	DeleteByFilter(ctx context.Context, filter Filter) error
	// Count returns the number of points matching filter.
	Count(ctx context.Context, filter Filter) (int, error)
	Type() string
	Close() error
}

// VectorResult is a single search hit with its stored payload.
type VectorResult struct {
	ID      string
	Score   float64
	Payload models.ChunkPayload
}

// Filter restricts an operation to points whose payload matches every set field.
type Filter struct {
	NotebookID  string
	DocumentIDs []string
}

// ByDocument returns a filter matching one document.
func ByDocument(documentID string) Filter {
	return Filter{DocumentIDs: []string{documentID}}
}

// ByNotebook returns a filter matching every document of a notebook.
func ByNotebook(notebookID string) Filter {
	return Filter{NotebookID: notebookID}
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.NotebookID == "" && len(f.DocumentIDs) == 0
}

// Matches reports whether p satisfies the filter.
func (f Filter) Matches(p models.ChunkPayload) bool {
	if f.NotebookID != "" && p.NotebookID != f.NotebookID {
		return false
	}
	if len(f.DocumentIDs) > 0 && !slices.Contains(f.DocumentIDs, p.DocumentID) {
		return false
	}
	return true
}
