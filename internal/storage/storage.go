// Package storage persists the indexing status of documents.
package storage

import (
	"context"

	"github.com/hyperjump/docsy/internal/models"
)

// StatusStore records the outcome of each document's most recent indexing run.
type StatusStore interface {
	Upsert(ctx context.Context, status *models.IndexStatus) error
	// Get returns models.ErrNotFound when the document has no recorded status.
	Get(ctx context.Context, documentID string) (*models.IndexStatus, error)
	ListByNotebook(ctx context.Context, notebookID string) ([]*models.IndexStatus, error)
	Delete(ctx context.Context, documentID string) error
	DeleteByNotebook(ctx context.Context, notebookID string) error
	// CountByState returns the number of documents in each state.
	CountByState(ctx context.Context) (map[models.IndexState]int64, error)
	Close() error
}
