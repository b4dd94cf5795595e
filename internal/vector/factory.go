package vector

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/models"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeQdrant stores vectors in a Qdrant server over REST.
	IndexTypeQdrant IndexType = "qdrant"
	// IndexTypeMemory uses in-memory brute-force search. Good for tests and small local datasets.
	IndexTypeMemory IndexType = "memory"
)

// NewVectorIndex creates the index named by cfg.Type for vectors of the given dimension.
// snapshotPath is only used by the memory index.
func NewVectorIndex(cfg config.VectorConfig, snapshotPath string, dimensions int, logger *zap.Logger) (VectorIndex, error) {
	switch IndexType(cfg.Type) {
	case IndexTypeQdrant, "":
		return NewQdrantIndex(QdrantConfig{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Dimensions: dimensions,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		}, WithLogger(logger))
	case IndexTypeMemory:
		return NewMemoryIndex(dimensions, WithSnapshot(snapshotPath))
	default:
		return nil, fmt.Errorf("%w: unknown index type: %s (supported: qdrant, memory)", models.ErrConfiguration, cfg.Type)
	}
}
