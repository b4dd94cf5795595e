package models

import "errors"

// Error categories shared by the indexing and retrieval pipelines.
// Callers classify failures with errors.Is.
var (
	// ErrConfiguration indicates missing provider credentials or endpoints.
	// It is fatal for the component; nothing is retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput indicates a request or setting rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvider indicates a failed call to the embedding provider or vector index.
	ErrProvider = errors.New("provider error")

	// ErrCollectionNotReady indicates the vector collection was not initialized at startup.
	ErrCollectionNotReady = errors.New("vector collection not initialized")

	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")
)
