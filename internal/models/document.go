// Package models defines core data structures for chunks, queries, search results, and citations.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDocumentName is used when an index request carries no document name.
const DefaultDocumentName = "Untitled"

// Chunk is a position-tagged span of a source document produced by the chunker.
// StartChar and EndChar are half-open rune offsets into the original text and
// bound the trimmed content exactly.
type Chunk struct {
	Text       string `json:"text"`
	StartChar  int    `json:"startChar"`
	EndChar    int    `json:"endChar"`
	PageNumber *int   `json:"pageNumber,omitempty"`
}

// Payload field names persisted in the vector index. Deletion and citation
// rendering depend on these names.
const (
	PayloadDocumentID   = "documentId"
	PayloadNotebookID   = "notebookId"
	PayloadContent      = "content"
	PayloadChunkIndex   = "chunkIndex"
	PayloadStartChar    = "startChar"
	PayloadEndChar      = "endChar"
	PayloadPageNumber   = "pageNumber"
	PayloadDocumentName = "documentName"
	PayloadTotalChunks  = "totalChunks"
)

// ChunkPayload is the denormalized metadata stored with every indexed chunk.
type ChunkPayload struct {
	DocumentID   string `json:"documentId"`
	NotebookID   string `json:"notebookId"`
	Content      string `json:"content"`
	ChunkIndex   int    `json:"chunkIndex"`
	StartChar    int    `json:"startChar"`
	EndChar      int    `json:"endChar"`
	PageNumber   *int   `json:"pageNumber,omitempty"`
	DocumentName string `json:"documentName"`
	TotalChunks  int    `json:"totalChunks"`
}

// IndexedChunk is a chunk as persisted in the vector index.
type IndexedChunk struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload ChunkPayload `json:"payload"`
}

// IndexRequest is the input for indexing one document.
type IndexRequest struct {
	DocumentID   string `json:"documentId"`
	NotebookID   string `json:"notebookId"`
	Content      string `json:"content"`
	DocumentName string `json:"documentName,omitempty"`
}

// Validate checks required fields and applies the default document name.
func (r *IndexRequest) Validate() error {
	var missing []string
	if r.DocumentID == "" {
		missing = append(missing, "documentId")
	}
	if r.NotebookID == "" {
		missing = append(missing, "notebookId")
	}
	if r.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if r.DocumentName == "" {
		r.DocumentName = DefaultDocumentName
	}
	return nil
}

// IndexResult reports the outcome of a successful indexing run. Skipped is set
// when a file had not changed since its last completed run and nothing was
// written.
type IndexResult struct {
	DocumentID   string `json:"documentId"`
	ChunksStored int    `json:"chunksStored"`
	Skipped      bool   `json:"skipped,omitempty"`
}

// IndexState is the lifecycle state of a document's vector index entry.
type IndexState string

const (
	// IndexStateIndexing means a run is in progress.
	IndexStateIndexing IndexState = "indexing"
	// IndexStateIndexed means the last run stored at least one chunk.
	IndexStateIndexed IndexState = "indexed"
	// IndexStateEmpty means the document was too short to produce any chunk.
	IndexStateEmpty IndexState = "empty"
	// IndexStateFailed means the last run failed; the document has no chunks.
	IndexStateFailed IndexState = "failed"
)

// IndexStatus is the recorded indexing state of a document.
type IndexStatus struct {
	DocumentID   string     `json:"documentId" db:"document_id"`
	NotebookID   string     `json:"notebookId" db:"notebook_id"`
	DocumentName string     `json:"documentName" db:"document_name"`
	State        IndexState `json:"state" db:"state"`
	Chunks       int        `json:"chunks" db:"chunks"`
	Error        string     `json:"error,omitempty" db:"error"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Searchable reports whether the document currently has chunks in the index.
func (s *IndexStatus) Searchable() bool {
	return s.State == IndexStateIndexed && s.Chunks > 0
}
