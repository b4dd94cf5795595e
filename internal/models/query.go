package models

import "fmt"

// SearchQuery is a retrieval request scoped to one notebook and optionally a
// subset of its documents.
type SearchQuery struct {
	Query       string   `json:"query"`
	NotebookID  string   `json:"notebookId"`
	DocumentIDs []string `json:"documentIds,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// Validate ensures the query has the required fields and normalizes the limit.
// A zero or negative limit becomes defaultLimit; limits above maxLimit are capped.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidInput)
	}
	if q.NotebookID == "" {
		return fmt.Errorf("%w: notebookId is required", ErrInvalidInput)
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// SourceDocument is a notebook document supplied by the caller for fallback context.
type SourceDocument struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// TurnRequest asks for the retrieval context of one chat turn.
type TurnRequest struct {
	Query       string           `json:"query"`
	NotebookID  string           `json:"notebookId"`
	DocumentIDs []string         `json:"documentIds,omitempty"`
	Documents   []SourceDocument `json:"documents,omitempty"`
	Limit       int              `json:"limit,omitempty"`
	UseRAG      *bool            `json:"useRAG,omitempty"`
}

// RAGEnabled reports whether retrieval should be attempted; it defaults to true.
func (r *TurnRequest) RAGEnabled() bool {
	return r.UseRAG == nil || *r.UseRAG
}
