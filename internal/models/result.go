package models

// SearchResult is a single retrieved chunk with its provenance.
// Results are ordered by Score descending.
type SearchResult struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"documentId"`
	NotebookID   string  `json:"notebookId,omitempty"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
	StartChar    int     `json:"startChar"`
	EndChar      int     `json:"endChar"`
	PageNumber   *int    `json:"pageNumber,omitempty"`
	DocumentName string  `json:"documentName,omitempty"`
	ChunkIndex   int     `json:"chunkIndex"`
}

// ResultFromPayload builds a SearchResult from a stored chunk payload.
func ResultFromPayload(id string, score float64, p ChunkPayload) *SearchResult {
	return &SearchResult{
		ID:           id,
		DocumentID:   p.DocumentID,
		NotebookID:   p.NotebookID,
		Content:      p.Content,
		Score:        score,
		StartChar:    p.StartChar,
		EndChar:      p.EndChar,
		PageNumber:   p.PageNumber,
		DocumentName: p.DocumentName,
		ChunkIndex:   p.ChunkIndex,
	}
}

// Citation is a numbered reference, scoped to one chat response, that links a
// [n] marker in model output to a retrieved chunk.
type Citation struct {
	ID           int     `json:"id"`
	DocumentID   string  `json:"documentId"`
	DocumentName string  `json:"documentName"`
	Content      string  `json:"content"`
	StartChar    int     `json:"startChar"`
	EndChar      int     `json:"endChar"`
	PageNumber   *int    `json:"pageNumber,omitempty"`
	Score        float64 `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Success   bool            `json:"success"`
	Results   []*SearchResult `json:"results"`
	Query     string          `json:"query"`
	QueryTime int64           `json:"query_time_ms"`
}
