package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/citation"
	"github.com/hyperjump/docsy/internal/models"
)

// ContextSeparator joins the entries of an assembled context.
const ContextSeparator = "\n\n---\n\n"

// NoDocumentsContext is the context used when the notebook has nothing to offer.
const NoDocumentsContext = "No documents available yet."

// TurnContext is the grounding material for one chat turn. Citations is
// empty unless the context was built from retrieved chunks.
type TurnContext struct {
	Context   string            `json:"context"`
	Citations []models.Citation `json:"citations"`
	UsedRAG   bool              `json:"usedRag"`
}

// BuildTurnContext retrieves the chunks for a chat turn and formats them as
// numbered sources. When retrieval is disabled, fails, or finds nothing, the
// context falls back to the full text of req.Documents. It never fails; a nil
// Engine always falls back.
func (e *Engine) BuildTurnContext(ctx context.Context, req models.TurnRequest) *TurnContext {
	if e != nil && req.RAGEnabled() && req.NotebookID != "" && strings.TrimSpace(req.Query) != "" {
		limit := req.Limit
		if limit <= 0 {
			limit = e.config.ChatLimit
		}
		results, err := e.Retrieve(ctx, &models.SearchQuery{
			Query:       req.Query,
			NotebookID:  req.NotebookID,
			DocumentIDs: req.DocumentIDs,
			Limit:       limit,
		})
		switch {
		case err != nil:
			e.logger.Warn("search retrieval failed, using document context",
				zap.String("notebook_id", req.NotebookID), zap.Error(err))
		case len(results) > 0:
			return &TurnContext{
				Context:   FormatRetrievedContext(results),
				Citations: citation.MapToCitations(results),
				UsedRAG:   true,
			}
		default:
			e.logger.Debug("search returned no chunks, using document context",
				zap.String("notebook_id", req.NotebookID))
		}
	}
	return &TurnContext{
		Context:   FormatDocumentContext(req.Documents),
		Citations: []models.Citation{},
	}
}

// FormatRetrievedContext renders results as
// `[n] From "name" (Page p) (Score: s)` followed by the chunk text.
func FormatRetrievedContext(results []*models.SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		name := r.DocumentName
		if name == "" {
			name = citation.UnknownDocumentName
		}
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] From \"%s\"", i+1, name)
		if r.PageNumber != nil {
			fmt.Fprintf(&b, " (Page %d)", *r.PageNumber)
		}
		fmt.Fprintf(&b, " (Score: %.2f)\n%s", r.Score, r.Content)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ContextSeparator)
}

// FormatDocumentContext renders each document with content as a
// `=== name ===` block. Documents without content are skipped.
func FormatDocumentContext(docs []models.SourceDocument) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		parts = append(parts, "=== "+d.Name+" ===\n"+d.Content)
	}
	if len(parts) == 0 {
		return NoDocumentsContext
	}
	return strings.Join(parts, ContextSeparator)
}
