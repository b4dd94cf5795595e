package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/citation"
	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/storage"
	"github.com/hyperjump/docsy/internal/vector"
)

// errRetrievalUnavailable is reported by the index and search routes when the
// server runs without an embedding provider or vector index.
var errRetrievalUnavailable = fmt.Errorf("%w: retrieval unavailable, embedding provider or vector index not configured", models.ErrConfiguration)

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondErr(w, errRetrievalUnavailable)
		return
	}
	var req models.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index document request",
		zap.String("document_id", req.DocumentID),
		zap.String("notebook_id", req.NotebookID),
		zap.Int("content_length", len(req.Content)))
	result, err := s.indexer.IndexDocument(r.Context(), &req)
	if err != nil {
		s.logger.Error("indexing failed", zap.String("document_id", req.DocumentID), zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"chunksStored": result.ChunksStored,
		"documentId":   result.DocumentID,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondErr(w, errRetrievalUnavailable)
		return
	}
	id := r.URL.Query().Get("documentId")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "missing documentId parameter")
		return
	}
	s.logger.Debug("delete document request", zap.String("document_id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "documentId": id})
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondErr(w, errRetrievalUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete notebook request", zap.String("notebook_id", id))
	if err := s.indexer.DeleteNotebook(r.Context(), id); err != nil {
		s.logger.Error("notebook deletion failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "notebookId": id})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.respondErr(w, errRetrievalUnavailable)
		return
	}
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("notebook_id", query.NotebookID), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleTurnContext(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// A nil engine serves the document fallback.
	s.respondJSON(w, http.StatusOK, s.engine.BuildTurnContext(r.Context(), req))
}

type renderRequest struct {
	Text      string            `json:"text"`
	Citations []models.Citation `json:"citations"`
}

func (s *Server) handleRenderCitations(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	segments := citation.Segments(req.Text, req.Citations)
	if segments == nil {
		segments = []citation.Segment{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.respondError(w, http.StatusNotImplemented, "status store not enabled")
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	st, err := s.status.Get(ctx, id)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := map[string]any{"status": st, "searchable": st.Searchable()}
	s.addChunkCount(ctx, resp, vector.ByDocument(id))
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotebookStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.respondError(w, http.StatusNotImplemented, "status store not enabled")
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	docs, err := s.status.ListByNotebook(ctx, id)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := map[string]any{"notebookId": id, "documents": docs}
	s.addChunkCount(ctx, resp, vector.ByNotebook(id))
	s.respondJSON(w, http.StatusOK, resp)
}

// addChunkCount sets resp["chunksInIndex"] when the vector index is available.
func (s *Server) addChunkCount(ctx context.Context, resp map[string]any, f vector.Filter) {
	if s.vectorIndex == nil {
		return
	}
	n, err := s.vectorIndex.Count(ctx, f)
	if err != nil {
		s.logger.Warn("status: count chunks failed", zap.Error(err))
		return
	}
	resp["chunksInIndex"] = n
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := StatusSummary(r.Context(), s.vectorIndex, s.status, s.config)
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

// StatusSummary reports chunk and document counts, the active configuration
// and disk usage. status and cfg may be nil. A nil vectorIndex means retrieval
// is unavailable; the summary then says so and carries no chunk count.
func StatusSummary(ctx context.Context, vectorIndex vector.VectorIndex, status storage.StatusStore, cfg *config.Config) (map[string]any, error) {
	resp := map[string]any{"retrieval": "available"}
	if vectorIndex == nil {
		resp["retrieval"] = "unavailable"
	} else {
		chunks, err := vectorIndex.Count(ctx, vector.Filter{})
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks: %w", err)
		}
		resp["chunks"] = chunks
	}

	if status != nil {
		counts, err := status.CountByState(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count documents: %w", err)
		}
		docs := make(map[string]any, len(counts))
		for state, n := range counts {
			docs[string(state)] = n
		}
		resp["documents"] = docs
	}

	configInfo := map[string]any{}
	if vectorIndex != nil {
		configInfo["vector_index_type"] = vectorIndex.Type()
	}
	if cfg != nil {
		configInfo["embedding_provider"] = cfg.Embedding.Provider
		configInfo["embedding_model"] = cfg.Embedding.Model
		configInfo["embedding_dimensions"] = cfg.Embedding.Dimensions
		configInfo["collection"] = cfg.Vector.Collection
		configInfo["chunk_size"] = cfg.Chunking.ChunkSize
		configInfo["chunk_overlap"] = cfg.Chunking.ChunkOverlap
		configInfo["database_path"] = cfg.Storage.DatabasePath

		paths := storage.DatabaseFiles(cfg.Storage.DatabasePath)
		if cfg.Vector.Type == string(vector.IndexTypeMemory) {
			paths = append(paths, cfg.Storage.VectorSnapshotPath)
		}
		if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	resp["config"] = configInfo
	return resp, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// statusForError maps an error category to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConfiguration), errors.Is(err, models.ErrCollectionNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	s.respondError(w, statusForError(err), err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
