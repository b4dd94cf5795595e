package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/embedding"
	"github.com/hyperjump/docsy/internal/fileid"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/vector"
)

// StatusRecorder persists the indexing state of documents.
type StatusRecorder interface {
	Upsert(ctx context.Context, status *models.IndexStatus) error
	Get(ctx context.Context, documentID string) (*models.IndexStatus, error)
	Delete(ctx context.Context, documentID string) error
	DeleteByNotebook(ctx context.Context, notebookID string) error
}

// Indexer writes documents into the vector index. For one document the
// sequence is delete old chunks, chunk, embed, upsert; runs for the same
// document never interleave.
type Indexer struct {
	embedder    embedding.Embedder
	vectorIndex vector.VectorIndex
	chunker     *Chunker
	status      StatusRecorder // optional
	logger      *zap.Logger
	locks       *keyLock
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (document indexed, document deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithStatusRecorder records each run's state so failed documents stay visible.
func WithStatusRecorder(s StatusRecorder) IndexerOption {
	return func(idx *Indexer) { idx.status = s }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(embedder embedding.Embedder, vectorIndex vector.VectorIndex, chunker *Chunker, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		chunker:     chunker,
		logger:      zap.NewNop(),
		locks:       newKeyLock(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// IndexDocument replaces the stored chunks of a document with freshly
// embedded chunks of req.Content. A document too short to produce any chunk
// stores zero chunks and is not an error. On failure the document is left
// with no chunks.
func (idx *Indexer) IndexDocument(ctx context.Context, req *models.IndexRequest) (*models.IndexResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	unlock := idx.locks.Lock(req.DocumentID)
	defer unlock()

	log := idx.logger.With(
		zap.String("document_id", req.DocumentID),
		zap.String("notebook_id", req.NotebookID))
	log.Debug("indexer indexing document")
	idx.recordStatus(ctx, req, models.IndexStateIndexing, 0, nil)

	stored, err := idx.replaceChunks(ctx, req)
	if err != nil {
		log.Warn("indexer indexing failed", zap.Error(err))
		idx.recordStatus(ctx, req, models.IndexStateFailed, 0, err)
		return nil, err
	}

	state := models.IndexStateIndexed
	if stored == 0 {
		state = models.IndexStateEmpty
	}
	idx.recordStatus(ctx, req, state, stored, nil)
	log.Debug("indexer document indexed", zap.Int("chunks", stored))
	return &models.IndexResult{DocumentID: req.DocumentID, ChunksStored: stored}, nil
}

func (idx *Indexer) replaceChunks(ctx context.Context, req *models.IndexRequest) (int, error) {
	if err := idx.vectorIndex.DeleteByFilter(ctx, vector.ByDocument(req.DocumentID)); err != nil {
		return 0, fmt.Errorf("failed to delete old chunks: %w", err)
	}

	chunks := idx.chunker.Chunk(req.Content)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks", models.ErrProvider, len(vectors), len(chunks))
	}

	points := make([]models.IndexedChunk, len(chunks))
	for i, ch := range chunks {
		points[i] = models.IndexedChunk{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: models.ChunkPayload{
				DocumentID:   req.DocumentID,
				NotebookID:   req.NotebookID,
				Content:      ch.Text,
				ChunkIndex:   i,
				StartChar:    ch.StartChar,
				EndChar:      ch.EndChar,
				PageNumber:   ch.PageNumber,
				DocumentName: req.DocumentName,
				TotalChunks:  len(chunks),
			},
		}
	}
	if err := idx.vectorIndex.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("failed to index vectors: %w", err)
	}
	return len(points), nil
}

func (idx *Indexer) recordStatus(ctx context.Context, req *models.IndexRequest, state models.IndexState, chunks int, cause error) {
	if idx.status == nil {
		return
	}
	st := &models.IndexStatus{
		DocumentID:   req.DocumentID,
		NotebookID:   req.NotebookID,
		DocumentName: req.DocumentName,
		State:        state,
		Chunks:       chunks,
		UpdatedAt:    time.Now().UTC(),
	}
	if cause != nil {
		st.Error = cause.Error()
	}
	// The status store is advisory; a failed write never fails indexing.
	if err := idx.status.Upsert(context.WithoutCancel(ctx), st); err != nil {
		idx.logger.Warn("indexer failed to record status",
			zap.String("document_id", req.DocumentID),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}

// DeleteDocument removes every chunk of a document.
func (idx *Indexer) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: documentId is required", models.ErrInvalidInput)
	}
	unlock := idx.locks.Lock(documentID)
	defer unlock()

	idx.logger.Debug("indexer deleting document", zap.String("document_id", documentID))
	if err := idx.vectorIndex.DeleteByFilter(ctx, vector.ByDocument(documentID)); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if idx.status != nil {
		if err := idx.status.Delete(ctx, documentID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to delete status: %w", err)
		}
	}
	idx.logger.Debug("indexer document deleted", zap.String("document_id", documentID))
	return nil
}

// DeleteNotebook removes every chunk of every document in a notebook.
func (idx *Indexer) DeleteNotebook(ctx context.Context, notebookID string) error {
	if notebookID == "" {
		return fmt.Errorf("%w: notebookId is required", models.ErrInvalidInput)
	}
	idx.logger.Debug("indexer deleting notebook", zap.String("notebook_id", notebookID))
	if err := idx.vectorIndex.DeleteByFilter(ctx, vector.ByNotebook(notebookID)); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if idx.status != nil {
		if err := idx.status.DeleteByNotebook(ctx, notebookID); err != nil {
			return fmt.Errorf("failed to delete notebook status: %w", err)
		}
	}
	return nil
}

// IndexFile reads an already extracted text file and indexes it into
// notebookID. The document ID is derived from the absolute path so re-indexing
// replaces the same document. If allowedExts is non-empty, the file's extension
// must be in the list (case-insensitive). A file already indexed after its last
// modification is not read again; the result then has Skipped set.
func (idx *Indexer) IndexFile(ctx context.Context, notebookID, path string, allowedExts []string) (*models.IndexResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("%w: extension %q not in allowed list", models.ErrInvalidInput, ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", models.ErrInvalidInput, absPath)
	}
	docID := fileid.FileDocID(absPath)
	if idx.unchangedSinceIndexed(ctx, docID, info) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return &models.IndexResult{DocumentID: docID, Skipped: true}, nil
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	idx.logger.Debug("indexer indexing file", zap.String("path", absPath), zap.String("document_id", docID))
	return idx.IndexDocument(ctx, &models.IndexRequest{
		DocumentID:   docID,
		NotebookID:   notebookID,
		Content:      string(content),
		DocumentName: filepath.Base(absPath),
	})
}

// unchangedSinceIndexed reports whether the recorded status shows a completed
// run newer than the file's modification time.
func (idx *Indexer) unchangedSinceIndexed(ctx context.Context, docID string, info os.FileInfo) bool {
	if idx.status == nil {
		return false
	}
	st, err := idx.status.Get(ctx, docID)
	if err != nil {
		return false
	}
	if st.State != models.IndexStateIndexed && st.State != models.IndexStateEmpty {
		return false
	}
	return st.UpdatedAt.After(info.ModTime())
}

// IndexDirectory walks dir recursively and indexes each regular file whose extension
// is in allowedExts (if non-empty; otherwise all files) into notebookID. Returns the
// number of files indexed, not counting unchanged files, and the first error
// encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, notebookID, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: not a directory: %s", models.ErrInvalidInput, absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, indexErr := idx.IndexFile(ctx, notebookID, path, allowedExts)
		if indexErr != nil {
			return indexErr
		}
		if !res.Skipped {
			n++
		}
		return nil
	})
	return n, err
}

// DeleteFile removes the chunks of a previously indexed file.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.DeleteDocument(ctx, fileid.FileDocID(absPath))
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
