package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/embedding"
	"github.com/hyperjump/docsy/internal/indexer"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/search"
	"github.com/hyperjump/docsy/internal/storage"
	"github.com/hyperjump/docsy/internal/vector"
)

const testDims = 64

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type testServer struct {
	srv     *Server
	handler http.Handler
	vec     *vector.MemoryIndex
	cfg     *config.Config
}

func newTestServer(t *testing.T, watch WatchService, configPath string) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = testDims
	cfg.Vector.Type = string(vector.IndexTypeMemory)
	cfg.Storage.DatabasePath = filepath.Join(dir, "status.db")

	status, err := storage.NewSQLiteStatusStore(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = status.Close() })
	vec, err := vector.NewMemoryIndex(testDims)
	require.NoError(t, err)
	emb := embedding.NewMockEmbedder(testDims)
	chunker, err := indexer.NewChunker(200, 40, indexer.DefaultMinChunkChars)
	require.NoError(t, err)

	engine := search.NewEngine(emb, vec, cfg.Retrieval)
	idx := indexer.NewIndexer(emb, vec, chunker, indexer.WithStatusRecorder(status))
	srv := NewServer(engine, idx, status, vec, cfg, nil, watch, configPath)
	return &testServer{srv: srv, handler: srv.Router(), vec: vec, cfg: cfg}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func content(topic string) string {
	return strings.Repeat("This section explains "+topic+" thoroughly. ", 15)
}

func TestIndexSearchDelete(t *testing.T) {
	ts := newTestServer(t, nil, "")

	w := ts.do(t, http.MethodPost, "/api/v1/embeddings", models.IndexRequest{
		DocumentID: "doc1", NotebookID: "nb1", DocumentName: "Glaciers", Content: content("glaciers and ice sheets"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "doc1", out["documentId"])
	stored := int(out["chunksStored"].(float64))
	assert.Greater(t, stored, 0)

	w = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: "glaciers", NotebookID: "nb1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Glaciers", resp.Results[0].DocumentName)

	w = ts.do(t, http.MethodGet, "/api/v1/documents/doc1/status", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out = decode(t, w)
	assert.Equal(t, true, out["searchable"])
	assert.Equal(t, float64(stored), out["chunksInIndex"])

	w = ts.do(t, http.MethodDelete, "/api/v1/embeddings?documentId=doc1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, ts.vec.Size())

	w = ts.do(t, http.MethodGet, "/api/v1/documents/doc1/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexValidation(t *testing.T) {
	ts := newTestServer(t, nil, "")

	w := ts.do(t, http.MethodPost, "/api/v1/embeddings", models.IndexRequest{DocumentID: "d"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "notebookId")

	w = ts.do(t, http.MethodPost, "/api/v1/embeddings", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/embeddings", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShortDocumentStoresZeroChunks(t *testing.T) {
	ts := newTestServer(t, nil, "")
	w := ts.do(t, http.MethodPost, "/api/v1/embeddings", models.IndexRequest{
		DocumentID: "tiny", NotebookID: "nb1", Content: "too short",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["chunksStored"])
}

func TestDeleteNotebookAndStatus(t *testing.T) {
	ts := newTestServer(t, nil, "")
	for i, nb := range []string{"nb1", "nb1", "nb2"} {
		w := ts.do(t, http.MethodPost, "/api/v1/embeddings", models.IndexRequest{
			DocumentID: fmt.Sprintf("doc%d", i), NotebookID: nb, Content: content("topic " + nb),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := ts.do(t, http.MethodGet, "/api/v1/notebooks/nb1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["documents"], 2)

	w = ts.do(t, http.MethodDelete, "/api/v1/notebooks/nb1/embeddings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/notebooks/nb1/status", nil)
	out := decode(t, w)
	assert.Len(t, out["documents"], 0)
	assert.Equal(t, float64(0), out["chunksInIndex"])

	w = ts.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)
	assert.Greater(t, out["chunks"], float64(0))
	docs := out["documents"].(map[string]any)
	assert.Equal(t, float64(1), docs[string(models.IndexStateIndexed)])
	cfg := out["config"].(map[string]any)
	assert.Equal(t, "memory", cfg["vector_index_type"])
	assert.Contains(t, out, "disk_usage_bytes")
}

func TestTurnContextAndRender(t *testing.T) {
	ts := newTestServer(t, nil, "")
	w := ts.do(t, http.MethodPost, "/api/v1/embeddings", models.IndexRequest{
		DocumentID: "doc1", NotebookID: "nb1", DocumentName: "Rivers", Content: content("rivers and deltas"),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/context", models.TurnRequest{Query: "rivers deltas", NotebookID: "nb1"})
	require.Equal(t, http.StatusOK, w.Code)
	var tc search.TurnContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tc))
	assert.True(t, tc.UsedRAG)
	require.NotEmpty(t, tc.Citations)
	assert.True(t, strings.HasPrefix(tc.Context, `[1] From "Rivers"`))

	w = ts.do(t, http.MethodPost, "/api/v1/context", models.TurnRequest{
		Query: "anything", NotebookID: "other",
		Documents: []models.SourceDocument{{Name: "Doc", Content: "body"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tc))
	assert.False(t, tc.UsedRAG)
	assert.Equal(t, "=== Doc ===\nbody", tc.Context)
	assert.Empty(t, tc.Citations)

	w = ts.do(t, http.MethodPost, "/api/v1/citations/render", map[string]any{
		"text":      "Rivers flow [1] to the sea [4].",
		"citations": []models.Citation{{ID: 1, DocumentID: "doc1", DocumentName: "Rivers"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var rendered struct {
		Segments []struct {
			Text     string           `json:"text"`
			Marker   int              `json:"marker"`
			Citation *models.Citation `json:"citation"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rendered))
	require.Len(t, rendered.Segments, 5)
	assert.Equal(t, 1, rendered.Segments[1].Marker)
	require.NotNil(t, rendered.Segments[1].Citation)
	assert.Equal(t, "Rivers", rendered.Segments[1].Citation.DocumentName)
	assert.Equal(t, 4, rendered.Segments[3].Marker)
	assert.Nil(t, rendered.Segments[3].Citation)
}

func TestWatchDirectories(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yml")
	mock := &mockWatchService{dirs: []string{"/tmp/docs"}}
	ts := newTestServer(t, mock, configPath)

	w := ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"/tmp/docs"}, decode(t, w)["directories"])

	w = ts.do(t, http.MethodPost, "/api/v1/watch/directories", map[string]any{"path": dir})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, mock.dirs, dir)

	saved, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Contains(t, saved.Watch.Directories, dir)

	w = ts.do(t, http.MethodPost, "/api/v1/watch/directories", map[string]any{"path": filepath.Join(dir, "missing")})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, mock.dirs, dir)
}

func TestWatchDisabled(t *testing.T) {
	ts := newTestServer(t, nil, "")
	w := ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, "")
	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", models.ErrInvalidInput), http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrConfiguration, http.StatusServiceUnavailable},
		{models.ErrCollectionNotReady, http.StatusServiceUnavailable},
		{models.ErrProvider, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestRetrievalUnavailable(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "status.db")
	status, err := storage.NewSQLiteStatusStore(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = status.Close() })

	srv := NewServer(nil, nil, status, nil, cfg, nil, nil, "")
	ts := &testServer{srv: srv, handler: srv.Router(), cfg: cfg}

	w := ts.do(t, http.MethodPost, "/api/v1/context", models.TurnRequest{
		Query: "rivers", NotebookID: "nb1",
		Documents: []models.SourceDocument{{Name: "Doc", Content: "body"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tc search.TurnContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tc))
	assert.False(t, tc.UsedRAG)
	assert.Equal(t, "=== Doc ===\nbody", tc.Context)
	assert.Empty(t, tc.Citations)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/search"},
		{http.MethodPost, "/api/v1/embeddings"},
		{http.MethodDelete, "/api/v1/embeddings?documentId=doc1"},
		{http.MethodDelete, "/api/v1/notebooks/nb1/embeddings"},
	} {
		w = ts.do(t, r.method, r.path, map[string]any{"query": "rivers", "notebookId": "nb1"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, r.path)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "unavailable", out["retrieval"])
	assert.NotContains(t, out, "chunks")

	w = ts.do(t, http.MethodGet, "/api/v1/notebooks/nb1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "chunksInIndex")
}
