package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docsy/internal/models"
)

// SQLiteStatusStore implements StatusStore using SQLite.
type SQLiteStatusStore struct {
	db *sql.DB
}

// NewSQLiteStatusStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStatusStore(dbPath string) (*SQLiteStatusStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStatusStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_status (
		document_id TEXT PRIMARY KEY,
		notebook_id TEXT NOT NULL,
		document_name TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		chunks INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_index_status_notebook ON index_status(notebook_id);
	CREATE INDEX IF NOT EXISTS idx_index_status_state ON index_status(state);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts or replaces the status of a document.
func (s *SQLiteStatusStore) Upsert(ctx context.Context, st *models.IndexStatus) error {
	if st.DocumentID == "" {
		return fmt.Errorf("%w: documentId is required", models.ErrInvalidInput)
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_status (document_id, notebook_id, document_name, state, chunks, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
		   notebook_id = excluded.notebook_id,
		   document_name = excluded.document_name,
		   state = excluded.state,
		   chunks = excluded.chunks,
		   error = excluded.error,
		   updated_at = excluded.updated_at`,
		st.DocumentID, st.NotebookID, st.DocumentName, string(st.State), st.Chunks, st.Error,
		st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert status: %w", err)
	}
	return nil
}

// Get returns the status of a document.
func (s *SQLiteStatusStore) Get(ctx context.Context, documentID string) (*models.IndexStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, notebook_id, document_name, state, chunks, error, updated_at
		 FROM index_status WHERE document_id = ?`, documentID)
	st, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no index status for document %s", models.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListByNotebook returns the statuses of a notebook's documents ordered by name.
func (s *SQLiteStatusStore) ListByNotebook(ctx context.Context, notebookID string) ([]*models.IndexStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, notebook_id, document_name, state, chunks, error, updated_at
		 FROM index_status WHERE notebook_id = ?
		 ORDER BY document_name, document_id`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	statuses := make([]*models.IndexStatus, 0)
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// Delete removes the status of a document. Deleting a missing document is not an error.
func (s *SQLiteStatusStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM index_status WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

// DeleteByNotebook removes the statuses of every document in a notebook.
func (s *SQLiteStatusStore) DeleteByNotebook(ctx context.Context, notebookID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM index_status WHERE notebook_id = ?`, notebookID); err != nil {
		return fmt.Errorf("failed to delete notebook statuses: %w", err)
	}
	return nil
}

// CountByState returns the number of documents in each state.
func (s *SQLiteStatusStore) CountByState(ctx context.Context) (map[models.IndexState]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM index_status GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.IndexState]int64)
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[models.IndexState(state)] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (s *SQLiteStatusStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(r rowScanner) (*models.IndexStatus, error) {
	var st models.IndexStatus
	var state, updated string
	if err := r.Scan(&st.DocumentID, &st.NotebookID, &st.DocumentName, &state, &st.Chunks, &st.Error, &updated); err != nil {
		return nil, err
	}
	st.State = models.IndexState(state)
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at %q: %w", updated, err)
	}
	st.UpdatedAt = t
	return &st, nil
}
