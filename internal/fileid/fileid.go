// Package fileid derives stable document and notebook identifiers for files
// ingested from an inbox directory laid out as <root>/<notebookId>/<file>.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// FileDocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID, so re-indexing a file replaces its chunks.
func FileDocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// IsFileDocID reports whether id was produced by FileDocID.
func IsFileDocID(id string) bool {
	return strings.HasPrefix(id, prefix) && len(id) == len(prefix)+sha256.Size*2
}

// NotebookForPath returns the notebook a file under root belongs to: the first
// path element below root. It returns false for files directly in root or
// outside it.
func NotebookForPath(root, path string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == "" || strings.HasPrefix(parts[0], ".") {
		return "", false
	}
	return parts[0], true
}
