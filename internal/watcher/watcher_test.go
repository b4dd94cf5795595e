package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	indexed []string // "notebook|base"
	removed []string
}

func (r *recorder) onIndex(notebookID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, notebookID+"|"+filepath.Base(path))
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, filepath.Base(path))
}

func (r *recorder) snapshot() (indexed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	indexed = append([]string(nil), r.indexed...)
	removed = append([]string(nil), r.removed...)
	sort.Strings(indexed)
	return indexed, removed
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startWatcher(t *testing.T, root string, rec *recorder) *Watcher {
	t.Helper()
	w := NewWatcher([]string{root}, []string{".txt", ".md"}, rec.onIndex, rec.onRemove, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(nil, []string{".txt"}, rec.onIndex, rec.onRemove)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_IndexesNotebookFilesDebounced(t *testing.T) {
	root := t.TempDir()
	nb := filepath.Join(root, "nb1")
	mustMkdir(t, nb)
	rec := &recorder{}
	startWatcher(t, root, rec)

	f := filepath.Join(nb, "notes.txt")
	for i := 0; i < 3; i++ {
		mustWrite(t, f, "revision")
	}
	mustWrite(t, filepath.Join(root, "loose.txt"), "not in a notebook")
	mustWrite(t, filepath.Join(nb, "image.png"), "binary")

	waitFor(t, func() bool {
		indexed, _ := rec.snapshot()
		return contains(indexed, "nb1|notes.txt")
	})
	time.Sleep(200 * time.Millisecond)
	indexed, _ := rec.snapshot()
	if len(indexed) != 1 {
		t.Errorf("expected a single debounced index call, got %v", indexed)
	}
}

func TestWatcher_RemoveCallsOnRemove(t *testing.T) {
	root := t.TempDir()
	nb := filepath.Join(root, "nb1")
	mustMkdir(t, nb)
	f := filepath.Join(nb, "gone.md")
	mustWrite(t, f, "short lived")
	rec := &recorder{}
	startWatcher(t, root, rec)

	if err := os.Remove(f); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, removed := rec.snapshot()
		return contains(removed, "gone.md")
	})
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "nb1", "sub"))
	mustMkdir(t, filepath.Join(root, "nb2"))
	mustMkdir(t, filepath.Join(root, ".hidden"))
	mustWrite(t, filepath.Join(root, "nb1", "a.txt"), "a")
	mustWrite(t, filepath.Join(root, "nb1", "sub", "b.md"), "b")
	mustWrite(t, filepath.Join(root, "nb2", "c.txt"), "c")
	mustWrite(t, filepath.Join(root, "nb2", "skip.xyz"), "x")
	mustWrite(t, filepath.Join(root, ".hidden", "d.txt"), "d")
	mustWrite(t, filepath.Join(root, "root.txt"), "r")

	rec := &recorder{}
	w := startWatcher(t, root, rec)
	w.SyncExistingFiles()

	indexed, _ := rec.snapshot()
	want := []string{"nb1|a.txt", "nb1|b.md", "nb2|c.txt"}
	if len(indexed) != len(want) {
		t.Fatalf("indexed = %v, want %v", indexed, want)
	}
	for i := range want {
		if indexed[i] != want[i] {
			t.Errorf("indexed[%d] = %q, want %q", i, indexed[i], want[i])
		}
	}
}

func TestWatcher_NewNotebookDirectory(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	nested := filepath.Join(root, "fresh", "deeper")
	mustMkdir(t, nested)
	mustWrite(t, filepath.Join(nested, "deep.txt"), "deep content")

	waitFor(t, func() bool {
		indexed, _ := rec.snapshot()
		return contains(indexed, "fresh|deep.txt")
	})
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	w := NewWatcher([]string{root}, nil, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{"txt"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{".txt"}, false},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}
