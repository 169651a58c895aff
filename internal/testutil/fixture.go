// Package testutil provides shared test helpers: golden-file comparison
// and fixture trees of C++ sources.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree materializes a file tree under a fresh temp directory and
// returns its root. Keys are slash-separated paths relative to the
// root; parent directories are created as needed.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create fixture directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture file %s: %v", rel, err)
		}
	}
	return root
}
