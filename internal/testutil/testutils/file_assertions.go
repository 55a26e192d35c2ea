package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree creates files below root. Keys are slash-separated relative paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// FileAssertions checks file system state below a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// Read returns the content of a file, failing the test when it is missing.
func (fa *FileAssertions) Read(relativePath string) string {
	fa.t.Helper()
	b, err := os.ReadFile(fa.path(relativePath))
	require.NoError(fa.t, err)
	return string(b)
}

// Equals asserts the exact content of a file.
func (fa *FileAssertions) Equals(relativePath, want string) *FileAssertions {
	fa.t.Helper()
	require.Equal(fa.t, want, fa.Read(relativePath), relativePath)
	return fa
}

// Missing asserts that a file does not exist.
func (fa *FileAssertions) Missing(relativePath string) *FileAssertions {
	fa.t.Helper()
	_, err := os.Stat(fa.path(relativePath))
	require.ErrorIs(fa.t, err, os.ErrNotExist, relativePath)
	return fa
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}
