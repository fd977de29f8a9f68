package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/rawfetch/internal/reconcile"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestListFiles_IncludesLeftoversFromPreviousRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old", "leftover.txt"), "from last week")
	writeFile(t, filepath.Join(root, "a.txt"), "fresh")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "dir"), 0755))

	listing, err := reconcile.ListFiles(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "old", "leftover.txt"),
	}, []string(listing))
	assert.Equal(t, []string{"a.txt", "old/leftover.txt"}, reconcile.Relative(root, listing))
}

func TestListFiles_MissingRoot(t *testing.T) {
	listing, err := reconcile.ListFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, listing)
	assert.NotNil(t, listing)
}

func TestListFiles_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	writeFile(t, target, "x")
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	listing, err := reconcile.ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, []string(listing))
}

func TestListFiles_SkipsUnfinishedDownloads(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "app.yaml"), "done")
	writeFile(t, filepath.Join(root, "config", ".app.yaml.12345.part"), "half")
	writeFile(t, filepath.Join(root, ".hidden"), "kept")

	listing, err := reconcile.ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, ".hidden"),
		filepath.Join(root, "config", "app.yaml"),
	}, []string(listing))
}
