package paths_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/rawfetch/internal/models"
	"github.com/spachava753/rawfetch/internal/paths"
)

func TestResolve(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name      string
		local     string
		want      string
		traversal bool
		config    bool
	}{
		{name: "nested", local: "config/app.yaml", want: filepath.Join(root, "config", "app.yaml")},
		{name: "dot segments inside root", local: "a/../b/./c.txt", want: filepath.Join(root, "b", "c.txt")},
		{name: "escapes root", local: "../outside.txt", traversal: true},
		{name: "escapes after descending", local: "a/../../outside.txt", traversal: true},
		{name: "absolute", local: "/etc/passwd", traversal: true},
		{name: "root itself", local: "a/..", config: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paths.Resolve(root, tt.local)
			switch {
			case tt.traversal:
				var travErr *models.PathTraversalError
				require.ErrorAs(t, err, &travErr)
				assert.Equal(t, tt.local, travErr.LocalPath)
			case tt.config:
				var cfgErr *models.ConfigError
				require.ErrorAs(t, err, &cfgErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolve_RelativeRootIsMadeAbsolute(t *testing.T) {
	got, err := paths.Resolve("out", "x.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "x.txt", filepath.Base(got))
}

func TestEnsureParent_Idempotent(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "c", "file.txt")

	require.NoError(t, paths.EnsureParent(dest))
	require.NoError(t, paths.EnsureParent(dest))

	info, err := os.Stat(filepath.Dir(dest))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureParent_ConcurrentSameChain(t *testing.T) {
	root := t.TempDir()
	dests := []string{
		filepath.Join(root, "deep", "chain", "one.txt"),
		filepath.Join(root, "deep", "chain", "two.txt"),
	}

	const rounds = 16
	var wg sync.WaitGroup
	errs := make(chan error, rounds*len(dests))
	for i := 0; i < rounds; i++ {
		for _, d := range dests {
			wg.Add(1)
			go func(d string) {
				defer wg.Done()
				errs <- paths.EnsureParent(d)
			}(d)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "deep"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "chain", entries[0].Name())
}

func TestEnsureParent_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := paths.EnsureParent(filepath.Join(blocker, "child", "file.txt"))
	assert.Error(t, err)
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
}

func TestResolve_SymlinkOutOfRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	symlinkOrSkip(t, outside, filepath.Join(root, "link"))

	for _, local := range []string{"link/pwned.txt", "link/deeper/pwned.txt"} {
		_, err := paths.Resolve(root, local)
		var travErr *models.PathTraversalError
		require.ErrorAs(t, err, &travErr, local)
		assert.Equal(t, local, travErr.LocalPath)
	}
	_, err := os.Stat(filepath.Join(outside, "deeper"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_SymlinkInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0755))
	symlinkOrSkip(t, filepath.Join(root, "real"), filepath.Join(root, "alias"))

	got, err := paths.Resolve(root, "alias/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "alias", "file.txt"), got)
}

func TestResolve_RootBehindSymlink(t *testing.T) {
	target := t.TempDir()
	linkedRoot := filepath.Join(t.TempDir(), "root")
	symlinkOrSkip(t, target, linkedRoot)

	got, err := paths.Resolve(linkedRoot, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(linkedRoot, "a", "b.txt"), got)
}
