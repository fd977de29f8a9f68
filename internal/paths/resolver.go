// Package paths maps include destinations onto the output root.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spachava753/rawfetch/internal/models"
)

// Resolve returns the absolute destination for localPath under outputRoot.
// A localPath that is absolute, climbs out of the root, or reaches outside it
// through an existing symlink is a PathTraversalError; it is never clamped
// back inside.
func Resolve(outputRoot, localPath string) (string, error) {
	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	if filepath.IsAbs(localPath) || strings.HasPrefix(localPath, "/") {
		return "", &models.PathTraversalError{Root: root, LocalPath: localPath}
	}

	dest := filepath.Join(root, filepath.FromSlash(localPath))
	rel, err := filepath.Rel(root, dest)
	if err != nil {
		return "", &models.PathTraversalError{Root: root, LocalPath: localPath}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &models.PathTraversalError{Root: root, LocalPath: localPath}
	}
	if rel == "." {
		return "", models.NewConfigError("includes", "%q resolves to the output root itself", localPath)
	}

	// A symlink already under the root can point the parent directory elsewhere.
	realRoot := realPath(root)
	realParent := realPath(filepath.Dir(dest))
	rel, err = filepath.Rel(realRoot, realParent)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &models.PathTraversalError{Root: root, LocalPath: localPath}
	}

	return dest, nil
}

// realPath resolves symlinks in the deepest existing ancestor of p and
// appends the components that do not exist yet.
func realPath(p string) string {
	var missing []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}

// EnsureParent creates every missing ancestor directory of path. Safe to call
// concurrently for overlapping chains.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		// A racing creator can win between MkdirAll's stat and mkdir.
		if errors.Is(err, fs.ErrExist) {
			if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
				return nil
			}
		}
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
