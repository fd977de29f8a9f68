// Package reconcile reports which files actually exist under the output root,
// independent of what a batch asked for.
package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spachava753/rawfetch/internal/fetch"
	"github.com/spachava753/rawfetch/internal/models"
)

// ListFiles walks outputRoot and returns every regular file as an absolute,
// sorted path. Temp files of unfinished downloads are left out. A root that
// does not exist yields an empty listing.
func ListFiles(outputRoot string) (models.FileListing, error) {
	root, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	listing := models.FileListing{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() && !fetch.IsTempFile(d.Name()) {
			listing = append(listing, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(listing)
	return listing, nil
}

// Relative rewrites a listing relative to outputRoot, using forward slashes.
func Relative(outputRoot string, listing models.FileListing) []string {
	root, err := filepath.Abs(outputRoot)
	if err != nil {
		root = outputRoot
	}
	out := make([]string, 0, len(listing))
	for _, p := range listing {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
