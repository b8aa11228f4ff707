// Package fs provides filesystem adapters: build file discovery, globbing and
// symlink tracking.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"

	"go.trai.ch/tgraph/internal/core/domain"
)

// Walker walks cell directories.
type Walker struct {
	ignores []string
}

// NewWalker creates a Walker skipping the given directory name patterns in
// addition to the tool's own ignored directories.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: ignores}
}

// WalkFiles yields every regular file under root, skipping ignored directories.
// Paths are relative to root and slash-separated.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable directories are skipped rather than failing the walk.
				if d != nil && d.IsDir() && p != root {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				if p != root && w.ShouldSkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if !yield(filepath.ToSlash(rel)) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ShouldSkipDir reports whether a directory with the given base name is ignored.
func (w *Walker) ShouldSkipDir(name string) bool {
	if slices.Contains(domain.IgnoredDirs, name) {
		return true
	}
	for _, ignore := range w.ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
