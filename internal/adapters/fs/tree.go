package fs

import (
	"iter"
	"path"
	"slices"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
)

var _ ports.BuildFileTreeFactory = (*TreeFactory)(nil)

// TreeFactory builds BuildFileTrees by walking a cell on disk.
type TreeFactory struct {
	walker *Walker
}

// NewTreeFactory creates a TreeFactory.
func NewTreeFactory(walker *Walker) *TreeFactory {
	return &TreeFactory{walker: walker}
}

// NewTree walks the cell and records every directory holding a build file.
func (f *TreeFactory) NewTree(cell domain.Cell) (ports.BuildFileTree, error) {
	t := &Tree{buildFileName: cell.BuildFileName, packages: make(map[string]struct{})}
	for rel := range f.walker.WalkFiles(cell.Root) {
		if path.Base(rel) == cell.BuildFileName {
			t.packages[domain.DirOf(rel)] = struct{}{}
		}
	}
	return t, nil
}

// Tree is an immutable snapshot of the packages of a cell.
type Tree struct {
	buildFileName string
	packages      map[string]struct{}
}

// OwningBuildFile returns the build file of the nearest package at or above
// the directory of p.
func (t *Tree) OwningBuildFile(p string) (string, bool) {
	for dir := range ancestors(domain.DirOf(p)) {
		if _, ok := t.packages[dir]; ok {
			return path.Join(dir, t.buildFileName), true
		}
	}
	return "", false
}

// AncestorBuildFiles returns every build file from the owner of p up to the cell root.
func (t *Tree) AncestorBuildFiles(p string) []string {
	var out []string
	for dir := range ancestors(domain.DirOf(p)) {
		if _, ok := t.packages[dir]; ok {
			out = append(out, path.Join(dir, t.buildFileName))
		}
	}
	return out
}

// BuildFilesUnder returns the build files of dir and of every package below it.
func (t *Tree) BuildFilesUnder(dir string) []string {
	var out []string
	for pkg := range t.packages {
		if domain.IsWithin(dir, pkg) {
			out = append(out, path.Join(pkg, t.buildFileName))
		}
	}
	slices.Sort(out)
	return out
}

// Packages returns the number of packages in the tree.
func (t *Tree) Packages() int {
	return len(t.packages)
}

// ancestors yields dir and each of its parents, ending with the cell root "".
func ancestors(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			if !yield(dir) || dir == "" {
				return
			}
			dir = domain.DirOf(dir)
		}
	}
}
