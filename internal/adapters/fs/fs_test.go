package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/adapters/fs"
	"go.trai.ch/tgraph/internal/core/domain"
)

// layout creates files (with empty contents) under root.
func layout(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}
}

func testCell(root string) domain.Cell {
	return domain.Cell{Name: "root", Root: root, BuildFileName: "BUCK"}
}

func TestWalker_SkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	layout(t, root, "a/x.txt", ".git/config", "buck-out/gen/y", "node_modules/z", "b/c/d.txt")

	got := slices.Collect(fs.NewWalker("node_*").WalkFiles(root))
	slices.Sort(got)
	assert.Equal(t, []string{"a/x.txt", "b/c/d.txt"}, got)
}

func TestTreeFactory(t *testing.T) {
	root := t.TempDir()
	layout(t, root, "BUCK", "a/BUCK", "a/b/c/file.java", "x/y/BUCK", "x/file", ".git/BUCK")

	tree, err := fs.NewTreeFactory(fs.NewWalker()).NewTree(testCell(root))
	require.NoError(t, err)

	tests := []struct {
		path      string
		owner     string
		ancestors []string
	}{
		{path: "a/b/c/file.java", owner: "a/BUCK", ancestors: []string{"a/BUCK", "BUCK"}},
		{path: "a/BUCK", owner: "a/BUCK", ancestors: []string{"a/BUCK", "BUCK"}},
		{path: "x/file", owner: "BUCK", ancestors: []string{"BUCK"}},
		{path: "x/y/z/w", owner: "x/y/BUCK", ancestors: []string{"x/y/BUCK", "BUCK"}},
		{path: "top.txt", owner: "BUCK", ancestors: []string{"BUCK"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			owner, ok := tree.OwningBuildFile(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.ancestors, tree.AncestorBuildFiles(tt.path))
		})
	}

	assert.Equal(t, []string{"x/y/BUCK"}, tree.BuildFilesUnder("x"))
	assert.Equal(t, []string{"a/BUCK"}, tree.BuildFilesUnder("a"))
	assert.Equal(t, []string{"BUCK", "a/BUCK", "x/y/BUCK"}, tree.BuildFilesUnder(""))
	assert.Empty(t, tree.BuildFilesUnder("a/b"))

	typed, ok := tree.(*fs.Tree)
	require.True(t, ok)
	assert.Equal(t, 3, typed.Packages())
}

func TestTreeFactory_NoRootBuildFile(t *testing.T) {
	root := t.TempDir()
	layout(t, root, "a/BUCK", "b/file")

	tree, err := fs.NewTreeFactory(fs.NewWalker()).NewTree(testCell(root))
	require.NoError(t, err)

	_, ok := tree.OwningBuildFile("b/file")
	assert.False(t, ok)
	assert.Empty(t, tree.AncestorBuildFiles("b/file"))
}

func TestGlobber(t *testing.T) {
	root := t.TempDir()
	layout(t, root,
		"a/BUCK", "a/A.java", "a/B.java", "a/README.md",
		"a/sub/C.java", "a/sub/deep/D.java",
		"a/pkg/BUCK", "a/pkg/E.java",
		"a/buck-out/F.java",
	)
	g := fs.NewGlobber(fs.NewWalker())
	cell := testCell(root)

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{name: "single directory", include: []string{"*.java"}, want: []string{"A.java", "B.java"}},
		{name: "recursive stops at subpackages", include: []string{"**/*.java"}, want: []string{"A.java", "B.java", "sub/C.java", "sub/deep/D.java"}},
		{name: "exclude", include: []string{"**/*.java"}, exclude: []string{"sub/**"}, want: []string{"A.java", "B.java"}},
		{name: "several includes", include: []string{"README.md", "sub/*.java"}, want: []string{"README.md", "sub/C.java"}},
		{name: "no match", include: []string{"*.go"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Glob(cell, "a", tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobber_InvalidPatterns(t *testing.T) {
	root := t.TempDir()
	layout(t, root, "BUCK")
	g := fs.NewGlobber(fs.NewWalker())

	for _, p := range []string{"", "/abs/*", "../up/*", "[bad"} {
		t.Run(p, func(t *testing.T) {
			_, err := g.Glob(testCell(root), "", []string{p}, nil)
			require.Error(t, err)
		})
	}
}

func TestGlobber_MissingPackageDir(t *testing.T) {
	g := fs.NewGlobber(fs.NewWalker())
	got, err := g.Glob(testCell(t.TempDir()), "nope", []string{"*"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSymlinkTracker(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	layout(t, root, "a/BUCK", "a/Real.java")
	layout(t, outside, "shared/Linked.java")
	require.NoError(t, os.Symlink(filepath.Join(outside, "shared"), filepath.Join(root, "a", "shared")))

	tracker := fs.NewSymlinkTracker()
	var watched []string
	tracker.SetWatchFunc(func(dir string) error {
		watched = append(watched, dir)
		return nil
	})

	cell := testCell(root)
	node := &domain.TargetNode{Inputs: []string{"a/Real.java", "a/shared/Linked.java", "a/Missing.java"}}
	require.NoError(t, tracker.RegisterInputs(cell, "a/BUCK", node))
	require.NoError(t, tracker.RegisterInputs(cell, "a/BUCK", node))

	realOutside, err := filepath.EvalSymlinks(outside)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		filepath.Join(root, "a", "shared", "Linked.java"): filepath.Join(realOutside, "shared", "Linked.java"),
	}, tracker.Links())
	assert.Equal(t, []string{filepath.Join(realOutside, "shared")}, watched)

	assert.Equal(t,
		[]string{filepath.Join(root, "a", "shared", "Linked.java")},
		tracker.LinkPaths(filepath.Join(realOutside, "shared", "Linked.java")))
	assert.Empty(t, tracker.LinkPaths(filepath.Join(root, "a", "Real.java")))
}
