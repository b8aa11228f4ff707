package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
)

func seed(t *testing.T, s *cache.State, cell domain.Cell, buildFiles ...string) {
	t.Helper()
	token := s.Token()
	for _, bf := range buildFiles {
		s.InsertManifestIfAbsent(cell, bf, manifest(bf), token)
		dir := domain.DirOf(bf)
		s.InsertNodeIfAbsent(cell, bf, node(cell.Name, dir, "lib"), nil, token)
	}
}

func hasManifest(s *cache.State, cell domain.Cell, bf string) bool {
	_, ok := s.LookupManifest(cell, bf, s.Token())
	return ok
}

func TestInvalidateBasedOn_ModifyDropsBuildFileAndNodes(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, _ := newTestState(cell, "BUCK", "a/BUCK")
	seed(t, s, cell, "BUCK", "a/BUCK")

	s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/repo/a/BUCK", Operation: ports.OpModify}})

	assert.False(t, hasManifest(s, cell, "a/BUCK"))
	_, ok := s.LookupNode(cell, domain.NewTargetID("root", "a", "lib"), s.Token())
	assert.False(t, ok)
	assert.True(t, hasManifest(s, cell, "BUCK"))

	c := s.Counters()
	assert.Equal(t, int64(1), c.FilesChanged)
	assert.Equal(t, int64(1), c.RulesInvalidatedByWatchEvents)
	assert.Zero(t, c.BuildFilesInvalidatedByAddOrRemove)
}

func TestInvalidateBasedOn_IncludeChangePropagates(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, _ := newTestState(cell, "a/BUCK", "b/BUCK")
	token := s.Token()
	s.InsertManifestIfAbsent(cell, "a/BUCK", manifest("a/BUCK", "defs/rules.bzl"), token)
	s.InsertManifestIfAbsent(cell, "b/BUCK", manifest("b/BUCK"), token)

	s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/repo/defs/rules.bzl", Operation: ports.OpModify}})

	assert.False(t, hasManifest(s, cell, "a/BUCK"))
	assert.True(t, hasManifest(s, cell, "b/BUCK"))
}

func TestInvalidateBasedOn_CreateRouting(t *testing.T) {
	tests := []struct {
		name            string
		enforcement     domain.BoundaryEnforcement
		rootInvalidated bool
		buildFilesCount int64
	}{
		{name: "enforced boundaries invalidate the owner only", enforcement: domain.EnforceBoundaries, buildFilesCount: 1},
		{name: "relaxed boundaries invalidate every ancestor", enforcement: domain.WarnBoundaries, rootInvalidated: true, buildFilesCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := testCell(tt.enforcement)
			s, _ := newTestState(cell, "BUCK", "a/BUCK")
			seed(t, s, cell, "BUCK", "a/BUCK")

			s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/repo/a/new.txt", Operation: ports.OpCreate}})

			assert.False(t, hasManifest(s, cell, "a/BUCK"))
			assert.Equal(t, !tt.rootInvalidated, hasManifest(s, cell, "BUCK"))

			c := s.Counters()
			assert.Equal(t, int64(1), c.PathsAddedOrRemovedInvalidatingBuildFiles)
			assert.Equal(t, tt.buildFilesCount, c.BuildFilesInvalidatedByAddOrRemove)
		})
	}
}

func TestInvalidateBasedOn_NewBuildFileInvalidatesPreviousOwner(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, factory := newTestState(cell, "BUCK", "a/BUCK", "a/b/BUCK")
	seed(t, s, cell, "BUCK", "a/BUCK")
	_, err := s.BuildFileTree(cell)
	require.NoError(t, err)

	s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/repo/a/b/BUCK", Operation: ports.OpCreate}})

	assert.False(t, hasManifest(s, cell, "a/BUCK"))
	assert.True(t, hasManifest(s, cell, "BUCK"))
	assert.Equal(t, 2, factory.built, "tree is rebuilt after a build file appears")
}

func TestInvalidateBasedOn_IgnoredDirectory(t *testing.T) {
	cell := testCell(domain.WarnBoundaries)
	s, _ := newTestState(cell, "BUCK")
	seed(t, s, cell, "BUCK")

	s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/repo/buck-out/gen/out.jar", Operation: ports.OpCreate}})

	assert.True(t, hasManifest(s, cell, "BUCK"))
	assert.Zero(t, s.Counters().PathsAddedOrRemovedInvalidatingBuildFiles)
}

func TestInvalidateBasedOn_OutsideCell(t *testing.T) {
	cell := testCell(domain.WarnBoundaries)
	s, _ := newTestState(cell, "BUCK")
	seed(t, s, cell, "BUCK")

	s.InvalidateBasedOn([]ports.WatchEvent{{Path: "/elsewhere/file", Operation: ports.OpCreate}})

	assert.True(t, hasManifest(s, cell, "BUCK"))
	assert.Equal(t, int64(1), s.Counters().FilesChanged)
}

func TestInvalidateBasedOn_ConfigurationBuildFile(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "configuration build file itself", path: "/repo/config/BUCK"},
		{name: "file included by configuration build file", path: "/repo/config/defs.bzl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := testCell(domain.EnforceBoundaries)
			s, _ := newTestState(cell, "config/BUCK", "a/BUCK")
			token := s.Token()
			s.InsertManifestIfAbsent(cell, "config/BUCK", manifest("config/BUCK", "config/defs.bzl"), token)
			s.InsertManifestIfAbsent(cell, "a/BUCK", manifest("a/BUCK"), token)
			s.MarkConfigurationBuildFile(cell.Name, "config/BUCK")

			s.InvalidateBasedOn([]ports.WatchEvent{{Path: tt.path, Operation: ports.OpModify}})

			assert.False(t, hasManifest(s, cell, "a/BUCK"))
			assert.False(t, s.IsConfigurationBuildFile(cell.Name, "config/BUCK"))
		})
	}
}

func TestInvalidateBasedOn_Overflow(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, _ := newTestState(cell, "BUCK")
	seed(t, s, cell, "BUCK")

	s.InvalidateBasedOn([]ports.WatchEvent{
		{Path: "/repo/x.txt", Operation: ports.OpModify},
		{Operation: ports.OpOverflow},
	})

	assert.False(t, hasManifest(s, cell, "BUCK"))
	c := s.Counters()
	assert.Equal(t, int64(1), c.CacheInvalidatedByOverflow)
	assert.Zero(t, c.FilesChanged)
}

func TestInvalidatePaths_PackageChain(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	cell.PackageFiles = true
	s, _ := newTestState(cell, "a/BUCK")
	token := s.Token()
	s.InsertPackageIfAbsent(cell, "PACKAGE", &domain.PackageManifest{Path: "PACKAGE"}, token)
	s.InsertPackageIfAbsent(cell, "a/PACKAGE", &domain.PackageManifest{Path: "a/PACKAGE"}, token)
	seed(t, s, cell, "a/BUCK")

	s.InvalidatePaths(cell.Name, []string{"PACKAGE"})

	token = s.Token()
	_, ok := s.LookupPackage(cell, "a/PACKAGE", token)
	assert.False(t, ok)
	_, ok = s.LookupNode(cell, domain.NewTargetID("root", "a", "lib"), token)
	assert.False(t, ok)
	assert.False(t, hasManifest(s, cell, "a/BUCK"))
	assert.Zero(t, s.Counters().RulesInvalidatedByWatchEvents)
}

func TestInvalidatePaths_NodeExtraDependents(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, _ := newTestState(cell)
	token := s.Token()
	id := domain.NewTargetID("root", "a", "lib")
	s.InsertNodeIfAbsent(cell, "a/BUCK", node("root", "a", "lib"), []string{"a/PACKAGE"}, token)

	s.InvalidatePaths(cell.Name, []string{"a/PACKAGE"})

	_, ok := s.LookupNode(cell, id, s.Token())
	assert.False(t, ok)
}

func TestInvalidateAll(t *testing.T) {
	cell := testCell(domain.EnforceBoundaries)
	s, _ := newTestState(cell)

	assert.False(t, s.InvalidateAll())

	seed(t, s, cell, "BUCK")
	assert.True(t, s.InvalidateAll())
	assert.False(t, hasManifest(s, cell, "BUCK"))
	assert.Empty(t, s.Stats())
}
