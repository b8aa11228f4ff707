package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/enginetest"
	"go.trai.ch/tgraph/internal/engine/graph"
	"go.trai.ch/tgraph/internal/engine/pipeline"
)

type workspace struct {
	cell   domain.Cell
	interp *enginetest.Interpreter
	cells  *enginetest.Cells
	state  *cache.State
}

func newWorkspace() *workspace {
	cell := enginetest.Cell("root", domain.EnforceBoundaries)
	interp := enginetest.NewInterpreter()
	interp.AddBuildFile("root", "a/BUCK", enginetest.Target("foo", "java_library", map[string]any{
		"deps": []any{"//b:bar"},
	}))
	interp.AddBuildFile("root", "b/BUCK", enginetest.Target("bar", "java_library", nil))
	cells := enginetest.NewCells(cell)
	return &workspace{
		cell:   cell,
		interp: interp,
		cells:  cells,
		state:  cache.NewState(cells, enginetest.TreeFactory{Interp: interp}),
	}
}

// build runs one session against the shared daemonic state.
func (w *workspace) build(t *testing.T, roots ...domain.TargetID) (*domain.TargetGraph, error) {
	t.Helper()
	p := pipeline.New(pipeline.Options{
		State:       w.state,
		Cells:       w.cells,
		Interpreter: w.interp,
		Platforms:   enginetest.Platforms{Default: &domain.Platform{Name: "default"}},
		Listener:    &enginetest.Listener{},
		Logger:      &enginetest.Logger{},
		Tracer:      enginetest.Tracer{},
		Parallelism: 2,
	})
	defer p.Close()
	return graph.NewBuilder(p.TargetNodes, &enginetest.Logger{}, enginetest.Tracer{}).Build(t.Context(), roots)
}

var (
	fooID = domain.NewTargetID("root", "a", "foo")
	barID = domain.NewTargetID("root", "b", "bar")
)

func TestBuild_AcrossSessions(t *testing.T) {
	w := newWorkspace()

	g, err := w.build(t, fooID)
	require.NoError(t, err)
	assert.Equal(t, []domain.TargetID{fooID, barID}, g.Nodes())
	assert.Equal(t, []domain.TargetID{barID}, g.OutgoingEdges(fooID))

	g, err = w.build(t, fooID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, w.interp.ParseCount("root", "b/BUCK"))
}

func TestBuild_DeletedDependencyBuildFile(t *testing.T) {
	w := newWorkspace()
	_, err := w.build(t, fooID)
	require.NoError(t, err)

	w.interp.RemoveBuildFile("root", "b/BUCK")
	w.state.InvalidateBasedOn([]ports.WatchEvent{{Path: "/root/b/BUCK", Operation: ports.OpDelete}})

	_, err = w.build(t, fooID)
	require.ErrorIs(t, err, domain.ErrBuildFileNotFound)
	assert.Contains(t, err.Error(), "when resolving dependency root//b:bar of root//a:foo")
}

func TestBuild_OverflowForcesReparse(t *testing.T) {
	w := newWorkspace()
	_, err := w.build(t, fooID)
	require.NoError(t, err)

	w.state.InvalidateBasedOn([]ports.WatchEvent{{Operation: ports.OpOverflow}})
	_, ok := w.state.LookupManifest(w.cell, "a/BUCK", w.state.Token())
	assert.False(t, ok)

	_, err = w.build(t, fooID)
	require.NoError(t, err)
	assert.Equal(t, 2, w.interp.ParseCount("root", "a/BUCK"))
}
