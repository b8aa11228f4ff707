package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/enginetest"
	"go.trai.ch/tgraph/internal/engine/session"
)

var (
	fooID = domain.NewTargetID("root", "a", "foo")
	bazID = domain.NewTargetID("root", "a", "baz")
	barID = domain.NewTargetID("root", "b", "bar")
	topID = domain.NewTargetID("root", "", "top")
)

func newFactory() (*session.Factory, *enginetest.Interpreter) {
	cell := enginetest.Cell("root", domain.EnforceBoundaries)
	interp := enginetest.NewInterpreter()
	interp.AddBuildFile("root", "BUCK", enginetest.Target("top", "filegroup", nil))
	interp.AddBuildFile("root", "a/BUCK",
		enginetest.Target("foo", "java_library", map[string]any{"deps": []any{"//b:bar"}}),
		enginetest.Target("baz", "java_library", map[string]any{"deps": []any{":foo"}}),
	)
	interp.AddBuildFile("root", "b/BUCK", enginetest.Target("bar", "java_library", nil))
	cells := enginetest.NewCells(cell)
	state := cache.NewState(cells, enginetest.TreeFactory{Interp: interp})
	f := session.NewFactory(state, cells, interp, enginetest.Platforms{}, &enginetest.Listener{}, &enginetest.Logger{}, enginetest.Tracer{})
	return f, interp
}

func open(t *testing.T, f *session.Factory, basePath string) *session.Session {
	t.Helper()
	s, err := f.Open(t.Context(), session.Params{Cell: "root", BasePath: basePath, Parallelism: 2})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSession_ResolveSpecs(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		specs    []string
		want     []domain.TargetID
	}{
		{name: "absolute label", specs: []string{"//a:foo"}, want: []domain.TargetID{fooID}},
		{name: "explicit cell", specs: []string{"root//b:bar"}, want: []domain.TargetID{barID}},
		{name: "relative to working directory", basePath: "a", specs: []string{":foo"}, want: []domain.TargetID{fooID}},
		{name: "implicit name", specs: []string{"//b"}, want: []domain.TargetID{domain.NewTargetID("root", "b", "b")}},
		{name: "package wildcard", specs: []string{"//a:"}, want: []domain.TargetID{bazID, fooID}},
		{name: "wildcard in working directory", basePath: "a", specs: []string{":"}, want: []domain.TargetID{bazID, fooID}},
		{name: "explicit cell wildcard", basePath: "a", specs: []string{"root//b:"}, want: []domain.TargetID{barID}},
		{name: "root package wildcard", specs: []string{"//:"}, want: []domain.TargetID{topID}},
		{name: "duplicates collapse", specs: []string{"//a:foo", "//a:foo", "//a:"}, want: []domain.TargetID{bazID, fooID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newFactory()
			s := open(t, f, tt.basePath)
			got, err := s.ResolveSpecs(t.Context(), tt.specs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_ResolveSpecsErrors(t *testing.T) {
	f, _ := newFactory()
	s := open(t, f, "")

	_, err := s.ResolveSpecs(t.Context(), []string{"//a:foo:bar"})
	require.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = s.ResolveSpecs(t.Context(), []string{"//missing:"})
	require.ErrorIs(t, err, domain.ErrBuildFileNotFound)

	_, err = s.ResolveSpecs(t.Context(), []string{"other//a:"})
	require.ErrorIs(t, err, domain.ErrUnknownCell)
}

func TestSession_BuildTargetGraph(t *testing.T) {
	f, _ := newFactory()
	s := open(t, f, "a")

	g, err := s.BuildTargetGraph(t.Context(), []string{":baz"})
	require.NoError(t, err)
	assert.Equal(t, []domain.TargetID{bazID, fooID, barID}, g.Nodes())
	assert.Equal(t, []domain.TargetID{fooID}, g.OutgoingEdges(bazID))
	assert.Equal(t, []domain.TargetID{barID}, g.OutgoingEdges(fooID))
}

func TestSession_CacheOutlivesSession(t *testing.T) {
	f, interp := newFactory()

	first, err := f.Open(t.Context(), session.Params{Cell: "root"})
	require.NoError(t, err)
	_, err = first.BuildTargetGraph(t.Context(), []string{"//a:foo"})
	require.NoError(t, err)
	first.Close()

	second := open(t, f, "")
	_, err = second.BuildTargetGraph(t.Context(), []string{"//a:foo"})
	require.NoError(t, err)

	assert.Equal(t, 1, interp.ParseCount("root", "a/BUCK"))
	assert.Equal(t, 1, interp.ParseCount("root", "b/BUCK"))
	assert.Equal(t, 2, f.State().Stats()[0].Nodes)
}

func TestSession_ConcurrentSessions(t *testing.T) {
	f, _ := newFactory()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Go(func() {
			s, err := f.Open(t.Context(), session.Params{Cell: "root", Parallelism: 2})
			if err != nil {
				errs[i] = err
				return
			}
			defer s.Close()
			_, errs[i] = s.BuildTargetGraph(t.Context(), []string{"//a:baz"})
		})
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.State().Stats()[0].Nodes)
}

func TestSession_Close(t *testing.T) {
	f, _ := newFactory()
	s, err := f.Open(t.Context(), session.Params{Cell: "root"})
	require.NoError(t, err)

	s.Close()
	s.Close()

	_, err = s.BuildTargetGraph(t.Context(), []string{"//a:foo"})
	require.ErrorIs(t, err, domain.ErrCancelled)
}

func TestFactory_Open(t *testing.T) {
	f, _ := newFactory()

	_, err := f.Open(t.Context(), session.Params{Cell: "nope"})
	require.ErrorIs(t, err, domain.ErrUnknownCell)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = f.Open(ctx, session.Params{Cell: "root"})
	require.ErrorIs(t, err, domain.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)

	s := open(t, f, "")
	assert.Positive(t, s.Params().Parallelism)
}
