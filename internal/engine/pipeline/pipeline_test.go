package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/core/ports/mocks"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/enginetest"
	"go.trai.ch/tgraph/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

var (
	linuxID = domain.NewTargetID("root", "config", "linux")
	macosID = domain.NewTargetID("root", "config", "macos")
	fooID   = domain.NewTargetID("root", "a", "foo")
	barID   = domain.NewTargetID("root", "b", "bar")
)

type fixture struct {
	cell      domain.Cell
	interp    *enginetest.Interpreter
	cells     *enginetest.Cells
	state     *cache.State
	logger    *enginetest.Logger
	listener  *enginetest.Listener
	platforms enginetest.Platforms
}

func newFixture(enforcement domain.BoundaryEnforcement) *fixture {
	cell := enginetest.Cell("root", enforcement)
	interp := enginetest.NewInterpreter()
	cells := enginetest.NewCells(cell)

	interp.AddBuildFile("root", "config/BUCK",
		enginetest.Target("linux", "constraint_value", nil),
		enginetest.Target("macos", "constraint_value", nil),
	)
	interp.AddBuildFile("root", "a/BUCK",
		enginetest.Target("foo", "java_library", map[string]any{
			"srcs": []any{"Foo.java", ":gen"},
			"deps": []any{"//b:bar"},
			"opts": domain.NewSelectorList(&domain.Selector{Branches: []domain.SelectorBranch{
				{Condition: "//config:linux", Value: []any{"-l"}},
				{Condition: domain.DefaultCondition, Value: []any{}},
			}}),
		}),
		enginetest.Target("gen", "genrule", map[string]any{"out": "gen.java"}),
		enginetest.Target("mac_only", "java_library", map[string]any{
			"compatible_with": []any{"//config:macos"},
		}),
		enginetest.Target("mystery", "not_a_rule", nil),
	)
	interp.AddBuildFile("root", "b/BUCK", enginetest.Target("bar", "java_library", nil))
	interp.SetPackageFile("root", &domain.PackageManifest{
		Path:          "PACKAGE",
		Visibility:    []string{"PUBLIC"},
		HasVisibility: true,
	})

	return &fixture{
		cell:     cell,
		interp:   interp,
		cells:    cells,
		state:    cache.NewState(cells, enginetest.TreeFactory{Interp: interp}),
		logger:   &enginetest.Logger{},
		listener: &enginetest.Listener{},
		platforms: enginetest.Platforms{
			Default: &domain.Platform{Name: "linux", Constraints: []domain.TargetID{linuxID}},
			Named: map[string]*domain.Platform{
				"macos": {Name: "macos", Constraints: []domain.TargetID{macosID}},
			},
		},
	}
}

func (f *fixture) pipelines(t *testing.T, platform string) *pipeline.Pipelines {
	t.Helper()
	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   f.platforms,
		Listener:    f.listener,
		Logger:      f.logger,
		Tracer:      enginetest.Tracer{},
		Parallelism: 4,
		Platform:    platform,
	})
	t.Cleanup(p.Close)
	return p
}

func getNode(t *testing.T, p *pipeline.Pipelines, id domain.TargetID) *domain.TargetNode {
	t.Helper()
	n, err := p.TargetNodes.Get(t.Context(), id)
	require.NoError(t, err)
	node, ok := n.(*domain.TargetNode)
	require.True(t, ok, "expected a configured node, got %T", n)
	return node
}

func TestTargetNodePipeline_Configure(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	p := f.pipelines(t, "")

	node := getNode(t, p, fooID)

	assert.Equal(t, fooID, node.ID)
	assert.Equal(t, "java_library", node.Rule.Name)
	assert.Equal(t, []domain.TargetID{barID}, node.DeclaredDeps)
	assert.Equal(t, []domain.TargetID{domain.NewTargetID("root", "a", "gen")}, node.ExtraDeps)
	assert.Equal(t, []domain.TargetID{linuxID}, node.ConfigDeps)
	assert.Equal(t, []string{"a/Foo.java"}, node.Inputs)
	assert.Equal(t, []string{"PUBLIC"}, node.Visibility)
	assert.Equal(t, []any{"-l"}, node.Args["opts"])
	assert.Equal(t, "linux", node.Platform)
	assert.Equal(t, "a/BUCK", node.BuildFile)

	assert.Contains(t, f.listener.Created, fooID)
	assert.True(t, f.state.IsConfigurationBuildFile("root", "config/BUCK"))
	assert.False(t, f.state.IsConfigurationBuildFile("root", "a/BUCK"))
}

func TestTargetNodePipeline_Incompatible(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	p := f.pipelines(t, "")

	id := domain.NewTargetID("root", "a", "mac_only")
	n, err := p.TargetNodes.Get(t.Context(), id)
	require.NoError(t, err)

	incompatible, ok := n.(*domain.IncompatibleNode)
	require.True(t, ok)
	assert.Equal(t, "linux", incompatible.Platform)
	assert.Equal(t, []string{"//config:macos"}, incompatible.CompatibleWith)
	assert.NotContains(t, f.listener.Created, id)
}

func TestTargetNodePipeline_PlatformOverride(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)

	linuxNode := getNode(t, f.pipelines(t, ""), fooID)

	p := f.pipelines(t, "macos")
	macNode := getNode(t, p, fooID)
	assert.Equal(t, "macos", macNode.Platform)
	assert.Equal(t, []any{}, macNode.Args["opts"])
	assert.NotSame(t, linuxNode, macNode)

	getNode(t, p, domain.NewTargetID("root", "a", "mac_only"))

	// The override never pollutes the shared cache.
	cached, ok := f.state.LookupNode(f.cell, fooID, f.state.Token())
	require.True(t, ok)
	assert.Same(t, linuxNode, cached)
}

func TestTargetNodePipeline_AsksResolverForRequestedPlatform(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockPlatformResolver(ctrl)
	macOnly := domain.NewTargetID("root", "a", "mac_only")
	resolver.EXPECT().
		TargetPlatform(gomock.Any(), gomock.Any(), "macos").
		DoAndReturn(func(_ context.Context, unconf *domain.UnconfiguredNode, _ string) (*domain.Platform, error) {
			assert.Equal(t, macOnly, unconf.ID)
			return &domain.Platform{Name: "macos", Constraints: []domain.TargetID{macosID}}, nil
		})

	f := newFixture(domain.EnforceBoundaries)
	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   resolver,
		Listener:    f.listener,
		Logger:      f.logger,
		Tracer:      enginetest.Tracer{},
		Parallelism: 1,
		Platform:    "macos",
	})
	defer p.Close()

	node := getNode(t, p, macOnly)
	assert.Equal(t, "macos", node.Platform)
}

func TestTargetNodePipeline_PlatformResolverError(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockPlatformResolver(ctrl)
	resolver.EXPECT().TargetPlatform(gomock.Any(), gomock.Any(), "").Return(nil, errBoom)

	f := newFixture(domain.EnforceBoundaries)
	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   resolver,
		Listener:    f.listener,
		Logger:      f.logger,
		Tracer:      enginetest.Tracer{},
		Parallelism: 1,
	})
	defer p.Close()

	_, err := p.TargetNodes.Get(t.Context(), barID)
	require.ErrorIs(t, err, errBoom)
	_, ok := f.state.LookupNode(f.cell, barID, f.state.Token())
	assert.False(t, ok)
}

func TestManifestPipeline_Spans(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	tracer.EXPECT().Start(gomock.Any(), "parse build file").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) { return ctx, span }).
		Times(2)
	span.EXPECT().SetAttribute("cell", "root").Times(2)
	span.EXPECT().SetAttribute("build_file", "b/BUCK")
	span.EXPECT().SetAttribute("build_file", "missing/BUCK")
	span.EXPECT().SetAttribute("targets", 1)
	span.EXPECT().RecordError(gomock.Any())
	span.EXPECT().End().Times(2)

	f := newFixture(domain.EnforceBoundaries)
	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   f.platforms,
		Listener:    f.listener,
		Logger:      f.logger,
		Tracer:      tracer,
		Parallelism: 1,
	})
	defer p.Close()

	m, err := p.Manifests.Get(t.Context(), f.cell, "b/BUCK")
	require.NoError(t, err)
	assert.Equal(t, []string{"bar"}, m.Order)

	_, err = p.Manifests.Get(t.Context(), f.cell, "missing/BUCK")
	require.Error(t, err)
}

func TestTargetNodePipeline_ReusesDaemonicCacheAcrossSessions(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)

	first := f.pipelines(t, "")
	node := getNode(t, first, fooID)
	first.Close()

	second := f.pipelines(t, "")
	again := getNode(t, second, fooID)

	assert.Same(t, node, again)
	assert.Equal(t, 1, f.interp.ParseCount("root", "a/BUCK"))
}

func TestTargetNodePipeline_Flavored(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	p := f.pipelines(t, "")

	id := domain.NewTargetID("root", "a", "foo", "shared")
	node := getNode(t, p, id)
	assert.Equal(t, id, node.ID)
	assert.Equal(t, []domain.TargetID{barID}, node.DeclaredDeps)
}

func TestTargetNodePipeline_Errors(t *testing.T) {
	tests := []struct {
		name    string
		target  domain.TargetID
		wantErr error
	}{
		{name: "unknown rule", target: domain.NewTargetID("root", "a", "mystery"), wantErr: domain.ErrUnknownRule},
		{name: "missing target", target: domain.NewTargetID("root", "a", "nope"), wantErr: domain.ErrTargetNotFound},
		{name: "missing build file", target: domain.NewTargetID("root", "c", "x"), wantErr: domain.ErrBuildFileNotFound},
		{name: "unknown cell", target: domain.NewTargetID("other", "c", "x"), wantErr: domain.ErrUnknownCell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(domain.EnforceBoundaries)
			p := f.pipelines(t, "")
			_, err := p.TargetNodes.Get(t.Context(), tt.target)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTargetNodePipeline_Boundaries(t *testing.T) {
	tests := []struct {
		name        string
		enforcement domain.BoundaryEnforcement
		src         string
		wantErr     bool
		wantWarn    bool
	}{
		{name: "enforced package boundary", enforcement: domain.EnforceBoundaries, src: "sub/X.java", wantErr: true},
		{name: "relaxed package boundary", enforcement: domain.WarnBoundaries, src: "sub/X.java", wantWarn: true},
		{name: "enforced cell boundary", enforcement: domain.EnforceBoundaries, src: "../../outside.java", wantErr: true},
		{name: "parent reference", enforcement: domain.EnforceBoundaries, src: "../b/Y.java", wantErr: true},
		{name: "disabled checks", enforcement: domain.DisableBoundaries, src: "sub/X.java"},
		{name: "nested directory without build file", enforcement: domain.EnforceBoundaries, src: "res/x.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.enforcement)
			f.interp.AddBuildFile("root", "a/sub/BUCK", enginetest.Target("inner", "filegroup", nil))
			f.interp.AddBuildFile("root", "a/BUCK", enginetest.Target("lib", "filegroup", map[string]any{
				"srcs": []any{tt.src},
			}))
			p := f.pipelines(t, "")

			_, err := p.TargetNodes.Get(t.Context(), domain.NewTargetID("root", "a", "lib"))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrBoundaryViolation)
				assert.Contains(t, err.Error(), "when resolving attribute srcs of root//a:lib")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWarn, len(f.logger.Warns) > 0)
		})
	}
}

func TestTargetNodePipeline_ListenerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := mocks.NewMockNodeListener(ctrl)
	listener.EXPECT().OnCreate("b/BUCK", gomock.Any()).Return(errBoom)

	f := newFixture(domain.EnforceBoundaries)
	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   f.platforms,
		Listener:    listener,
		Logger:      f.logger,
		Tracer:      enginetest.Tracer{},
		Parallelism: 1,
	})
	defer p.Close()

	_, err := p.TargetNodes.Get(t.Context(), barID)
	require.ErrorIs(t, err, errBoom)

	_, ok := f.state.LookupNode(f.cell, barID, f.state.Token())
	assert.False(t, ok, "failed nodes are never cached")
}

func TestManifestPipeline_ConcurrentRequestsShareOneParse(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	f.interp.Gate = make(chan struct{})
	p := f.pipelines(t, "")

	jobs := make([]*pipeline.Job[*domain.BuildFileManifest], 8)
	for i := range jobs {
		jobs[i] = p.Manifests.GetJob(t.Context(), f.cell, "a/BUCK")
	}
	close(f.interp.Gate)

	for _, j := range jobs {
		m, err := j.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "a/BUCK", m.Path)
	}
	assert.Equal(t, 1, f.interp.ParseCount("root", "a/BUCK"))
}

func TestPipelines_CloseRejectsNewWork(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	p := f.pipelines(t, "")
	p.Close()

	_, err := p.TargetNodes.Get(t.Context(), fooID)
	require.ErrorIs(t, err, domain.ErrCancelled)
	assert.Zero(t, f.interp.ParseCount("root", "a/BUCK"))
}

func TestPackagePipeline(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	f.interp.SetPackageFile("root", &domain.PackageManifest{
		Path:          "a/b/PACKAGE",
		WithinView:    []string{"//a/..."},
		HasWithinView: true,
	})
	p := f.pipelines(t, "")

	pkg, err := p.Packages.Get(t.Context(), f.cell, "a/b/c/BUCK")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c/PACKAGE", pkg.File)
	assert.Equal(t, "a/b/PACKAGE", pkg.Parent)
	assert.Equal(t, []string{"PUBLIC"}, pkg.Visibility)
	assert.Equal(t, []string{"//a/..."}, pkg.WithinView)

	for _, file := range []string{"PACKAGE", "a/PACKAGE", "a/b/PACKAGE", "a/b/c/PACKAGE"} {
		assert.Equal(t, 1, f.interp.ParseCount("root", file), file)
	}

	// A parent change invalidates every resolved descendant.
	f.state.InvalidatePaths("root", []string{"PACKAGE"})
	_, ok := f.state.LookupPackage(f.cell, "a/b/c/PACKAGE", f.state.Token())
	assert.False(t, ok)
}

func TestPackagePipeline_Disabled(t *testing.T) {
	f := newFixture(domain.EnforceBoundaries)
	f.cell.PackageFiles = false
	p := f.pipelines(t, "")

	pkg, err := p.Packages.Get(t.Context(), f.cell, "a/BUCK")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyPackage("a/PACKAGE"), pkg)
	assert.Zero(t, f.interp.ParseCount("root", "PACKAGE"))
}
