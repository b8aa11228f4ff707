package app

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/adapters/config"
	"go.trai.ch/tgraph/internal/adapters/fs"
	"go.trai.ch/tgraph/internal/adapters/starlark"
	"go.trai.ch/tgraph/internal/adapters/telemetry"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func newTestProcess(t *testing.T, files map[string]string) (*ProcessContext, *domain.Workspace, *fs.SymlinkTracker) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	ws, err := config.NewLoader(log).Load(root)
	require.NoError(t, err)

	walker := fs.NewWalker()
	symlinks := fs.NewSymlinkTracker()
	pc := NewProcessContext(ws, ProcessDeps{
		Logger:      log,
		Tracer:      telemetry.NewNoOpTracer(),
		Interpreter: starlark.New(fs.NewGlobber(walker), domain.KnownRules()),
		Trees:       fs.NewTreeFactory(walker),
		Symlinks:    symlinks,
	})
	return pc, ws, symlinks
}

func nodesByTarget(resp *ports.GraphResponse) map[string]ports.GraphNode {
	out := make(map[string]ports.GraphNode, len(resp.Nodes))
	for _, n := range resp.Nodes {
		out[n.Target] = n
	}
	return out
}

var fixture = map[string]string{
	domain.WorkspaceFileName: "root_cell: root\n",
	"BUCK":                   `java_library(name = "app", srcs = ["App.java"], deps = ["//lib:lib"])`,
	"App.java":               "",
	"lib/BUCK":               `java_library(name = "lib", srcs = glob(["*.java"]))`,
	"lib/Lib.java":           "",
}

func TestProcessContext_Graph(t *testing.T) {
	pc, ws, _ := newTestProcess(t, fixture)

	resp, err := pc.Graph(t.Context(), &ports.GraphRequest{Targets: []string{"//:app"}, Cwd: ws.Root})
	require.NoError(t, err)

	nodes := nodesByTarget(resp)
	require.Len(t, nodes, 2)
	assert.Equal(t, "java_library", nodes["root//:app"].Rule)
	assert.Equal(t, "BUCK", nodes["root//:app"].BuildFile)
	assert.Equal(t, []string{"root//lib:lib"}, nodes["root//:app"].Deps)
	assert.Empty(t, nodes["root//lib:lib"].Deps)
	assert.Equal(t, "lib/BUCK", nodes["root//lib:lib"].BuildFile)

	assert.Equal(t, []domain.CellName{"root"}, pc.TouchedCells())
	require.Len(t, pc.Stats(), 1)
	assert.Equal(t, 2, pc.Stats()[0].Nodes)
}

func TestProcessContext_GraphRelativeToCwd(t *testing.T) {
	pc, ws, _ := newTestProcess(t, fixture)

	resp, err := pc.Graph(t.Context(), &ports.GraphRequest{
		Targets: []string{":lib"},
		Cwd:     filepath.Join(ws.Root, "lib"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "root//lib:lib", resp.Nodes[0].Target)
}

func TestProcessContext_GraphErrors(t *testing.T) {
	pc, ws, _ := newTestProcess(t, fixture)

	tests := []struct {
		name string
		req  *ports.GraphRequest
		want error
	}{
		{name: "no targets", req: &ports.GraphRequest{Cwd: ws.Root}, want: domain.ErrNoTargetsSpecified},
		{name: "outside every cell", req: &ports.GraphRequest{Targets: []string{"//:app"}, Cwd: t.TempDir()}, want: domain.ErrUnknownCell},
		{name: "missing target", req: &ports.GraphRequest{Targets: []string{"//lib:nope"}, Cwd: ws.Root}, want: domain.ErrTargetNotFound},
		{name: "missing build file", req: &ports.GraphRequest{Targets: []string{"//nowhere:x"}, Cwd: ws.Root}, want: domain.ErrBuildFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pc.Graph(t.Context(), tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

type fakeWatcher struct {
	mu     sync.Mutex
	root   string
	added  []string
	events chan []ports.WatchEvent
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan []ports.WatchEvent, 4)}
}

func (f *fakeWatcher) Start(_ context.Context, root string) error {
	f.root = root
	return nil
}

func (f *fakeWatcher) Add(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, dir)
	return nil
}

func (f *fakeWatcher) Added() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

func (f *fakeWatcher) Stop() error {
	close(f.events)
	return nil
}

func (f *fakeWatcher) Events() iter.Seq[[]ports.WatchEvent] {
	return func(yield func([]ports.WatchEvent) bool) {
		for batch := range f.events {
			if !yield(batch) {
				return
			}
		}
	}
}

func TestProcessContext_WatchEventsInvalidate(t *testing.T) {
	pc, ws, _ := newTestProcess(t, fixture)
	w := newFakeWatcher()

	stop, err := pc.StartWatching(t.Context(), w)
	require.NoError(t, err)
	assert.Equal(t, ws.Root, w.root)

	req := &ports.GraphRequest{Targets: []string{"//:app"}, Cwd: ws.Root}
	_, err = pc.Graph(t.Context(), req)
	require.NoError(t, err)

	writeTree(t, ws.Root, map[string]string{
		"lib/BUCK": `java_library(name = "lib", deps = [":util"])
java_library(name = "util")`,
	})
	w.events <- []ports.WatchEvent{{Path: filepath.Join(ws.Root, "lib", "BUCK"), Operation: ports.OpModify}}
	require.NoError(t, stop())

	assert.Equal(t, int64(1), pc.Counters().FilesChanged)
	assert.Positive(t, pc.Counters().RulesInvalidatedByWatchEvents)

	resp, err := pc.Graph(t.Context(), req)
	require.NoError(t, err)
	nodes := nodesByTarget(resp)
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"root//lib:util"}, nodes["root//lib:lib"].Deps)
}

func TestProcessContext_Overflow(t *testing.T) {
	pc, ws, _ := newTestProcess(t, fixture)
	w := newFakeWatcher()

	stop, err := pc.StartWatching(t.Context(), w)
	require.NoError(t, err)

	_, err = pc.Graph(t.Context(), &ports.GraphRequest{Targets: []string{"//:app"}, Cwd: ws.Root})
	require.NoError(t, err)

	w.events <- []ports.WatchEvent{{Operation: ports.OpOverflow}}
	require.NoError(t, stop())

	assert.Equal(t, int64(1), pc.Counters().CacheInvalidatedByOverflow)
	assert.Empty(t, pc.Stats())
}

func TestProcessContext_WatchesSymlinkTargets(t *testing.T) {
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"Ext.java": ""})

	pc, ws, symlinks := newTestProcess(t, map[string]string{
		domain.WorkspaceFileName: "root_cell: root\n",
		"BUCK":                   `java_library(name = "app", srcs = ["ext/Ext.java"])`,
	})
	require.NoError(t, os.Symlink(outside, filepath.Join(ws.Root, "ext")))

	w := newFakeWatcher()
	stop, err := pc.StartWatching(t.Context(), w)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stop() })

	_, err = pc.Graph(t.Context(), &ports.GraphRequest{Targets: []string{"//:app"}, Cwd: ws.Root})
	require.NoError(t, err)

	realPath := filepath.Join(outside, "Ext.java")
	link := filepath.Join(ws.Root, "ext", "Ext.java")
	assert.Equal(t, []string{link}, symlinks.LinkPaths(realPath))
	assert.Contains(t, w.Added(), outside)

	translated := pc.translate([]ports.WatchEvent{
		{Path: realPath, Operation: ports.OpModify},
		{Operation: ports.OpOverflow},
	})
	assert.Equal(t, []ports.WatchEvent{
		{Path: realPath, Operation: ports.OpModify},
		{Operation: ports.OpOverflow},
		{Path: link, Operation: ports.OpModify},
	}, translated)
}
