package app

import (
	"bytes"
	"errors"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/adapters/config"
	"go.trai.ch/tgraph/internal/adapters/detector"
	"go.trai.ch/tgraph/internal/adapters/fs"
	"go.trai.ch/tgraph/internal/adapters/starlark"
	"go.trai.ch/tgraph/internal/adapters/telemetry"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type testApp struct {
	app       *App
	out       *bytes.Buffer
	log       *mocks.MockLogger
	connector *mocks.MockDaemonConnector
	root      string
}

func newTestApp(t *testing.T, files map[string]string) *testApp {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, files)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	connector := mocks.NewMockDaemonConnector(ctrl)

	walker := fs.NewWalker()
	watchers := func() (ports.Watcher, error) { return newFakeWatcher(), nil }
	a := New(
		config.NewLoader(log),
		log,
		telemetry.NewNoOpTracer(),
		starlark.New(fs.NewGlobber(walker), domain.KnownRules()),
		fs.NewTreeFactory(walker),
		fs.NewSymlinkTracker(),
		connector,
		watchers,
	)
	var out bytes.Buffer
	a.WithWorkDir(root).WithOutput(&out, termenv.Ascii)
	return &testApp{app: a, out: &out, log: log, connector: connector, root: root}
}

func TestApp_GraphLocal(t *testing.T) {
	ta := newTestApp(t, fixture)

	err := ta.app.Graph(t.Context(), []string{"//:app"}, GraphOptions{Output: detector.ModePlain.String()})
	require.NoError(t, err)
	assert.Equal(t, "root//:app\nroot//lib:lib\n", ta.out.String())
}

func TestApp_GraphNoTargets(t *testing.T) {
	ta := newTestApp(t, fixture)

	err := ta.app.Graph(t.Context(), nil, GraphOptions{})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}

func TestApp_GraphInvalidOutput(t *testing.T) {
	ta := newTestApp(t, fixture)

	err := ta.app.Graph(t.Context(), []string{"//:app"}, GraphOptions{Output: "yaml"})
	require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
}

func TestApp_GraphConfigMissing(t *testing.T) {
	ta := newTestApp(t, map[string]string{"BUCK": ""})

	err := ta.app.Graph(t.Context(), []string{"//:app"}, GraphOptions{})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_GraphViaDaemon(t *testing.T) {
	ta := newTestApp(t, fixture)
	client := mocks.NewMockDaemonClient(gomock.NewController(t))

	ta.connector.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(client, nil)
	client.EXPECT().Graph(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, req *ports.GraphRequest) (*ports.GraphResponse, error) {
			assert.Equal(t, []string{"//:app"}, req.Targets)
			assert.Equal(t, ta.root, req.Cwd)
			assert.Equal(t, "linux", req.Platform)
			return &ports.GraphResponse{Nodes: []ports.GraphNode{{Target: "root//:app"}}}, nil
		})
	client.EXPECT().Close().Return(nil)

	err := ta.app.Graph(t.Context(), []string{"//:app"}, GraphOptions{
		Daemon:   true,
		Platform: "linux",
		Output:   detector.ModePlain.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "root//:app\n", ta.out.String())
}

func TestApp_GraphViaDaemonError(t *testing.T) {
	ta := newTestApp(t, fixture)
	spawnErr := errors.New("boom")

	ta.connector.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil, spawnErr)

	err := ta.app.Graph(t.Context(), []string{"//:app"}, GraphOptions{Daemon: true})
	require.ErrorIs(t, err, spawnErr)
}

func TestApp_DaemonStatusNotRunning(t *testing.T) {
	ta := newTestApp(t, fixture)

	ta.connector.EXPECT().IsRunning(gomock.Any()).Return(false)
	ta.log.EXPECT().Info("daemon is not running")

	require.NoError(t, ta.app.DaemonStatus(t.Context()))
	assert.Empty(t, ta.out.String())
}

func TestApp_DaemonStatus(t *testing.T) {
	ta := newTestApp(t, fixture)
	client := mocks.NewMockDaemonClient(gomock.NewController(t))

	ta.connector.EXPECT().IsRunning(gomock.Any()).Return(true)
	ta.connector.EXPECT().Dial(gomock.Any()).Return(client, nil)
	client.EXPECT().Status(gomock.Any()).Return(&ports.DaemonStatus{
		Running:  true,
		PID:      42,
		Counters: domain.Counters{FilesChanged: 3},
		Cache:    []domain.CacheStats{{Cell: "root", Manifests: 2, Packages: 1, Nodes: 5}},
	}, nil)
	client.EXPECT().Close().Return(nil)

	require.NoError(t, ta.app.DaemonStatus(t.Context()))
	assert.Contains(t, ta.out.String(), "pid:            42\n")
	assert.Contains(t, ta.out.String(), "files changed:  3\n")
	assert.Contains(t, ta.out.String(), "cell root: 2 build files, 1 packages, 5 nodes\n")
}

func TestApp_StopDaemon(t *testing.T) {
	ta := newTestApp(t, fixture)
	client := mocks.NewMockDaemonClient(gomock.NewController(t))

	ta.connector.EXPECT().IsRunning(gomock.Any()).Return(true)
	ta.connector.EXPECT().Dial(gomock.Any()).Return(client, nil)
	client.EXPECT().Shutdown(gomock.Any()).Return(nil)
	client.EXPECT().Close().Return(nil)
	ta.log.EXPECT().Info("daemon stopped")

	require.NoError(t, ta.app.StopDaemon(t.Context()))
}

func TestApp_StopDaemonNotRunning(t *testing.T) {
	ta := newTestApp(t, fixture)

	ta.connector.EXPECT().IsRunning(gomock.Any()).Return(false)
	ta.log.EXPECT().Info("daemon is not running")

	require.NoError(t, ta.app.StopDaemon(t.Context()))
}
