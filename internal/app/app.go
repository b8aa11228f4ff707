// Package app implements the application layer for tgraph.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/tgraph/internal/adapters/daemon"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

// slowSpanThreshold is how long a traced step may take in the daemon before it is logged.
const slowSpanThreshold = 2 * time.Second

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	interp       ports.Interpreter
	trees        ports.BuildFileTreeFactory
	symlinks     *fs.SymlinkTracker
	connector    ports.DaemonConnector
	watchers     watcher.Factory
	workDir      string
	stdout       io.Writer
	profile      termenv.Profile
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	interp ports.Interpreter,
	trees ports.BuildFileTreeFactory,
	symlinks *fs.SymlinkTracker,
	connector ports.DaemonConnector,
	watchers watcher.Factory,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		interp:       interp,
		trees:        trees,
		symlinks:     symlinks,
		connector:    connector,
		watchers:     watchers,
		workDir:      ".",
		stdout:       os.Stdout,
		profile:      termenv.EnvColorProfile(),
	}
}

// WithWorkDir sets the directory commands run from. Used for testing.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithOutput redirects command output and fixes its color profile. Used for testing.
func (a *App) WithOutput(w io.Writer, profile termenv.Profile) *App {
	a.stdout = w
	a.profile = profile
	return a
}

// GraphOptions configuration for the Graph method.
type GraphOptions struct {
	// Platform overrides the target platform of every node.
	Platform string
	// Daemon routes the request through the workspace daemon.
	Daemon bool
	// Output is the --output flag value.
	Output string
}

// Graph builds and prints the target graph of the given patterns.
func (a *App) Graph(ctx context.Context, targets []string, opts GraphOptions) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}
	mode, err := detector.ResolveMode(detector.DetectEnvironment(), opts.Output)
	if err != nil {
		return err
	}

	ws, cwd, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	req := &ports.GraphRequest{Targets: targets, Cwd: cwd, Platform: opts.Platform}

	var resp *ports.GraphResponse
	if opts.Daemon {
		resp, err = a.graphViaDaemon(ctx, ws, req)
	} else {
		resp, err = a.processContext(ws).Graph(ctx, req)
	}
	if err != nil {
		return err
	}
	return renderGraph(a.stdout, a.profile, mode, resp)
}

func (a *App) graphViaDaemon(ctx context.Context, ws *domain.Workspace, req *ports.GraphRequest) (*ports.GraphResponse, error) {
	client, err := a.connector.Connect(ctx, ws)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()
	return client.Graph(ctx, req)
}

// ServeDaemon runs the daemon in the foreground until it is stopped or idles out.
func (a *App) ServeDaemon(ctx context.Context) error {
	ws, _, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	shutdownTracing := telemetry.InstallProvider(telemetry.NewSlowSpanLogger(a.logger, slowSpanThreshold))
	defer func() { _ = shutdownTracing(context.Background()) }()

	pc := a.processContext(ws)
	w, err := a.watchers()
	if err != nil {
		return err
	}
	stopWatching, err := pc.StartWatching(ctx, w)
	if err != nil {
		return zerr.Wrap(err, "failed to start watching the workspace")
	}
	defer func() { _ = stopWatching() }()

	lifecycle := daemon.NewLifecycle(ws.IdleTimeout)
	return daemon.NewServer(ws, lifecycle, pc, a.logger).Serve(ctx)
}

// DaemonStatus prints the status of the workspace daemon.
func (a *App) DaemonStatus(ctx context.Context) error {
	ws, _, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	if !a.connector.IsRunning(ws) {
		a.logger.Info("daemon is not running")
		return nil
	}

	client, err := a.connector.Dial(ws)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	st, err := client.Status(ctx)
	if err != nil {
		return err
	}

	w := a.stdout
	_, _ = fmt.Fprintf(w, "pid:            %d\n", st.PID)
	_, _ = fmt.Fprintf(w, "uptime:         %s\n", st.Uptime.Round(time.Second))
	_, _ = fmt.Fprintf(w, "idle remaining: %s\n", st.IdleRemaining.Round(time.Second))
	_, _ = fmt.Fprintf(w, "files changed:  %d\n", st.Counters.FilesChanged)
	_, _ = fmt.Fprintf(w, "rules invalidated by watch events: %d\n", st.Counters.RulesInvalidatedByWatchEvents)
	_, _ = fmt.Fprintf(w, "build files invalidated by add or remove: %d\n", st.Counters.BuildFilesInvalidatedByAddOrRemove)
	_, _ = fmt.Fprintf(w, "cache invalidated by overflow: %d\n", st.Counters.CacheInvalidatedByOverflow)
	for _, c := range st.Cache {
		_, _ = fmt.Fprintf(w, "cell %s: %d build files, %d packages, %d nodes\n", c.Cell, c.Manifests, c.Packages, c.Nodes)
	}
	return nil
}

// StopDaemon asks the workspace daemon to shut down.
func (a *App) StopDaemon(ctx context.Context) error {
	ws, _, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	if !a.connector.IsRunning(ws) {
		a.logger.Info("daemon is not running")
		return nil
	}

	client, err := a.connector.Dial(ws)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Shutdown(ctx); err != nil {
		return zerr.Wrap(err, "failed to stop daemon")
	}
	a.logger.Info("daemon stopped")
	return nil
}

func (a *App) loadWorkspace() (*domain.Workspace, string, error) {
	cwd, err := filepath.Abs(a.workDir)
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to resolve working directory")
	}
	ws, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to load configuration")
	}
	return ws, cwd, nil
}

func (a *App) processContext(ws *domain.Workspace) *ProcessContext {
	return NewProcessContext(ws, ProcessDeps{
		Logger:      a.logger,
		Tracer:      a.tracer,
		Interpreter: a.interp,
		Trees:       a.trees,
		Symlinks:    a.symlinks,
	})
}
