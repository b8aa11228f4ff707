package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tgraph/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/daemon"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/starlark"  //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			starlark.NodeID,
			fs.TreeFactoryNodeID,
			fs.SymlinkTrackerNodeID,
			daemon.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	interp, err := graft.Dep[ports.Interpreter](ctx)
	if err != nil {
		return nil, err
	}
	trees, err := graft.Dep[ports.BuildFileTreeFactory](ctx)
	if err != nil {
		return nil, err
	}
	symlinks, err := graft.Dep[*fs.SymlinkTracker](ctx)
	if err != nil {
		return nil, err
	}
	connector, err := graft.Dep[ports.DaemonConnector](ctx)
	if err != nil {
		return nil, err
	}
	watchers, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, log, tracer, interp, trees, symlinks, connector, watchers), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	return &Components{App: app, Logger: log, ConfigLoader: loader}, nil
}
