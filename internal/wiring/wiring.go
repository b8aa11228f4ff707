// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tgraph/internal/adapters/config"
	_ "go.trai.ch/tgraph/internal/adapters/daemon"
	_ "go.trai.ch/tgraph/internal/adapters/fs"
	_ "go.trai.ch/tgraph/internal/adapters/logger"
	_ "go.trai.ch/tgraph/internal/adapters/starlark"
	_ "go.trai.ch/tgraph/internal/adapters/telemetry"
	_ "go.trai.ch/tgraph/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/tgraph/internal/app"
)
