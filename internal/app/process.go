package app

import (
	"context"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/tgraph/internal/adapters/cells"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/fs"       //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/adapters/platform" //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/session"
	"go.trai.ch/zerr"
)

// ProcessDeps are the process-wide collaborators of a ProcessContext.
type ProcessDeps struct {
	Logger      ports.Logger
	Tracer      ports.Tracer
	Interpreter ports.Interpreter
	Trees       ports.BuildFileTreeFactory
	Symlinks    *fs.SymlinkTracker
}

// ProcessContext owns everything that outlives a single build: the cell
// registry, the daemonic cache and the session factory. A daemon keeps one
// for its whole life; a one-shot command creates one per invocation.
type ProcessContext struct {
	ws       *domain.Workspace
	logger   ports.Logger
	cells    *cells.Registry
	symlinks *fs.SymlinkTracker
	state    *cache.State
	factory  *session.Factory
}

// NewProcessContext wires the engine for a loaded workspace.
func NewProcessContext(ws *domain.Workspace, deps ProcessDeps) *ProcessContext {
	symlinks := deps.Symlinks
	if symlinks == nil {
		symlinks = fs.NewSymlinkTracker()
	}
	registry := cells.NewRegistry(ws, symlinks)
	state := cache.NewState(registry, deps.Trees)
	factory := session.NewFactory(
		state,
		registry,
		deps.Interpreter,
		platform.NewStaticResolver(ws),
		registry,
		deps.Logger,
		deps.Tracer,
	)
	return &ProcessContext{
		ws:       ws,
		logger:   deps.Logger,
		cells:    registry,
		symlinks: symlinks,
		state:    state,
		factory:  factory,
	}
}

// State returns the daemonic cache.
func (p *ProcessContext) State() *cache.State {
	return p.state
}

// Counters implements daemon.Backend.
func (p *ProcessContext) Counters() domain.Counters {
	return p.state.Counters()
}

// Stats implements daemon.Backend.
func (p *ProcessContext) Stats() []domain.CacheStats {
	return p.state.Stats()
}

// Graph builds the target graph of the requested patterns, interpreting them
// relative to the request's working directory.
func (p *ProcessContext) Graph(ctx context.Context, req *ports.GraphRequest) (*ports.GraphResponse, error) {
	if len(req.Targets) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	cwd := req.Cwd
	if cwd == "" {
		cwd = p.ws.Root
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve working directory")
	}
	cell, rel, ok := p.ws.CellFor(abs)
	if !ok {
		return nil, domain.Tagged(domain.ErrUnknownCell, "cwd", abs)
	}

	sess, err := p.factory.Open(ctx, session.Params{
		Cell:        cell.Name,
		BasePath:    rel,
		Parallelism: p.ws.Parallelism,
		Platform:    req.Platform,
	})
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	graph, err := sess.BuildTargetGraph(ctx, req.Targets)
	if err != nil {
		return nil, err
	}
	return toResponse(graph), nil
}

// TouchedCells lists the cells resolved since the process started.
func (p *ProcessContext) TouchedCells() []domain.CellName {
	return p.cells.Touched()
}

// StartWatching feeds filesystem changes under every cell to the cache.
// Symlink targets discovered while parsing are watched as they appear and
// their events are reported under the in-cell path. The returned function
// stops the watcher and waits for pending invalidations.
func (p *ProcessContext) StartWatching(ctx context.Context, w ports.Watcher) (stop func() error, err error) {
	if err := w.Start(ctx, p.ws.Root); err != nil {
		return nil, err
	}
	for _, cell := range p.ws.Cells {
		if _, inside := (domain.Cell{Root: p.ws.Root}).RelPath(cell.Root); inside {
			continue
		}
		if err := w.Add(cell.Root); err != nil {
			_ = w.Stop()
			return nil, err
		}
	}
	p.symlinks.SetWatchFunc(w.Add)

	var wg sync.WaitGroup
	wg.Go(func() {
		for batch := range w.Events() {
			p.state.InvalidateBasedOn(p.translate(batch))
		}
	})

	return func() error {
		p.symlinks.SetWatchFunc(nil)
		err := w.Stop()
		wg.Wait()
		return err
	}, nil
}

// translate adds in-cell aliases for events under symlink targets.
func (p *ProcessContext) translate(batch []ports.WatchEvent) []ports.WatchEvent {
	out := slices.Clone(batch)
	for _, ev := range batch {
		if ev.Operation == ports.OpOverflow {
			continue
		}
		for _, link := range p.symlinks.LinkPaths(ev.Path) {
			out = append(out, ports.WatchEvent{Path: link, Operation: ev.Operation})
		}
	}
	return out
}

func toResponse(graph *domain.TargetGraph) *ports.GraphResponse {
	resp := &ports.GraphResponse{Nodes: make([]ports.GraphNode, 0, graph.Len())}
	for _, id := range graph.Nodes() {
		node, _ := graph.Get(id)
		out := ports.GraphNode{
			Target:    id.String(),
			Rule:      node.Rule.Name,
			BuildFile: node.BuildFile,
			Platform:  node.Platform,
		}
		for _, dep := range graph.OutgoingEdges(id) {
			out.Deps = append(out.Deps, dep.String())
		}
		slices.Sort(out.Deps)
		resp.Nodes = append(resp.Nodes, out)
	}
	return resp
}
