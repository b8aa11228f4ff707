// Package session provides the per-invocation façade over the daemonic cache.
package session

import (
	"context"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/graph"
	"go.trai.ch/tgraph/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// Params is the immutable snapshot of one build invocation.
type Params struct {
	// Cell is the cell containing the working directory.
	Cell domain.CellName
	// BasePath is the working directory relative to the cell root.
	BasePath    string
	Parallelism int
	// Platform overrides every node's default target platform when set.
	Platform string
}

// Factory opens sessions over a shared daemonic cache state.
type Factory struct {
	state     *cache.State
	cells     ports.CellResolver
	interp    ports.Interpreter
	platforms ports.PlatformResolver
	listener  ports.NodeListener
	logger    ports.Logger
	tracer    ports.Tracer
}

// NewFactory creates a session factory.
func NewFactory(
	state *cache.State,
	cells ports.CellResolver,
	interp ports.Interpreter,
	platforms ports.PlatformResolver,
	listener ports.NodeListener,
	logger ports.Logger,
	tracer ports.Tracer,
) *Factory {
	return &Factory{
		state:     state,
		cells:     cells,
		interp:    interp,
		platforms: platforms,
		listener:  listener,
		logger:    logger,
		tracer:    tracer,
	}
}

// State returns the daemonic cache state shared by every session.
func (f *Factory) State() *cache.State {
	return f.state
}

// Open starts a session. The working-directory cell must be configured.
func (f *Factory) Open(ctx context.Context, params Params) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}
	cell, err := f.cells.Resolve(params.Cell)
	if err != nil {
		return nil, err
	}
	if params.Parallelism <= 0 {
		params.Parallelism = runtime.NumCPU()
	}

	p := pipeline.New(pipeline.Options{
		State:       f.state,
		Cells:       f.cells,
		Interpreter: f.interp,
		Platforms:   f.platforms,
		Listener:    f.listener,
		Logger:      f.logger,
		Tracer:      f.tracer,
		Parallelism: params.Parallelism,
		Platform:    params.Platform,
	})
	return &Session{
		params:    params,
		cell:      cell,
		cells:     f.cells,
		pipelines: p,
		builder:   graph.NewBuilder(p.TargetNodes, f.logger, f.tracer),
	}, nil
}

// Session is one build invocation. It is not shared between invocations.
type Session struct {
	params    Params
	cell      domain.Cell
	cells     ports.CellResolver
	pipelines *pipeline.Pipelines
	builder   *graph.Builder
	closeOnce sync.Once
}

// Params returns the session's build parameters.
func (s *Session) Params() Params {
	return s.params
}

// Pipelines exposes the session's computation stages.
func (s *Session) Pipelines() *pipeline.Pipelines {
	return s.pipelines
}

// BuildTargetGraph resolves target specifications relative to the working
// directory and builds the graph of everything they reach.
//
// A specification is a target label ("cell//a:foo", "//a:foo", ":foo", "//a")
// or a package wildcard ("//a:") naming every target declared in a build file.
func (s *Session) BuildTargetGraph(ctx context.Context, specs []string) (*domain.TargetGraph, error) {
	if s.pipelines.Pool.ShuttingDown() {
		return nil, domain.Cancelled(context.Canceled)
	}
	roots, err := s.ResolveSpecs(ctx, specs)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, roots)
}

// ResolveSpecs turns target specifications into concrete, deduplicated targets.
func (s *Session) ResolveSpecs(ctx context.Context, specs []string) ([]domain.TargetID, error) {
	var roots []domain.TargetID
	for _, spec := range specs {
		if pkg, ok := strings.CutSuffix(spec, ":"); ok {
			targets, err := s.packageTargets(ctx, spec, pkg)
			if err != nil {
				return nil, err
			}
			roots = append(roots, targets...)
			continue
		}
		id, err := domain.ParseRelativeTarget(spec, s.cell.Name, s.params.BasePath)
		if err != nil {
			return nil, err
		}
		roots = append(roots, id)
	}
	slices.SortFunc(roots, domain.TargetID.Compare)
	return slices.Compact(roots), nil
}

func (s *Session) packageTargets(ctx context.Context, spec, pkg string) ([]domain.TargetID, error) {
	cellName, basePath, err := s.parsePackage(spec, pkg)
	if err != nil {
		return nil, err
	}
	cell, err := s.cells.Resolve(cellName)
	if err != nil {
		return nil, err
	}
	manifest, err := s.pipelines.Manifests.Get(ctx, cell, cell.BuildFilePath(basePath))
	if err != nil {
		return nil, zerr.With(err, "spec", spec)
	}
	targets := make([]domain.TargetID, 0, len(manifest.Order))
	for _, name := range manifest.Order {
		targets = append(targets, domain.NewTargetID(cell.Name, basePath, name))
	}
	return targets, nil
}

// parsePackage splits the package part of a wildcard spec into cell and base path.
func (s *Session) parsePackage(spec, pkg string) (domain.CellName, string, error) {
	switch {
	case pkg == "":
		return s.cell.Name, s.params.BasePath, nil
	case strings.HasSuffix(pkg, "//"):
		cell := domain.CellName(strings.TrimSuffix(pkg, "//"))
		if cell == "" {
			cell = s.cell.Name
		}
		return cell, "", nil
	}
	id, err := domain.ParseRelativeTarget(pkg, s.cell.Name, s.params.BasePath)
	if err != nil {
		return "", "", domain.Tagged(domain.ErrInvalidTarget, "target", spec)
	}
	return id.Cell, id.BasePath.String(), nil
}

// Close rejects new work and waits for in-flight computations. Entries written
// through to the daemonic cache outlive the session.
func (s *Session) Close() {
	s.closeOnce.Do(s.pipelines.Close)
}
