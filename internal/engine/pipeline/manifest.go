package pipeline

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
)

type fileKey struct {
	cell domain.CellName
	path string
}

// ManifestPipeline parses build files into manifests through the interpreter.
type ManifestPipeline struct {
	state  *cache.State
	interp ports.Interpreter
	tracer ports.Tracer
	pool   *Pool
	rules  map[string]domain.RuleDescriptor
	cache  *NodeCache[fileKey, *domain.BuildFileManifest]
}

// NewManifestPipeline creates the build file stage.
func NewManifestPipeline(
	state *cache.State,
	interp ports.Interpreter,
	tracer ports.Tracer,
	pool *Pool,
	rules map[string]domain.RuleDescriptor,
) *ManifestPipeline {
	return &ManifestPipeline{
		state:  state,
		interp: interp,
		tracer: tracer,
		pool:   pool,
		rules:  rules,
		cache:  NewNodeCache[fileKey, *domain.BuildFileManifest](pool, state.Token),
	}
}

// Get returns the manifest of a cell-relative build file.
func (p *ManifestPipeline) Get(ctx context.Context, cell domain.Cell, buildFile string) (*domain.BuildFileManifest, error) {
	return p.GetJob(ctx, cell, buildFile).Await(ctx)
}

// GetJob returns the job producing the manifest of a build file.
func (p *ManifestPipeline) GetJob(ctx context.Context, cell domain.Cell, buildFile string) *Job[*domain.BuildFileManifest] {
	return p.cache.GetJob(ctx, fileKey{cell: cell.Name, path: buildFile}, Loader[*domain.BuildFileManifest]{
		Lookup: func(token domain.ValidationToken) (*domain.BuildFileManifest, bool) {
			return p.state.LookupManifest(cell, buildFile, token)
		},
		Compute: func(ctx context.Context, token domain.ValidationToken) (*domain.BuildFileManifest, error) {
			return p.compute(ctx, cell, buildFile, token)
		},
	})
}

func (p *ManifestPipeline) compute(
	ctx context.Context,
	cell domain.Cell,
	buildFile string,
	token domain.ValidationToken,
) (*domain.BuildFileManifest, error) {
	ctx, span := p.tracer.Start(ctx, "parse build file")
	defer span.End()
	span.SetAttribute("cell", cell.Name.String())
	span.SetAttribute("build_file", buildFile)

	var manifest *domain.BuildFileManifest
	err := p.pool.Do(ctx, func() error {
		var err error
		manifest, err = p.interp.ParseBuildFile(ctx, cell, buildFile)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("targets", len(manifest.Targets))

	for _, raw := range manifest.Targets {
		if rule, ok := p.rules[raw.RuleType]; ok && rule.Kind.IsConfiguration() {
			p.state.MarkConfigurationBuildFile(cell.Name, buildFile)
			break
		}
	}
	return p.state.InsertManifestIfAbsent(cell, buildFile, manifest, token), nil
}
