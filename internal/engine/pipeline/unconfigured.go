package pipeline

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

// UnconfiguredPipeline extracts one target of a manifest. It does no IO of its own.
type UnconfiguredPipeline struct {
	cells     ports.CellResolver
	manifests *ManifestPipeline
	cache     *NodeCache[domain.TargetID, *domain.UnconfiguredNode]
}

// NewUnconfiguredPipeline creates the unconfigured node stage.
func NewUnconfiguredPipeline(cells ports.CellResolver, manifests *ManifestPipeline, pool *Pool) *UnconfiguredPipeline {
	return &UnconfiguredPipeline{
		cells:     cells,
		manifests: manifests,
		cache:     NewNodeCache[domain.TargetID, *domain.UnconfiguredNode](pool, manifests.state.Token),
	}
}

// Get returns the unconfigured node of a target. Flavors are ignored.
func (p *UnconfiguredPipeline) Get(ctx context.Context, target domain.TargetID) (*domain.UnconfiguredNode, error) {
	return p.GetJob(ctx, target).Await(ctx)
}

// GetJob returns the job producing the unconfigured node of a target.
func (p *UnconfiguredPipeline) GetJob(ctx context.Context, target domain.TargetID) *Job[*domain.UnconfiguredNode] {
	target = target.Unflavored()
	return p.cache.GetJob(ctx, target, Loader[*domain.UnconfiguredNode]{
		Compute: func(ctx context.Context, _ domain.ValidationToken) (*domain.UnconfiguredNode, error) {
			return p.compute(ctx, target)
		},
	})
}

func (p *UnconfiguredPipeline) compute(ctx context.Context, target domain.TargetID) (*domain.UnconfiguredNode, error) {
	cell, err := p.cells.Resolve(target.Cell)
	if err != nil {
		return nil, err
	}
	buildFile := cell.BuildFilePath(target.BasePath.String())
	manifest, err := p.manifests.Get(ctx, cell, buildFile)
	if err != nil {
		return nil, err
	}
	raw, ok := manifest.Target(target.Name.String())
	if !ok {
		err := domain.Tagged(domain.ErrTargetNotFound, "target", target.String())
		return nil, zerr.With(err, "build_file", buildFile)
	}
	return &domain.UnconfiguredNode{
		ID:        target,
		RuleType:  raw.RuleType,
		Attrs:     raw.Attrs,
		BuildFile: buildFile,
	}, nil
}
