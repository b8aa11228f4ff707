package pipeline

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
)

// PackagePipeline resolves the chain of PACKAGE files above a build file.
// Each level is resolved after its parent and merged over it.
type PackagePipeline struct {
	state  *cache.State
	interp ports.Interpreter
	tracer ports.Tracer
	pool   *Pool
	cache  *NodeCache[fileKey, *domain.Package]
}

// NewPackagePipeline creates the package stage.
func NewPackagePipeline(state *cache.State, interp ports.Interpreter, tracer ports.Tracer, pool *Pool) *PackagePipeline {
	return &PackagePipeline{
		state:  state,
		interp: interp,
		tracer: tracer,
		pool:   pool,
		cache:  NewNodeCache[fileKey, *domain.Package](pool, state.Token),
	}
}

// Get returns the package governing a build file. With package files disabled
// it is an empty package without a parent.
func (p *PackagePipeline) Get(ctx context.Context, cell domain.Cell, buildFile string) (*domain.Package, error) {
	return p.GetJob(ctx, cell, buildFile).Await(ctx)
}

// GetJob returns the job resolving the package governing a build file.
func (p *PackagePipeline) GetJob(ctx context.Context, cell domain.Cell, buildFile string) *Job[*domain.Package] {
	packageFile := domain.PackageFileFor(buildFile)
	if !cell.PackageFiles {
		return Completed(domain.EmptyPackage(packageFile))
	}
	return p.packageJob(ctx, cell, packageFile)
}

func (p *PackagePipeline) packageJob(ctx context.Context, cell domain.Cell, packageFile string) *Job[*domain.Package] {
	return p.cache.GetJob(ctx, fileKey{cell: cell.Name, path: packageFile}, Loader[*domain.Package]{
		Compute: func(ctx context.Context, token domain.ValidationToken) (*domain.Package, error) {
			return p.compute(ctx, cell, packageFile, token)
		},
	})
}

func (p *PackagePipeline) compute(
	ctx context.Context,
	cell domain.Cell,
	packageFile string,
	token domain.ValidationToken,
) (*domain.Package, error) {
	parentFile := domain.ParentPackageFile(packageFile)
	var parent *domain.Package
	if parentFile != "" {
		var err error
		parent, err = p.packageJob(ctx, cell, parentFile).Await(ctx)
		if err != nil {
			return nil, err
		}
	}

	own, err := p.manifest(ctx, cell, packageFile, token)
	if err != nil {
		return nil, err
	}
	return domain.MergePackage(packageFile, parentFile, parent, own), nil
}

// manifest returns the parsed PACKAGE file, consulting the daemonic cache first.
func (p *PackagePipeline) manifest(
	ctx context.Context,
	cell domain.Cell,
	packageFile string,
	token domain.ValidationToken,
) (*domain.PackageManifest, error) {
	if m, ok := p.state.LookupPackage(cell, packageFile, token); ok {
		return m, nil
	}

	ctx, span := p.tracer.Start(ctx, "parse package file")
	defer span.End()
	span.SetAttribute("package_file", packageFile)

	var m *domain.PackageManifest
	err := p.pool.Do(ctx, func() error {
		var err error
		m, err = p.interp.ParsePackageFile(ctx, cell, packageFile)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return p.state.InsertPackageIfAbsent(cell, packageFile, m, token), nil
}
