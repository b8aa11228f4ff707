package pipeline

import (
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
)

// Options configures a set of pipelines for one build session.
type Options struct {
	State       *cache.State
	Cells       ports.CellResolver
	Interpreter ports.Interpreter
	Platforms   ports.PlatformResolver
	Listener    ports.NodeListener
	Logger      ports.Logger
	Tracer      ports.Tracer
	Parallelism int
	// Platform overrides every node's default target platform when set.
	Platform string
	// Rules defaults to domain.KnownRules.
	Rules map[string]domain.RuleDescriptor
}

// Pipelines are the chained stages of one build session sharing one pool.
type Pipelines struct {
	Pool         *Pool
	Manifests    *ManifestPipeline
	Unconfigured *UnconfiguredPipeline
	Packages     *PackagePipeline
	TargetNodes  *TargetNodePipeline
}

// New wires the stages together.
func New(opts Options) *Pipelines {
	rules := opts.Rules
	if rules == nil {
		rules = domain.KnownRules()
	}
	pool := NewPool(opts.Parallelism)
	manifests := NewManifestPipeline(opts.State, opts.Interpreter, opts.Tracer, pool, rules)
	unconfigured := NewUnconfiguredPipeline(opts.Cells, manifests, pool)
	packages := NewPackagePipeline(opts.State, opts.Interpreter, opts.Tracer, pool)

	return &Pipelines{
		Pool:         pool,
		Manifests:    manifests,
		Unconfigured: unconfigured,
		Packages:     packages,
		TargetNodes: &TargetNodePipeline{
			state:        opts.State,
			cells:        opts.Cells,
			unconfigured: unconfigured,
			packages:     packages,
			platforms:    opts.Platforms,
			listener:     opts.Listener,
			logger:       opts.Logger,
			tracer:       opts.Tracer,
			pool:         pool,
			rules:        rules,
			platform:     opts.Platform,
			cache:        NewNodeCache[domain.TargetID, domain.MaybeNode](pool, opts.State.Token),
		},
	}
}

// Close rejects new work and waits for in-flight computations to finish.
// Entries they write through to the daemonic cache survive the session.
func (p *Pipelines) Close() {
	p.Pool.Close()
	p.Pool.Wait()
}
