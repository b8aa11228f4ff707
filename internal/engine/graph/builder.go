// Package graph assembles target graphs by traversing configured target nodes.
package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// NodeSource produces configured nodes.
type NodeSource interface {
	GetJob(ctx context.Context, target domain.TargetID) *pipeline.Job[domain.MaybeNode]
}

// Builder performs cycle-checked, dependency-first traversals over target nodes.
type Builder struct {
	nodes  NodeSource
	logger ports.Logger
	tracer ports.Tracer
}

// NewBuilder creates a Builder resolving nodes from nodes.
func NewBuilder(nodes NodeSource, logger ports.Logger, tracer ports.Tracer) *Builder {
	return &Builder{nodes: nodes, logger: logger, tracer: tracer}
}

// traversal is the state of one Build call.
type traversal struct {
	ctx   context.Context
	b     *Builder
	graph *domain.TargetGraph
	index map[domain.TargetID]*domain.TargetNode
	// aliases maps unflavored identities to the first flavored node seen.
	aliases map[domain.TargetID]*domain.TargetNode
	// onPath maps targets on the current DFS path to their depth.
	onPath map[domain.TargetID]int
	done   map[domain.TargetID]struct{}
}

// Build resolves roots and everything they depend on into a target graph.
// Roots incompatible with their platform are skipped with a warning; an
// incompatible dependency is an error.
func (b *Builder) Build(ctx context.Context, roots []domain.TargetID) (*domain.TargetGraph, error) {
	ctx, span := b.tracer.Start(ctx, "build target graph")
	defer span.End()
	span.SetAttribute("roots", len(roots))

	t := &traversal{
		ctx:     ctx,
		b:       b,
		graph:   domain.NewTargetGraph(),
		index:   make(map[domain.TargetID]*domain.TargetNode),
		aliases: make(map[domain.TargetID]*domain.TargetNode),
		onPath:  make(map[domain.TargetID]int),
		done:    make(map[domain.TargetID]struct{}),
	}

	roots = slices.Clone(roots)
	slices.SortFunc(roots, domain.TargetID.Compare)
	roots = slices.Compact(roots)

	jobs := make([]*pipeline.Job[domain.MaybeNode], len(roots))
	for i, root := range roots {
		jobs[i] = b.nodes.GetJob(ctx, root)
	}

	for i, root := range roots {
		maybe, err := jobs[i].Await(ctx)
		if err != nil {
			err = zerr.Wrap(err, fmt.Sprintf("when resolving target %s", root))
			span.RecordError(err)
			return nil, err
		}
		switch n := maybe.(type) {
		case *domain.IncompatibleNode:
			b.logger.Warn("skipping " + n.Reason())
			continue
		case *domain.TargetNode:
			if err := t.visit(n, nil); err != nil {
				span.RecordError(err)
				return nil, err
			}
		}
	}

	for id, node := range t.aliases {
		if _, ok := t.index[id]; !ok {
			t.index[id] = node
		}
	}
	t.graph.SetIndex(t.index)
	span.SetAttribute("nodes", t.graph.Len())
	span.SetAttribute("edges", t.graph.EdgeCount())
	return t.graph, nil
}

// visit adds node and, first, all of its dependencies in post-order.
func (t *traversal) visit(node *domain.TargetNode, stack *domain.DependencyStack) error {
	id := node.ID
	if _, ok := t.done[id]; ok {
		// Reached again through another edge; it must be the node already indexed.
		return t.put(id, node)
	}
	stack = stack.Push(id)
	if depth, ok := t.onPath[id]; ok {
		return cycleError(stack.Targets()[depth:])
	}
	t.onPath[id] = stack.Len() - 1
	defer delete(t.onPath, id)

	deps, err := t.prefetch(node, stack)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if err := t.visit(dep, stack); err != nil {
			return err
		}
	}

	if err := t.put(id, node); err != nil {
		return err
	}
	t.graph.AddNode(node)
	for _, dep := range deps {
		if err := t.graph.AddEdge(id, dep.ID); err != nil {
			return err
		}
	}
	t.done[id] = struct{}{}
	return nil
}

// prefetch resolves every dependency of node concurrently so that a failure is
// attributed to the edge that reached it.
func (t *traversal) prefetch(node *domain.TargetNode, stack *domain.DependencyStack) ([]*domain.TargetNode, error) {
	ids := node.Deps()
	jobs := make([]*pipeline.Job[domain.MaybeNode], len(ids))
	for i, dep := range ids {
		jobs[i] = t.b.nodes.GetJob(t.ctx, dep)
	}

	out := make([]*domain.TargetNode, len(ids))
	g, ctx := errgroup.WithContext(t.ctx)
	for i, dep := range ids {
		g.Go(func() error {
			maybe, err := jobs[i].Await(ctx)
			if err == nil {
				switch n := maybe.(type) {
				case *domain.TargetNode:
					out[i] = n
					return nil
				case *domain.IncompatibleNode:
					err = zerr.Wrap(domain.ErrIncompatibleTarget, n.Reason())
				}
			}
			err = zerr.Wrap(err, fmt.Sprintf("when resolving dependency %s of %s", dep, node.ID))
			return zerr.With(err, "dependency_stack", stack.String())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// put indexes node under id, failing if a different node is already there.
// Flavored targets are also remembered under their unflavored identity the
// first time one is seen; a real unflavored node takes precedence.
func (t *traversal) put(id domain.TargetID, node *domain.TargetNode) error {
	if existing, ok := t.index[id]; ok {
		if !existing.Equal(node) {
			return domain.Tagged(domain.ErrInconsistentNode, "target", id.String())
		}
		return nil
	}
	t.index[id] = node
	if id.IsFlavored() {
		if _, ok := t.aliases[id.Unflavored()]; !ok {
			t.aliases[id.Unflavored()] = node
		}
	}
	return nil
}

func cycleError(members []domain.TargetID) error {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.String()
	}
	chain := strings.Join(parts, " -> ")
	err := domain.Tagged(domain.ErrCycleDetected, "cycle", chain)
	return zerr.Wrap(err, chain)
}
