package pipeline

import (
	"context"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/tgraph/internal/engine/cache"
	"go.trai.ch/tgraph/internal/engine/selector"
	"go.trai.ch/zerr"
)

// TargetNodePipeline configures unconfigured nodes for their target platform.
//
// Nodes are written through to the daemonic cache only when no platform
// override is in effect, since the cache is keyed by target alone.
type TargetNodePipeline struct {
	state        *cache.State
	cells        ports.CellResolver
	unconfigured *UnconfiguredPipeline
	packages     *PackagePipeline
	platforms    ports.PlatformResolver
	listener     ports.NodeListener
	logger       ports.Logger
	tracer       ports.Tracer
	pool         *Pool
	rules        map[string]domain.RuleDescriptor
	platform     string
	cache        *NodeCache[domain.TargetID, domain.MaybeNode]
}

// Get returns the configured node of a target, or an incompatibility marker.
func (p *TargetNodePipeline) Get(ctx context.Context, target domain.TargetID) (domain.MaybeNode, error) {
	return p.GetJob(ctx, target).Await(ctx)
}

// GetJob returns the job configuring a target.
func (p *TargetNodePipeline) GetJob(ctx context.Context, target domain.TargetID) *Job[domain.MaybeNode] {
	cell, err := p.cells.Resolve(target.Cell)
	if err != nil {
		return Failed[domain.MaybeNode](err)
	}
	load := Loader[domain.MaybeNode]{
		Compute: func(ctx context.Context, token domain.ValidationToken) (domain.MaybeNode, error) {
			return p.compute(ctx, cell, target, token)
		},
	}
	if p.platform == "" {
		load.Lookup = func(token domain.ValidationToken) (domain.MaybeNode, bool) {
			return p.state.LookupNode(cell, target, token)
		}
	}
	return p.cache.GetJob(ctx, target, load)
}

func (p *TargetNodePipeline) compute(
	ctx context.Context,
	cell domain.Cell,
	target domain.TargetID,
	token domain.ValidationToken,
) (domain.MaybeNode, error) {
	ctx, span := p.tracer.Start(ctx, "configure target node")
	defer span.End()
	span.SetAttribute("target", target.String())

	node, err := p.configure(ctx, cell, target)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p.platform != "" {
		return node, nil
	}
	return p.state.InsertNodeIfAbsent(cell, p.buildFileOf(cell, target), node, nil, token), nil
}

func (p *TargetNodePipeline) buildFileOf(cell domain.Cell, target domain.TargetID) string {
	return cell.BuildFilePath(target.BasePath.String())
}

func (p *TargetNodePipeline) configure(ctx context.Context, cell domain.Cell, target domain.TargetID) (domain.MaybeNode, error) {
	unconf, err := p.unconfigured.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	rule, ok := p.rules[unconf.RuleType]
	if !ok {
		err := domain.Tagged(domain.ErrUnknownRule, "rule", unconf.RuleType)
		return nil, zerr.With(err, "target", target.String())
	}

	pkgJob := p.packages.GetJob(ctx, cell, unconf.BuildFile)

	platform, err := p.platforms.TargetPlatform(ctx, unconf, p.platform)
	if err != nil {
		return nil, zerr.With(err, "target", target.String())
	}

	conditions, err := p.conditions(ctx, unconf)
	if err != nil {
		return nil, err
	}
	resolver := &selector.Resolver{Target: target, Platform: platform, Conditions: conditions}

	compatible, labels, err := p.compatible(resolver, unconf)
	if err != nil {
		return nil, err
	}
	if !compatible {
		return &domain.IncompatibleNode{ID: target, Platform: platform.Name, CompatibleWith: labels}, nil
	}

	pkg, err := pkgJob.Await(ctx)
	if err != nil {
		return nil, err
	}

	var node *domain.TargetNode
	err = p.pool.Do(ctx, func() error {
		var err error
		node, err = p.marshal(cell, target, unconf, rule, resolver, pkg)
		return err
	})
	if err != nil {
		return nil, err
	}
	node.Platform = platform.Name
	for _, c := range conditions {
		node.ConfigDeps = append(node.ConfigDeps, c.Label)
	}
	slices.SortFunc(node.ConfigDeps, domain.TargetID.Compare)
	node.ConfigDeps = slices.Compact(node.ConfigDeps)

	if err := p.listener.OnCreate(unconf.BuildFile, node); err != nil {
		return nil, err
	}
	return node, nil
}

// conditions resolves every select key and compatible_with label of a node to
// the configuration rule it names. Lookups run concurrently.
func (p *TargetNodePipeline) conditions(ctx context.Context, unconf *domain.UnconfiguredNode) (map[string]selector.Condition, error) {
	var keys []string
	for _, name := range slices.Sorted(maps.Keys(unconf.Attrs)) {
		keys = append(keys, selector.Keys(unconf.Attrs[name])...)
	}
	if raw, ok := unconf.Attr(domain.AttrNameCompatibleWith); ok {
		keys = append(keys, compatibleLabels(raw)...)
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	if len(keys) == 0 {
		return nil, nil
	}

	jobs := make([]*Job[*domain.UnconfiguredNode], len(keys))
	for i, key := range keys {
		id, err := domain.ParseRelativeTarget(key, unconf.ID.Cell, unconf.ID.BasePath.String())
		if err != nil {
			return nil, zerr.Wrap(err, fmt.Sprintf("when resolving condition %s of %s", key, unconf.ID))
		}
		jobs[i] = p.unconfigured.GetJob(ctx, id)
	}

	out := make(map[string]selector.Condition, len(keys))
	for i, key := range keys {
		node, err := jobs[i].Await(ctx)
		if err != nil {
			return nil, zerr.Wrap(err, fmt.Sprintf("when resolving condition %s of %s", key, unconf.ID))
		}
		cond, err := selector.ConditionFromNode(node, p.rules[node.RuleType].Kind)
		if err != nil {
			return nil, zerr.Wrap(err, fmt.Sprintf("when resolving condition %s of %s", key, unconf.ID))
		}
		out[key] = cond
	}
	return out, nil
}

// compatible reports whether the platform matches any compatible_with entry.
// An absent or empty compatible_with is compatible with every platform.
func (p *TargetNodePipeline) compatible(resolver *selector.Resolver, unconf *domain.UnconfiguredNode) (bool, []string, error) {
	raw, ok := unconf.Attr(domain.AttrNameCompatibleWith)
	if !ok {
		return true, nil, nil
	}
	v, err := resolver.Resolve(domain.AttrNameCompatibleWith, domain.AttrDeps, raw)
	if err != nil {
		return false, nil, err
	}
	labels, err := selector.StringList(v)
	if err != nil {
		return false, nil, zerr.With(err, "attribute", domain.AttrNameCompatibleWith)
	}
	if len(labels) == 0 {
		return true, nil, nil
	}
	for _, l := range labels {
		cond, ok := resolver.Conditions[l]
		if !ok {
			return false, nil, domain.Tagged(domain.ErrNotConfigurationRule, "condition", l)
		}
		if cond.Matches(resolver.Platform) {
			return true, labels, nil
		}
	}
	return false, labels, nil
}

// marshal resolves every attribute and derives dependencies, visibility and inputs.
func (p *TargetNodePipeline) marshal(
	cell domain.Cell,
	target domain.TargetID,
	unconf *domain.UnconfiguredNode,
	rule domain.RuleDescriptor,
	resolver *selector.Resolver,
	pkg *domain.Package,
) (*domain.TargetNode, error) {
	node := &domain.TargetNode{
		ID:         target,
		Rule:       rule,
		Args:       make(map[string]any, len(unconf.Attrs)),
		BuildFile:  unconf.BuildFile,
		Visibility: pkg.Visibility,
		WithinView: pkg.WithinView,
	}
	basePath := target.BasePath.String()

	for _, name := range slices.Sorted(maps.Keys(unconf.Attrs)) {
		typ := rule.AttrType(name)
		v, err := resolver.Resolve(name, typ, unconf.Attrs[name])
		if err != nil {
			return nil, err
		}
		node.Args[name] = v

		switch {
		case name == domain.AttrNameVisibility || name == domain.AttrNameWithinView:
			patterns, err := selector.StringList(v)
			if err != nil {
				return nil, attrError(err, name, target)
			}
			if name == domain.AttrNameVisibility {
				node.Visibility = patterns
			} else {
				node.WithinView = patterns
			}
		case name == domain.AttrNameDeps || name == domain.AttrNameExportedDeps:
			deps, err := parseLabels(v, target)
			if err != nil {
				return nil, attrError(err, name, target)
			}
			node.DeclaredDeps = append(node.DeclaredDeps, deps...)
		case typ == domain.AttrSources:
			srcs, err := selector.StringList(v)
			if err != nil {
				return nil, attrError(err, name, target)
			}
			for _, src := range srcs {
				if isTargetRef(src) {
					dep, err := domain.ParseRelativeTarget(src, target.Cell, basePath)
					if err != nil {
						return nil, attrError(err, name, target)
					}
					node.ExtraDeps = append(node.ExtraDeps, dep)
					continue
				}
				input, err := p.checkSource(cell, target, unconf.BuildFile, src)
				if err != nil {
					return nil, attrError(err, name, target)
				}
				node.Inputs = append(node.Inputs, input)
			}
		}
	}

	slices.SortFunc(node.DeclaredDeps, domain.TargetID.Compare)
	node.DeclaredDeps = slices.Compact(node.DeclaredDeps)
	slices.SortFunc(node.ExtraDeps, domain.TargetID.Compare)
	node.ExtraDeps = slices.Compact(node.ExtraDeps)
	return node, nil
}

// checkSource validates that a source path stays inside the cell and inside
// the package of the build file declaring it. It returns the cell-relative path.
func (p *TargetNodePipeline) checkSource(cell domain.Cell, target domain.TargetID, buildFile, src string) (string, error) {
	input := path.Clean(path.Join(target.BasePath.String(), src))
	if cell.Enforcement == domain.DisableBoundaries {
		return input, nil
	}

	if path.IsAbs(src) || input == ".." || strings.HasPrefix(input, "../") {
		return input, p.violation(cell, target, src, "path escapes the cell root")
	}
	if slices.Contains(strings.Split(src, "/"), "..") {
		return input, p.violation(cell, target, src, "path reaches outside the package")
	}

	tree, err := p.state.BuildFileTree(cell)
	if err != nil {
		return "", err
	}
	if owner, ok := tree.OwningBuildFile(input); ok && owner != buildFile {
		return input, p.violation(cell, target, src, "path belongs to package "+domain.DirOf(owner))
	}
	return input, nil
}

// violation returns a boundary error under enforcement and logs it otherwise.
func (p *TargetNodePipeline) violation(cell domain.Cell, target domain.TargetID, src, reason string) error {
	if cell.Enforcement == domain.EnforceBoundaries {
		err := domain.Tagged(domain.ErrBoundaryViolation, "target", target.String(), "path", src)
		return zerr.Wrap(err, reason)
	}
	p.logger.Warn(fmt.Sprintf("%s: %s: %s", target, src, reason))
	return nil
}

func attrError(err error, attr string, target domain.TargetID) error {
	return zerr.Wrap(err, fmt.Sprintf("when resolving attribute %s of %s", attr, target))
}

func parseLabels(v any, target domain.TargetID) ([]domain.TargetID, error) {
	labels, err := selector.StringList(v)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TargetID, 0, len(labels))
	for _, l := range labels {
		id, err := domain.ParseRelativeTarget(l, target.Cell, target.BasePath.String())
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// compatibleLabels returns every label compatible_with may resolve to,
// looking inside select branches.
func compatibleLabels(raw any) []string {
	list, ok := raw.(*domain.SelectorList)
	if !ok {
		labels, _ := selector.StringList(raw)
		return labels
	}
	var out []string
	for _, el := range list.Elements {
		sel, ok := el.(*domain.Selector)
		if !ok {
			labels, _ := selector.StringList(el)
			out = append(out, labels...)
			continue
		}
		for _, b := range sel.Branches {
			labels, _ := selector.StringList(b.Value)
			out = append(out, labels...)
		}
	}
	return out
}

func isTargetRef(src string) bool {
	return strings.HasPrefix(src, ":") || strings.Contains(src, "//")
}
