// Package platform resolves target platforms from the workspace configuration.
package platform

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PlatformResolver = (*StaticResolver)(nil)

// UnspecifiedPlatform names the empty platform used when a workspace declares none.
const UnspecifiedPlatform = "unspecified"

// StaticResolver picks platforms from the fixed set declared in the workspace.
// The requested name wins, then the node's default_target_platform, then the
// workspace default.
type StaticResolver struct {
	platforms   []domain.Platform
	defaultName string
}

// NewStaticResolver creates a resolver over the workspace platforms.
func NewStaticResolver(ws *domain.Workspace) *StaticResolver {
	return &StaticResolver{platforms: ws.Platforms, defaultName: ws.DefaultPlatform}
}

// TargetPlatform implements ports.PlatformResolver.
func (r *StaticResolver) TargetPlatform(_ context.Context, node *domain.UnconfiguredNode, requested string) (*domain.Platform, error) {
	name := requested
	if name == "" && node != nil {
		declared, err := declaredPlatform(node)
		if err != nil {
			return nil, err
		}
		name = declared
	}
	if name == "" {
		name = r.defaultName
	}
	if name == "" {
		if len(r.platforms) == 0 {
			return &domain.Platform{Name: UnspecifiedPlatform}, nil
		}
		return nil, r.fail(node, "", "no target platform requested and no default configured")
	}

	if p, ok := r.lookup(name, node); ok {
		return p, nil
	}
	return nil, r.fail(node, name, "unknown platform")
}

// lookup matches by exact name, then by label equality relative to the node.
func (r *StaticResolver) lookup(name string, node *domain.UnconfiguredNode) (*domain.Platform, bool) {
	for i := range r.platforms {
		if r.platforms[i].Name == name {
			return &r.platforms[i], true
		}
	}
	if node == nil {
		return nil, false
	}

	want, err := domain.ParseRelativeTarget(name, node.ID.Cell, node.ID.BasePath.String())
	if err != nil {
		return nil, false
	}
	for i := range r.platforms {
		got, err := domain.ParseTarget(r.platforms[i].Name, node.ID.Cell)
		if err == nil && got == want {
			return &r.platforms[i], true
		}
	}
	return nil, false
}

func (r *StaticResolver) fail(node *domain.UnconfiguredNode, name, reason string) error {
	err := zerr.Wrap(domain.ErrPlatformResolution, reason)
	if name != "" {
		err = zerr.With(err, "platform", name)
	}
	if node != nil {
		err = zerr.With(err, "target", node.ID.String())
	}
	return err
}

func declaredPlatform(node *domain.UnconfiguredNode) (string, error) {
	raw, ok := node.Attrs[domain.AttrNameDefaultTargetPlatform]
	if !ok || raw == nil {
		return "", nil
	}
	label, ok := raw.(string)
	if !ok {
		err := zerr.Wrap(domain.ErrPlatformResolution, "default_target_platform must be a plain label")
		return "", zerr.With(err, "target", node.ID.String())
	}
	return label, nil
}
