package platform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/adapters/platform"
	"go.trai.ch/tgraph/internal/core/domain"
)

func node(attrs map[string]any) *domain.UnconfiguredNode {
	return &domain.UnconfiguredNode{
		ID:       domain.NewTargetID("root", "config", "lib"),
		RuleType: "cxx_library",
		Attrs:    attrs,
	}
}

func TestStaticResolver(t *testing.T) {
	linuxConstraint := domain.NewTargetID("root", "config", "linux")
	ws := &domain.Workspace{
		Platforms: []domain.Platform{
			{Name: "linux-x86", Constraints: []domain.TargetID{linuxConstraint}},
			{Name: "root//config:mac"},
		},
		DefaultPlatform: "linux-x86",
	}
	r := platform.NewStaticResolver(ws)

	tests := []struct {
		name      string
		node      *domain.UnconfiguredNode
		requested string
		want      string
	}{
		{name: "workspace default", node: node(nil), want: "linux-x86"},
		{name: "requested override", node: node(map[string]any{"default_target_platform": "linux-x86"}), requested: "root//config:mac", want: "root//config:mac"},
		{name: "node default by name", node: node(map[string]any{"default_target_platform": "root//config:mac"}), want: "root//config:mac"},
		{name: "node default relative label", node: node(map[string]any{"default_target_platform": ":mac"}), want: "root//config:mac"},
		{name: "nil node", node: nil, want: "linux-x86"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.TargetPlatform(context.Background(), tt.node, tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name)
		})
	}

	p, err := r.TargetPlatform(context.Background(), node(nil), "")
	require.NoError(t, err)
	assert.True(t, p.Has(linuxConstraint))
}

func TestStaticResolver_Errors(t *testing.T) {
	tests := []struct {
		name      string
		ws        *domain.Workspace
		node      *domain.UnconfiguredNode
		requested string
	}{
		{name: "unknown requested", ws: &domain.Workspace{Platforms: []domain.Platform{{Name: "a"}}}, node: node(nil), requested: "b"},
		{name: "no default", ws: &domain.Workspace{Platforms: []domain.Platform{{Name: "a"}}}, node: node(nil)},
		{name: "select as platform", ws: &domain.Workspace{}, node: node(map[string]any{
			"default_target_platform": domain.NewSelectorList(&domain.Selector{}),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := platform.NewStaticResolver(tt.ws).TargetPlatform(context.Background(), tt.node, tt.requested)
			require.ErrorIs(t, err, domain.ErrPlatformResolution)
			require.ErrorIs(t, err, domain.ErrAttributeResolution)
		})
	}
}

func TestStaticResolver_NoPlatforms(t *testing.T) {
	p, err := platform.NewStaticResolver(&domain.Workspace{}).TargetPlatform(context.Background(), node(nil), "")
	require.NoError(t, err)
	assert.Equal(t, platform.UnspecifiedPlatform, p.Name)
	assert.Empty(t, p.Constraints)
}
