package ports

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
)

//go:generate mockgen -source=platform.go -destination=mocks/mock_platform.go -package=mocks

// PlatformResolver resolves the target platform a node is configured for.
type PlatformResolver interface {
	// TargetPlatform returns the platform for node. A non-empty requested name
	// overrides the node's default_target_platform.
	TargetPlatform(ctx context.Context, node *domain.UnconfiguredNode, requested string) (*domain.Platform, error)
}
