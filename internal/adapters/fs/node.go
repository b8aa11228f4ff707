package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tgraph/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// TreeFactoryNodeID is the unique identifier for the build file tree factory Graft node.
	TreeFactoryNodeID graft.ID = "adapter.fs.tree_factory"
	// GlobberNodeID is the unique identifier for the globber Graft node.
	GlobberNodeID graft.ID = "adapter.fs.globber"
	// SymlinkTrackerNodeID is the unique identifier for the symlink tracker Graft node.
	SymlinkTrackerNodeID graft.ID = "adapter.fs.symlinks"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.BuildFileTreeFactory]{
		ID:        TreeFactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.BuildFileTreeFactory, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewTreeFactory(walker), nil
		},
	})

	graft.Register(graft.Node[*Globber]{
		ID:        GlobberNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (*Globber, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewGlobber(walker), nil
		},
	})

	graft.Register(graft.Node[*SymlinkTracker]{
		ID:        SymlinkTrackerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*SymlinkTracker, error) {
			return NewSymlinkTracker(), nil
		},
	})
}
