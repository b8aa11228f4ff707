package starlark

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tgraph/internal/adapters/fs"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
)

// NodeID is the unique identifier for the interpreter Graft node.
const NodeID graft.ID = "adapter.starlark"

func init() {
	graft.Register(graft.Node[ports.Interpreter]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.GlobberNodeID},
		Run: func(ctx context.Context) (ports.Interpreter, error) {
			globber, err := graft.Dep[*fs.Globber](ctx)
			if err != nil {
				return nil, err
			}
			return New(globber, domain.KnownRules()), nil
		},
	})
}
