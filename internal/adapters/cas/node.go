package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/reel/internal/core/ports"
)

// NodeID is the unique identifier for the build history store Graft node.
const NodeID graft.ID = "adapter.cas"

func init() {
	graft.Register(graft.Node[ports.BuildInfoStoreFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{},
		Run: func(_ context.Context) (ports.BuildInfoStoreFactory, error) {
			return func(dir string) ports.BuildInfoStore {
				return NewStore(dir)
			}, nil
		},
	})
}
