package detector

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/reel/internal/core/ports"
)

// NodeID is the unique identifier for the environment Graft node.
const NodeID graft.ID = "adapter.environment"

func init() {
	graft.Register(graft.Node[ports.Environment]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{},
		Run: func(_ context.Context) (ports.Environment, error) {
			return NewEnvironment(), nil
		},
	})
}
