package scene

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/reel/internal/adapters/logger"
	"go.trai.ch/reel/internal/adapters/shell"
	"go.trai.ch/reel/internal/core/ports"
)

// NodeID is the unique identifier for the scene detector factory Graft node.
const NodeID graft.ID = "adapter.scene"

func init() {
	graft.Register(graft.Node[ports.SceneDetectorFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.SceneDetectorFactory, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(executor, log).For, nil
		},
	})
}
