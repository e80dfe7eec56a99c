package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/reel/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/scene"     //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/reel/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			detector.NodeID,
			shell.NodeID,
			logger.NodeID,
			telemetry.NodeID,
			scene.NodeID,
			cas.NodeID,
			watcher.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			env, err := graft.Dep[ports.Environment](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			scenes, err := graft.Dep[ports.SceneDetectorFactory](ctx)
			if err != nil {
				return nil, err
			}

			storeFactory, err := graft.Dep[ports.BuildInfoStoreFactory](ctx)
			if err != nil {
				return nil, err
			}

			watcherFactory, err := graft.Dep[ports.WatcherFactory](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, env, executor, log, tracer, scenes, storeFactory, watcherFactory), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}
