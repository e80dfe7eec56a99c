// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/reel/internal/adapters/cas"
	_ "go.trai.ch/reel/internal/adapters/config"
	_ "go.trai.ch/reel/internal/adapters/detector"
	_ "go.trai.ch/reel/internal/adapters/logger"
	_ "go.trai.ch/reel/internal/adapters/scene"
	_ "go.trai.ch/reel/internal/adapters/shell"
	_ "go.trai.ch/reel/internal/adapters/telemetry"
	_ "go.trai.ch/reel/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/reel/internal/app"
)
