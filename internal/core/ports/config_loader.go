package ports

import "go.trai.ch/reel/internal/core/domain"

// ConfigLoader defines the interface for loading the session configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load merges defaults, the project file and the environment found from cwd.
	Load(cwd string) (domain.Config, error)
}
