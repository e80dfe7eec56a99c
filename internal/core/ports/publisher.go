package ports

import "go.trai.ch/reel/internal/core/domain"

// Publisher regenerates the dashboard page for the current targets.
//
//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks
type Publisher interface {
	// Publish rewrites the whole page atomically.
	Publish(targets []*domain.Target) error
	// Path returns the page location on disk.
	Path() string
}

// Reloader pushes reload signals to connected browser clients.
type Reloader interface {
	// Notify declares that path changed and clients should reload.
	Notify(path string)
}
