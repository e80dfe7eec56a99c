package ports

import "go.trai.ch/reel/internal/core/domain"

// BuildInfoStore defines the interface for storing and retrieving per-target build history.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build info for a given target name.
	// Returns nil, nil if not found.
	Get(target string) (*domain.BuildInfo, error)

	// Put stores the build info.
	Put(info domain.BuildInfo) error
}

// BuildInfoStoreFactory opens a BuildInfoStore rooted at dir.
type BuildInfoStoreFactory func(dir string) BuildInfoStore
