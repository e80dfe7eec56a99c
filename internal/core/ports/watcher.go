package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was moved away from Path.
	OpRename
)

// String implements fmt.Stringer.
func (o WatchOp) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// OldPath is the origin of a move when the platform reports it, empty otherwise.
	OldPath string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// Paths returns every path the event touches.
func (e WatchEvent) Paths() []string {
	if e.OldPath == "" || e.OldPath == e.Path {
		return []string{e.Path}
	}
	return []string{e.OldPath, e.Path}
}

// Watcher defines the interface for watching file system changes.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given root directory recursively.
	// It returns an error if the watcher fails to start.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of file system events.
	Events() iter.Seq[WatchEvent]
}

// WatcherFactory creates an unstarted Watcher that ignores the given directories.
type WatcherFactory func(skipDirs ...string) (Watcher, error)
