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
	// OpModify indicates a file's contents changed.
	OpModify
	// OpDelete indicates a file or directory was removed or renamed away.
	OpDelete
	// OpOverflow indicates the watcher lost events and cannot enumerate changes.
	OpOverflow
)

// String returns a readable operation name.
func (o WatchOp) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "overflow"
	}
}

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed. Empty for overflow.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// IsCreateOrDelete reports whether the event changes path identity rather than content.
func (e WatchEvent) IsCreateOrDelete() bool {
	return e.Operation == OpCreate || e.Operation == OpDelete
}

// Watcher defines the interface for watching file system changes.
type Watcher interface {
	// Start begins watching the given root directory recursively.
	Start(ctx context.Context, root string) error
	// Add watches an additional directory, such as the target of a symlink.
	Add(dir string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of debounced event batches.
	Events() iter.Seq[[]WatchEvent]
}
