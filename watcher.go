package sharenv

import "context"

// Change describes a modification of the variable source.
type Change struct {
	// Path is the affected path, if the watcher knows it.
	Path string

	// Op names the kind of change, e.g. "create", "write", "remove", "rename".
	Op string
}

// Watcher observes the variable source and reports changes.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits a
	// Change whenever the source is modified. The channel is closed when the
	// context is canceled or the watch can no longer continue, for example
	// because the watched directory was removed.
	Watch(ctx context.Context) (<-chan Change, error)
}
