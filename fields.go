package sharenv

import "github.com/zoobzio/capitan"

// Field keys for sharenv events.
var (
	// KeyState is the current state of the Coordinator.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyPollInterval is the fallback polling interval.
	KeyPollInterval = capitan.NewDurationKey("poll_interval")

	// KeyDuration is how long a reload took.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyWatcherType is the type name of the watcher implementation.
	KeyWatcherType = capitan.NewStringKey("watcher_type")

	// KeyPath is the filesystem path a change refers to.
	KeyPath = capitan.NewStringKey("path")

	// KeyEntry is the name of a source entry.
	KeyEntry = capitan.NewStringKey("entry")

	// KeyReason explains why an entry was skipped.
	KeyReason = capitan.NewStringKey("reason")

	// KeyVersion is the snapshot version.
	KeyVersion = capitan.NewIntKey("version")

	// KeyVariables is the number of variables in a snapshot.
	KeyVariables = capitan.NewIntKey("variables")

	// KeyAdded is the number of variables added by a replace.
	KeyAdded = capitan.NewIntKey("added")

	// KeyRemoved is the number of variables removed by a replace.
	KeyRemoved = capitan.NewIntKey("removed")

	// KeyClamped is the number of cursors clamped by a replace.
	KeyClamped = capitan.NewIntKey("clamped")
)
