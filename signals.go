package sharenv

import "github.com/zoobzio/capitan"

// Coordinator lifecycle signals.
var (
	// CoordinatorStarted is emitted when a Coordinator begins watching.
	CoordinatorStarted = capitan.NewSignal(
		"sharenv.coordinator.started",
		"Coordinator watching started",
	)

	// CoordinatorStopped is emitted when a Coordinator stops watching.
	CoordinatorStopped = capitan.NewSignal(
		"sharenv.coordinator.stopped",
		"Coordinator watching stopped",
	)

	// CoordinatorStateChanged is emitted when a Coordinator transitions between states.
	CoordinatorStateChanged = capitan.NewSignal(
		"sharenv.coordinator.state.changed",
		"Coordinator state transition",
	)

	// CoordinatorWatchFailed is emitted when the watcher cannot be started or
	// stops unexpectedly. The Coordinator falls back to polling.
	CoordinatorWatchFailed = capitan.NewSignal(
		"sharenv.coordinator.watch.failed",
		"Source watch failed, falling back to polling",
	)
)

// Reload signals.
var (
	// CoordinatorChangeReceived is emitted when the watcher reports a source change.
	CoordinatorChangeReceived = capitan.NewSignal(
		"sharenv.coordinator.change.received",
		"Source change received from watcher",
	)

	// CoordinatorReloadFailed is emitted when the source cannot be loaded.
	CoordinatorReloadFailed = capitan.NewSignal(
		"sharenv.coordinator.reload.failed",
		"Reload failed, previous snapshot retained",
	)

	// CoordinatorReloadSucceeded is emitted when a new snapshot is installed.
	CoordinatorReloadSucceeded = capitan.NewSignal(
		"sharenv.coordinator.reload.succeeded",
		"Snapshot reloaded",
	)

	// CoordinatorReloadUnchanged is emitted when a poll finds the source unchanged.
	CoordinatorReloadUnchanged = capitan.NewSignal(
		"sharenv.coordinator.reload.unchanged",
		"Source unchanged since last reload",
	)
)

// Store and loader signals.
var (
	// StoreReplaced is emitted when the active snapshot is swapped.
	StoreReplaced = capitan.NewSignal(
		"sharenv.store.replaced",
		"Active snapshot replaced",
	)

	// LoaderEntrySkipped is emitted when a source entry is left out of a load.
	LoaderEntrySkipped = capitan.NewSignal(
		"sharenv.loader.entry.skipped",
		"Source entry skipped",
	)
)
