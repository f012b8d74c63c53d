package sharenv

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus.
// Implement this interface to receive callbacks on key coordinator events.
type MetricsProvider interface {
	// OnStateChange is called when the coordinator transitions between states.
	OnStateChange(from, to State)

	// OnReloadSuccess is called when a new snapshot is installed.
	OnReloadSuccess(duration time.Duration, summary ReplaceSummary)

	// OnReloadUnchanged is called when a poll finds the source unchanged.
	OnReloadUnchanged(duration time.Duration)

	// OnReloadFailure is called when the source cannot be loaded.
	OnReloadFailure(duration time.Duration)

	// OnEntrySkipped is called for every entry left out of a load.
	OnEntrySkipped(reason SkipReason)

	// OnChangeReceived is called when the watcher reports a change.
	OnChangeReceived()

	// OnWatchFailed is called when the coordinator falls back to polling.
	OnWatchFailed()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                          {}
func (NoOpMetricsProvider) OnReloadSuccess(_ time.Duration, _ ReplaceSummary) {}
func (NoOpMetricsProvider) OnReloadUnchanged(_ time.Duration)                 {}
func (NoOpMetricsProvider) OnReloadFailure(_ time.Duration)                   {}
func (NoOpMetricsProvider) OnEntrySkipped(_ SkipReason)                       {}
func (NoOpMetricsProvider) OnChangeReceived()                                 {}
func (NoOpMetricsProvider) OnWatchFailed()                                    {}
