package sharenv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for change processing.
const DefaultDebounce = 200 * time.Millisecond

// DefaultPollInterval is the default reload interval used when the source
// cannot be watched.
const DefaultPollInterval = 2 * time.Second

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("coordinator already started")

var (
	errNoWatcher     = errors.New("no watcher configured")
	errWatcherClosed = errors.New("watcher closed unexpectedly")
)

// Coordinator keeps a Store in sync with its source. It watches the source
// for changes, coalesces bursts of changes, loads the source and replaces the
// Store's snapshot. It is the only writer of the Store.
//
// When the source cannot be watched the Coordinator polls it instead. A
// failed reload never clears the Store; the last good snapshot keeps serving.
type Coordinator struct {
	store        *Store
	loader       Loader
	watcher      Watcher
	debounce     time.Duration
	pollInterval time.Duration
	syncMode     bool
	clock        clockz.Clock
	metrics      MetricsProvider
	onStop       func(State)

	state        atomic.Int32
	watching     atomic.Bool
	lastError    atomic.Pointer[error]
	skipped      atomic.Pointer[[]SkippedEntry]
	errorHistory *ring[error]

	// reloadMu serializes reloads and guards fingerprint and loaded.
	reloadMu    sync.Mutex
	fingerprint string
	loaded      bool

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan Change
}

// NewCoordinator creates a Coordinator that reloads store from loader
// whenever watcher reports a change. A nil watcher makes the Coordinator
// poll from the start.
//
// Example:
//
//	store := sharenv.NewStore(sharenv.RoundRobin{})
//	coord := sharenv.NewCoordinator(
//	    store,
//	    sharenv.NewDirLoader("./vars").Aliases("./aliases"),
//	    fswatch.New("./vars", "./aliases"),
//	).Debounce(200 * time.Millisecond)
//
//	if err := coord.Start(ctx); err != nil {
//	    log.Printf("initial load failed: %v", err)
//	}
func NewCoordinator(store *Store, loader Loader, watcher Watcher) *Coordinator {
	c := &Coordinator{
		store:        store,
		loader:       loader,
		watcher:      watcher,
		debounce:     DefaultDebounce,
		pollInterval: DefaultPollInterval,
		clock:        clockz.RealClock,
	}
	c.state.Store(int32(StateLoading))
	return c
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Debounce sets the debounce duration for change processing.
// Changes arriving within this duration are coalesced into a single reload.
// Default: 200ms. Must be called before Start().
func (c *Coordinator) Debounce(d time.Duration) *Coordinator {
	c.debounce = d
	return c
}

// PollInterval sets how often the source is reloaded while it cannot be
// watched. This is the upper bound on reload latency in fallback mode.
// Default: 2s. Must be called before Start().
func (c *Coordinator) PollInterval(d time.Duration) *Coordinator {
	c.pollInterval = d
	return c
}

// SyncMode enables synchronous processing for testing.
// In sync mode, changes are processed immediately without debouncing
// or async goroutines, making tests deterministic. Must be called before Start().
func (c *Coordinator) SyncMode() *Coordinator {
	c.syncMode = true
	return c
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (c *Coordinator) Clock(clock clockz.Clock) *Coordinator {
	c.clock = clock
	return c
}

// Metrics sets a metrics provider for observability integration.
// Must be called before Start().
func (c *Coordinator) Metrics(provider MetricsProvider) *Coordinator {
	c.metrics = provider
	return c
}

// OnStop sets a callback that is invoked when the coordinator stops.
// The callback receives the final state. Must be called before Start().
func (c *Coordinator) OnStop(fn func(State)) *Coordinator {
	c.onStop = fn
	return c
}

// ErrorHistorySize sets the number of recent reload errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (c *Coordinator) ErrorHistorySize(n int) *Coordinator {
	c.errorHistory = newRing[error](n)
	return c
}

// State returns the current state of the Coordinator.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// LastError returns the last reload error, or nil if the last reload succeeded.
func (c *Coordinator) LastError() error {
	ptr := c.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent reload errors, oldest first.
// Returns nil if error history is not enabled.
func (c *Coordinator) ErrorHistory() []error {
	return c.errorHistory.all()
}

// Skipped returns the entries left out of the most recent successful load.
func (c *Coordinator) Skipped() []SkippedEntry {
	ptr := c.skipped.Load()
	if ptr == nil {
		return nil
	}
	return append([]SkippedEntry(nil), (*ptr)...)
}

// Start begins watching the source and performs the initial load
// synchronously, then continues watching in the background.
//
// If the initial load fails, Start returns the error but keeps watching so
// a later valid source is picked up. A watch failure is not an error: the
// Coordinator falls back to polling.
//
// In sync mode, Start only performs the initial load. Use Process() to
// manually handle subsequent changes.
//
// Start can only be called once. Subsequent calls return ErrAlreadyStarted.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	capitan.Emit(ctx, CoordinatorStarted,
		KeyDebounce.Field(c.debounce),
		KeyPollInterval.Field(c.pollInterval),
		KeyWatcherType.Field(fmt.Sprintf("%T", c.watcher)),
	)

	// Watch before the initial load so changes made during it are not lost.
	changes, err := c.watch(ctx)
	if err != nil {
		c.watchFailed(ctx, err)
	}

	initialErr := c.reload(ctx, false)

	if c.syncMode {
		c.changes = changes
		return initialErr
	}

	go c.run(ctx, changes)

	return initialErr
}

// Reload loads the source and replaces the snapshot immediately, bypassing
// the debounce window.
func (c *Coordinator) Reload(ctx context.Context) error {
	return c.reload(ctx, false)
}

// Process handles the next pending change from the watcher.
// This is only available in sync mode and is used for deterministic testing.
// Returns false if no change is pending or the watcher is gone.
func (c *Coordinator) Process(ctx context.Context) bool {
	if !c.syncMode || c.changes == nil {
		return false
	}

	select {
	case change, ok := <-c.changes:
		if !ok {
			c.changes = nil
			c.watchFailed(ctx, errWatcherClosed)
			return false
		}
		c.changeReceived(ctx, change)
		_ = c.reload(ctx, false) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

func (c *Coordinator) watch(ctx context.Context) (<-chan Change, error) {
	if c.watcher == nil {
		return nil, errNoWatcher
	}
	changes, err := c.watcher.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	c.watching.Store(true)
	return changes, nil
}

// reload loads the source and installs the result. When onlyIfChanged is
// set, an unchanged source leaves the snapshot and cursors untouched.
func (c *Coordinator) reload(ctx context.Context, onlyIfChanged bool) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := c.clock.Now()
	oldState := c.State()

	result, err := c.loader.Load(ctx)
	if err != nil {
		c.setError(err)
		c.transitionState(ctx, oldState, c.failureState())
		capitan.Emit(ctx, CoordinatorReloadFailed,
			KeyError.Field(err.Error()),
		)
		if c.metrics != nil {
			c.metrics.OnReloadFailure(c.clock.Since(start))
		}
		return fmt.Errorf("reload failed: %w", err)
	}

	if c.metrics != nil {
		for _, s := range result.Skipped {
			c.metrics.OnEntrySkipped(s.Reason)
		}
	}
	skipped := result.Skipped
	c.skipped.Store(&skipped)
	c.lastError.Store(nil)
	c.errorHistory.clear()

	fingerprint := result.Fingerprint()
	if onlyIfChanged && c.loaded && fingerprint == c.fingerprint {
		c.transitionState(ctx, oldState, c.successState())
		capitan.Emit(ctx, CoordinatorReloadUnchanged)
		if c.metrics != nil {
			c.metrics.OnReloadUnchanged(c.clock.Since(start))
		}
		return nil
	}

	summary := c.store.Replace(ctx, result.Variables, result.Aliases)
	c.fingerprint = fingerprint
	c.loaded = true

	duration := c.clock.Since(start)
	c.transitionState(ctx, oldState, c.successState())
	capitan.Emit(ctx, CoordinatorReloadSucceeded,
		KeyVersion.Field(int(summary.Version)),
		KeyVariables.Field(len(result.Variables)),
		KeyDuration.Field(duration),
	)
	if c.metrics != nil {
		c.metrics.OnReloadSuccess(duration, summary)
	}
	return nil
}

// successState is the state after a successful reload.
func (c *Coordinator) successState() State {
	if c.watching.Load() {
		return StateHealthy
	}
	return StatePolling
}

// failureState returns the appropriate failure state based on whether
// a snapshot has ever been installed.
func (c *Coordinator) failureState() State {
	if !c.loaded {
		return StateEmpty
	}
	return StateDegraded
}

// transitionState updates the state and emits a state change event if changed.
func (c *Coordinator) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	c.state.Store(int32(newState))
	capitan.Emit(ctx, CoordinatorStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if c.metrics != nil {
		c.metrics.OnStateChange(oldState, newState)
	}
}

// setError stores an error atomically and adds it to the error history.
func (c *Coordinator) setError(err error) {
	e := err
	c.lastError.Store(&e)
	c.errorHistory.push(err)
}

func (c *Coordinator) changeReceived(ctx context.Context, change Change) {
	capitan.Emit(ctx, CoordinatorChangeReceived,
		KeyPath.Field(change.Path),
	)
	if c.metrics != nil {
		c.metrics.OnChangeReceived()
	}
}

// watchFailed switches the Coordinator to polling.
func (c *Coordinator) watchFailed(ctx context.Context, err error) {
	c.watching.Store(false)
	capitan.Emit(ctx, CoordinatorWatchFailed,
		KeyError.Field(err.Error()),
		KeyPollInterval.Field(c.pollInterval),
	)
	if c.metrics != nil {
		c.metrics.OnWatchFailed()
	}
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	if old := c.State(); old == StateHealthy {
		c.transitionState(ctx, old, StatePolling)
	}
}

// run handles changes with debouncing, and polls while the watcher is down.
// Each poll also tries to re-establish the watch.
func (c *Coordinator) run(ctx context.Context, changes <-chan Change) {
	defer func() {
		finalState := c.State()
		capitan.Emit(ctx, CoordinatorStopped,
			KeyState.Field(finalState.String()),
		)
		if c.onStop != nil {
			c.onStop(finalState)
		}
	}()

	var (
		debounce clockz.Timer
		poll     clockz.Timer
		pending  bool
	)
	if changes == nil {
		poll = c.clock.NewTimer(c.pollInterval)
	}

	stop := func() {
		if debounce != nil {
			debounce.Stop()
		}
		if poll != nil {
			poll.Stop()
		}
	}

	for {
		var debounceC, pollC <-chan time.Time
		if debounce != nil {
			debounceC = debounce.C()
		}
		if poll != nil {
			pollC = poll.C()
		}

		select {
		case <-ctx.Done():
			stop()
			return

		case change, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					stop()
					return
				}
				changes = nil
				poll = c.clock.NewTimer(c.pollInterval)
				c.watchFailed(ctx, errWatcherClosed)
				if pending {
					_ = c.reload(ctx, false) //nolint:errcheck // Errors stored via setError
					pending = false
				}
				continue
			}

			c.changeReceived(ctx, change)
			pending = true

			// Each debounce window gets a fresh timer.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = c.clock.NewTimer(c.debounce)

		case <-debounceC:
			debounce = nil
			if pending {
				_ = c.reload(ctx, false) //nolint:errcheck // Errors stored via setError
				pending = false
			}

		case <-pollC:
			if rewatched, err := c.watch(ctx); err == nil {
				changes = rewatched
				poll = nil
				_ = c.reload(ctx, false) //nolint:errcheck // Errors stored via setError
				continue
			}
			_ = c.reload(ctx, true) //nolint:errcheck // Errors stored via setError
			poll = c.clock.NewTimer(c.pollInterval)
		}
	}
}
