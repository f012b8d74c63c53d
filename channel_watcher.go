package sharenv

import "context"

// ChannelWatcher is a Watcher fed from a caller-owned channel instead of the
// vars directory. Tests use it to script file changes; embedders can use it
// to trigger reloads from their own events.
type ChannelWatcher struct {
	changes <-chan Change
	direct  bool
}

// NewChannelWatcher returns a watcher whose Watch channel closes when either
// changes closes or the watch context ends.
func NewChannelWatcher(changes <-chan Change) *ChannelWatcher {
	return &ChannelWatcher{changes: changes}
}

// NewSyncChannelWatcher returns a watcher that hands changes to the
// Coordinator as is. Paired with Coordinator.SyncMode a test controls exactly
// when each change is seen.
func NewSyncChannelWatcher(changes <-chan Change) *ChannelWatcher {
	return &ChannelWatcher{changes: changes, direct: true}
}

// Watch implements Watcher.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan Change, error) {
	if w.direct {
		return w.changes, nil
	}
	out := make(chan Change)
	go relayChanges(ctx, w.changes, out)
	return out, nil
}

// relayChanges copies changes from in to out until in closes or ctx ends,
// then closes out.
func relayChanges(ctx context.Context, in <-chan Change, out chan<- Change) {
	defer close(out)
	for {
		var change Change
		select {
		case <-ctx.Done():
			return
		case c, ok := <-in:
			if !ok {
				return
			}
			change = c
		}
		select {
		case out <- change:
		case <-ctx.Done():
			return
		}
	}
}

var _ Watcher = (*ChannelWatcher)(nil)
