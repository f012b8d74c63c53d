// Package sharenv serves shell environment variables whose values may rotate
// through several candidates, and reloads them from disk while serving.
//
// # Store
//
// A Store holds an immutable snapshot of variables and one rotation cursor
// per variable. Render selects a value for every variable and advances the
// cursors:
//
//	store := sharenv.NewStore(sharenv.RoundRobin{})
//	store.Replace(ctx, []sharenv.Variable{
//	    sharenv.MustVariable("API_KEY", "k1", "k2", "k3"),
//	    sharenv.MustVariable("REGION", "us-east-1"),
//	}, nil)
//
//	store.Render().Map() // API_KEY=k1 REGION=us-east-1
//	store.Render().Map() // API_KEY=k2 REGION=us-east-1
//
// Replace swaps the snapshot atomically. Cursors survive a Replace for every
// variable that is still present; a cursor beyond a shrunk candidate set is
// pulled back to the last candidate.
//
// # Rotation
//
// A Policy chooses the value to serve and the next cursor. RoundRobin serves
// candidates in source order so that every candidate is served once before
// any repeats. Two concurrent renders never receive the same candidate from
// the same cursor position.
//
// # Loading
//
// A Loader turns the source into records. DirLoader reads one file per
// variable; every non-blank line is a candidate value:
//
//	vars/
//	    API_KEY   # k1\nk2\nk3
//	    REGION    # us-east-1
//
// Entries that cannot be used are skipped and reported in LoadResult.Skipped
// rather than failing the load.
//
// # Coordinator
//
// A Coordinator watches the source, debounces bursts of changes and installs
// each new load in the Store:
//
//	coord := sharenv.NewCoordinator(store,
//	    sharenv.NewDirLoader("./vars").Aliases("./aliases"),
//	    fswatch.New("./vars", "./aliases"),
//	)
//	if err := coord.Start(ctx); err != nil {
//	    log.Printf("initial load failed: %v", err)
//	}
//
// If the source cannot be watched the Coordinator polls it. A failed reload
// keeps the previous snapshot. The Coordinator maintains one of five states:
//
//   - Loading: initial load not finished
//   - Healthy: last reload succeeded, source watched
//   - Polling: last reload succeeded, source polled
//   - Degraded: last reload failed, previous snapshot active
//   - Empty: initial load failed, nothing loaded yet
//
// # Observability
//
// Lifecycle events are emitted as capitan signals (see signals.go and
// fields.go). A MetricsProvider receives the same events as callbacks.
package sharenv
