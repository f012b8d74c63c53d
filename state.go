package sharenv

// State is where a Coordinator stands with respect to the vars directory.
type State int32

const (
	// StateLoading: the first load of the vars directory has not finished.
	// The store serves an empty script.
	StateLoading State = iota

	// StateHealthy: the store matches the vars directory as of the last
	// reload and fsnotify is reporting changes.
	StateHealthy

	// StateDegraded: the last reload failed. Clients keep receiving the
	// variables of the previous snapshot.
	StateDegraded

	// StateEmpty: no load has ever succeeded, so there is nothing to serve.
	// Reloads continue on every change and poll.
	StateEmpty

	// StatePolling: the last reload succeeded but the directory watch is
	// gone. The directory is re-read every poll interval.
	StatePolling
)

var stateNames = [...]string{
	StateLoading:  "loading",
	StateHealthy:  "healthy",
	StateDegraded: "degraded",
	StateEmpty:    "empty",
	StatePolling:  "polling",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Current reports whether the served snapshot reflects the vars directory
// as last read, however changes are being picked up.
func (s State) Current() bool {
	return s == StateHealthy || s == StatePolling
}
