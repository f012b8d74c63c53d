// Package testing provides test utilities and helpers for sharenv stores and
// coordinators.
package testing

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/sharenv"
)

// MemLoader is a sharenv.Loader serving an in-memory result that tests can
// change between loads.
type MemLoader struct {
	mu     sync.Mutex
	result sharenv.LoadResult
	err    error
	loads  atomic.Int32
}

// NewMemLoader creates a MemLoader serving vars.
func NewMemLoader(vars ...sharenv.Variable) *MemLoader {
	return &MemLoader{result: sharenv.LoadResult{Variables: vars}}
}

// Load implements sharenv.Loader.
func (m *MemLoader) Load(_ context.Context) (sharenv.LoadResult, error) {
	m.loads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return sharenv.LoadResult{}, m.err
	}
	return sharenv.LoadResult{
		Variables: append([]sharenv.Variable(nil), m.result.Variables...),
		Aliases:   append([]sharenv.Alias(nil), m.result.Aliases...),
	}, nil
}

// Set replaces the served variables and clears any failure.
func (m *MemLoader) Set(vars ...sharenv.Variable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = sharenv.LoadResult{Variables: vars}
	m.err = nil
}

// Fail makes every following Load return err.
func (m *MemLoader) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Loads returns how many times Load was called.
func (m *MemLoader) Loads() int {
	return int(m.loads.Load())
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the coordinator reaches the expected state or timeout occurs.
func WaitForState(t *testing.T, c *sharenv.Coordinator, expected sharenv.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return c.State() == expected
	})
}

// RequireState fails the test immediately if the coordinator is not in the expected state.
func RequireState(t *testing.T, c *sharenv.Coordinator, expected sharenv.State) {
	t.Helper()
	if got := c.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireRender renders the store once and fails the test unless the
// result matches want exactly.
func RequireRender(t *testing.T, s *sharenv.Store, want map[string]string) {
	t.Helper()
	got := s.Render().Map()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for name, value := range want {
		if got[name] != value {
			t.Fatalf("expected %s=%q, got %q (rendering %v)", name, value, got[name], got)
		}
	}
}

// WriteVars writes one file per variable into dir. Each value becomes the
// file content verbatim. Files are written to a hidden temporary name and
// renamed into place so a concurrent load never sees a partial file.
func WriteVars(t *testing.T, dir string, vars map[string]string) {
	t.Helper()
	for name, content := range vars {
		tmp := filepath.Join(dir, "."+name+".tmp")
		if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
			t.Fatalf("failed to rename %s: %v", name, err)
		}
	}
}

// NewTestCoordinator creates a sync-mode coordinator over a MemLoader and a
// sync channel watcher. Returns the coordinator, its store, the loader and a
// channel for sending changes.
func NewTestCoordinator(t *testing.T, vars ...sharenv.Variable) (*sharenv.Coordinator, *sharenv.Store, *MemLoader, chan<- sharenv.Change) {
	t.Helper()
	ch := make(chan sharenv.Change, 10)
	store := sharenv.NewStore(sharenv.RoundRobin{})
	loader := NewMemLoader(vars...)
	c := sharenv.NewCoordinator(store, loader, sharenv.NewSyncChannelWatcher(ch)).SyncMode()
	return c, store, loader, ch
}
