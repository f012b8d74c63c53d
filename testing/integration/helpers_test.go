package integration

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/sharenv"
	"github.com/zoobzio/sharenv/pkg/fswatch"
)

// startDir starts an async coordinator over a real directory with a short
// debounce and poll interval.
func startDir(t *testing.T, dir string) (*sharenv.Coordinator, *sharenv.Store) {
	t.Helper()
	store := sharenv.NewStore(sharenv.RoundRobin{})
	coord := sharenv.NewCoordinator(store, sharenv.NewDirLoader(dir), fswatch.New(dir)).
		Debounce(20 * time.Millisecond).
		PollInterval(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := coord.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return coord, store
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func remove(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.Remove(filepath.Join(dir, name)); err != nil {
		t.Fatalf("failed to remove %s: %v", name, err)
	}
}

func fetch(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}
