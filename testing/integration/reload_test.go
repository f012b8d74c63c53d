package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/sharenv"
	"github.com/zoobzio/sharenv/pkg/server"
	sharenvtest "github.com/zoobzio/sharenv/testing"
)

func TestReload_PicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	sharenvtest.WriteVars(t, dir, map[string]string{
		"API_KEY": "k1\nk2\nk3\n",
		"REGION":  "us-east-1\n",
	})

	coord, store := startDir(t, dir)
	sharenvtest.RequireState(t, coord, sharenv.StateHealthy)

	srv := httptest.NewServer(server.New(store, server.WithStatus(coord)).Handler())
	defer srv.Close()

	for i, want := range []string{"k1", "k2", "k3", "k1"} {
		body := fetch(t, srv.URL+server.EnvPath)
		if !strings.Contains(body, `export API_KEY="`+want+`"`) {
			t.Errorf("request %d: expected API_KEY=%s, got %q", i+1, want, body)
		}
		if !strings.Contains(body, `export REGION="us-east-1"`) {
			t.Errorf("request %d: expected REGION, got %q", i+1, body)
		}
	}

	remove(t, dir, "REGION")
	sharenvtest.WriteVars(t, dir, map[string]string{"API_KEY": "k1\nk2\n"})

	ok := sharenvtest.WaitFor(t, 2*time.Second, func() bool {
		v, _, found := store.Lookup("API_KEY")
		_, _, region := store.Lookup("REGION")
		return found && v.Len() == 2 && !region
	})
	if !ok {
		t.Fatalf("store did not pick up changes, names=%v", store.Names())
	}

	body := fetch(t, srv.URL+server.EnvPath)
	if body != "export API_KEY=\"k2\"\n" {
		t.Errorf("expected rotation to continue with k2 only, got %q", body)
	}
}

func TestReload_NewFileStartsAtFirstValue(t *testing.T) {
	dir := t.TempDir()
	sharenvtest.WriteVars(t, dir, map[string]string{"A": "1\n"})

	_, store := startDir(t, dir)

	sharenvtest.WriteVars(t, dir, map[string]string{"TOKEN": "t1\nt2\n"})
	ok := sharenvtest.WaitFor(t, 2*time.Second, func() bool {
		v, _, found := store.Lookup("TOKEN")
		return found && v.Len() == 2
	})
	if !ok {
		t.Fatal("store did not pick up new file")
	}
	sharenvtest.RequireRender(t, store, map[string]string{"A": "1", "TOKEN": "t1"})
}

func TestReload_SurvivesDirectoryRemoval(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "vars")
	mkdir(t, dir)
	sharenvtest.WriteVars(t, dir, map[string]string{"API_KEY": "k1\nk2\n"})

	coord, store := startDir(t, dir)

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("failed to remove dir: %v", err)
	}
	if !sharenvtest.WaitForState(t, coord, sharenv.StateDegraded, 2*time.Second) {
		t.Fatalf("expected degraded, got %s", coord.State())
	}
	sharenvtest.RequireRender(t, store, map[string]string{"API_KEY": "k1"})

	// Stage the new directory so it appears complete.
	staging := filepath.Join(root, "staging")
	mkdir(t, staging)
	sharenvtest.WriteVars(t, staging, map[string]string{"API_KEY": "k1\nk2\n", "REGION": "eu-west-1\n"})
	if err := os.Rename(staging, dir); err != nil {
		t.Fatalf("failed to move staging dir: %v", err)
	}

	if !sharenvtest.WaitForState(t, coord, sharenv.StateHealthy, 2*time.Second) {
		t.Fatalf("expected healthy after directory returned, got %s", coord.State())
	}
	ok := sharenvtest.WaitFor(t, 2*time.Second, func() bool {
		_, _, found := store.Lookup("REGION")
		return found
	})
	if !ok {
		t.Fatal("expected REGION after directory returned")
	}
	sharenvtest.RequireRender(t, store, map[string]string{"API_KEY": "k2", "REGION": "eu-west-1"})
}

func TestHealth_ReportsCoordinator(t *testing.T) {
	dir := t.TempDir()
	sharenvtest.WriteVars(t, dir, map[string]string{
		"A":        "1\n",
		"bad-name": "x\n",
		"EMPTY":    "\n",
	})

	coord, store := startDir(t, dir)

	srv := httptest.NewServer(server.New(store, server.WithStatus(coord), server.WithVarsDir(dir)).Handler())
	defer srv.Close()

	var health struct {
		Status    string `json:"status"`
		VarsDir   string `json:"vars_dir"`
		Variables int    `json:"variables"`
		State     string `json:"state"`
		Skipped   int    `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(fetch(t, srv.URL+"/health")), &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "ok" || health.State != "healthy" {
		t.Errorf("expected ok/healthy, got %s/%s", health.Status, health.State)
	}
	if health.VarsDir != dir {
		t.Errorf("expected vars_dir %s, got %s", dir, health.VarsDir)
	}
	if health.Variables != 1 {
		t.Errorf("expected 1 variable, got %d", health.Variables)
	}
	if health.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", health.Skipped)
	}
}
