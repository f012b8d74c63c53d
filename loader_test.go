package sharenv

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// brokenFS fails to open the named entries.
type brokenFS struct {
	fs.FS
	broken map[string]bool
}

func (b brokenFS) Open(name string) (fs.File, error) {
	if b.broken[name] {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return b.FS.Open(name)
}

func loadFS(t *testing.T, fsys fs.FS) LoadResult {
	t.Helper()
	result, err := NewFSLoader(fsys).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return result
}

func variablesByName(r LoadResult) map[string][]string {
	m := make(map[string][]string, len(r.Variables))
	for _, v := range r.Variables {
		m[v.Name()] = v.Values()
	}
	return m
}

func skippedByName(r LoadResult) map[string]SkipReason {
	m := make(map[string]SkipReason, len(r.Skipped))
	for _, s := range r.Skipped {
		m[s.Name] = s.Reason
	}
	return m
}

func TestDirLoader_OneVariablePerFile(t *testing.T) {
	result := loadFS(t, fstest.MapFS{
		"API_KEY": {Data: []byte("k1\nk2\nk3\n")},
		"REGION":  {Data: []byte("us-east-1")},
	})

	vars := variablesByName(result)
	if len(vars) != 2 {
		t.Fatalf("expected 2 variables, got %d", len(vars))
	}
	if got := vars["API_KEY"]; len(got) != 3 || got[0] != "k1" || got[2] != "k3" {
		t.Errorf("expected API_KEY [k1 k2 k3], got %v", got)
	}
	if got := vars["REGION"]; len(got) != 1 || got[0] != "us-east-1" {
		t.Errorf("expected REGION [us-east-1], got %v", got)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("expected nothing skipped, got %v", result.Skipped)
	}
}

func TestDirLoader_LineHandling(t *testing.T) {
	result := loadFS(t, fstest.MapFS{
		"X": {Data: []byte("\n  a  \n\n   \nb\t\r\nc d\n\n")},
	})

	got := variablesByName(result)["X"]
	want := []string{"  a", "b", "c d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDirLoader_SkipsEntries(t *testing.T) {
	result := loadFS(t, fstest.MapFS{
		"GOOD":         {Data: []byte("1")},
		"EMPTY":        {Data: []byte("")},
		"BLANK":        {Data: []byte("\n  \n\t\n")},
		"my-var":       {Data: []byte("1")},
		"9LIVES":       {Data: []byte("1")},
		".hidden":      {Data: []byte("1")},
		"nested/INNER": {Data: []byte("1")},
	})

	vars := variablesByName(result)
	if len(vars) != 1 {
		t.Errorf("expected only GOOD, got %v", vars)
	}
	if _, ok := vars["GOOD"]; !ok {
		t.Error("expected GOOD to load")
	}

	skipped := skippedByName(result)
	want := map[string]SkipReason{
		"EMPTY":  SkipEmpty,
		"BLANK":  SkipEmpty,
		"my-var": SkipInvalidName,
		"9LIVES": SkipInvalidName,
	}
	if len(skipped) != len(want) {
		t.Errorf("expected %d skipped, got %v", len(want), result.Skipped)
	}
	for name, reason := range want {
		if skipped[name] != reason {
			t.Errorf("expected %s skipped as %q, got %q", name, reason, skipped[name])
		}
	}
	if _, ok := skipped[".hidden"]; ok {
		t.Error("hidden files are ignored, not skipped")
	}
	if _, ok := skipped["nested"]; ok {
		t.Error("directories are ignored, not skipped")
	}
}

func TestDirLoader_UnreadableEntrySkipped(t *testing.T) {
	fsys := brokenFS{
		FS: fstest.MapFS{
			"GOOD":   {Data: []byte("1")},
			"SECRET": {Data: []byte("2")},
		},
		broken: map[string]bool{"SECRET": true},
	}

	result := loadFS(t, fsys)
	if len(result.Variables) != 1 || result.Variables[0].Name() != "GOOD" {
		t.Errorf("expected only GOOD, got %v", result.Variables)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped, got %v", result.Skipped)
	}
	s := result.Skipped[0]
	if s.Name != "SECRET" || s.Reason != SkipUnreadable {
		t.Errorf("expected SECRET unreadable, got %+v", s)
	}
	if !errors.Is(s, fs.ErrPermission) {
		t.Errorf("expected skipped entry to wrap the cause, got %v", s.Err)
	}
}

func TestDirLoader_UnreadableDirectory(t *testing.T) {
	fsys := brokenFS{FS: fstest.MapFS{}, broken: map[string]bool{".": true}}

	_, err := NewFSLoader(fsys).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for unreadable directory")
	}
}

func TestDirLoader_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	_, err := NewDirLoader(dir).Load(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDirLoader_EmptyDirectory(t *testing.T) {
	result := loadFS(t, fstest.MapFS{})
	if len(result.Variables) != 0 || len(result.Skipped) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestDirLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFSLoader(fstest.MapFS{"A": {Data: []byte("1")}}).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDirLoader_Aliases(t *testing.T) {
	aliases := fstest.MapFS{
		"aliases": {Data: []byte("ll='ls -la'\nbroken\n")},
	}
	result, err := NewFSLoader(fstest.MapFS{"A": {Data: []byte("1")}}).
		AliasesFS(aliases, "aliases").
		Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(result.Aliases) != 1 || result.Aliases[0].Name != "ll" {
		t.Errorf("expected alias ll, got %v", result.Aliases)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != SkipInvalidAlias {
		t.Errorf("expected one invalid alias, got %v", result.Skipped)
	}
}

func TestDirLoader_MissingAliasesFile(t *testing.T) {
	result, err := NewFSLoader(fstest.MapFS{"A": {Data: []byte("1")}}).
		AliasesFS(fstest.MapFS{}, "aliases").
		Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Aliases) != 0 || len(result.Skipped) != 0 {
		t.Errorf("expected missing aliases file to be ignored, got %+v", result)
	}
}

func TestDirLoader_RealDirectory(t *testing.T) {
	root := t.TempDir()
	vars := filepath.Join(root, "vars")
	if err := os.Mkdir(vars, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(vars, "API_KEY"), []byte("k1\nk2\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	aliases := filepath.Join(root, "aliases")
	if err := os.WriteFile(aliases, []byte("alias gs='git status'\n"), 0o600); err != nil {
		t.Fatalf("failed to write aliases: %v", err)
	}

	result, err := NewDirLoader(vars).Aliases(aliases).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Variables) != 1 || result.Variables[0].Len() != 2 {
		t.Errorf("expected API_KEY with 2 values, got %v", result.Variables)
	}
	if len(result.Aliases) != 1 || result.Aliases[0].Command != "git status" {
		t.Errorf("expected alias gs, got %v", result.Aliases)
	}
}

func TestLoadResult_Fingerprint(t *testing.T) {
	a := LoadResult{Variables: []Variable{MustVariable("A", "1", "2")}}
	b := LoadResult{Variables: []Variable{MustVariable("A", "1", "2")}}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("expected equal results to share a fingerprint")
	}

	changed := []LoadResult{
		{Variables: []Variable{MustVariable("A", "1")}},
		{Variables: []Variable{MustVariable("A", "12")}},
		{Variables: []Variable{MustVariable("A", "2", "1")}},
		{Variables: []Variable{MustVariable("B", "1", "2")}},
		{Variables: []Variable{MustVariable("A", "1", "2")}, Aliases: []Alias{{Name: "x", Command: "y"}}},
	}
	for i, c := range changed {
		if c.Fingerprint() == a.Fingerprint() {
			t.Errorf("case %d: expected a different fingerprint", i)
		}
	}

	single := LoadResult{Aliases: []Alias{{Name: "home", Command: "cd $HOME"}}}
	double := LoadResult{Aliases: []Alias{{Name: "home", Command: "cd $HOME", Expand: true}}}
	if single.Fingerprint() == double.Fingerprint() {
		t.Error("expected alias quoting to affect the fingerprint")
	}

	skipped := a
	skipped.Skipped = []SkippedEntry{{Name: "bad", Reason: SkipEmpty}}
	if skipped.Fingerprint() != a.Fingerprint() {
		t.Error("expected skipped entries not to affect the fingerprint")
	}
}

func TestSkippedEntry_Error(t *testing.T) {
	e := SkippedEntry{Name: "EMPTY", Reason: SkipEmpty}
	if e.Error() != "EMPTY: empty" {
		t.Errorf("unexpected message %q", e.Error())
	}
	e = SkippedEntry{Name: "X", Reason: SkipUnreadable, Err: errors.New("boom")}
	if e.Error() != "X: unreadable: boom" {
		t.Errorf("unexpected message %q", e.Error())
	}
}
