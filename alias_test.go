package sharenv

import "testing"

func TestParseAliases(t *testing.T) {
	data := []byte(`alias ll='ls -la'
gs="git status"
k=kubectl

  alias  la=ls -A
`)
	aliases, errs := ParseAliases(data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []Alias{
		{Name: "ll", Command: "ls -la"},
		{Name: "gs", Command: "git status", Expand: true},
		{Name: "k", Command: "kubectl"},
		{Name: "la", Command: "ls -A"},
	}
	if len(aliases) != len(want) {
		t.Fatalf("expected %d aliases, got %d: %v", len(want), len(aliases), aliases)
	}
	for i := range want {
		if aliases[i] != want[i] {
			t.Errorf("alias %d: expected %+v, got %+v", i, want[i], aliases[i])
		}
	}
}

func TestParseAliases_Invalid(t *testing.T) {
	data := []byte("noequals\nbad name=x\nempty=''\n$x=y\nok=true\n")
	aliases, errs := ParseAliases(data)

	if len(aliases) != 1 || aliases[0].Name != "ok" {
		t.Errorf("expected only alias 'ok', got %v", aliases)
	}
	if len(errs) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(errs), errs)
	}
}

func TestParseAliases_LooseNames(t *testing.T) {
	data := []byte("..='cd ..'\ng-st='git status'\nalias k.get='kubectl get'\n")
	aliases, errs := ParseAliases(data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []string{"..", "g-st", "k.get"}
	if len(aliases) != len(want) {
		t.Fatalf("expected %d aliases, got %v", len(want), aliases)
	}
	for i, name := range want {
		if aliases[i].Name != name {
			t.Errorf("alias %d: expected name %q, got %q", i, name, aliases[i].Name)
		}
	}
}

func TestValidAliasName(t *testing.T) {
	for _, name := range []string{"ll", "..", "g-st", "k.get", "_x1"} {
		if err := ValidAliasName(name); err != nil {
			t.Errorf("expected %q to be valid: %v", name, err)
		}
	}
	for _, name := range []string{"", "a b", "a=b", "$x", "a;b", "a|b", "a/b", "a'b", "(x)", "`x`", `a\b`} {
		if err := ValidAliasName(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestParseAliases_DoubleQuotedExpands(t *testing.T) {
	aliases, errs := ParseAliases([]byte("home=\"cd $HOME\"\nll='ls -la'\n"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(aliases) != 2 {
		t.Fatalf("expected 2 aliases, got %v", aliases)
	}
	if !aliases[0].Expand || aliases[0].Command != "cd $HOME" {
		t.Errorf("expected double-quoted command kept for expansion, got %+v", aliases[0])
	}
	if aliases[1].Expand {
		t.Errorf("expected single-quoted command not to expand, got %+v", aliases[1])
	}
}
