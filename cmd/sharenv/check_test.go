package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func runCheck(t *testing.T, args ...string) (report, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"check"}, args...))
	err := root.Execute()

	var r report
	if out.Len() > 0 {
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &r))
	}
	return r, err
}

func TestCheck_Report(t *testing.T) {
	root := t.TempDir()
	vars := filepath.Join(root, "vars")
	require.NoError(t, os.Mkdir(vars, 0o755))
	writeFile(t, filepath.Join(vars, "API_KEY"), "k1\nk2\nk3\n")
	writeFile(t, filepath.Join(vars, "REGION"), "us-east-1\n")
	writeFile(t, filepath.Join(vars, "BLANK"), "\n\n")
	aliases := filepath.Join(root, "aliases")
	writeFile(t, aliases, "ll='ls -la'\n")

	r, err := runCheck(t, "--vars-dir", vars, "--aliases-file", aliases)
	require.NoError(t, err)

	assert.Equal(t, vars, r.VarsDir)
	assert.Equal(t, []variableReport{
		{Name: "API_KEY", Values: 3},
		{Name: "REGION", Values: 1},
	}, r.Variables)
	assert.Equal(t, []string{"ll"}, r.Aliases)
	require.Len(t, r.Skipped, 1)
	assert.Equal(t, "BLANK", r.Skipped[0].Entry)
	assert.Equal(t, "empty", r.Skipped[0].Reason)
}

func TestCheck_Strict(t *testing.T) {
	vars := t.TempDir()
	writeFile(t, filepath.Join(vars, "BLANK"), "")

	_, err := runCheck(t, "--vars-dir", vars, "--aliases-file", "", "--strict")
	assert.Error(t, err)
}

func TestCheck_MissingDirectory(t *testing.T) {
	_, err := runCheck(t, "--vars-dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
