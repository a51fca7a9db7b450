package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazycheck/internal/checker"
	"lazycheck/internal/subject"
)

const geoManifest = `
[check]
jobs = 2

[[class]]
name = "geo.Shape"
fields = ["origin"]
methods = ["area"]

[[class]]
name = "geo.Circle"
super = "geo.Shape"
interfaces = ["lang.Comparable"]
fields = ["radius"]
`

// resetFlags restores every flag of cmd and its children to its default
// so that one execution does not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lazycheck.toml"), []byte(geoManifest), 0o644))
	return dir
}

func TestCheck_LazyProjectPasses(t *testing.T) {
	dir := writeProject(t)

	out, _, err := execute(t, "check", dir, "--format", "json")
	require.NoError(t, err)

	var got []resultPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "geo.Shape", got[0].Subject)
	assert.Equal(t, "geo.Circle", got[1].Subject)
	for _, r := range got {
		assert.True(t, r.Passed, r.Subject)
		assert.Equal(t, "full", r.Level)
		assert.NotEmpty(t, r.History)
	}
}

func TestCheck_EagerProducerFails(t *testing.T) {
	dir := writeProject(t)

	out, _, err := execute(t, "check", filepath.Join(dir, "lazycheck.toml"), "--eager", "--only", "Circle")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "geo.Circle")
	assert.Contains(t, out, "exceeds_allowed")
	assert.NotContains(t, out, "geo.Shape ")
	assert.Contains(t, out, "0 of 1 classes passed.")
}

func TestCheck_HierarchyOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lazycheck.toml"), []byte(`
[[class]]
name = "geo.Circle"
super = "geo.Shape"

[[class]]
name = "geo.Shape"
`), 0o644))

	out, _, err := execute(t, "check", dir, "--order", "hierarchy", "--format", "json")
	require.NoError(t, err)
	var got []resultPayload
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "geo.Shape", got[0].Subject)
	assert.Equal(t, "geo.Circle", got[1].Subject)
}

func TestCheck_UnknownOnly(t *testing.T) {
	dir := writeProject(t)
	_, _, err := execute(t, "check", dir, "--only", "Square")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Square"`)
}

func TestCheck_JournalThenReplay(t *testing.T) {
	dir := writeProject(t)
	journalDir := filepath.Join(t.TempDir(), "sessions")

	_, stderr, err := execute(t, "check", dir, "--journal", "--journal-dir", journalDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "2 sessions written")

	out, _, err := execute(t, "journal", "ls", "--dir", journalDir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	fields := strings.Fields(lines[1])
	require.NotEmpty(t, fields)
	session := fields[0]

	out, _, err = execute(t, "journal", "replay", session, "--dir", journalDir)
	require.NoError(t, err)
	assert.Contains(t, out, "final level full")

	out, _, err = execute(t, "journal", "show", session, "--dir", journalDir)
	require.NoError(t, err)
	assert.Contains(t, out, "final    full")

	_, _, err = execute(t, "journal", "drop", "--dir", journalDir)
	require.NoError(t, err)
	out, _, err = execute(t, "journal", "ls", "--dir", journalDir)
	require.NoError(t, err)
	assert.Contains(t, out, "no sessions")
}

func TestScenario_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.yaml"), []byte(`
name: partial then full
subject: Foo
steps:
  - allow: partial
  - report: {level: partial, kind: dummy}
  - allow: full
  - report: {level: full, kind: full}
  - check: full
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	out, _, err := execute(t, "scenario", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Running 1 scenario file...")
	assert.Contains(t, out, "PASS  partial then full")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte(`
name: wrong expectation
subject: Foo
steps:
  - allow: partial
  - report: {level: full, kind: full}
    expect: ok
`), 0o644))
	out, _, err = execute(t, "scenario", dir, "--format", "json")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, `"name": "wrong expectation"`)
}

func TestCompleted_KeepsFailedBuilds(t *testing.T) {
	failed := checker.Result{Name: "geo.Bad", Started: time.Now(), Err: errors.New("duplicate field")}
	passed := checker.Result{Name: "geo.Shape", Subject: subject.MustKey("geo.Shape"), Started: time.Now()}
	results := []checker.Result{failed, {}, passed}

	got := completed(results)
	require.Len(t, got, 2)
	assert.Equal(t, "geo.Bad", got[0].Name)
	assert.Equal(t, "geo.Bad", displayName(got[0]))
	assert.Equal(t, "geo.Shape", displayName(got[1]))
}

func TestExpandScenarioArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	single := filepath.Join(dir, "b.yaml")

	got, err := expandScenarioArgs([]string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "a.yml")}, got)

	_, err = expandScenarioArgs([]string{filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestVersion_JSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--full")
	require.NoError(t, err)
	var p versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "lazycheck", p.Tool)
	assert.NotEmpty(t, p.Version)

	_, _, err = execute(t, "version", "--format", "yaml")
	assert.Error(t, err)
}
