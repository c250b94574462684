package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cmd := newRootCmd(log)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "golpo dev\n", out)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestPrerenderImportAndCheck(t *testing.T) {
	t.Setenv("SITE_URL", "https://golpo.example")
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")
	public := filepath.Join(dir, "public")
	template := filepath.Join(dir, "shell.html")
	stories := filepath.Join(dir, "stories.json")
	db := filepath.Join(dir, "data", "golpo.db")

	require.NoError(t, os.WriteFile(template, []byte(`<html><head><title>x</title></head><body></body></html>`), 0o644))
	require.NoError(t, os.WriteFile(stories, []byte(`{"rows": [
		{"id": 1, "slug": "one", "title": "এক"},
		{"id": 2, "slug": "two", "title": "দুই", "status": "draft"},
	]}`), 0o644))

	got, err := run(t, "import", "--stories", stories, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 of 2 stories (0 public tags)\n", got)

	got, err = run(t, "prerender", "--template", template, "--out-dir", out, "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Generated "), got)
	assert.Contains(t, got, "(1 story routes)")
	assert.FileExists(t, filepath.Join(out, "stories", "one", "part", "1", "index.html"))

	got, err = run(t, "check", "--out-dir", out, "--public-dir", public)
	assert.True(t, errors.Is(err, errNotReady), "got %v", err)
	assert.Contains(t, got, "FAIL /ads.txt")
}

func TestRemoveCommand(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	dir := t.TempDir()
	stories := filepath.Join(dir, "stories.json")
	db := filepath.Join(dir, "golpo.db")
	require.NoError(t, os.WriteFile(stories, []byte(`[
		{"id": "a", "slug": "one", "title": "এক", "tags": "ভূত, রাত"},
		{"id": "b", "slug": "two", "title": "দুই"}
	]`), 0o644))

	got, err := run(t, "import", "--stories", stories, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 of 2 stories (2 public tags)\n", got)

	got, err = run(t, "remove", "a", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Removed a (এক)\n", got)

	_, err = run(t, "remove", "a", "--db", db)
	assert.Error(t, err, "a removed story is not found again")

	_, err = run(t, "remove", "b")
	assert.Error(t, err, "remove needs a database")
}

func TestInitUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "base.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("site_name: গল্পঘর\nsite_url: https://golpoghor.example\n"), 0o644))
	for _, key := range []string{"SITE_URL", "VITE_SITE_URL", "PUBLIC_SITE_URL", "URL", "DEPLOY_PRIME_URL", "VERCEL_PROJECT_PRODUCTION_URL", "VERCEL_URL"} {
		t.Setenv(key, "")
	}

	site := filepath.Join(dir, "site")
	_, err := run(t, "--config", cfgFile, "init", site)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(site, "golpo.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `site_name: "গল্পঘর"`)
	assert.Contains(t, string(data), `site_url: "https://golpoghor.example"`)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "init", filepath.Join(dir, "other"))
	assert.Error(t, err)
}

func TestRepairCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "clean.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"title": "ঠিক আছে"}`), 0o644))

	got, err := run(t, "repair", in)
	require.NoError(t, err)
	assert.Equal(t, "Nothing to repair\n", got)

	_, err = run(t, "repair")
	assert.Error(t, err)
}

func TestImportNeedsDatabase(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	_, err := run(t, "import", "--stories", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	got, err := run(t, "init", dir, "--url", "https://golpo.example")
	require.NoError(t, err)
	assert.Contains(t, got, filepath.Join(dir, "golpo.yaml"))
	assert.FileExists(t, filepath.Join(dir, "public", "ads.txt"))

	_, err = run(t, "init", dir)
	assert.Error(t, err, "existing files are not overwritten")
}
