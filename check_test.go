package golpo

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadinessOnFreshBuild(t *testing.T) {
	site := newTestSite(t)
	site.cfg.MinStoryRoutes = 3
	var rows []map[string]any
	for i := 1; i <= 3; i++ {
		rows = append(rows, map[string]any{"id": i, "slug": fmt.Sprintf("story-%d", i), "content": "গল্প"})
	}
	site.writeStories(t, rows...)
	require.NoError(t, os.MkdirAll(site.cfg.PublicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(site.cfg.PublicDir, "ads.txt"), []byte("google.com, pub-0, DIRECT\n"), 0o644))

	_, err := NewPrerenderer(site.cfg, testLogger()).Run()
	require.NoError(t, err)

	report, err := CheckReadiness(site.cfg)
	require.NoError(t, err)
	assert.True(t, report.OK(), "issues: %v", report.Issues)
	assert.Equal(t, 3, report.StoryPages)
}

func TestCheckReadinessReportsProblems(t *testing.T) {
	site := newTestSite(t)
	site.cfg.MinStoryRoutes = 1

	_, err := NewPrerenderer(site.cfg, testLogger()).Run()
	require.NoError(t, err)

	// Break one legal page and drop another.
	terms, err := RouteToOutputFile(site.cfg.OutputDir, "/terms")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(terms, []byte(`<html><head><meta name="robots" content="noindex"></head></html>`), 0o644))
	disclaimer, err := RouteToOutputFile(site.cfg.OutputDir, "/disclaimer")
	require.NoError(t, err)
	require.NoError(t, os.Remove(disclaimer))

	report, err := CheckReadiness(site.cfg)
	require.NoError(t, err)
	assert.False(t, report.OK())

	var got []string
	for _, issue := range report.Issues {
		got = append(got, issue.String())
	}
	assert.Contains(t, got, "/terms: missing <title>")
	assert.Contains(t, got, "/terms: missing meta description")
	assert.Contains(t, got, "/terms: missing canonical link")
	assert.Contains(t, got, "/terms: indexable page is marked noindex")
	assert.Contains(t, got, "/disclaimer: page not rendered")
	assert.Contains(t, got, "/ads.txt: ads.txt not found in "+site.cfg.PublicDir)
	assert.Contains(t, got, "/stories: only 0 story pages rendered, want at least 1")
}
