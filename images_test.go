package golpo

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProcessImageResizes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 400, 200))))

	data, w, h, err := processImage(buf.Bytes(), 100)
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, _, err := processImage([]byte("not an image"), 100)
	assert.Error(t, err)
}

func TestImageMigratorRewritesJSON(t *testing.T) {
	site := newTestSite(t)
	site.cfg.MaxImageWidth = 16
	cover := pngDataURI(t, 32, 32)
	inline := pngDataURI(t, 8, 8)
	site.writeStories(t, map[string]any{
		"id":          1,
		"cover_image": cover,
		"content":     `<p>শুরু</p><img src="` + inline + `"><img src="` + cover + `">`,
	}, map[string]any{
		"id":          2,
		"cover_image": "data:image/png;base64,AAAA",
	})

	report, err := NewImageMigrator(site.cfg, testLogger()).MigrateFile(site.cfg.StoriesPath)
	require.NoError(t, err)
	assert.Equal(t, ImageReport{Found: 4, Written: 2, Replaced: 3, Failed: 1}, report)

	stories, err := ReadStoriesFile(site.cfg.StoriesPath)
	require.NoError(t, err)
	require.Len(t, stories, 2)

	s := stories[0]
	assert.Equal(t, "1", s.ID, "numeric ids survive the rewrite")
	require.True(t, strings.HasPrefix(s.CoverImage, "/uploads/"), s.CoverImage)
	assert.NotContains(t, s.Content, "data:image")
	assert.Equal(t, 1, strings.Count(s.Content, s.CoverImage), "identical images share one file")
	assert.Equal(t, 2, strings.Count(s.Content, "/uploads/"))
	assert.Equal(t, "data:image/png;base64,AAAA", stories[1].CoverImage)

	f, err := os.Open(filepath.Join(site.cfg.PublicDir, filepath.FromSlash(strings.TrimPrefix(s.CoverImage, "/"))))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestImageMigratorNoImagesLeavesFile(t *testing.T) {
	site := newTestSite(t)
	original := "// keep this comment\n{\"rows\": []}\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(site.cfg.StoriesPath), 0o755))
	require.NoError(t, os.WriteFile(site.cfg.StoriesPath, []byte(original), 0o644))

	report, err := NewImageMigrator(site.cfg, testLogger()).MigrateFile(site.cfg.StoriesPath)
	require.NoError(t, err)
	assert.Zero(t, report.Found)
	assert.Equal(t, original, readFile(t, site.cfg.StoriesPath))
}
