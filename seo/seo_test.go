package seo

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `<!doctype html>
<html lang="bn">
<head>
<meta charset="UTF-8">
<title>Old Title</title>
<meta name="description" content="old description">
<meta property="og:title" content="old og title">
<meta property="article:author" content="stale">
<script type="application/ld+json">{"old":true}</script>
</head>
<body><div id="root"></div><script src="/assets/app.js"></script></body>
</html>`

var testSite = Site{
	BaseURL:     "https://example.com",
	Name:        "গল্পকথা",
	TwitterSite: "@golpo",
	Locale:      "bn_BD",
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://example.com", "/", "https://example.com"},
		{"https://example.com/", "", "https://example.com"},
		{"https://example.com", "/about", "https://example.com/about"},
		{"https://example.com/", "/stories/x/part/1", "https://example.com/stories/x/part/1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalURL(tt.base, tt.path), "CanonicalURL(%q, %q)", tt.base, tt.path)
	}
}

func TestResolveImageURL(t *testing.T) {
	tests := []struct {
		img, want string
	}{
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"HTTP://cdn.example.com/a.jpg", "HTTP://cdn.example.com/a.jpg"},
		{"/uploads/a.jpg", "https://example.com/uploads/a.jpg"},
		{"og-image.jpg", "https://example.com/og-image.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveImageURL("https://example.com/", tt.img), "ResolveImageURL(%q)", tt.img)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", Truncate("  short   text ", 180))

	got := Truncate(strings.Repeat("গ", 200), DescriptionLimit)
	assert.Len(t, []rune(got), DescriptionLimit)
	assert.True(t, strings.HasSuffix(got, "…"), "truncated text ends with an ellipsis")
}

func TestValidate(t *testing.T) {
	assert.Error(t, Descriptor{Path: "about"}.Validate(), "path without leading slash")
	assert.Error(t, Descriptor{Path: "/", OGType: "video"}.Validate(), "unknown og type")
	assert.NoError(t, Descriptor{Path: "/", OGType: TypeProfile}.Validate())
}

func TestBuildHTMLWebsite(t *testing.T) {
	d := Descriptor{
		Path:        "/about",
		Title:       "আমার সম্পর্কে | গল্পকথা",
		Description: "কণ্ঠশিল্পীর পরিচয়",
		Keywords:    "voice, bangla",
		OGType:      TypeWebsite,
		OGImage:     "/og-image.jpg",
		ImageAlt:    "গল্পকথা",
		JSONLD:      WebPage("about", "https://example.com/about", ""),
	}
	out, err := BuildHTML(testTemplate, testSite, d)
	require.NoError(t, err)

	for _, s := range []string{
		"<title>আমার সম্পর্কে | গল্পকথা</title>",
		`<meta name="description" content="কণ্ঠশিল্পীর পরিচয়"/>`,
		`<meta property="og:title" content="আমার সম্পর্কে | গল্পকথা"/>`,
		`<link rel="canonical" href="https://example.com/about"/>`,
		`<meta name="robots" content="index, follow, max-image-preview:large"/>`,
		`<meta property="og:image" content="https://example.com/og-image.jpg"/>`,
		`<meta property="og:url" content="https://example.com/about"/>`,
		`<meta name="twitter:card" content="summary_large_image"/>`,
		`<meta name="twitter:site" content="@golpo"/>`,
		`<meta property="og:locale" content="bn_BD"/>`,
		`<script src="/assets/app.js"></script>`,
	} {
		assert.Contains(t, out, s)
	}
	for _, s := range []string{"Old Title", "old description", "old og title", `"old":true`, "article:author"} {
		assert.NotContains(t, out, s)
	}
	assert.Equal(t, 1, strings.Count(out, `name="description"`))
	assert.Equal(t, 1, strings.Count(out, jsonLDType))
	assert.Contains(t, testTemplate, "Old Title", "template must not be modified")
}

func TestBuildHTMLArticle(t *testing.T) {
	d := Descriptor{
		Path:          "/stories/golpo/part/part-01",
		Title:         "গল্প - Part 01",
		Description:   "desc",
		OGType:        TypeArticle,
		OGImage:       "https://cdn.example.com/cover.jpg",
		Author:        "রহিম",
		PublishedTime: "2024-01-15",
		ModifiedTime:  "2024-02-01T10:00:00Z",
	}
	out, err := BuildHTML(testTemplate, testSite, d)
	require.NoError(t, err)

	for _, s := range []string{
		`<meta property="og:type" content="article"/>`,
		`<meta property="article:author" content="রহিম"/>`,
		`<meta property="article:published_time" content="2024-01-15"/>`,
		`<meta property="article:modified_time" content="2024-02-01T10:00:00Z"/>`,
		`<meta name="author" content="রহিম"/>`,
		`<meta property="og:image" content="https://cdn.example.com/cover.jpg"/>`,
	} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "stale", "existing article:author is overwritten")
	assert.Contains(t, out, `{"old":true}`, "json-ld is untouched when the descriptor has none")
}

func TestBuildHTMLOmitsEmptyOptionalTags(t *testing.T) {
	d := Descriptor{
		Path:   "/stories/anon/part/1",
		Title:  "anon",
		OGType: TypeArticle,
	}
	site := testSite
	site.TwitterSite = ""
	tmpl := strings.Replace(testTemplate, "</head>",
		`<meta name="twitter:site" content="@old"><meta name="author" content="old author"></head>`, 1)

	out, err := BuildHTML(tmpl, site, d)
	require.NoError(t, err)
	for _, s := range []string{
		"article:author",
		"article:published_time",
		"article:modified_time",
		"twitter:site",
		`name="author"`,
	} {
		assert.NotContains(t, out, s)
	}
	assert.Contains(t, out, `<meta property="og:type" content="article"/>`)
}

func TestBuildHTMLRobotsOverride(t *testing.T) {
	d := Descriptor{Path: "/login", Title: "Login", Robots: RobotsPrivate}
	out, err := BuildHTML(testTemplate, testSite, d)
	require.NoError(t, err)
	assert.Contains(t, out, `<meta name="robots" content="noindex, nofollow, noarchive"/>`)
	assert.False(t, d.Indexable())
}

func TestBuildHTMLCreatesMissingTitle(t *testing.T) {
	tmpl := `<html><head><meta charset="utf-8"></head><body></body></html>`
	out, err := BuildHTML(tmpl, testSite, Descriptor{Path: "/", Title: "Home"})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Home</title>")
	assert.Contains(t, out, `<link rel="canonical" href="https://example.com"/>`, "root canonical is the bare base URL")
}

func TestBuildHTMLEscapesScriptClose(t *testing.T) {
	d := Descriptor{
		Path:   "/x",
		Title:  "x",
		JSONLD: map[string]any{"headline": "a</script><b>"},
	}
	out, err := BuildHTML(testTemplate, testSite, d)
	require.NoError(t, err)
	assert.NotContains(t, out, "a</script>")
	assert.Contains(t, out, `a<\/script><b>`)
}

func TestBuildHTMLRejectsBadPath(t *testing.T) {
	_, err := BuildHTML(testTemplate, testSite, Descriptor{Path: "about"})
	assert.True(t, errors.Is(err, ErrInvalidPath), "got %v", err)
}

func TestArticleJSONLD(t *testing.T) {
	m := Article(ArticleInput{
		Headline: "গল্প - Part 01",
		URL:      "https://example.com/stories/a/part/1",
		Images:   []string{"https://example.com/a.jpg"},
		Author:   "রহিম",
	})
	assert.Equal(t, "Article", m["@type"])
	author, ok := m["author"].(map[string]any)
	require.True(t, ok, "author = %#v", m["author"])
	assert.Equal(t, "Person", author["@type"])
	assert.Equal(t, "রহিম", author["name"])
	assert.NotContains(t, m, "datePublished", "empty datePublished is omitted")
}
