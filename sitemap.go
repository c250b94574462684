package golpo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/golpo/seo"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts the date shapes found in story rows.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func buildSitemap(cfg SiteConfig, plan RoutePlan) sitemapURLSet {
	urls := make([]sitemapURL, 0, len(plan.Routes))
	for _, d := range plan.Routes {
		if !d.Indexable() {
			continue
		}
		u := sitemapURL{Loc: seo.CanonicalURL(cfg.URL, d.Path)}
		if t, ok := parseDate(d.ModifiedTime); ok {
			u.LastMod = t.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteSitemap writes sitemap.xml for the indexable routes of plan.
func WriteSitemap(cfg SiteConfig, plan RoutePlan) (string, error) {
	data, err := encodeXML(buildSitemap(cfg, plan))
	if err != nil {
		return "", fmt.Errorf("golpo: encode sitemap: %w", err)
	}
	path := filepath.Join(cfg.OutputDir, "sitemap.xml")
	if err := WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("golpo: write sitemap: %w", err)
	}
	return path, nil
}

func (a *App) renderSitemap(c echo.Context, plan RoutePlan) error {
	data, err := encodeXML(buildSitemap(a.Config, plan))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", data)
}
