package golpo

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/golpo/seo"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// newestFirst orders feed entries by date, newest first. Entries without a
// parseable date go last; ties keep catalog order.
func newestFirst(entries []FeedEntry) []FeedEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b FeedEntry) int {
		ta, okA := parseDate(a.Date)
		tb, okB := parseDate(b.Date)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return sorted
}

func buildFeed(cfg SiteConfig, plan RoutePlan) rssXML {
	entries := newestFirst(plan.Feed)
	if cfg.FeedLimit > 0 && len(entries) > cfg.FeedLimit {
		entries = entries[:cfg.FeedLimit]
	}
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		pubDate := ""
		if t, ok := parseDate(e.Date); ok {
			pubDate = t.Format(time.RFC1123Z)
		}
		link := seo.CanonicalURL(cfg.URL, e.Path)
		items = append(items, rssItem{
			Title:       e.Title,
			Link:        link,
			Description: e.Description,
			PubDate:     pubDate,
			GUID:        link,
		})
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        cfg.URL,
			Description: cfg.Description,
			Language:    "bn",
			Items:       items,
		},
	}
}

// WriteFeed writes feed.xml with the newest entries of plan.
func WriteFeed(cfg SiteConfig, plan RoutePlan) (string, error) {
	data, err := encodeXML(buildFeed(cfg, plan))
	if err != nil {
		return "", fmt.Errorf("golpo: encode feed: %w", err)
	}
	path := filepath.Join(cfg.OutputDir, "feed.xml")
	if err := WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("golpo: write feed: %w", err)
	}
	return path, nil
}

func (a *App) renderRSS(c echo.Context, plan RoutePlan) error {
	data, err := encodeXML(buildFeed(a.Config, plan))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}
