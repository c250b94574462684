package golpo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// legalRoutes must be rendered before the site is submitted for ads review.
var legalRoutes = []string{"/about", "/contact", "/privacy-policy", "/terms", "/disclaimer"}

// Issue is one readiness problem.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Report is the outcome of CheckReadiness.
type Report struct {
	StoryPages int
	Issues     []Issue
}

// OK reports whether no issue was found.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

func (r *Report) add(path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// pageHead is what the check reads from a rendered page.
type pageHead struct {
	title       string
	description string
	canonical   string
	robots      string
}

func readPageHead(path string) (pageHead, error) {
	f, err := os.Open(path)
	if err != nil {
		return pageHead{}, err
	}
	defer f.Close()
	doc, err := html.Parse(f)
	if err != nil {
		return pageHead{}, err
	}
	var h pageHead
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if n.FirstChild != nil && h.title == "" {
					h.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				switch attrValue(n, "name") {
				case "description":
					h.description = strings.TrimSpace(attrValue(n, "content"))
				case "robots":
					h.robots = strings.ToLower(attrValue(n, "content"))
				}
			case atom.Link:
				if strings.EqualFold(attrValue(n, "rel"), "canonical") {
					h.canonical = strings.TrimSpace(attrValue(n, "href"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return h, nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// CheckReadiness inspects a finished build: every legal page must exist
// with a title, description and canonical link, ads.txt must be present in
// the public directory, indexable static pages must not carry noindex, and
// at least cfg.MinStoryRoutes story pages must have been rendered.
func CheckReadiness(cfg SiteConfig) (Report, error) {
	cfg.setDefaults()
	var r Report

	for _, route := range legalRoutes {
		file, err := RouteToOutputFile(cfg.OutputDir, route)
		if err != nil {
			return Report{}, err
		}
		h, err := readPageHead(file)
		if errors.Is(err, fs.ErrNotExist) {
			r.add(route, "page not rendered")
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("golpo: check %s: %w", route, err)
		}
		if h.title == "" {
			r.add(route, "missing <title>")
		}
		if h.description == "" {
			r.add(route, "missing meta description")
		}
		if h.canonical == "" {
			r.add(route, "missing canonical link")
		}
	}

	for _, sr := range staticRoutes {
		if sr.Robots != "" {
			continue
		}
		file, err := RouteToOutputFile(cfg.OutputDir, sr.Path)
		if err != nil {
			return Report{}, err
		}
		h, err := readPageHead(file)
		if err != nil {
			// Missing legal pages are reported above.
			continue
		}
		if strings.Contains(h.robots, "noindex") {
			r.add(sr.Path, "indexable page is marked noindex")
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.PublicDir, "ads.txt")); err != nil {
		r.add("/ads.txt", "ads.txt not found in %s", cfg.PublicDir)
	}

	n, err := countStoryPages(cfg.OutputDir)
	if err != nil {
		return Report{}, err
	}
	r.StoryPages = n
	if n < cfg.MinStoryRoutes {
		r.add("/stories", "only %d story pages rendered, want at least %d", n, cfg.MinStoryRoutes)
	}
	return r, nil
}

// countStoryPages counts index.html files under <root>/stories/*/part/*.
func countStoryPages(root string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, "stories", "*", "part", "*", "index.html"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}
