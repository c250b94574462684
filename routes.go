package golpo

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/eringen/golpo/seo"
)

// ErrUnsafeRoute is returned for routes that would escape the output root.
var ErrUnsafeRoute = errors.New("golpo: unsafe route path")

// StaticRoute is one entry of the fixed page table.
type StaticRoute struct {
	Path        string
	Title       string
	Description string
	Keywords    string
	OGType      string
	Robots      string
}

// staticRoutes are the pages that exist regardless of the catalog.
var staticRoutes = []StaticRoute{
	{Path: "/", Title: "বাংলা গল্প ও অডিওবুক", Description: "বাংলা গল্প, ধারাবাহিক আর অডিওবুক পড়ুন ও শুনুন এক জায়গায়।", Keywords: "বাংলা গল্প, অডিওবুক, কণ্ঠশিল্পী, bangla story, audiobook"},
	{Path: "/stories", Title: "সব গল্প", Description: "ভূত, রহস্য, রোমান্স আর থ্রিলার সহ সব বাংলা গল্পের তালিকা।", Keywords: "বাংলা গল্প, ধারাবাহিক গল্প, ছোটগল্প"},
	{Path: "/audiobooks", Title: "অডিওবুক", Description: "কণ্ঠশিল্পীর কণ্ঠে রেকর্ড করা বাংলা অডিওবুক ও অডিও গল্প।", Keywords: "বাংলা অডিওবুক, অডিও গল্প, audiobook"},
	{Path: "/authors", Title: "লেখক", Description: "যাঁদের গল্প এখানে প্রকাশিত হয়েছে সেই লেখকদের তালিকা।", Keywords: "লেখক, বাংলা লেখক"},
	{Path: "/categories", Title: "বিভাগ", Description: "বিভাগ অনুযায়ী গল্প খুঁজুন।", Keywords: "গল্পের বিভাগ, ক্যাটাগরি"},
	{Path: "/tags", Title: "ট্যাগ", Description: "ট্যাগ ধরে পছন্দের গল্প খুঁজে নিন।", Keywords: "ট্যাগ, গল্প"},
	{Path: "/about", Title: "আমার সম্পর্কে", Description: "কণ্ঠশিল্পী ও গল্পকথকের পরিচয়, অভিজ্ঞতা আর কাজের ধরন।", Keywords: "কণ্ঠশিল্পী, ভয়েস আর্টিস্ট, voice artist", OGType: seo.TypeProfile},
	{Path: "/portfolio", Title: "কাজের নমুনা", Description: "বিজ্ঞাপন, অডিওবুক, ডকুমেন্টারি আর গল্প পাঠের কণ্ঠ নমুনা।", Keywords: "ভয়েস পোর্টফোলিও, voice over, কণ্ঠ নমুনা"},
	{Path: "/contact", Title: "যোগাযোগ", Description: "ভয়েস ওভার, অডিওবুক বা গল্প পাঠের জন্য যোগাযোগ করুন।", Keywords: "যোগাযোগ, ভয়েস ওভার বুকিং"},
	{Path: "/privacy-policy", Title: "গোপনীয়তা নীতি", Description: "এই সাইট কোন তথ্য সংগ্রহ করে এবং কীভাবে ব্যবহার করে।", Keywords: "গোপনীয়তা নীতি, privacy policy"},
	{Path: "/terms", Title: "ব্যবহারের শর্তাবলী", Description: "সাইট ব্যবহারের নিয়ম ও শর্তাবলী।", Keywords: "শর্তাবলী, terms"},
	{Path: "/disclaimer", Title: "দায়মুক্তি", Description: "সাইটের বিষয়বস্তু ও বিজ্ঞাপন সংক্রান্ত দায়মুক্তি।", Keywords: "দায়মুক্তি, disclaimer"},
	{Path: "/login", Title: "লগইন", Description: "অ্যাকাউন্টে প্রবেশ করুন।", Robots: seo.RobotsPrivate},
	{Path: "/signup", Title: "নিবন্ধন", Description: "নতুন অ্যাকাউন্ট তৈরি করুন।", Robots: seo.RobotsPrivate},
	{Path: "/forgot-password", Title: "পাসওয়ার্ড পুনরুদ্ধার", Description: "পাসওয়ার্ড রিসেট করার লিংক পেতে ইমেইল দিন।", Robots: seo.RobotsPrivate},
}

// StaticRoutes returns a copy of the fixed page table.
func StaticRoutes() []StaticRoute {
	return append([]StaticRoute(nil), staticRoutes...)
}

// StaticDescriptors renders the fixed page table into descriptors.
func StaticDescriptors(cfg SiteConfig) []seo.Descriptor {
	out := make([]seo.Descriptor, 0, len(staticRoutes))
	for _, r := range staticRoutes {
		canonical := seo.CanonicalURL(cfg.URL, r.Path)
		ogType := r.OGType
		if ogType == "" {
			ogType = seo.TypeWebsite
		}
		title := r.Title + " | " + cfg.Name
		var jsonLD map[string]any
		switch {
		case r.Path == "/":
			title = cfg.Name + " | " + r.Title
			jsonLD = seo.WebSite(cfg.Name, canonical, cfg.Description)
		case ogType == seo.TypeProfile && cfg.Author != "":
			jsonLD = seo.ProfilePage(cfg.Author, canonical, r.Description)
		default:
			jsonLD = seo.WebPage(r.Title, canonical, r.Description)
		}
		out = append(out, seo.Descriptor{
			Path:        r.Path,
			Title:       title,
			Description: r.Description,
			Keywords:    r.Keywords,
			OGType:      ogType,
			OGImage:     cfg.DefaultImage,
			ImageAlt:    cfg.Name,
			JSONLD:      jsonLD,
			Robots:      r.Robots,
		})
	}
	return out
}

// TaxonomyDescriptors returns author, category and tag pages for stories.
// Each page's JSON-LD pairs the page node with a breadcrumb trail.
func TaxonomyDescriptors(cfg SiteConfig, stories []Story) []seo.Descriptor {
	var out []seo.Descriptor
	seen := make(map[string]bool)
	add := func(section, name, ogType, description string, jsonLD func(name, url, description string) map[string]any) {
		seg := Slugify(name)
		if seg == "" {
			return
		}
		path := section + "/" + PathEscape(seg)
		if seen[path] {
			return
		}
		seen[path] = true
		canonical := seo.CanonicalURL(cfg.URL, path)
		out = append(out, seo.Descriptor{
			Path:        path,
			Title:       name + " | " + cfg.Name,
			Description: description,
			Keywords:    name,
			OGType:      ogType,
			OGImage:     cfg.DefaultImage,
			ImageAlt:    name,
			JSONLD: seo.Graph(
				jsonLD(name, canonical, description),
				seo.BreadcrumbList([]seo.BreadcrumbItem{
					{Name: cfg.Name, Item: seo.CanonicalURL(cfg.URL, "/")},
					{Name: staticTitle(section), Item: seo.CanonicalURL(cfg.URL, section)},
					{Name: name, Item: canonical},
				}),
			),
		})
	}
	for _, s := range stories {
		if s.Author != "" {
			add("/authors", s.Author, seo.TypeProfile, s.Author+"-এর লেখা সব গল্প।", seo.ProfilePage)
		}
	}
	for _, s := range stories {
		if s.Category != "" {
			add("/categories", s.Category, seo.TypeWebsite, s.Category+" বিভাগের সব গল্প।", seo.CollectionPage)
		}
	}
	for _, s := range stories {
		for _, t := range s.Tags {
			add("/tags", t, seo.TypeWebsite, "\""+t+"\" ট্যাগের গল্পসমূহ।", seo.CollectionPage)
		}
	}
	return out
}

func staticTitle(path string) string {
	for _, r := range staticRoutes {
		if r.Path == path {
			return r.Title
		}
	}
	return path
}

// RouteToOutputFile maps a route to the file that serves it: "/" is
// root/index.html, anything else root/<segments>/index.html. Escaped
// segments are decoded so the tree matches what a static host looks up.
func RouteToOutputFile(root, routePath string) (string, error) {
	rel, err := routeKey(routePath)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return filepath.Join(root, "index.html"), nil
	}
	return filepath.Join(root, filepath.FromSlash(rel), "index.html"), nil
}

// routeKey is the decoded, slash-trimmed form of a route; two routes with
// the same key write the same file.
func routeKey(routePath string) (string, error) {
	trimmed := strings.Trim(routePath, "/")
	if trimmed == "" {
		return "", nil
	}
	var segs []string
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" {
			continue
		}
		dec, err := url.PathUnescape(seg)
		if err != nil {
			dec = seg
		}
		if dec == "." || dec == ".." || strings.ContainsAny(dec, `/\`) || strings.ContainsRune(dec, 0) {
			return "", fmt.Errorf("%w: %q", ErrUnsafeRoute, routePath)
		}
		segs = append(segs, dec)
	}
	return strings.Join(segs, "/"), nil
}
