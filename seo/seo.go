// Package seo builds the per-route <head> metadata for pre-rendered pages:
// title, canonical link, Open Graph and Twitter tags, and JSON-LD.
package seo

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Open Graph types a Descriptor may carry.
const (
	TypeWebsite = "website"
	TypeArticle = "article"
	TypeProfile = "profile"
)

// Robots directives.
const (
	RobotsDefault = "index, follow, max-image-preview:large"
	RobotsPrivate = "noindex, nofollow, noarchive"
)

// DescriptionLimit is the rune budget for meta descriptions.
const DescriptionLimit = 180

var (
	ErrInvalidPath   = errors.New("seo: path must start with /")
	ErrInvalidOGType = errors.New("seo: unknown og type")
)

// Descriptor is everything needed to render one route's <head>.
type Descriptor struct {
	Path          string
	Title         string
	Description   string
	Keywords      string
	OGType        string
	OGImage       string
	ImageAlt      string
	Author        string // article pages only
	PublishedTime string // article pages only
	ModifiedTime  string // article pages only
	JSONLD        any
	Robots        string // empty means RobotsDefault
}

// Validate checks the invariants BuildHTML relies on.
func (d Descriptor) Validate() error {
	if !strings.HasPrefix(d.Path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, d.Path)
	}
	switch d.OGType {
	case "", TypeWebsite, TypeArticle, TypeProfile:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOGType, d.OGType)
	}
}

// RobotsValue returns the effective robots directive.
func (d Descriptor) RobotsValue() string {
	if d.Robots != "" {
		return d.Robots
	}
	return RobotsDefault
}

// Indexable reports whether search engines may index the page.
func (d Descriptor) Indexable() bool {
	return !strings.Contains(strings.ToLower(d.RobotsValue()), "noindex")
}

// Site holds values shared by every page of a render run.
type Site struct {
	BaseURL     string // no trailing slash
	Name        string
	TwitterSite string // e.g. "@golpo"
	Locale      string // og:locale, e.g. "bn_BD"
}

// CanonicalURL joins base and a site-relative path. The root path maps to the
// bare base URL.
func CanonicalURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" || path == "/" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// ResolveImageURL makes img absolute: http(s) URLs are kept, site-relative
// paths are prefixed with base, and bare file names get base + "/".
func ResolveImageURL(base, img string) string {
	img = strings.TrimSpace(img)
	if img == "" {
		return ""
	}
	lower := strings.ToLower(img)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return img
	}
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(img, "/") {
		return base + img
	}
	return base + "/" + img
}

// Truncate collapses whitespace in s and cuts it to at most limit runes,
// ending in an ellipsis when something was dropped.
func Truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:limit-1]), " ")
	return cut + "…"
}
