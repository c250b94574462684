package seo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const jsonLDType = "application/ld+json"

var scriptCloseRe = regexp.MustCompile(`(?i)</script`)

// BuildHTML returns template with its <head> rewritten for d. The template is
// parsed into a tree; each tag is upserted (existing elements get the new
// value, missing ones are appended at the end of <head>). The input string is
// not modified, so one template can serve every route.
func BuildHTML(template string, site Site, d Descriptor) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(template))
	if err != nil {
		return "", fmt.Errorf("seo: parse template: %w", err)
	}
	head := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		return "", fmt.Errorf("seo: template has no <head>")
	}

	ogType := d.OGType
	if ogType == "" {
		ogType = TypeWebsite
	}
	canonical := CanonicalURL(site.BaseURL, d.Path)
	image := ResolveImageURL(site.BaseURL, d.OGImage)

	setTitle(head, d.Title)
	upsertLink(head, "canonical", canonical)

	upsertMeta(head, "name", "description", d.Description)
	upsertMeta(head, "name", "keywords", d.Keywords)
	upsertMeta(head, "name", "robots", d.RobotsValue())
	upsertOptionalMeta(head, "name", "author", d.Author)

	upsertMeta(head, "property", "og:type", ogType)
	upsertMeta(head, "property", "og:title", d.Title)
	upsertMeta(head, "property", "og:description", d.Description)
	upsertMeta(head, "property", "og:url", canonical)
	upsertMeta(head, "property", "og:site_name", site.Name)
	if site.Locale != "" {
		upsertMeta(head, "property", "og:locale", site.Locale)
	}
	upsertMeta(head, "property", "og:image", image)
	upsertMeta(head, "property", "og:image:alt", d.ImageAlt)

	if ogType == TypeArticle {
		upsertOptionalMeta(head, "property", "article:author", d.Author)
		upsertOptionalMeta(head, "property", "article:published_time", d.PublishedTime)
		upsertOptionalMeta(head, "property", "article:modified_time", d.ModifiedTime)
	} else {
		removeAll(head, func(n *html.Node) bool {
			return n.DataAtom == atom.Meta && strings.HasPrefix(attr(n, "property"), "article:")
		})
	}

	upsertMeta(head, "name", "twitter:card", "summary_large_image")
	upsertMeta(head, "name", "twitter:title", d.Title)
	upsertMeta(head, "name", "twitter:description", d.Description)
	upsertOptionalMeta(head, "name", "twitter:site", site.TwitterSite)
	upsertMeta(head, "name", "twitter:image", image)
	upsertMeta(head, "name", "twitter:image:alt", d.ImageAlt)

	if d.JSONLD != nil {
		payload, err := MarshalJSONLD(d.JSONLD)
		if err != nil {
			return "", err
		}
		removeAll(doc, func(n *html.Node) bool {
			return n.DataAtom == atom.Script && strings.EqualFold(attr(n, "type"), jsonLDType)
		})
		script := element(atom.Script, html.Attribute{Key: "type", Val: jsonLDType})
		script.AppendChild(&html.Node{Type: html.TextNode, Data: payload})
		head.AppendChild(script)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("seo: render: %w", err)
	}
	return buf.String(), nil
}

// MarshalJSONLD serializes v for embedding in a <script> element. HTML
// characters are left readable; only "</script" is escaped.
func MarshalJSONLD(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("seo: marshal json-ld: %w", err)
	}
	out := strings.TrimRight(buf.String(), "\n")
	return scriptCloseRe.ReplaceAllStringFunc(out, func(m string) string {
		return "<\\/" + m[2:]
	}), nil
}

func setTitle(head *html.Node, title string) {
	n := findFirst(head, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if n == nil {
		n = element(atom.Title)
		head.AppendChild(n)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

func upsertLink(head *html.Node, rel, href string) {
	found := false
	walk(head, func(n *html.Node) {
		if n.DataAtom == atom.Link && strings.EqualFold(attr(n, "rel"), rel) {
			setAttr(n, "href", href)
			found = true
		}
	})
	if !found {
		head.AppendChild(element(atom.Link,
			html.Attribute{Key: "rel", Val: rel},
			html.Attribute{Key: "href", Val: href},
		))
	}
}

// upsertMeta sets content on every <meta key="name"> in head, or appends one.
func upsertMeta(head *html.Node, key, name, content string) {
	found := false
	walk(head, func(n *html.Node) {
		if n.DataAtom == atom.Meta && strings.EqualFold(attr(n, key), name) {
			setAttr(n, "content", content)
			found = true
		}
	})
	if !found {
		head.AppendChild(element(atom.Meta,
			html.Attribute{Key: key, Val: name},
			html.Attribute{Key: "content", Val: content},
		))
	}
}

// upsertOptionalMeta is upsertMeta for tags that must not carry an empty
// value: an empty content removes every matching tag instead.
func upsertOptionalMeta(head *html.Node, key, name, content string) {
	if content == "" {
		removeAll(head, func(n *html.Node) bool {
			return n.DataAtom == atom.Meta && strings.EqualFold(attr(n, key), name)
		})
		return
	}
	upsertMeta(head, key, name, content)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func removeAll(n *html.Node, match func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && match(c) {
			n.RemoveChild(c)
		} else {
			removeAll(c, match)
		}
		c = next
	}
}
