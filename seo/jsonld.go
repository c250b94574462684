package seo

const schemaContext = "https://schema.org"

// Person returns a schema.org Person.
func Person(name string) map[string]any {
	return map[string]any{"@type": "Person", "name": name}
}

// WebSite returns a WebSite schema for the home page.
func WebSite(name, url, description string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebSite",
		"name":     name,
		"url":      url,
	}
	if description != "" {
		m["description"] = description
	}
	m["inLanguage"] = "bn"
	return m
}

// WebPage returns a generic WebPage schema.
func WebPage(name, url, description string) map[string]any {
	m := map[string]any{
		"@context": schemaContext,
		"@type":    "WebPage",
		"name":     name,
		"url":      url,
	}
	if description != "" {
		m["description"] = description
	}
	return m
}

// CollectionPage describes a listing such as a category or tag page.
func CollectionPage(name, url, description string) map[string]any {
	m := WebPage(name, url, description)
	m["@type"] = "CollectionPage"
	return m
}

// ProfilePage describes an author page with the author as main entity.
func ProfilePage(name, url, description string) map[string]any {
	m := WebPage(name, url, description)
	m["@type"] = "ProfilePage"
	m["mainEntity"] = Person(name)
	return m
}

// ArticleInput carries the fields of an Article schema.
type ArticleInput struct {
	Headline      string
	Description   string
	URL           string
	Images        []string // absolute
	Author        string
	Publisher     string
	DatePublished string
	DateModified  string
	Keywords      string
	Section       string
}

// Article returns a schema.org Article. Dates are passed through verbatim.
func Article(in ArticleInput) map[string]any {
	m := map[string]any{
		"@context":   schemaContext,
		"@type":      "Article",
		"headline":   in.Headline,
		"inLanguage": "bn",
	}
	if in.Description != "" {
		m["description"] = in.Description
	}
	if in.URL != "" {
		m["url"] = in.URL
		m["mainEntityOfPage"] = map[string]any{"@type": "WebPage", "@id": in.URL}
	}
	if len(in.Images) > 0 {
		m["image"] = in.Images
	}
	if in.Author != "" {
		m["author"] = Person(in.Author)
	}
	if in.Publisher != "" {
		m["publisher"] = map[string]any{"@type": "Organization", "name": in.Publisher}
	}
	if in.DatePublished != "" {
		m["datePublished"] = in.DatePublished
	}
	if in.DateModified != "" {
		m["dateModified"] = in.DateModified
	}
	if in.Keywords != "" {
		m["keywords"] = in.Keywords
	}
	if in.Section != "" {
		m["articleSection"] = in.Section
	}
	return m
}

// BreadcrumbItem maps a name to an absolute URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds a schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Graph combines several nodes into one JSON-LD document.
func Graph(nodes ...map[string]any) map[string]any {
	items := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		c := make(map[string]any, len(n))
		for k, v := range n {
			if k == "@context" {
				continue
			}
			c[k] = v
		}
		items = append(items, c)
	}
	return map[string]any{"@context": schemaContext, "@graph": items}
}
