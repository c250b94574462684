package golpo

import (
	"html"
	"net/url"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// textPolicy strips every tag; used to turn stored HTML into plain text.
var textPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Slugify converts text to a URL segment. Letters, numbers and combining
// marks of any script survive, so Bangla conjuncts stay intact; whitespace
// becomes "-" and everything else is dropped.
func Slugify(s string) string {
	s = norm.NFKC.String(strings.ToLower(norm.NFKC.String(s)))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.Is(unicode.M, r):
			b.WriteRune(r)
			prev = false
		case unicode.IsSpace(r), r == '-':
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	// Dropping characters can leave a base and a mark adjacent; recompose.
	return norm.NFKC.String(strings.TrimRight(b.String(), "-"))
}

// PlainText strips markup from s, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// UniqueFold trims vals and drops empty and case-insensitive duplicates,
// keeping first occurrences in order.
func UniqueFold(vals []string) []string {
	seen := make(map[string]struct{}, len(vals))
	var out []string
	for _, v := range FilterEmpty(vals) {
		k := normalizeTag(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// ParseTags splits a comma-delimited tag string (e.g. ",golpo,bhoot,") into a slice.
func ParseTags(tagString string) []string {
	return FilterEmpty(strings.Split(tagString, ","))
}
