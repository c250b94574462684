package golpo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"

	"github.com/eringen/golpo/mojibake"
	"github.com/eringen/golpo/seo"
)

// Sentinels around the JSON blob legacy rows embed in their excerpt.
const (
	legacyMetaStart = "[[STORY_META]]"
	legacyMetaEnd   = "[[/STORY_META]]"
)

// partPlaceholder is used when a part has no text to describe it.
const partPlaceholder = "গল্পের এই পর্বটি পড়ুন ও শুনুন।"

var publicStatuses = map[string]bool{
	"published": true,
	"completed": true,
	"ongoing":   true,
}

// legacyPartRe matches old part titles such as "পর্ব ৩" or "পর্ব-12".
var legacyPartRe = regexp.MustCompile(`^পর্ব\s*[-:।.]?\s*([০-৯0-9]+)$`)

var banglaDigits = map[rune]rune{
	'০': '0', '১': '1', '২': '2', '৩': '3', '৪': '4',
	'৫': '5', '৬': '6', '৭': '7', '৮': '8', '৯': '9',
}

// LoadStoriesFile reads a {"rows": [...]} story table. The file is optional:
// a missing or unreadable file yields no stories and a warning, never an
// error. Comments and trailing commas are accepted.
func LoadStoriesFile(path string, log logrus.FieldLogger) []Story {
	log = log.WithField("path", path)
	stories, err := ReadStoriesFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("stories file not found, rendering static routes only")
		} else {
			log.WithError(err).Warn("cannot load stories file")
		}
		return nil
	}
	return stories
}

// ReadStoriesFile is LoadStoriesFile for callers that need the error.
func ReadStoriesFile(path string) ([]Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseStories(data)
}

// ParseStories decodes a story table, repairs mojibake in every text field
// and maps the rows onto Story. A bare array of rows is accepted as well.
func ParseStories(data []byte) ([]Story, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("golpo: stories json: %w", err)
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("golpo: stories json: %w", err)
	}

	var rows []any
	switch t := raw.(type) {
	case map[string]any:
		rows, _ = t["rows"].([]any)
	case []any:
		rows = t
	default:
		return nil, fmt.Errorf("golpo: stories json: unexpected top-level %T", raw)
	}

	stories := make([]Story, 0, len(rows))
	for _, r := range rows {
		row, ok := mojibake.RepairValue(r).(map[string]any)
		if !ok {
			continue
		}
		stories = append(stories, storyFromRow(row))
	}
	return stories, nil
}

func storyFromRow(row map[string]any) Story {
	return Story{
		ID:         stringField(row, "id"),
		Slug:       stringField(row, "slug"),
		Title:      stringField(row, "title"),
		Author:     stringField(row, "author", "author_name"),
		Category:   stringField(row, "category"),
		Tags:       tagsField(row["tags"]),
		Status:     stringField(row, "status"),
		Date:       stringField(row, "date", "created_at", "createdAt"),
		UpdatedAt:  stringField(row, "updated_at", "updatedAt"),
		CoverImage: stringField(row, "cover_image", "coverImage", "image"),
		Content:    stringField(row, "content"),
		Excerpt:    stringField(row, "excerpt"),
		Parts:      partsField(row["parts"]),
	}
}

// stringField returns the first key holding a usable scalar. Numbers keep
// their literal form; objects with a "name" (authors) yield the name.
func stringField(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(row[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		return scalarString(t["name"])
	default:
		return ""
	}
}

func tagsField(v any) []string {
	switch t := v.(type) {
	case string:
		return UniqueFold(ParseTags(t))
	case []any:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			tags = append(tags, scalarString(item))
		}
		return UniqueFold(tags)
	default:
		return nil
	}
}

func partsField(v any) []StoryPart {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case string:
		// Some exports store parts as a JSON string column.
		if strings.TrimSpace(t) == "" || json.Unmarshal([]byte(t), &items) != nil {
			return nil
		}
	default:
		return nil
	}
	parts := make([]StoryPart, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		parts = append(parts, StoryPart{
			Title:   stringField(m, "title"),
			Slug:    stringField(m, "slug"),
			Content: stringField(m, "content"),
		})
	}
	return parts
}

// ParseLegacyMeta extracts the metadata blob from an excerpt. rest is the
// excerpt without the blob. When the markers are missing or the blob is not
// valid JSON, ok is false and rest is the raw excerpt.
func ParseLegacyMeta(excerpt string) (meta LegacyMeta, rest string, ok bool) {
	start := strings.Index(excerpt, legacyMetaStart)
	if start < 0 {
		return LegacyMeta{}, excerpt, false
	}
	bodyStart := start + len(legacyMetaStart)
	end := strings.Index(excerpt[bodyStart:], legacyMetaEnd)
	if end < 0 {
		return LegacyMeta{}, excerpt, false
	}
	blob := excerpt[bodyStart : bodyStart+end]
	if err := json.Unmarshal([]byte(strings.TrimSpace(blob)), &meta); err != nil {
		return LegacyMeta{}, excerpt, false
	}
	rest = strings.TrimSpace(excerpt[:start] + excerpt[bodyStart+end+len(legacyMetaEnd):])
	return meta, rest, true
}

// storyInfo caches what several derivations need from one story.
type storyInfo struct {
	meta    LegacyMeta
	metaOK  bool
	rest    string // excerpt without the legacy blob
	excerpt string // repaired plain-text excerpt
}

func inspectStory(s Story) storyInfo {
	meta, rest, ok := ParseLegacyMeta(s.Excerpt)
	info := storyInfo{meta: meta, metaOK: ok, rest: rest}
	info.excerpt = PlainText(mojibake.Repair(firstNonEmpty(meta.Excerpt, rest)))
	return info
}

// IsPublicStory reports whether a story may be rendered. Stories without a
// status are public; otherwise only published, completed and ongoing ones.
func IsPublicStory(s Story) bool {
	status := strings.ToLower(strings.TrimSpace(s.Status))
	if status == "" {
		return true
	}
	return publicStatuses[status]
}

// StorySegment returns the URL segment identifying a story: explicit slug,
// then the legacy metadata slug, then the slugified title, then the id.
// An empty result means the story gets no routes.
func StorySegment(s Story) string {
	meta, _, _ := ParseLegacyMeta(s.Excerpt)
	for _, candidate := range []string{
		strings.TrimSpace(s.Slug),
		strings.TrimSpace(meta.Slug),
		Slugify(s.Title),
		strings.TrimSpace(s.ID),
	} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// NormalizePartTitle turns legacy "পর্ব ৩" titles into "Part 03". Other
// titles are returned trimmed; an empty title becomes "Part NN" for the
// 1-based index and fallback is true.
func NormalizePartTitle(title string, index int) (normalized string, fallback bool) {
	title = strings.TrimSpace(title)
	if m := legacyPartRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(latinDigits(m[1])); err == nil {
			return fmt.Sprintf("Part %02d", n), false
		}
	}
	if title != "" {
		return title, false
	}
	return fmt.Sprintf("Part %02d", index), true
}

func latinDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if d, ok := banglaDigits[r]; ok {
			r = d
		}
		b.WriteRune(r)
	}
	return b.String()
}

// storyParts resolves the parts to render: explicit parts, then parts from
// the legacy metadata, then one synthetic part from the flat text fields.
func storyParts(s Story, info storyInfo) []StoryPart {
	if len(s.Parts) > 0 {
		return s.Parts
	}
	if info.metaOK && len(info.meta.Parts) > 0 {
		return info.meta.Parts
	}
	return []StoryPart{{Content: firstNonEmpty(s.Content, info.rest, info.excerpt)}}
}

// partSegment is the URL segment of one part.
func partSegment(p StoryPart, title string, fallback bool, index int) string {
	if !fallback {
		if seg := Slugify(title); seg != "" {
			return seg
		}
	}
	if seg := Slugify(p.Slug); seg != "" {
		return seg
	}
	return strconv.Itoa(index)
}

func storyImage(cfg SiteConfig, s Story, info storyInfo) string {
	for _, img := range []string{s.CoverImage, info.meta.CoverImage} {
		img = strings.TrimSpace(img)
		// Inline data URIs are unusable as share images.
		if img != "" && !strings.HasPrefix(img, "data:") {
			return img
		}
	}
	return cfg.DefaultImage
}

// StoryPartDescriptors returns one descriptor per part of s, at most
// cfg.MaxPartsPerStory. Stories without a usable segment yield nothing.
func StoryPartDescriptors(cfg SiteConfig, s Story) []seo.Descriptor {
	segment := StorySegment(s)
	if segment == "" {
		return nil
	}
	info := inspectStory(s)
	parts := storyParts(s, info)
	if cfg.MaxPartsPerStory > 0 && len(parts) > cfg.MaxPartsPerStory {
		parts = parts[:cfg.MaxPartsPerStory]
	}

	author := firstNonEmpty(s.Author, cfg.Author)
	image := storyImage(cfg, s, info)
	imageURL := seo.ResolveImageURL(cfg.URL, image)
	keywords := JoinTags(UniqueFold(append([]string{s.Title, s.Category, author}, s.Tags...)))
	modified := firstNonEmpty(s.UpdatedAt, s.Date)
	storyContent := PlainText(s.Content)

	out := make([]seo.Descriptor, 0, len(parts))
	for i, p := range parts {
		index := i + 1
		partTitle, fallback := NormalizePartTitle(p.Title, index)
		path := "/stories/" + PathEscape(segment) + "/part/" + PathEscape(partSegment(p, partTitle, fallback, index))

		headline := partTitle
		if s.Title != "" {
			headline = s.Title + " - " + partTitle
		}
		description := seo.Truncate(firstNonEmpty(
			PlainText(p.Content),
			info.excerpt,
			storyContent,
			partPlaceholder,
		), seo.DescriptionLimit)
		canonical := seo.CanonicalURL(cfg.URL, path)

		out = append(out, seo.Descriptor{
			Path:          path,
			Title:         headline + " | " + cfg.Name,
			Description:   description,
			Keywords:      keywords,
			OGType:        seo.TypeArticle,
			OGImage:       image,
			ImageAlt:      firstNonEmpty(s.Title, partTitle),
			Author:        author,
			PublishedTime: s.Date,
			ModifiedTime:  modified,
			JSONLD: seo.Article(seo.ArticleInput{
				Headline:      headline,
				Description:   description,
				URL:           canonical,
				Images:        []string{imageURL},
				Author:        author,
				Publisher:     cfg.Name,
				DatePublished: s.Date,
				DateModified:  modified,
				Keywords:      keywords,
				Section:       s.Category,
			}),
		})
	}
	return out
}
