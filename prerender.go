package golpo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"

	"github.com/eringen/golpo/seo"
)

// ErrTemplateMissing is returned when the HTML template cannot be found.
// Every route is rendered from it, so the run cannot continue.
var ErrTemplateMissing = errors.New("golpo: template not found")

// StorySource supplies the catalog when it does not come from a JSON file.
type StorySource interface {
	ListStories() ([]Story, error)
}

// RoutePlan is the deduplicated, capped list of pages one run renders.
type RoutePlan struct {
	Routes      []seo.Descriptor
	StoryRoutes int
	Skipped     int         // routes dropped because their path was unsafe
	Feed        []FeedEntry // first part of each rendered story, in catalog order
}

// FeedEntry is one story as it appears in the RSS feed.
type FeedEntry struct {
	Title       string
	Path        string
	Description string
	Date        string
}

// PlanRoutes builds every route for one run: the static table, then story
// parts of public stories, then taxonomy pages for the stories that got at
// least one route. Paths are deduplicated by
// output file. At most cfg.MaxStoryRoutes story routes are planned; once
// the cap is hit the remaining stories are skipped entirely.
func PlanRoutes(cfg SiteConfig, stories []Story) RoutePlan {
	var plan RoutePlan
	seen := make(map[string]bool)
	add := func(d seo.Descriptor) bool {
		key, err := routeKey(d.Path)
		if err != nil {
			plan.Skipped++
			return false
		}
		if seen[key] {
			return false
		}
		seen[key] = true
		plan.Routes = append(plan.Routes, d)
		return true
	}

	for _, d := range StaticDescriptors(cfg) {
		add(d)
	}

	maxRoutes := cfg.MaxStoryRoutes
	if maxRoutes <= 0 {
		maxRoutes = defaultMaxStoryRoutes
	}
	var rendered []Story
	for _, s := range stories {
		if !IsPublicStory(s) {
			continue
		}
		if plan.StoryRoutes >= maxRoutes {
			break
		}
		first := true
		for _, d := range StoryPartDescriptors(cfg, s) {
			if plan.StoryRoutes >= maxRoutes {
				break
			}
			if !add(d) {
				continue
			}
			plan.StoryRoutes++
			if first {
				plan.Feed = append(plan.Feed, FeedEntry{
					Title:       d.Title,
					Path:        d.Path,
					Description: d.Description,
					Date:        s.Date,
				})
				first = false
			}
		}
		if !first {
			rendered = append(rendered, s)
		}
	}

	for _, d := range TaxonomyDescriptors(cfg, rendered) {
		add(d)
	}
	return plan
}

// Prerenderer writes one HTML file per route into cfg.OutputDir.
type Prerenderer struct {
	cfg    SiteConfig
	log    logrus.FieldLogger
	source StorySource
}

// PrerenderOption configures a Prerenderer.
type PrerenderOption func(*Prerenderer)

// WithStorySource reads stories from src instead of cfg.StoriesPath.
func WithStorySource(src StorySource) PrerenderOption {
	return func(p *Prerenderer) {
		p.source = src
	}
}

// NewPrerenderer creates a Prerenderer.
func NewPrerenderer(cfg SiteConfig, log logrus.FieldLogger, opts ...PrerenderOption) *Prerenderer {
	cfg.setDefaults()
	p := &Prerenderer{
		cfg: cfg,
		log: log.WithField("component", "prerender"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summary reports what a run produced.
type Summary struct {
	Routes      int
	StoryRoutes int
	Skipped     int
	SitemapPath string
	FeedPath    string
}

// Run renders every planned route. A missing template or any failed write
// aborts the run; a missing story table only shrinks it.
func (p *Prerenderer) Run() (Summary, error) {
	tmpl, err := p.readTemplate()
	if err != nil {
		return Summary{}, err
	}
	stories := p.loadStories()
	plan := PlanRoutes(p.cfg, stories)
	site := p.cfg.SEOSite()

	for _, d := range plan.Routes {
		out, err := seo.BuildHTML(tmpl, site, d)
		if err != nil {
			return Summary{}, fmt.Errorf("golpo: render %s: %w", d.Path, err)
		}
		file, err := RouteToOutputFile(p.cfg.OutputDir, d.Path)
		if err != nil {
			return Summary{}, err
		}
		if err := WriteFileAtomic(file, []byte(out)); err != nil {
			return Summary{}, fmt.Errorf("golpo: write %s: %w", d.Path, err)
		}
		p.log.WithField("path", d.Path).Debug("rendered route")
	}

	sitemapPath, err := WriteSitemap(p.cfg, plan)
	if err != nil {
		return Summary{}, err
	}
	feedPath, err := WriteFeed(p.cfg, plan)
	if err != nil {
		return Summary{}, err
	}

	if plan.Skipped > 0 {
		p.log.WithField("skipped", plan.Skipped).Warn("skipped routes with unsafe paths")
	}
	p.log.WithFields(logrus.Fields{
		"routes":       len(plan.Routes),
		"story_routes": plan.StoryRoutes,
		"output":       p.cfg.OutputDir,
	}).Infof("generated %d routes (%d story routes)", len(plan.Routes), plan.StoryRoutes)

	return Summary{
		Routes:      len(plan.Routes),
		StoryRoutes: plan.StoryRoutes,
		Skipped:     plan.Skipped,
		SitemapPath: sitemapPath,
		FeedPath:    feedPath,
	}, nil
}

func (p *Prerenderer) readTemplate() (string, error) {
	data, err := os.ReadFile(p.cfg.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateMissing, p.cfg.TemplatePath)
		}
		return "", fmt.Errorf("golpo: read template: %w", err)
	}
	return string(data), nil
}

func (p *Prerenderer) loadStories() []Story {
	if p.source == nil {
		return LoadStoriesFile(p.cfg.StoriesPath, p.log)
	}
	stories, err := p.source.ListStories()
	if err != nil {
		p.log.WithError(err).Warn("cannot load stories from store, rendering static routes only")
		return nil
	}
	return stories
}

// WriteFileAtomic writes data to path through a temp file and rename,
// creating parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile leaves new files with temp-file permissions.
	return os.Chmod(path, 0o644)
}
