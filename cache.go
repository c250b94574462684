package golpo

import (
	"sync"
	"time"
)

// StoryCache is an in-memory cache of the story catalog and the route plan
// derived from it, refreshed after ttl.
type StoryCache struct {
	mu      sync.RWMutex
	stories []Story
	plan    RoutePlan
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	cfg     SiteConfig
	store   *Store
}

// NewStoryCache creates a StoryCache backed by the given Store.
func NewStoryCache(cfg SiteConfig, s *Store, ttl time.Duration) *StoryCache {
	return &StoryCache{cfg: cfg, store: s, ttl: ttl}
}

func (c *StoryCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *StoryCache) Invalidate() {
	c.mu.Lock()
	c.stories = nil
	c.plan = RoutePlan{}
	c.loaded = false
	c.mu.Unlock()
}

func (c *StoryCache) load() error {
	if c.valid() {
		return nil
	}
	var stories []Story
	if c.store != nil {
		var err error
		if stories, err = c.store.ListStories(); err != nil {
			return err
		}
	}
	c.stories = stories
	c.plan = PlanRoutes(c.cfg, stories)
	c.loaded = true
	c.fetched = time.Now()
	return nil
}

// ensureLoaded takes a read lock first and upgrades only when a reload is due.
func (c *StoryCache) ensureLoaded() error {
	c.mu.RLock()
	if c.valid() {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// ListStories returns the public stories.
func (c *StoryCache) ListStories() ([]Story, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var public []Story
	for _, s := range c.stories {
		if IsPublicStory(s) {
			public = append(public, s)
		}
	}
	return public, nil
}

// Plan returns the route plan for the cached catalog.
func (c *StoryCache) Plan() (RoutePlan, error) {
	if err := c.ensureLoaded(); err != nil {
		return RoutePlan{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan, nil
}

// GetStory returns a public story by its URL segment.
func (c *StoryCache) GetStory(segment string) (Story, error) {
	stories, err := c.ListStories()
	if err != nil {
		return Story{}, err
	}
	for _, s := range stories {
		if StorySegment(s) == segment {
			return s, nil
		}
	}
	return Story{}, ErrNotFound
}
