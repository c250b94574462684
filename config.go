package golpo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eringen/golpo/seo"
)

// SiteConfig holds all configuration for a golpo build or preview server.
type SiteConfig struct {
	Name         string `mapstructure:"site_name"`        // Site name (default "গল্পকথা")
	URL          string `mapstructure:"site_url"`         // Canonical base URL, no trailing slash
	Description  string `mapstructure:"site_description"` // Home page description
	Author       string `mapstructure:"site_author"`      // Fallback story author and voice artist name
	TwitterSite  string `mapstructure:"twitter_site"`     // twitter:site handle
	Locale       string `mapstructure:"locale"`           // og:locale (default "bn_BD")
	DefaultImage string `mapstructure:"og_image"`         // Fallback share image (default "/og-image.jpg")

	TemplatePath string `mapstructure:"template_path"` // Built SPA index.html (default "dist/index.html")
	StoriesPath  string `mapstructure:"stories_path"`  // Story table JSON (default "data/stories.json")
	OutputDir    string `mapstructure:"output_dir"`    // Pre-render output root (default "dist")
	PublicDir    string `mapstructure:"public_dir"`    // Static assets, ads.txt, uploads (default "public")
	DatabasePath string `mapstructure:"database_path"` // Optional SQLite story store

	MaxPartsPerStory int `mapstructure:"-"` // MAX_PARTS_PER_STORY (default 200)
	MaxStoryRoutes   int `mapstructure:"-"` // MAX_STORY_ROUTES (default 5000)
	FeedLimit        int `mapstructure:"feed_limit"`
	MinStoryRoutes   int `mapstructure:"min_story_routes"` // readiness check threshold
	MaxImageWidth    int `mapstructure:"max_image_width"`

	Addr     string        `mapstructure:"addr"`      // Preview server listen address (default ":3000")
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // Story cache TTL for the preview server (default 5min)
}

const (
	defaultMaxPartsPerStory = 200
	defaultMaxStoryRoutes   = 5000
)

// siteURLEnv lists the variables consulted for the base URL, in order.
// Hosting providers expose the deploy URL under their own names.
var siteURLEnv = []string{
	"SITE_URL",
	"VITE_SITE_URL",
	"PUBLIC_SITE_URL",
	"URL",
	"DEPLOY_PRIME_URL",
	"VERCEL_PROJECT_PRODUCTION_URL",
	"VERCEL_URL",
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "গল্পকথা"
	}
	c.URL = normalizeBaseURL(c.URL)
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Description == "" {
		c.Description = "বাংলা গল্প, অডিওবুক আর কণ্ঠশিল্পীর কাজের সংগ্রহ।"
	}
	if c.Locale == "" {
		c.Locale = "bn_BD"
	}
	if c.DefaultImage == "" {
		c.DefaultImage = "/og-image.jpg"
	}
	if c.TemplatePath == "" {
		c.TemplatePath = "dist/index.html"
	}
	if c.StoriesPath == "" {
		c.StoriesPath = "data/stories.json"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.MaxPartsPerStory <= 0 {
		c.MaxPartsPerStory = defaultMaxPartsPerStory
	}
	if c.MaxStoryRoutes <= 0 {
		c.MaxStoryRoutes = defaultMaxStoryRoutes
	}
	if c.FeedLimit <= 0 {
		c.FeedLimit = 50
	}
	if c.MinStoryRoutes <= 0 {
		c.MinStoryRoutes = 10
	}
	if c.MaxImageWidth <= 0 {
		c.MaxImageWidth = 1200
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// SEOSite returns the values every rendered page shares.
func (c SiteConfig) SEOSite() seo.Site {
	return seo.Site{
		BaseURL:     c.URL,
		Name:        c.Name,
		TwitterSite: c.TwitterSite,
		Locale:      c.Locale,
	}
}

// DefaultConfig returns a SiteConfig with every default applied.
func DefaultConfig() SiteConfig {
	var c SiteConfig
	c.setDefaults()
	return c
}

// LoadConfig reads golpo.yaml (or configFile when non-empty) and the
// environment. A missing default config file is not an error; a missing
// explicit one is.
func LoadConfig(configFile string) (SiteConfig, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("golpo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	binds := map[string][]string{
		"site_name":           {"SITE_NAME"},
		"site_url":            siteURLEnv,
		"site_description":    {"SITE_DESCRIPTION"},
		"site_author":         {"SITE_AUTHOR"},
		"twitter_site":        {"TWITTER_SITE"},
		"locale":              {"SITE_LOCALE"},
		"og_image":            {"OG_IMAGE"},
		"template_path":       {"TEMPLATE_PATH"},
		"stories_path":        {"STORIES_PATH"},
		"output_dir":          {"OUTPUT_DIR"},
		"public_dir":          {"PUBLIC_DIR"},
		"database_path":       {"DATABASE_PATH"},
		"max_parts_per_story": {"MAX_PARTS_PER_STORY"},
		"max_story_routes":    {"MAX_STORY_ROUTES"},
		"feed_limit":          {"FEED_LIMIT"},
		"min_story_routes":    {"MIN_STORY_ROUTES"},
		"max_image_width":     {"MAX_IMAGE_WIDTH"},
		"addr":                {"ADDR"},
		"cache_ttl":           {"CACHE_TTL"},
	}
	for key, envs := range binds {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return SiteConfig{}, fmt.Errorf("golpo: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return SiteConfig{}, fmt.Errorf("golpo: read config: %w", err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("golpo: decode config: %w", err)
	}
	// Caps fall back to their defaults on garbage instead of failing the build.
	cfg.MaxPartsPerStory = v.GetInt("max_parts_per_story")
	cfg.MaxStoryRoutes = v.GetInt("max_story_routes")

	cfg.setDefaults()
	return cfg, nil
}

// normalizeBaseURL trims the trailing slash and adds https:// to bare hosts
// such as VERCEL_URL.
func normalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	return strings.TrimRight(u, "/")
}
