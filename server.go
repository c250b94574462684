// Package golpo pre-renders the SEO shell of a Bangla story site: one
// index.html per public route with a fully populated <head>, plus the
// sitemap, feed and content-maintenance tools around it.
//
// The preview server in this file serves a finished build the way a static
// host would, and renders routes live from the SQLite catalog when one is
// configured.
package golpo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// App is the preview server. It wires together the output directory, the
// optional story store and cache, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *StoryCache

	log       logrus.FieldLogger
	ownsStore bool
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore serves sitemap, feed and live previews from s. The caller keeps
// ownership of s.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithLogger sets the logger used for requests and errors.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *App) {
		a.log = log
	}
}

// New creates a preview App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("component", "serve")
	return a
}

// Setup opens the store named by DatabasePath when none was injected, then
// installs middleware and routes. Start calls it; tests call it directly.
func (a *App) Setup() error {
	if a.Store == nil && a.Config.DatabasePath != "" {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("golpo: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}
	if a.Store != nil {
		a.Cache = NewStoryCache(a.Config, a.Store, a.Config.CacheTTL)
	}
	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// Start sets the app up and serves until the server is closed.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"addr":   a.Config.Addr,
		"output": a.Config.OutputDir,
		"live":   a.Cache != nil,
	}).Info("preview server listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/preview/*", a.handlePreview)
	e.POST("/preview/refresh", a.handleRefresh)
}

// Close releases the store when the app opened it.
func (a *App) Close() error {
	if a.ownsStore && a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
