package golpo

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/golpo/seo"
)

// privateRobotsPaths are kept out of crawlers' way in the generated robots.txt.
var privateRobotsPaths = []string{"/login", "/signup", "/forgot-password", "/preview/"}

// plan returns the live route plan from the cache, or the plan for the
// stories file when no store is configured.
func (a *App) plan() (RoutePlan, error) {
	if a.Cache != nil {
		return a.Cache.Plan()
	}
	return PlanRoutes(a.Config, LoadStoriesFile(a.Config.StoriesPath, a.log)), nil
}

// serveBuilt serves name from the output directory, or a 404 when the build
// has not produced it.
func (a *App) serveBuilt(c echo.Context, name string) error {
	path := filepath.Join(a.Config.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		return echo.ErrNotFound
	}
	return c.File(path)
}

func (a *App) handleSitemap(c echo.Context) error {
	if a.Cache == nil {
		return a.serveBuilt(c, "sitemap.xml")
	}
	plan, err := a.Cache.Plan()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, plan)
}

func (a *App) handleFeed(c echo.Context) error {
	if a.Cache == nil {
		return a.serveBuilt(c, "feed.xml")
	}
	plan, err := a.Cache.Plan()
	if err != nil {
		return err
	}
	return a.renderRSS(c, plan)
}

func (a *App) handleRobots(c echo.Context) error {
	if path := filepath.Join(a.Config.PublicDir, "robots.txt"); fileExists(path) {
		return c.File(path)
	}
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	for _, p := range privateRobotsPaths {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + seo.CanonicalURL(a.Config.URL, "/sitemap.xml") + "\n")
	return c.String(http.StatusOK, b.String())
}

// handlePreview renders one route from the current template and catalog
// without writing anything, so head changes can be inspected before a build.
func (a *App) handlePreview(c echo.Context) error {
	key, err := routeKey("/" + c.Param("*"))
	if err != nil {
		return echo.ErrNotFound
	}
	plan, err := a.plan()
	if err != nil {
		return err
	}
	for _, d := range plan.Routes {
		if k, err := routeKey(d.Path); err != nil || k != key {
			continue
		}
		tmpl, err := os.ReadFile(a.Config.TemplatePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrTemplateMissing, a.Config.TemplatePath)
			}
			return err
		}
		out, err := seo.BuildHTML(string(tmpl), a.Config.SEOSite(), d)
		if err != nil {
			return err
		}
		return c.HTML(http.StatusOK, out)
	}
	return a.previewStory(c, key)
}

// previewStory redirects /preview/stories/<segment> to the preview of the
// story's first part.
func (a *App) previewStory(c echo.Context, key string) error {
	segment, ok := strings.CutPrefix(key, "stories/")
	if !ok || segment == "" || strings.Contains(segment, "/") || a.Cache == nil {
		return echo.ErrNotFound
	}
	st, err := a.Cache.GetStory(segment)
	if errors.Is(err, ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	parts := StoryPartDescriptors(a.Config, st)
	if len(parts) == 0 {
		return echo.ErrNotFound
	}
	return c.Redirect(http.StatusFound, "/preview"+parts[0].Path)
}

// handleRefresh drops the cached catalog so the next request sees rows
// imported since the server started.
func (a *App) handleRefresh(c echo.Context) error {
	if a.Cache == nil {
		return echo.ErrNotFound
	}
	a.Cache.Invalidate()
	a.log.Info("story cache invalidated")
	return c.NoContent(http.StatusNoContent)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, notFoundPage(a.Config.Name))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
		_ = RenderStatus(c, code, serverErrorPage(a.Config.Name))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
