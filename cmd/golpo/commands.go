package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/eringen/golpo"
)

var errNotReady = errors.New("site is not ready")

// pathFlag is a string flag that overrides one config field when set.
type pathFlag struct {
	name  string
	usage string
	field func(*golpo.SiteConfig) *string
}

var (
	flagSiteURL  = pathFlag{"site-url", "canonical base URL", func(c *golpo.SiteConfig) *string { return &c.URL }}
	flagTemplate = pathFlag{"template", "built SPA index.html", func(c *golpo.SiteConfig) *string { return &c.TemplatePath }}
	flagStories  = pathFlag{"stories", "story table JSON", func(c *golpo.SiteConfig) *string { return &c.StoriesPath }}
	flagOutput   = pathFlag{"out-dir", "output directory", func(c *golpo.SiteConfig) *string { return &c.OutputDir }}
	flagPublic   = pathFlag{"public-dir", "public assets directory", func(c *golpo.SiteConfig) *string { return &c.PublicDir }}
	flagDB       = pathFlag{"db", "SQLite story database", func(c *golpo.SiteConfig) *string { return &c.DatabasePath }}
	flagAddr     = pathFlag{"addr", "listen address", func(c *golpo.SiteConfig) *string { return &c.Addr }}
)

func registerFlags(fs *pflag.FlagSet, flags ...pathFlag) {
	for _, f := range flags {
		fs.String(f.name, "", f.usage)
	}
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(fs *pflag.FlagSet, cfg *golpo.SiteConfig, flags ...pathFlag) {
	for _, f := range flags {
		if !fs.Changed(f.name) {
			continue
		}
		v, err := fs.GetString(f.name)
		if err != nil {
			continue
		}
		*f.field(cfg) = v
	}
}

// commandConfig loads config and applies the command's flags.
func commandConfig(cmd *cobra.Command, opts *globalOptions, flags ...pathFlag) (golpo.SiteConfig, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return golpo.SiteConfig{}, err
	}
	applyFlags(cmd.Flags(), &cfg, flags...)
	return cfg, nil
}

func newPrerenderCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagSiteURL, flagTemplate, flagStories, flagOutput, flagDB}
	cmd := &cobra.Command{
		Use:   "prerender",
		Short: "Write one index.html per route plus sitemap.xml and feed.xml",
		Long: `Reads the built SPA shell and the story table (or the SQLite catalog when
--db is set), and writes <out-dir>/<route>/index.html for every static page,
every part of every public story and every author, category and tag page.

A missing template is fatal. A missing or unreadable story table only
limits the build to the static routes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			var popts []golpo.PrerenderOption
			if cfg.DatabasePath != "" {
				store, err := golpo.NewStore(cfg.DatabasePath)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer store.Close()
				popts = append(popts, golpo.WithStorySource(store))
			}
			summary, err := golpo.NewPrerenderer(cfg, log, popts...).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d routes (%d story routes)\n", summary.Routes, summary.StoryRoutes)
			return nil
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}

func newRepairCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "repair <file.json>",
		Short: "Repair mojibake in every string of a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := golpo.RepairFile(args[0], out)
			if err != nil {
				return err
			}
			target := out
			if target == "" {
				target = args[0]
			}
			log.WithFields(logrus.Fields{"file": args[0], "changed": changed}).Info("repair finished")
			if changed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d strings into %s\n", changed, target)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to repair")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result here instead of in place")
	return cmd
}

func newImportCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagStories, flagDB}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the story table into the SQLite catalog",
		Long: `Parses the story table (repairing mojibake on the way) and upserts every row
with an id into the SQLite catalog named by --db or DATABASE_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			if cfg.DatabasePath == "" {
				return errors.New("import needs --db or DATABASE_PATH")
			}
			stories, err := golpo.ReadStoriesFile(cfg.StoriesPath)
			if err != nil {
				return err
			}
			store, err := golpo.NewStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			n, err := store.SaveStories(stories)
			if err != nil {
				return err
			}
			tags, err := store.ListTags()
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"rows":     len(stories),
				"imported": n,
				"tags":     len(tags),
				"db":       cfg.DatabasePath,
			}).Info("import finished")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d stories (%d public tags)\n", n, len(stories), len(tags))
			return nil
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}

func newRemoveCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagDB}
	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Delete stories from the SQLite catalog by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			if cfg.DatabasePath == "" {
				return errors.New("remove needs --db or DATABASE_PATH")
			}
			store, err := golpo.NewStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			for _, id := range args {
				st, err := store.GetStory(id)
				if err != nil {
					return fmt.Errorf("story %s: %w", id, err)
				}
				if err := store.DeleteStory(id); err != nil {
					return fmt.Errorf("remove story %s: %w", id, err)
				}
				log.WithFields(logrus.Fields{"id": id, "slug": st.Slug}).Info("story removed")
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", id, st.Title)
			}
			return nil
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}

func newImagesCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagStories, flagPublic}
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Move inline data-URI images out of the story table into files",
		Long: `Finds data:image/...;base64 URIs anywhere in the story table, writes each
distinct image as a resized JPEG under <public-dir>/uploads and replaces the
URI with /uploads/<file>. The table is rewritten in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			report, err := golpo.NewImageMigrator(cfg, log).MigrateFile(cfg.StoriesPath)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"found":    report.Found,
				"written":  report.Written,
				"replaced": report.Replaced,
				"failed":   report.Failed,
			}).Info("image migration finished")
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced %d inline images (%d files written, %d left in place)\n",
				report.Replaced, report.Written, report.Failed)
			return nil
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}

func newCheckCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagOutput, flagPublic}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a finished build for ads review readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			report, err := golpo.CheckReadiness(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, issue := range report.Issues {
				fmt.Fprintf(w, "FAIL %s\n", issue)
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d issues", errNotReady, len(report.Issues))
			}
			fmt.Fprintf(w, "OK (%d story pages)\n", report.StoryPages)
			return nil
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}

func newServeCmd(log *logrus.Logger, opts *globalOptions) *cobra.Command {
	flags := []pathFlag{flagSiteURL, flagTemplate, flagStories, flagOutput, flagPublic, flagDB, flagAddr}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build locally, with live previews at /preview/<route>",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd, opts, flags...)
			if err != nil {
				return err
			}
			app := golpo.New(cfg, golpo.WithLogger(log))
			defer app.Close()
			return app.Start()
		},
	}
	registerFlags(cmd.Flags(), flags...)
	return cmd
}
