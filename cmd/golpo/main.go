// Command golpo builds and maintains the pre-rendered SEO shell of the story
// site: prerender routes, repair mojibake, import the story table into
// SQLite, move inline images to files, check ads readiness and preview the
// result.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eringen/golpo"
)

// version is set at build time via ldflags.
var version = "dev"

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

func main() {
	log := logrus.New()
	if err := newRootCmd(log).Execute(); err != nil {
		log.WithError(err).Error("golpo failed")
		os.Exit(1)
	}
}

func newRootCmd(log *logrus.Logger) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "golpo",
		Short: "Pre-render and maintain the Bangla story site",
		Long: `golpo writes one index.html per public route of the story site, each with a
complete <head> (title, description, canonical, Open Graph, Twitter and
JSON-LD), plus sitemap.xml and feed.xml.

Configuration comes from golpo.yaml, then the environment (SITE_URL and the
hosting providers' URL variables, MAX_PARTS_PER_STORY, MAX_STORY_ROUTES, ...),
then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(log, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default ./golpo.yaml when present)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newPrerenderCmd(log, opts),
		newRepairCmd(log, opts),
		newImportCmd(log, opts),
		newRemoveCmd(log, opts),
		newImagesCmd(log, opts),
		newCheckCmd(log, opts),
		newServeCmd(log, opts),
		newInitCmd(opts),
		newVersionCmd(),
	)
	return root
}

func setupLogger(log *logrus.Logger, opts *globalOptions) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(level)
	switch strings.ToLower(opts.logFormat) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid --log-format %q", opts.logFormat)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the golpo version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "golpo %s\n", version)
		},
	}
}

// loadConfig reads the layered configuration for a command.
func loadConfig(opts *globalOptions) (golpo.SiteConfig, error) {
	return golpo.LoadConfig(opts.configFile)
}
