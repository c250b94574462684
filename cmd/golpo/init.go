package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/golpo/scaffold"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool
	var siteName, siteURL string
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write starter golpo.yaml, robots.txt, ads.txt and a sample story table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			// --config and SITE_URL seed the starter file; flags win over both.
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data := scaffold.Data{
				SiteName: cfg.Name,
				SiteURL:  cfg.URL,
				Today:    time.Now().Format("2006-01-02"),
			}
			if siteName != "" {
				data.SiteName = siteName
			}
			if siteURL != "" {
				data.SiteURL = siteURL
			}

			created, err := scaffold.Write(dir, data, force)
			w := cmd.OutOrStdout()
			for _, path := range created {
				fmt.Fprintf(w, "  created %s\n", path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "\nNext: build the SPA, then run 'golpo prerender'.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	cmd.Flags().StringVar(&siteName, "name", "", "site name")
	cmd.Flags().StringVar(&siteURL, "url", "", "canonical base URL")
	return cmd
}
