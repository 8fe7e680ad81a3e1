package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-video-agent/internal/wordpress"
)

var (
	urlFlag    string
	limitFlag  int
	dryRunFlag bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"download"},
	Short:   "Download product images from a WordPress media library",
	Long: `Pages through /wp-json/wp/v2/media and keeps images at least 300x300 whose URL
does not look like a logo, icon, banner, screenshot or background. Existing
files are skipped, so the command can be re-run safely.`,
	Args: cobra.NoArgs,
	Run:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringVarP(&urlFlag, "url", "u", "", "WordPress site URL (default: WORDPRESS_URL)")
	catalogCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Download only the first N images (0 = all)")
	catalogCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "List candidate image URLs without downloading")
}

func runCatalog(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	site := urlFlag
	if site == "" {
		site = cfg.WordPress.URL
	}
	if site == "" {
		log.Fatal().Msg("No WordPress URL. Pass --url or set WORDPRESS_URL")
	}

	client, err := wordpress.NewClient(site,
		wordpress.WithMinDimension(cfg.WordPress.MinDimension),
		wordpress.WithExcludeKeywords(cfg.WordPress.ExcludeKeywords),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid WordPress URL")
	}

	ctx := cmd.Context()
	start := time.Now()

	if dryRunFlag {
		urls := client.FetchMediaURLs(ctx)
		for _, u := range urls {
			fmt.Println(u)
		}
		fmt.Printf("\n%d candidate images (%s)\n", len(urls), elapsed(start))
		return
	}

	limit := limitFlag
	if limit <= 0 {
		limit = cfg.WordPress.DownloadLimit
	}
	dest := cfg.ImagesDir("")
	result, err := client.Run(ctx, dest, limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Download failed")
	}

	r := result.Report
	fmt.Println()
	fmt.Println("============================================")
	fmt.Printf("Site:        %s\n", site)
	fmt.Printf("Found:       %d\n", result.Found)
	fmt.Printf("Downloaded:  %d\n", len(r.Downloaded))
	fmt.Printf("Skipped:     %d\n", len(r.Skipped))
	fmt.Printf("Failed:      %d\n", len(r.Failed))
	fmt.Printf("Destination: %s\n", dest)
	fmt.Printf("Elapsed:     %s\n", elapsed(start))
	for u, msg := range r.Failed {
		fmt.Printf("  FAILED %s: %s\n", filepath.Base(u), msg)
	}
}
