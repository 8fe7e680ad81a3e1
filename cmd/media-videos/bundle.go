package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-video-agent/internal/archive"
	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/tools"
)

var (
	bundleNameFlag string
	bundleMaxFlag  int
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Pack generated videos into zstd-compressed ZIP files and publish them to S3 when configured",
	Args:  cobra.NoArgs,
	Run:   runBundle,
}

func init() {
	bundleCmd.Flags().StringVar(&bundleNameFlag, "name", "media", "Prefix for the ZIP file names")
	bundleCmd.Flags().IntVar(&bundleMaxFlag, "max-mb", 375, "Maximum input megabytes per ZIP")
}

func runBundle(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	bundles, err := archive.BundleVideos(cfg.VideosDir(), cfg.BundlesDir(), archive.Options{
		Name:           bundleNameFlag,
		MaxBundleBytes: int64(bundleMaxFlag) * 1024 * 1024,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Bundling failed")
	}
	if len(bundles) == 0 {
		fmt.Println("No videos to bundle")
		return
	}
	for _, b := range bundles {
		fmt.Printf("%s  %d files  %.1f MB -> %.1f MB\n", b.Path, len(b.Files),
			float64(b.InputSize)/(1024*1024), float64(b.ZipSize)/(1024*1024))
	}

	if pub := cli.InitPublisher(cmd.Context(), cfg); pub != nil {
		keys, err := tools.PublishBundles(cmd.Context(), pub, bundles)
		for _, k := range keys {
			fmt.Printf("Published %s\n", k)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Publishing bundles failed")
		}
	}
}
