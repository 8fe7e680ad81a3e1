// Package main provides the media-videos CLI: download product images from a
// WordPress media library and turn them into short videos with Veo.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/logging"
)

// Global flags
var (
	configFlag   string
	rootFlag     string
	platformFlag string
	pickFlag     bool
)

// rootCmd is the main Cobra command for the media-videos CLI.
var rootCmd = &cobra.Command{
	Use:   "media-videos",
	Short: "Download catalog images and generate product videos with Veo",
	Long: `media-videos discovers product images in a WordPress media library, downloads
them into images/<platform>/, and generates a short video for each image with
Google's Veo model. Videos are written to videos/ and optionally published to S3.

Configuration comes from .env, an optional YAML file (--config or MEDIA_CONFIG)
and environment variables. Flags override all of them.

Examples:
  media-videos catalog --url https://shop.example.com --limit 5
  media-videos list --platform instagram
  media-videos generate dress.jpg --prompt "The dress sways in a light breeze"
  media-videos generate --text-only --prompt "A veil floating in slow motion"
  media-videos batch a.jpg b.jpg --overwrite
  media-videos folder --max 3
  media-videos folder --pick
  media-videos bundle --name atelier`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "project-root", "", "Project folder containing images/ and videos/")
	rootCmd.PersistentFlags().StringVarP(&platformFlag, "platform", "p", "", "Images subfolder (e.g. web, instagram)")
	rootCmd.PersistentFlags().BoolVar(&pickFlag, "pick", false, "Choose the project folder with a native dialog")

	rootCmd.AddCommand(catalogCmd, listCmd, generateCmd, batchCmd, folderCmd, bundleCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration and applies the global flags.
func loadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	root := rootFlag
	if pickFlag {
		picked, err := cli.ChooseDirectory("Select project folder", cfg.ProjectRoot)
		if err != nil {
			log.Fatal().Err(err).Msg("No project folder selected")
		}
		root = picked
	}
	if root != "" {
		cfg.ProjectRoot = cli.ValidateAndResolveDirectory(root)
	}
	if platformFlag != "" {
		cfg.WordPress.Platform = platformFlag
	}

	logging.NewStartupLogger("media-videos").
		Endpoint("wordpress", cfg.WordPress.URL).
		Directory("projectRoot", cfg.ProjectRoot).
		Directory("videos", cfg.VideosDir()).
		Config("model", cfg.Video.Model).
		Config("platform", cfg.WordPress.Platform).
		Config("timeout", cfg.Timeout().String()).
		Feature("vertexAI", cfg.UseVertex()).
		Feature("s3Publish", cfg.S3.Bucket != "").
		Log()

	return cfg
}

func elapsed(start time.Time) string {
	return cli.FormatDurationShort(time.Since(start))
}
