package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-video-agent/internal/batch"
	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/filehandler"
	"github.com/fpang/media-video-agent/internal/veo"
)

var (
	promptFlag    string
	overwriteFlag bool
	timeoutFlag   time.Duration
	modelFlag     string
	workersFlag   int
	maxFlag       int
	textOnlyFlag  bool
	styleFlag     bool
	validateFlag  bool
	outputFlag    string
)

var generateCmd = &cobra.Command{
	Use:   "generate [image]",
	Short: "Generate a video from one image (or from the prompt alone with --text-only)",
	Long: `Generates a single video. The image is a filename inside images/<platform>/ or
a path to any image. With --text-only no image is sent and the video is
written to --output (default videos/text-only-<time>.mp4).`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGenerate,
}

var batchCmd = &cobra.Command{
	Use:   "batch <image>...",
	Short: "Generate videos for the listed images of a platform folder",
	Args:  cobra.MinimumNArgs(1),
	Run:   runBatch,
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Generate videos for every supported image in a platform folder",
	Args:  cobra.NoArgs,
	Run:   runFolder,
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, batchCmd, folderCmd} {
		c.Flags().StringVar(&promptFlag, "prompt", "", "Motion prompt (default: VIDEO_PROMPT)")
		c.Flags().BoolVar(&styleFlag, "style", false, "Append the standard duration/style suffix to the prompt")
		c.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Per-video timeout (default: VIDEO_TIMEOUT_SEC)")
		c.Flags().StringVarP(&modelFlag, "model", "m", "", "Veo model (default: "+veo.DefaultModel+")")
		c.Flags().BoolVar(&validateFlag, "validate", false, "Check model access before generating")
	}
	for _, c := range []*cobra.Command{batchCmd, folderCmd} {
		c.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Regenerate videos that already exist")
		c.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent generations (default: BATCH_WORKERS or 1)")
	}
	generateCmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Regenerate the video if it already exists")
	generateCmd.Flags().BoolVar(&textOnlyFlag, "text-only", false, "Generate from the prompt without an image")
	generateCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file for --text-only")
	folderCmd.Flags().IntVar(&maxFlag, "max", 0, "Process only the first N images by filename (default: MAX_VIDEOS)")
}

// applyVideoFlags folds the generation flags into cfg and returns the prompt.
func applyVideoFlags(cfg *config.Config) string {
	if modelFlag != "" {
		cfg.Video.Model = modelFlag
	}
	if timeoutFlag > 0 {
		cfg.Video.TimeoutSec = int(timeoutFlag.Seconds())
	}
	if workersFlag > 0 {
		cfg.Video.Workers = workersFlag
	}
	prompt := promptFlag
	if prompt == "" {
		prompt = cfg.Video.Prompt
	}
	if styleFlag {
		prompt = veo.WithStyleSuffix(prompt)
	}
	return prompt
}

func newRunner(cmd *cobra.Command, cfg *config.Config) *batch.Runner {
	ctx := cmd.Context()
	gen := cli.NewGenerator(ctx, cfg, validateFlag)
	opts := []batch.RunnerOption{batch.WithWorkers(cfg.Video.Workers)}
	if pub := cli.InitPublisher(ctx, cfg); pub != nil {
		opts = append(opts, batch.WithPublisher(pub))
	}
	return batch.NewRunner(gen, cfg.VideosDir(), opts...)
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	prompt := applyVideoFlags(cfg)

	if textOnlyFlag {
		runTextOnly(cmd, cfg, prompt)
		return
	}
	if len(args) != 1 {
		log.Fatal().Msg("An image is required unless --text-only is set")
	}

	path, err := resolveImageArg(cfg, args[0])
	if err != nil {
		log.Fatal().Err(err).Str("image", args[0]).Msg("Invalid image reference")
	}

	runner := newRunner(cmd, cfg)
	s := runner.Run(cmd.Context(), []string{path}, batch.Options{Prompt: prompt, Overwrite: overwriteFlag, Timeout: cfg.Timeout()})
	cli.PrintSummary(os.Stdout, s)
	if s.Failed > 0 {
		os.Exit(1)
	}
}

// resolveImageArg treats an argument containing a path separator, or naming
// an existing file, as a path and anything else as a bare filename.
func resolveImageArg(cfg *config.Config, arg string) (string, error) {
	ref := filehandler.ImageReference{Filename: arg, Platform: cfg.WordPress.Platform}
	if filepath.Base(arg) != arg {
		ref = filehandler.ImageReference{Path: arg}
	} else if _, err := os.Stat(arg); err == nil {
		ref = filehandler.ImageReference{Path: arg}
	}
	return ref.Resolve(cfg.ImagesRoot())
}

func runTextOnly(cmd *cobra.Command, cfg *config.Config, prompt string) {
	gen := cli.NewGenerator(cmd.Context(), cfg, validateFlag)

	out := outputFlag
	if out == "" {
		out = filepath.Join(cfg.VideosDir(), fmt.Sprintf("text-only-%s.mp4", time.Now().Format("20060102-150405")))
	}

	start := time.Now()
	log.Info().Str("model", gen.Model()).Str("output", out).Msg("Generating video from prompt")
	data, err := gen.GenerateFromPrompt(cmd.Context(), prompt, cfg.Timeout())
	if err != nil {
		log.Fatal().Err(err).Msg("Video generation failed")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output folder")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to save video")
	}
	fmt.Printf("Saved %s (%.2f MB) in %s\n", out, float64(len(data))/(1024*1024), elapsed(start))
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	prompt := applyVideoFlags(cfg)

	paths, err := filehandler.ResolveFilenames(cfg.ImagesRoot(), cfg.WordPress.Platform, args)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid image filename")
	}

	runner := newRunner(cmd, cfg)
	s := runner.Run(cmd.Context(), paths, batch.Options{Prompt: prompt, Overwrite: overwriteFlag, Timeout: cfg.Timeout()})
	cli.PrintSummary(os.Stdout, s)
}

func runFolder(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	prompt := applyVideoFlags(cfg)
	maxItems := maxFlag
	if maxItems <= 0 {
		maxItems = cfg.Video.MaxVideos
	}

	dir := cfg.ImagesDir("")
	runner := newRunner(cmd, cfg)
	s, err := runner.RunFolder(cmd.Context(), dir, maxItems, batch.Options{Prompt: prompt, Overwrite: overwriteFlag, Timeout: cfg.Timeout()})
	if err != nil {
		log.Fatal().Err(err).Str("folder", dir).Msg("Cannot process folder")
	}
	cli.PrintSummary(os.Stdout, s)
}
