// Package batch turns a list of images into videos, one generation job per
// image, and reports a per-image outcome plus aggregate counts.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/media-video-agent/internal/filehandler"
	"github.com/fpang/media-video-agent/internal/metrics"
	"github.com/fpang/media-video-agent/internal/veo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Status is the result kind of one image.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one input image.
type Outcome struct {
	Image     string `json:"image"`
	Status    Status `json:"status"`
	VideoPath string `json:"video_path,omitempty"`
	Message   string `json:"message,omitempty"`

	// TimedOut marks a failure where the remote job outlived the timeout and
	// may still finish on its own.
	TimedOut bool `json:"timed_out,omitempty"`

	// PublishedKey and PublishError are set only when a Publisher is configured.
	PublishedKey string `json:"published_key,omitempty"`
	PublishError string `json:"publish_error,omitempty"`
}

// Summary aggregates a run. Processed+Skipped+Failed always equals
// len(Results), and Results follows the input order.
type Summary struct {
	RunID     string        `json:"run_id"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	VideosDir string        `json:"videos_dir"`
	Results   []Outcome     `json:"results"`
	Duration  time.Duration `json:"duration"`
}

// Options control a single run.
type Options struct {
	Prompt    string
	Overwrite bool
	// Timeout bounds each generation; <= 0 uses the generator default.
	Timeout time.Duration
}

// VideoGenerator produces video bytes from an image file.
type VideoGenerator interface {
	GenerateFromImage(ctx context.Context, imagePath, prompt string, timeout time.Duration) ([]byte, error)
}

// Publisher copies a saved video somewhere else and returns its location.
type Publisher interface {
	Publish(ctx context.Context, runID, videoPath string) (string, error)
}

// Runner executes batches against a VideoGenerator.
type Runner struct {
	generator VideoGenerator
	videosDir string
	workers   int
	publisher Publisher
	metricsW  io.Writer
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of images processed concurrently. Values below
// 1 keep sequential processing.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithPublisher publishes every newly saved video.
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithMetrics emits one EMF document per run to w.
func WithMetrics(w io.Writer) RunnerOption {
	return func(r *Runner) { r.metricsW = w }
}

// NewRunner creates a Runner writing videos to videosDir.
func NewRunner(gen VideoGenerator, videosDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		generator: gen,
		videosDir: videosDir,
		workers:   1,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// VideosDir returns the output directory.
func (r *Runner) VideosDir() string {
	return r.videosDir
}

// Run processes imagePaths and never fails as a whole: every problem is
// recorded on the corresponding Outcome.
func (r *Runner) Run(ctx context.Context, imagePaths []string, opts Options) *Summary {
	start := time.Now()
	summary := &Summary{
		RunID:     uuid.New().String(),
		VideosDir: r.videosDir,
		Results:   make([]Outcome, len(imagePaths)),
	}

	log.Info().
		Str("runId", summary.RunID).
		Int("images", len(imagePaths)).
		Int("workers", r.workers).
		Bool("overwrite", opts.Overwrite).
		Str("videosDir", r.videosDir).
		Msg("Starting video batch")

	if len(imagePaths) > 0 {
		if err := os.MkdirAll(r.videosDir, 0o755); err != nil {
			log.Error().Err(err).Str("videosDir", r.videosDir).Msg("Failed to create videos directory")
			for i, p := range imagePaths {
				summary.Results[i] = Outcome{
					Image:   p,
					Status:  StatusFailed,
					Message: fmt.Sprintf("cannot create videos directory: %v", err),
				}
			}
			return r.finish(summary, start)
		}
	}

	if r.workers <= 1 {
		for i, p := range imagePaths {
			summary.Results[i] = r.processOne(ctx, summary.RunID, i, len(imagePaths), p, opts)
		}
	} else {
		// Inputs sharing an output file run on one goroutine in input order,
		// so the first one generates and the rest see its video and skip.
		g := new(errgroup.Group)
		g.SetLimit(r.workers)
		for _, group := range r.groupByVideo(imagePaths) {
			g.Go(func() error {
				for _, i := range group {
					summary.Results[i] = r.processOne(ctx, summary.RunID, i, len(imagePaths), imagePaths[i], opts)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	return r.finish(summary, start)
}

func (r *Runner) finish(summary *Summary, start time.Time) *Summary {
	for _, o := range summary.Results {
		switch o.Status {
		case StatusProcessed:
			summary.Processed++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)

	log.Info().
		Str("runId", summary.RunID).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Video batch complete")

	r.recordMetrics(summary)
	return summary
}

// groupByVideo returns input indices grouped by output video path, groups
// ordered by first appearance.
func (r *Runner) groupByVideo(imagePaths []string) [][]int {
	var groups [][]int
	byPath := make(map[string]int, len(imagePaths))
	for i, p := range imagePaths {
		key := r.videoPath(p)
		g, ok := byPath[key]
		if !ok {
			g = len(groups)
			byPath[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func (r *Runner) videoPath(imagePath string) string {
	return filepath.Join(r.videosDir, filehandler.VideoFilename(imagePath))
}

// RunFolder processes the supported images directly inside imagesDir, sorted
// by filename and truncated to maxItems when maxItems > 0. The only error is
// a missing or unreadable folder.
func (r *Runner) RunFolder(ctx context.Context, imagesDir string, maxItems int, opts Options) (*Summary, error) {
	paths, err := filehandler.ListImagesWithOptions(imagesDir, filehandler.ScanOptions{Limit: maxItems})
	if err != nil {
		return nil, fmt.Errorf("images folder: %w", err)
	}
	if len(paths) == 0 {
		log.Warn().Str("dir", imagesDir).Msg("No supported images found")
	}
	return r.Run(ctx, paths, opts), nil
}

func (r *Runner) processOne(ctx context.Context, runID string, idx, total int, imagePath string, opts Options) Outcome {
	out := Outcome{Image: imagePath}
	videoPath := r.videoPath(imagePath)
	logger := log.With().Str("image", filepath.Base(imagePath)).Int("item", idx+1).Int("total", total).Logger()

	if _, err := os.Stat(imagePath); err != nil {
		out.Status = StatusFailed
		if errors.Is(err, os.ErrNotExist) {
			out.Message = "source image not found"
		} else {
			out.Message = fmt.Sprintf("cannot access source image: %v", err)
		}
		logger.Warn().Str("reason", out.Message).Msg("Image failed")
		return out
	}

	if !opts.Overwrite {
		if _, err := os.Stat(videoPath); err == nil {
			out.Status = StatusSkipped
			out.VideoPath = videoPath
			out.Message = "video already exists"
			logger.Info().Str("video", videoPath).Msg("Video exists, skipping")
			return out
		}
	}

	logger.Info().Msg("Generating video")
	data, err := r.generator.GenerateFromImage(ctx, imagePath, opts.Prompt, opts.Timeout)
	if err != nil {
		out.Status = StatusFailed
		out.Message = err.Error()
		out.TimedOut = veo.IsCause(err, veo.CauseTimeout)
		logger.Error().Err(err).Bool("timedOut", out.TimedOut).Msg("Video generation failed")
		return out
	}

	if err := writeFileAtomic(videoPath, data); err != nil {
		out.Status = StatusFailed
		out.Message = fmt.Sprintf("failed to save video: %v", err)
		logger.Error().Err(err).Str("video", videoPath).Msg("Failed to save video")
		return out
	}

	out.Status = StatusProcessed
	out.VideoPath = videoPath
	logger.Info().
		Str("video", videoPath).
		Float64("sizeMB", float64(len(data))/(1024*1024)).
		Msg("Video saved")

	if r.publisher != nil {
		key, err := r.publisher.Publish(ctx, runID, videoPath)
		if err != nil {
			out.PublishError = err.Error()
			logger.Warn().Err(err).Msg("Failed to publish video")
		} else {
			out.PublishedKey = key
		}
	}
	return out
}

func (r *Runner) recordMetrics(s *Summary) {
	if r.metricsW == nil {
		return
	}
	metrics.NewWithWriter(metrics.Namespace, r.metricsW).
		Dimension("Operation", "VideoBatch").
		Metric("VideosProcessed", float64(s.Processed), metrics.UnitCount).
		Metric("VideosSkipped", float64(s.Skipped), metrics.UnitCount).
		Metric("VideosFailed", float64(s.Failed), metrics.UnitCount).
		Metric("BatchDurationMs", float64(s.Duration.Milliseconds()), metrics.UnitMilliseconds).
		Property("runId", s.RunID).
		Flush()
}

// writeFileAtomic writes data next to path and renames it into place so a
// partial write never looks like a finished video.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".video-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
