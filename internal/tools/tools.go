// Package tools exposes the media pipeline as agent tools. Every operation
// returns a typed result whose Status is success, warning or error; failures
// are reported in ErrorMessage and never returned as Go errors, so a hosting
// agent can relay them conversationally.
package tools

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-video-agent/internal/archive"
	"github.com/fpang/media-video-agent/internal/batch"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/filehandler"
	"github.com/fpang/media-video-agent/internal/wordpress"
)

// Status discriminates tool results.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Service implements the tool operations against one configuration.
type Service struct {
	cfg         *config.Config
	runner      *batch.Runner
	catalogOpts []wordpress.Option
	publisher   batch.Publisher
	metrics     io.Writer
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher uploads each generated video after it is saved.
func WithPublisher(p batch.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCatalogOptions passes options to every WordPress client the service creates.
func WithCatalogOptions(opts ...wordpress.Option) Option {
	return func(s *Service) { s.catalogOpts = append(s.catalogOpts, opts...) }
}

// WithMetrics emits one EMF document per batch run to w.
func WithMetrics(w io.Writer) Option {
	return func(s *Service) { s.metrics = w }
}

// NewService wires the batch runner for cfg around gen.
func NewService(cfg *config.Config, gen batch.VideoGenerator, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, o := range opts {
		o(s)
	}

	runnerOpts := []batch.RunnerOption{batch.WithWorkers(cfg.Video.Workers)}
	if s.publisher != nil {
		runnerOpts = append(runnerOpts, batch.WithPublisher(s.publisher))
	}
	if s.metrics != nil {
		runnerOpts = append(runnerOpts, batch.WithMetrics(s.metrics))
	}
	s.runner = batch.NewRunner(gen, cfg.VideosDir(), runnerOpts...)
	return s
}

// ExtractCatalogInput selects the WordPress site and the local platform folder.
type ExtractCatalogInput struct {
	SiteURL  string `json:"site_url,omitempty" jsonschema:"WordPress site URL including http:// or https://; defaults to WORDPRESS_URL"`
	Platform string `json:"platform,omitempty" jsonschema:"images subfolder to download into, e.g. web or instagram"`
	Limit    int    `json:"limit,omitempty" jsonschema:"download only the first N discovered images; 0 downloads all"`
}

// CatalogResult reports a catalog extraction.
type CatalogResult struct {
	Status       Status            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	SiteURL      string            `json:"site_url,omitempty"`
	Destination  string            `json:"destination,omitempty"`
	Found        int               `json:"found"`
	Downloaded   int               `json:"downloaded"`
	Skipped      int               `json:"skipped"`
	Failed       int               `json:"failed"`
	Failures     map[string]string `json:"failures,omitempty"`
}

// ExtractCatalog discovers product images on a WordPress site and downloads
// them into <project>/images/<platform>.
func (s *Service) ExtractCatalog(ctx context.Context, in ExtractCatalogInput) CatalogResult {
	site := in.SiteURL
	if site == "" {
		site = s.cfg.WordPress.URL
	}
	if site == "" {
		return CatalogResult{Status: StatusError, ErrorMessage: "no WordPress site URL given and WORDPRESS_URL is not set"}
	}

	dest, err := s.platformDir(in.Platform)
	if err != nil {
		return CatalogResult{Status: StatusError, ErrorMessage: err.Error()}
	}

	opts := []wordpress.Option{
		wordpress.WithMinDimension(s.cfg.WordPress.MinDimension),
		wordpress.WithExcludeKeywords(s.cfg.WordPress.ExcludeKeywords),
	}
	client, err := wordpress.NewClient(site, append(opts, s.catalogOpts...)...)
	if err != nil {
		return CatalogResult{Status: StatusError, ErrorMessage: err.Error()}
	}

	limit := in.Limit
	if limit <= 0 {
		limit = s.cfg.WordPress.DownloadLimit
	}

	run, err := client.Run(ctx, dest, limit)
	res := CatalogResult{SiteURL: site, Destination: dest}
	if run != nil {
		res.Found = run.Found
		if run.Report != nil {
			res.Downloaded = len(run.Report.Downloaded)
			res.Skipped = len(run.Report.Skipped)
			res.Failed = len(run.Report.Failed)
			if res.Failed > 0 {
				res.Failures = run.Report.Failed
			}
		}
	}

	switch {
	case err != nil:
		res.Status = StatusError
		res.ErrorMessage = err.Error()
	case res.Found == 0:
		res.Status = StatusWarning
		res.ErrorMessage = "no candidate images found"
	case res.Failed > 0:
		res.Status = StatusWarning
		res.ErrorMessage = fmt.Sprintf("%d downloads failed", res.Failed)
	default:
		res.Status = StatusSuccess
	}
	return res
}

// GenerateVideoInput references one image by bare filename inside a platform
// folder, or by explicit path inside the project root.
type GenerateVideoInput struct {
	Filename  string `json:"filename,omitempty" jsonschema:"image filename inside the platform folder"`
	Platform  string `json:"platform,omitempty" jsonschema:"images subfolder containing the file"`
	Path      string `json:"path,omitempty" jsonschema:"image path inside the project root, relative or absolute; takes precedence over filename"`
	Prompt    string `json:"prompt,omitempty" jsonschema:"motion prompt; defaults to VIDEO_PROMPT"`
	Overwrite bool   `json:"overwrite,omitempty" jsonschema:"regenerate even if the video already exists"`
}

// VideoResult reports a single-image generation.
type VideoResult struct {
	Status       Status       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Image        string       `json:"image,omitempty"`
	Outcome      batch.Status `json:"outcome,omitempty"`
	VideoPath    string       `json:"video_path,omitempty"`
	PublishedKey string       `json:"published_key,omitempty"`
	TimedOut     bool         `json:"timed_out,omitempty"`
}

// GenerateVideo turns one image into a video. An existing video is reported
// as a warning unless Overwrite is set.
func (s *Service) GenerateVideo(ctx context.Context, in GenerateVideoInput) VideoResult {
	platform := in.Platform
	if platform == "" {
		platform = s.cfg.WordPress.Platform
	}
	ref := filehandler.ImageReference{Path: in.Path, Filename: in.Filename, Platform: platform}
	if ref.Path != "" {
		confined, err := filehandler.ConfinePath(s.cfg.ProjectRoot, ref.Path)
		if err != nil {
			return VideoResult{Status: StatusError, ErrorMessage: err.Error()}
		}
		ref.Path = confined
	}
	path, err := ref.Resolve(s.cfg.ImagesRoot())
	if err != nil {
		return VideoResult{Status: StatusError, ErrorMessage: err.Error()}
	}

	summary := s.runner.Run(ctx, []string{path}, s.batchOptions(in.Prompt, in.Overwrite))
	o := summary.Results[0]

	res := VideoResult{Image: o.Image, Outcome: o.Status, VideoPath: o.VideoPath, PublishedKey: o.PublishedKey, TimedOut: o.TimedOut}
	switch o.Status {
	case batch.StatusProcessed:
		res.Status = StatusSuccess
		if o.PublishError != "" {
			res.Status = StatusWarning
			res.ErrorMessage = "video saved but publishing failed: " + o.PublishError
		}
	case batch.StatusSkipped:
		res.Status = StatusWarning
		res.ErrorMessage = o.Message
	default:
		res.Status = StatusError
		res.ErrorMessage = o.Message
	}
	return res
}

// GenerateVideosForFilesInput names images inside one platform folder.
type GenerateVideosForFilesInput struct {
	Filenames []string `json:"filenames" jsonschema:"image filenames inside the platform folder"`
	Platform  string   `json:"platform,omitempty" jsonschema:"images subfolder containing the files"`
	Prompt    string   `json:"prompt,omitempty" jsonschema:"motion prompt; defaults to VIDEO_PROMPT"`
	Overwrite bool     `json:"overwrite,omitempty" jsonschema:"regenerate videos that already exist"`
}

// GenerateVideosInFolderInput selects a platform folder.
type GenerateVideosInFolderInput struct {
	Platform  string `json:"platform,omitempty" jsonschema:"images subfolder to process"`
	MaxVideos int    `json:"max_videos,omitempty" jsonschema:"process only the first N images by filename; defaults to MAX_VIDEOS"`
	Prompt    string `json:"prompt,omitempty" jsonschema:"motion prompt; defaults to VIDEO_PROMPT"`
	Overwrite bool   `json:"overwrite,omitempty" jsonschema:"regenerate videos that already exist"`
}

// BatchResult reports a batch run.
type BatchResult struct {
	Status       Status          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RunID        string          `json:"run_id,omitempty"`
	Processed    int             `json:"processed"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	VideosDir    string          `json:"videos_dir,omitempty"`
	Results      []batch.Outcome `json:"results,omitempty"`
}

// GenerateVideosForFiles runs a batch over bare filenames. Any unsafe
// filename rejects the whole request before generation starts.
func (s *Service) GenerateVideosForFiles(ctx context.Context, in GenerateVideosForFilesInput) BatchResult {
	if len(in.Filenames) == 0 {
		return BatchResult{Status: StatusError, ErrorMessage: "no filenames given"}
	}
	platform := in.Platform
	if platform == "" {
		platform = s.cfg.WordPress.Platform
	}
	paths, err := filehandler.ResolveFilenames(s.cfg.ImagesRoot(), platform, in.Filenames)
	if err != nil {
		return BatchResult{Status: StatusError, ErrorMessage: err.Error()}
	}
	return batchResult(s.runner.Run(ctx, paths, s.batchOptions(in.Prompt, in.Overwrite)))
}

// GenerateVideosInFolder runs a batch over the supported images of a
// platform folder, sorted by filename.
func (s *Service) GenerateVideosInFolder(ctx context.Context, in GenerateVideosInFolderInput) BatchResult {
	dir, err := s.platformDir(in.Platform)
	if err != nil {
		return BatchResult{Status: StatusError, ErrorMessage: err.Error()}
	}
	maxVideos := in.MaxVideos
	if maxVideos <= 0 {
		maxVideos = s.cfg.Video.MaxVideos
	}

	summary, err := s.runner.RunFolder(ctx, dir, maxVideos, s.batchOptions(in.Prompt, in.Overwrite))
	if err != nil {
		return BatchResult{Status: StatusError, ErrorMessage: err.Error()}
	}
	return batchResult(summary)
}

// ListImagesInput selects a platform folder.
type ListImagesInput struct {
	Platform string `json:"platform,omitempty" jsonschema:"images subfolder to list"`
}

// ListImagesResult lists the supported images of a folder.
type ListImagesResult struct {
	Status       Status   `json:"status"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Folder       string   `json:"folder,omitempty"`
	Count        int      `json:"count"`
	Images       []string `json:"images,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
}

// ListImages returns the image filenames of a platform folder. When the
// folder is missing the available platforms are listed instead.
func (s *Service) ListImages(ctx context.Context, in ListImagesInput) ListImagesResult {
	dir, err := s.platformDir(in.Platform)
	if err != nil {
		return ListImagesResult{Status: StatusError, ErrorMessage: err.Error()}
	}

	paths, err := filehandler.ListImages(dir)
	if err != nil {
		return ListImagesResult{
			Status:       StatusError,
			ErrorMessage: err.Error(),
			Folder:       dir,
			Platforms:    s.platforms(),
		}
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	res := ListImagesResult{Status: StatusSuccess, Folder: dir, Count: len(names), Images: names}
	if len(names) == 0 {
		res.Status = StatusWarning
		res.ErrorMessage = "folder contains no supported images"
	}
	return res
}

// BundleVideosInput configures bundling.
type BundleVideosInput struct {
	Name        string `json:"name,omitempty" jsonschema:"prefix for the ZIP file names"`
	MaxBundleMB int    `json:"max_bundle_mb,omitempty" jsonschema:"maximum input megabytes per ZIP"`
}

// BundleResult lists the written ZIP files.
type BundleResult struct {
	Status        Status           `json:"status"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	Bundles       []archive.Bundle `json:"bundles,omitempty"`
	PublishedKeys []string         `json:"published_keys,omitempty"`
}

// BundleVideos packs the videos folder into zstd-compressed ZIPs and
// publishes them when a publisher is configured.
func (s *Service) BundleVideos(ctx context.Context, in BundleVideosInput) BundleResult {
	opts := archive.Options{Name: in.Name, MaxBundleBytes: int64(in.MaxBundleMB) * 1024 * 1024}
	bundles, err := archive.BundleVideos(s.cfg.VideosDir(), s.cfg.BundlesDir(), opts)
	if err != nil {
		return BundleResult{Status: StatusError, ErrorMessage: err.Error(), Bundles: bundles}
	}
	if len(bundles) == 0 {
		return BundleResult{Status: StatusWarning, ErrorMessage: "no videos to bundle"}
	}

	res := BundleResult{Status: StatusSuccess, Bundles: bundles}
	if s.publisher != nil {
		keys, err := PublishBundles(ctx, s.publisher, bundles)
		res.PublishedKeys = keys
		if err != nil {
			res.Status = StatusWarning
			res.ErrorMessage = "bundles written but publishing failed: " + err.Error()
		}
	}
	return res
}

// BundleRunID groups published bundles under <prefix>/bundles/.
const BundleRunID = "bundles"

// PublishBundles uploads every bundle and returns the keys of those that
// made it. The first error stops publishing.
func PublishBundles(ctx context.Context, p batch.Publisher, bundles []archive.Bundle) ([]string, error) {
	var keys []string
	for _, b := range bundles {
		key, err := p.Publish(ctx, BundleRunID, b.Path)
		if err != nil {
			log.Warn().Err(err).Str("bundle", b.Path).Msg("Failed to publish bundle")
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Service) batchOptions(prompt string, overwrite bool) batch.Options {
	if prompt == "" {
		prompt = s.cfg.Video.Prompt
	}
	return batch.Options{Prompt: prompt, Overwrite: overwrite, Timeout: s.cfg.Timeout()}
}

// platformDir resolves a platform folder name inside the images root.
func (s *Service) platformDir(platform string) (string, error) {
	if platform == "" {
		platform = s.cfg.WordPress.Platform
	}
	return filehandler.ImageReference{Filename: platform}.Resolve(s.cfg.ImagesRoot())
}

func (s *Service) platforms() []string {
	dirs, err := filehandler.ListDirs(s.cfg.ImagesRoot())
	if err != nil {
		log.Debug().Err(err).Msg("Cannot list platform folders")
		return nil
	}
	return dirs
}

func batchResult(s *batch.Summary) BatchResult {
	res := BatchResult{
		Status:    StatusSuccess,
		RunID:     s.RunID,
		Processed: s.Processed,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		VideosDir: s.VideosDir,
		Results:   s.Results,
	}
	if s.Failed > 0 {
		res.Status = StatusWarning
		res.ErrorMessage = fmt.Sprintf("%d of %d images failed", s.Failed, len(s.Results))
	}
	return res
}
