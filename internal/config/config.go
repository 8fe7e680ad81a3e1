// Package config resolves runtime settings from a .env file, an optional
// YAML file and environment variables, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fpang/media-video-agent/internal/veo"
	"github.com/fpang/media-video-agent/internal/wordpress"
)

// Environment variables read by Load.
const (
	EnvConfigFile      = "MEDIA_CONFIG"
	EnvProjectRoot     = "MEDIA_PROJECT_ROOT"
	EnvWordPressURL    = "WORDPRESS_URL"
	EnvGCPProject      = "GCP_PROJECT_ID"
	EnvGCPLocation     = "GCP_LOCATION"
	EnvCredentials     = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvServiceAccount  = "GCP_SERVICE_ACCOUNT_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvVeoModel        = "VEO_MODEL"
	EnvVideoPrompt     = "VIDEO_PROMPT"
	EnvMaxVideos       = "MAX_VIDEOS"
	EnvVideoTimeout    = "VIDEO_TIMEOUT_SEC"
	EnvPollInterval    = "VEO_POLL_INTERVAL_SEC"
	EnvVideoBucket     = "VIDEO_S3_BUCKET"
	EnvVideoPrefix     = "VIDEO_S3_PREFIX"
	EnvBatchWorkers    = "BATCH_WORKERS"
	EnvDefaultPlatform = "MEDIA_PLATFORM"
)

const (
	DefaultLocation        = "us-central1"
	DefaultCredentialsFile = "gcp-credentials.json"
	DefaultPrompt          = "A short elegant video of a wedding dress flowing gracefully in the wind, cinematic lighting"
	DefaultPlatform        = "web"
	DefaultTimeoutSec      = 1200
	DefaultPollSec         = 15
)

// Config is the resolved configuration.
type Config struct {
	ProjectRoot string          `yaml:"project_root"`
	WordPress   WordPressConfig `yaml:"wordpress"`
	GCP         GCPConfig       `yaml:"gcp"`
	Video       VideoConfig     `yaml:"video"`
	S3          S3Config        `yaml:"s3"`
}

// WordPressConfig configures the media catalog client.
type WordPressConfig struct {
	URL             string   `yaml:"url"`
	Platform        string   `yaml:"platform"`
	MinDimension    int      `yaml:"min_dimension"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	DownloadLimit   int      `yaml:"download_limit"`
}

// GCPConfig selects the video backend. Vertex AI is used when ProjectID is
// set, otherwise the Gemini API with APIKey.
type GCPConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
	APIKey          string `yaml:"-"`
}

// VideoConfig configures generation and batching.
type VideoConfig struct {
	Model           string `yaml:"model"`
	Prompt          string `yaml:"prompt"`
	TimeoutSec      int    `yaml:"timeout_sec"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	MaxVideos       int    `yaml:"max_videos"`
	Workers         int    `yaml:"workers"`
}

// S3Config enables publishing of generated videos when Bucket is set.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Default returns the built-in configuration rooted at the working directory.
func Default() *Config {
	return &Config{
		ProjectRoot: ".",
		WordPress: WordPressConfig{
			Platform:        DefaultPlatform,
			MinDimension:    wordpress.DefaultMinDimension,
			ExcludeKeywords: wordpress.DefaultExcludeKeywords,
		},
		GCP: GCPConfig{
			Location:        DefaultLocation,
			CredentialsFile: DefaultCredentialsFile,
		},
		Video: VideoConfig{
			Model:           veo.DefaultModel,
			Prompt:          DefaultPrompt,
			TimeoutSec:      DefaultTimeoutSec,
			PollIntervalSec: DefaultPollSec,
			Workers:         1,
		},
		S3: S3Config{Prefix: "videos"},
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// MEDIA_CONFIG variable is consulted, and no file is read if both are empty.
// A missing .env is not an error; a missing explicit YAML file is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Relative roots in a config file are relative to the file itself.
	if c.ProjectRoot != "" && !filepath.IsAbs(c.ProjectRoot) {
		c.ProjectRoot = filepath.Join(filepath.Dir(path), c.ProjectRoot)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.ProjectRoot, EnvProjectRoot)
	setString(&c.WordPress.URL, EnvWordPressURL)
	setString(&c.WordPress.Platform, EnvDefaultPlatform)
	setString(&c.GCP.ProjectID, EnvGCPProject)
	setString(&c.GCP.Location, EnvGCPLocation)
	setString(&c.GCP.CredentialsFile, EnvServiceAccount)
	setString(&c.GCP.CredentialsFile, EnvCredentials)
	setString(&c.GCP.APIKey, EnvGeminiAPIKey)
	setString(&c.Video.Model, EnvVeoModel)
	setString(&c.Video.Prompt, EnvVideoPrompt)
	setString(&c.S3.Bucket, EnvVideoBucket)
	setString(&c.S3.Prefix, EnvVideoPrefix)

	for env, dst := range map[string]*int{
		EnvMaxVideos:    &c.Video.MaxVideos,
		EnvVideoTimeout: &c.Video.TimeoutSec,
		EnvPollInterval: &c.Video.PollIntervalSec,
		EnvBatchWorkers: &c.Video.Workers,
	} {
		if err := setInt(dst, env); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) finalize() error {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	c.ProjectRoot = root

	if c.GCP.CredentialsFile != "" && !filepath.IsAbs(c.GCP.CredentialsFile) {
		c.GCP.CredentialsFile = filepath.Join(c.ProjectRoot, c.GCP.CredentialsFile)
	}
	c.WordPress.URL = strings.TrimSpace(c.WordPress.URL)

	if c.Video.TimeoutSec <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvVideoTimeout, c.Video.TimeoutSec)
	}
	if c.Video.PollIntervalSec <= 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvPollInterval, c.Video.PollIntervalSec)
	}
	if c.Video.MaxVideos < 0 {
		c.Video.MaxVideos = 0
	}
	if c.Video.Workers < 1 {
		c.Video.Workers = 1
	}
	return nil
}

// ImagesRoot is <project>/images.
func (c *Config) ImagesRoot() string {
	return filepath.Join(c.ProjectRoot, "images")
}

// ImagesDir is the folder of one platform's images.
func (c *Config) ImagesDir(platform string) string {
	if platform == "" {
		platform = c.WordPress.Platform
	}
	return filepath.Join(c.ImagesRoot(), platform)
}

// VideosDir is <project>/videos.
func (c *Config) VideosDir() string {
	return filepath.Join(c.ProjectRoot, "videos")
}

// BundlesDir is where video ZIP bundles are written.
func (c *Config) BundlesDir() string {
	return filepath.Join(c.ProjectRoot, "bundles")
}

// Timeout is the per-video generation timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Video.TimeoutSec) * time.Second
}

// PollInterval is the pause between operation refreshes.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Video.PollIntervalSec) * time.Second
}

// UseVertex reports whether the Vertex AI backend is configured.
func (c *Config) UseVertex() bool {
	return c.GCP.ProjectID != ""
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) error {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: must be an integer", env, v)
	}
	*dst = n
	return nil
}
