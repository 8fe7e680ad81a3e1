package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	EnvConfigFile, EnvProjectRoot, EnvWordPressURL, EnvGCPProject, EnvGCPLocation,
	EnvCredentials, EnvServiceAccount, EnvGeminiAPIKey, EnvVeoModel, EnvVideoPrompt,
	EnvMaxVideos, EnvVideoTimeout, EnvPollInterval, EnvVideoBucket, EnvVideoPrefix,
	EnvBatchWorkers, EnvDefaultPlatform,
}

// isolate clears every variable Load reads and moves into an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	if gotRoot != root {
		t.Errorf("expected project root %q, got %q", root, cfg.ProjectRoot)
	}
	if cfg.GCP.Location != "us-central1" {
		t.Errorf("unexpected location %q", cfg.GCP.Location)
	}
	if filepath.Base(cfg.GCP.CredentialsFile) != DefaultCredentialsFile || !filepath.IsAbs(cfg.GCP.CredentialsFile) {
		t.Errorf("unexpected credentials path %q", cfg.GCP.CredentialsFile)
	}
	if cfg.Timeout() != 20*time.Minute || cfg.PollInterval() != 15*time.Second {
		t.Errorf("unexpected durations %v %v", cfg.Timeout(), cfg.PollInterval())
	}
	if cfg.Video.Model != "veo-2.0-generate-001" || cfg.Video.Prompt != DefaultPrompt {
		t.Errorf("unexpected video defaults %+v", cfg.Video)
	}
	if cfg.Video.Workers != 1 || cfg.UseVertex() {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.ImagesDir("") != filepath.Join(cfg.ProjectRoot, "images", "web") {
		t.Errorf("unexpected images dir %q", cfg.ImagesDir(""))
	}
	if cfg.VideosDir() != filepath.Join(cfg.ProjectRoot, "videos") {
		t.Errorf("unexpected videos dir %q", cfg.VideosDir())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvWordPressURL, " https://shop.example.com ")
	t.Setenv(EnvGCPProject, "my-project")
	t.Setenv(EnvMaxVideos, "3")
	t.Setenv(EnvVideoTimeout, "60")
	t.Setenv(EnvBatchWorkers, "4")
	t.Setenv(EnvServiceAccount, "/secrets/sa.json")
	t.Setenv(EnvCredentials, "/secrets/adc.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WordPress.URL != "https://shop.example.com" {
		t.Errorf("unexpected URL %q", cfg.WordPress.URL)
	}
	if !cfg.UseVertex() || cfg.Video.MaxVideos != 3 || cfg.Video.Workers != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Timeout() != time.Minute {
		t.Errorf("unexpected timeout %v", cfg.Timeout())
	}
	if cfg.GCP.CredentialsFile != "/secrets/adc.json" {
		t.Errorf("GOOGLE_APPLICATION_CREDENTIALS should win, got %q", cfg.GCP.CredentialsFile)
	}
}

func TestLoadInvalidInteger(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMaxVideos, "many")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), EnvMaxVideos) {
		t.Errorf("expected error naming %s, got %v", EnvMaxVideos, err)
	}
}

func TestLoadNonPositiveTimeout(t *testing.T) {
	isolate(t)
	t.Setenv(EnvVideoTimeout, "0")
	if _, err := Load(""); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "media.yaml")
	content := `
project_root: shop
wordpress:
  url: https://yaml.example.com
  platform: instagram
  min_dimension: 500
gcp:
  project_id: yaml-project
video:
  prompt: A dress on a runway
  max_videos: 2
s3:
  bucket: yaml-bucket
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvGCPProject, "env-project")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WordPress.URL != "https://yaml.example.com" || cfg.WordPress.MinDimension != 500 {
		t.Errorf("yaml not applied: %+v", cfg.WordPress)
	}
	if cfg.GCP.ProjectID != "env-project" {
		t.Errorf("env should override yaml, got %q", cfg.GCP.ProjectID)
	}
	if cfg.Video.Prompt != "A dress on a runway" || cfg.Video.TimeoutSec != DefaultTimeoutSec {
		t.Errorf("unexpected video config %+v", cfg.Video)
	}
	if filepath.Base(cfg.ProjectRoot) != "shop" || filepath.Base(cfg.ImagesDir("")) != "instagram" {
		t.Errorf("unexpected paths %q %q", cfg.ProjectRoot, cfg.ImagesDir(""))
	}
	if cfg.S3.Bucket != "yaml-bucket" {
		t.Errorf("unexpected bucket %q", cfg.S3.Bucket)
	}
}

func TestLoadYAMLFromEnvAndUnknownField(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("video:\n  colour: red\n"), 0o644)
	t.Setenv(EnvConfigFile, path)

	if _, err := Load(""); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadMissingYAML(t *testing.T) {
	isolate(t)
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	// The key must be absent for godotenv to set it.
	os.Unsetenv(EnvVeoModel)
	t.Cleanup(func() { os.Unsetenv(EnvVeoModel) })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VEO_MODEL=veo-from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Video.Model != "veo-from-dotenv" {
		t.Errorf("expected model from .env, got %q", cfg.Video.Model)
	}
}
