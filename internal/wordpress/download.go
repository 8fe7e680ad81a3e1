package wordpress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// downloadChunkSize is the buffer size used when streaming a body to disk.
const downloadChunkSize = 8192

// DownloadReport summarises one DownloadImages call.
type DownloadReport struct {
	Destination string
	Downloaded  []string // local paths written
	Skipped     []string // local paths that already existed
	Failed      map[string]string
}

// DownloadImages copies each URL into destination, named after the last path
// segment of the URL. A file that already exists is left untouched (existence
// is the only de-duplication key). Failures are logged and recorded per URL
// and never stop the remaining downloads.
func (c *Client) DownloadImages(ctx context.Context, urls []string, destination string) (*DownloadReport, error) {
	report := &DownloadReport{Destination: destination, Failed: map[string]string{}}
	if len(urls) == 0 {
		log.Info().Msg("No URLs to download")
		return report, nil
	}

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return report, fmt.Errorf("failed to create destination folder: %w", err)
	}

	for _, u := range urls {
		filename := FilenameFromURL(u)
		if filename == "" {
			log.Warn().Str("url", u).Msg("Cannot derive filename from URL, skipping")
			report.Failed[u] = "cannot derive filename from URL"
			continue
		}
		target := filepath.Join(destination, filename)

		if _, err := os.Stat(target); err == nil {
			log.Debug().Str("file", filename).Msg("File already exists, skipping download")
			report.Skipped = append(report.Skipped, target)
			continue
		}

		log.Info().Str("url", u).Str("path", target).Msg("Downloading image")
		if err := c.downloadOne(ctx, u, target); err != nil {
			log.Error().Err(err).Str("url", u).Msg("Failed to download image")
			report.Failed[u] = err.Error()
			continue
		}
		report.Downloaded = append(report.Downloaded, target)
	}

	log.Info().
		Int("downloaded", len(report.Downloaded)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Str("destination", destination).
		Msg("Image download complete")

	return report, nil
}

// downloadOne streams u into target via a temporary file in the same folder,
// so an interrupted transfer never leaves a file that would be skipped later.
func (c *Client) downloadOne(ctx context.Context, u, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(tmp, resp.Body, buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// FilenameFromURL returns the final path segment of a URL, percent-decoded
// once, without query or fragment. Returns "" when there is none.
func FilenameFromURL(raw string) string {
	p := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Path != "" {
		p = parsed.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return ""
	}
	return name
}

// RunResult is the outcome of a discovery + download pass.
type RunResult struct {
	Found  int
	Report *DownloadReport
}

// Run discovers candidate images and downloads the first limit of them
// (all when limit <= 0) into destination.
func (c *Client) Run(ctx context.Context, destination string, limit int) (*RunResult, error) {
	log.Info().Str("site", c.baseURL).Msg("Starting WordPress image download")

	urls := c.FetchMediaURLs(ctx)
	result := &RunResult{Found: len(urls)}
	if len(urls) == 0 {
		log.Info().Msg("No images found to download")
		result.Report = &DownloadReport{Destination: destination, Failed: map[string]string{}}
		return result, nil
	}

	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	report, err := c.DownloadImages(ctx, urls, destination)
	result.Report = report
	return result, err
}
