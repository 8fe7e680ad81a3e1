// Package wordpress discovers product images in a WordPress media library via
// the REST API and copies them to a local folder.
//
// Discovery is best-effort: any failure on a page ends pagination and the URLs
// collected so far are returned. Downloads are isolated per URL.
package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// mediaPath is appended to the site URL to reach the media listing.
	mediaPath = "/wp-json/wp/v2/media"

	// DefaultPageSize is the per_page value sent to the media listing.
	DefaultPageSize = 10

	// DefaultMinDimension is the inclusive minimum width and height of a candidate image.
	DefaultMinDimension = 300

	// DefaultPageDelay is the pause after each successful page.
	DefaultPageDelay = time.Second

	defaultPageTimeout     = 30 * time.Second
	defaultDownloadTimeout = 15 * time.Second
)

// DefaultExcludeKeywords are URL fragments that mark non-product assets.
var DefaultExcludeKeywords = []string{"screenshot", "elementor", "logo", "icon", "banner", "filtros", "background"}

// MediaItem is one entry of the /wp/v2/media listing. Only the fields used by
// the filter are decoded.
type MediaItem struct {
	ID           int          `json:"id"`
	MediaType    string       `json:"media_type"`
	SourceURL    string       `json:"source_url"`
	MediaDetails MediaDetails `json:"media_details"`
}

// MediaDetails holds the pixel dimensions of an attachment. WordPress sends an
// empty array instead of an object for attachments without details; that
// decodes to zero dimensions.
type MediaDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UnmarshalJSON tolerates the empty-array form and non-integer dimensions.
func (d *MediaDetails) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*d = MediaDetails{}
		return nil
	}
	var raw struct {
		Width  json.Number `json:"width"`
		Height json.Number `json:"height"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = MediaDetails{}
		return nil
	}
	d.Width = numberToInt(raw.Width)
	d.Height = numberToInt(raw.Height)
	return nil
}

func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}

// Client queries a WordPress site's media library.
type Client struct {
	baseURL         string
	endpoint        string
	httpClient      *http.Client
	downloadClient  *http.Client
	pageSize        int
	pageDelay       time.Duration
	minDimension    int
	excludeKeywords []string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for listing and downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.downloadClient = hc
	}
}

// WithPageDelay overrides the pause between successful pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// WithPageSize overrides per_page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMinDimension overrides the minimum width/height threshold.
func WithMinDimension(px int) Option {
	return func(c *Client) { c.minDimension = px }
}

// WithExcludeKeywords replaces the URL exclusion list.
func WithExcludeKeywords(keywords []string) Option {
	return func(c *Client) { c.excludeKeywords = keywords }
}

// NewClient creates a client for the given site. The URL must start with
// http:// or https://; anything else is a configuration error.
func NewClient(siteURL string, opts ...Option) (*Client, error) {
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		return nil, fmt.Errorf("WordPress URL must start with http:// or https://: %q", siteURL)
	}
	base := strings.TrimRight(siteURL, "/")
	c := &Client{
		baseURL:         base,
		endpoint:        base + mediaPath,
		httpClient:      &http.Client{Timeout: defaultPageTimeout},
		downloadClient:  &http.Client{Timeout: defaultDownloadTimeout},
		pageSize:        DefaultPageSize,
		pageDelay:       DefaultPageDelay,
		minDimension:    DefaultMinDimension,
		excludeKeywords: DefaultExcludeKeywords,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Endpoint returns the media listing URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// IsPotentialImage applies the product-photo heuristics in order and stops at
// the first failing rule: media type, non-empty URL, excluded keywords
// (case-insensitive), then the inclusive minimum dimension on both axes.
func IsPotentialImage(item MediaItem, minDimension int, excludeKeywords []string) bool {
	if item.MediaType != "image" {
		return false
	}
	if item.SourceURL == "" {
		return false
	}

	lower := strings.ToLower(item.SourceURL)
	for _, kw := range excludeKeywords {
		if strings.Contains(lower, kw) {
			log.Debug().Str("keyword", kw).Str("url", item.SourceURL).Msg("Filtered by keyword")
			return false
		}
	}

	w, h := item.MediaDetails.Width, item.MediaDetails.Height
	if w < minDimension || h < minDimension {
		log.Debug().
			Int("width", w).
			Int("height", h).
			Str("url", item.SourceURL).
			Msg("Filtered by insufficient dimensions")
		return false
	}
	return true
}

// isPotentialImage applies IsPotentialImage with the client's settings.
func (c *Client) isPotentialImage(item MediaItem) bool {
	return IsPotentialImage(item, c.minDimension, c.excludeKeywords)
}

// FetchMediaURLs pages through the media listing until an empty page and
// returns the source URLs of every item that passes the filter. A timeout,
// transport failure, non-2xx status or non-JSON body stops pagination and the
// partial result is returned.
func (c *Client) FetchMediaURLs(ctx context.Context) []string {
	var urls []string
	page := 1

	log.Info().Str("endpoint", c.endpoint).Msg("Fetching media URLs")

	for {
		items, err := c.fetchPage(ctx, page)
		if err != nil {
			log.Warn().
				Err(err).
				Int("page", page).
				Int("collected", len(urls)).
				Msg("Stopping pagination early, returning partial result")
			break
		}
		if len(items) == 0 {
			log.Debug().Int("page", page).Msg("Empty page, no more media")
			break
		}

		kept := 0
		for _, item := range items {
			if c.isPotentialImage(item) {
				urls = append(urls, item.SourceURL)
				kept++
			}
		}
		log.Info().
			Int("page", page).
			Int("items", len(items)).
			Int("kept", kept).
			Msg("Media page fetched")

		page++

		if err := sleepCtx(ctx, c.pageDelay); err != nil {
			log.Warn().Err(err).Msg("Pagination interrupted")
			break
		}
	}

	log.Info().Int("total", len(urls)).Msg("Media URL discovery complete")
	return urls
}

// fetchPage requests one page of the media listing.
func (c *Client) fetchPage(ctx context.Context, page int) ([]MediaItem, error) {
	q := url.Values{
		"per_page": {strconv.Itoa(c.pageSize)},
		"page":     {strconv.Itoa(page)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("server did not respond in time: %w", err)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateString(string(body), 200))
	}

	var items []MediaItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return items, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncateString truncates a string to maxLen, appending "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
