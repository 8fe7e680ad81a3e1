package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpang/media-video-agent/internal/batch"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/wordpress"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeGenerator) GenerateFromImage(ctx context.Context, imagePath, prompt string, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := filepath.Base(imagePath)
	f.calls = append(f.calls, name+"|"+prompt)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return []byte("mp4:" + name), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectRoot = t.TempDir()
	cfg.Video.Prompt = "default prompt"
	return cfg
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newWordPressServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/media", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, "[]")
			return
		}
		items := []map[string]any{
			{"media_type": "image", "source_url": srv.URL + "/uploads/dress.jpg", "media_details": map[string]int{"width": 800, "height": 1200}},
			{"media_type": "image", "source_url": srv.URL + "/uploads/site-logo.png", "media_details": map[string]int{"width": 800, "height": 800}},
			{"media_type": "image", "source_url": srv.URL + "/uploads/gone.jpg", "media_details": map[string]int{"width": 400, "height": 400}},
		}
		json.NewEncoder(w).Encode(items)
	})
	mux.HandleFunc("/uploads/dress.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/uploads/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractCatalog(t *testing.T) {
	cfg := testConfig(t)
	srv := newWordPressServer(t)
	svc := NewService(cfg, &fakeGenerator{}, WithCatalogOptions(wordpress.WithPageDelay(0)))

	res := svc.ExtractCatalog(context.Background(), ExtractCatalogInput{SiteURL: srv.URL, Platform: "shop"})
	if res.Status != StatusWarning {
		t.Errorf("expected warning for a failed download, got %+v", res)
	}
	if res.Found != 2 || res.Downloaded != 1 || res.Failed != 1 {
		t.Errorf("unexpected counts %+v", res)
	}
	data, err := os.ReadFile(filepath.Join(cfg.ImagesDir("shop"), "dress.jpg"))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("image not downloaded: %q %v", data, err)
	}

	res = svc.ExtractCatalog(context.Background(), ExtractCatalogInput{SiteURL: srv.URL, Platform: "shop", Limit: 1})
	if res.Status != StatusSuccess || res.Skipped != 1 || res.Downloaded != 0 {
		t.Errorf("expected the existing file to be skipped, got %+v", res)
	}
}

func TestExtractCatalogErrors(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &fakeGenerator{})

	if res := svc.ExtractCatalog(context.Background(), ExtractCatalogInput{}); res.Status != StatusError {
		t.Errorf("expected error without a site URL, got %+v", res)
	}
	if res := svc.ExtractCatalog(context.Background(), ExtractCatalogInput{SiteURL: "example.com"}); res.Status != StatusError || !strings.Contains(res.ErrorMessage, "http://") {
		t.Errorf("expected scheme error, got %+v", res)
	}
	if res := svc.ExtractCatalog(context.Background(), ExtractCatalogInput{SiteURL: "https://example.com", Platform: "../etc"}); res.Status != StatusError {
		t.Errorf("expected traversal error, got %+v", res)
	}
}

func TestGenerateVideo(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("web"), "a.jpg")
	gen := &fakeGenerator{}
	svc := NewService(cfg, gen)

	res := svc.GenerateVideo(context.Background(), GenerateVideoInput{Filename: "a.jpg"})
	if res.Status != StatusSuccess || res.Outcome != batch.StatusProcessed {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.VideoPath != filepath.Join(cfg.VideosDir(), "a.mp4") {
		t.Errorf("unexpected video path %q", res.VideoPath)
	}
	if gen.calls[0] != "a.jpg|default prompt" {
		t.Errorf("expected default prompt, got %v", gen.calls)
	}

	res = svc.GenerateVideo(context.Background(), GenerateVideoInput{Filename: "a.jpg", Prompt: "spin"})
	if res.Status != StatusWarning || res.Outcome != batch.StatusSkipped {
		t.Errorf("expected skip warning, got %+v", res)
	}
	if len(gen.calls) != 1 {
		t.Errorf("skip must not call the generator, got %v", gen.calls)
	}

	// A relative path resolves against the project root.
	res = svc.GenerateVideo(context.Background(), GenerateVideoInput{Path: "images/web/a.jpg", Overwrite: true})
	if res.Status != StatusSuccess || res.Image != filepath.Join(cfg.ImagesDir("web"), "a.jpg") {
		t.Errorf("unexpected result for project-relative path %+v", res)
	}
}

func TestGenerateVideoErrors(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("web"), "bad.jpg")
	gen := &fakeGenerator{fail: map[string]error{"bad.jpg": errors.New("quota exceeded")}}
	svc := NewService(cfg, gen)

	tests := []struct {
		name string
		in   GenerateVideoInput
		want string
	}{
		{"traversal", GenerateVideoInput{Filename: "../secret.jpg"}, "escapes"},
		{"missing", GenerateVideoInput{Filename: "ghost.jpg"}, "not found"},
		{"generation", GenerateVideoInput{Filename: "bad.jpg"}, "quota exceeded"},
		{"empty", GenerateVideoInput{}, "neither path nor filename"},
		{"path outside project", GenerateVideoInput{Path: "/etc/passwd"}, "outside"},
		{"path traversal", GenerateVideoInput{Path: "images/../../x.jpg"}, "escapes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.GenerateVideo(context.Background(), tt.in)
			if res.Status != StatusError || !strings.Contains(res.ErrorMessage, tt.want) {
				t.Errorf("expected error containing %q, got %+v", tt.want, res)
			}
		})
	}
}

func TestGenerateVideosForFiles(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("instagram"), "a.jpg", "b.png")
	svc := NewService(cfg, &fakeGenerator{})

	res := svc.GenerateVideosForFiles(context.Background(), GenerateVideosForFilesInput{
		Filenames: []string{"a.jpg", "missing.jpg", "b.png"},
		Platform:  "instagram",
	})
	if res.Status != StatusWarning || res.Processed != 2 || res.Failed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Results) != 3 || res.Results[1].Status != batch.StatusFailed {
		t.Errorf("unexpected outcomes %+v", res.Results)
	}

	if res := svc.GenerateVideosForFiles(context.Background(), GenerateVideosForFilesInput{}); res.Status != StatusError {
		t.Errorf("expected error for no filenames, got %+v", res)
	}
	res = svc.GenerateVideosForFiles(context.Background(), GenerateVideosForFilesInput{Filenames: []string{"a.jpg", "../../x.jpg"}})
	if res.Status != StatusError || res.Processed != 0 {
		t.Errorf("expected rejection before generation, got %+v", res)
	}
}

func TestGenerateVideosInFolder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Video.MaxVideos = 2
	writeImages(t, cfg.ImagesDir("web"), "c.jpg", "a.jpg", "b.jpg")
	gen := &fakeGenerator{}
	svc := NewService(cfg, gen)

	res := svc.GenerateVideosInFolder(context.Background(), GenerateVideosInFolderInput{})
	if res.Status != StatusSuccess || res.Processed != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if filepath.Base(res.Results[0].Image) != "a.jpg" || filepath.Base(res.Results[1].Image) != "b.jpg" {
		t.Errorf("expected the first two images by name, got %+v", res.Results)
	}

	res = svc.GenerateVideosInFolder(context.Background(), GenerateVideosInFolderInput{MaxVideos: 5})
	if res.Processed != 1 || res.Skipped != 2 {
		t.Errorf("expected existing videos to be skipped, got %+v", res)
	}

	if res := svc.GenerateVideosInFolder(context.Background(), GenerateVideosInFolderInput{Platform: "tiktok"}); res.Status != StatusError {
		t.Errorf("expected error for a missing folder, got %+v", res)
	}
}

func TestListImages(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("web"), "b.webp", "a.jpg", "notes.txt")
	if err := os.MkdirAll(cfg.ImagesDir("instagram"), 0o755); err != nil {
		t.Fatal(err)
	}
	svc := NewService(cfg, &fakeGenerator{})

	res := svc.ListImages(context.Background(), ListImagesInput{})
	if res.Status != StatusSuccess || res.Count != 2 || res.Images[0] != "a.jpg" || res.Images[1] != "b.webp" {
		t.Errorf("unexpected result %+v", res)
	}

	if res := svc.ListImages(context.Background(), ListImagesInput{Platform: "instagram"}); res.Status != StatusWarning {
		t.Errorf("expected warning for an empty folder, got %+v", res)
	}

	res = svc.ListImages(context.Background(), ListImagesInput{Platform: "tiktok"})
	if res.Status != StatusError || len(res.Platforms) != 2 {
		t.Errorf("expected error listing available platforms, got %+v", res)
	}
}

func TestBundleVideos(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, &fakeGenerator{})

	if res := svc.BundleVideos(context.Background(), BundleVideosInput{}); res.Status != StatusError {
		t.Errorf("expected error without a videos folder, got %+v", res)
	}

	os.MkdirAll(cfg.VideosDir(), 0o755)
	if res := svc.BundleVideos(context.Background(), BundleVideosInput{}); res.Status != StatusWarning {
		t.Errorf("expected warning for no videos, got %+v", res)
	}

	os.WriteFile(filepath.Join(cfg.VideosDir(), "a.mp4"), []byte(strings.Repeat("v", 1024)), 0o644)
	res := svc.BundleVideos(context.Background(), BundleVideosInput{Name: "shop"})
	if res.Status != StatusSuccess || len(res.Bundles) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if filepath.Dir(res.Bundles[0].Path) != cfg.BundlesDir() {
		t.Errorf("bundle written outside the bundles folder: %s", res.Bundles[0].Path)
	}
	if res.PublishedKeys != nil {
		t.Errorf("nothing should be published without a publisher, got %v", res.PublishedKeys)
	}
}

type fakePublisher struct {
	err  error
	keys []string
}

func (p *fakePublisher) Publish(ctx context.Context, runID, localPath string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	key := "videos/" + runID + "/" + filepath.Base(localPath)
	p.keys = append(p.keys, key)
	return key, nil
}

func TestBundleVideosPublishes(t *testing.T) {
	cfg := testConfig(t)
	os.MkdirAll(cfg.VideosDir(), 0o755)
	os.WriteFile(filepath.Join(cfg.VideosDir(), "a.mp4"), []byte(strings.Repeat("v", 1024)), 0o644)

	pub := &fakePublisher{}
	res := NewService(cfg, &fakeGenerator{}, WithPublisher(pub)).BundleVideos(context.Background(), BundleVideosInput{Name: "shop"})
	if res.Status != StatusSuccess || len(res.PublishedKeys) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.PublishedKeys[0] != "videos/bundles/shop-videos-1.zip" {
		t.Errorf("unexpected key %q", res.PublishedKeys[0])
	}

	failing := &fakePublisher{err: errors.New("access denied")}
	res = NewService(cfg, &fakeGenerator{}, WithPublisher(failing)).BundleVideos(context.Background(), BundleVideosInput{Name: "shop"})
	if res.Status != StatusWarning || !strings.Contains(res.ErrorMessage, "access denied") || len(res.Bundles) != 1 {
		t.Errorf("expected publish warning with bundles kept, got %+v", res)
	}
}

func TestDispatch(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("web"), "a.jpg")
	svc := NewService(cfg, &fakeGenerator{})

	out, err := svc.Dispatch(context.Background(), Request{Tool: ToolListImages, Arguments: json.RawMessage(`{"platform":"web"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := out.(ListImagesResult)
	if !ok || list.Count != 1 {
		t.Errorf("unexpected result %#v", out)
	}

	out, err = svc.Dispatch(context.Background(), Request{Tool: ToolGenerateVideo, Arguments: json.RawMessage(`{"filename":"a.jpg"}`)})
	if err != nil || out.(VideoResult).Status != StatusSuccess {
		t.Errorf("unexpected generate result %#v %v", out, err)
	}

	if _, err := svc.Dispatch(context.Background(), Request{Tool: ToolBundleVideos}); err != nil {
		t.Errorf("missing arguments should decode to defaults: %v", err)
	}
	if _, err := svc.Dispatch(context.Background(), Request{Tool: "weather"}); err == nil {
		t.Error("expected error for unknown tool")
	}
	if _, err := svc.Dispatch(context.Background(), Request{Tool: ToolListImages, Arguments: json.RawMessage(`{"platform":1}`)}); err == nil {
		t.Error("expected error for invalid arguments")
	}
}

func TestNamesAndDescriptions(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("expected 6 tools, got %v", names)
	}
	svc := NewService(testConfig(t), &fakeGenerator{})
	invokers := svc.invokers()
	for _, n := range names {
		if Description(n) == "" {
			t.Errorf("%s has no description", n)
		}
		if _, ok := invokers[n]; !ok {
			t.Errorf("%s is not dispatchable", n)
		}
	}
}

func TestADKTools(t *testing.T) {
	svc := NewService(testConfig(t), &fakeGenerator{})
	tools, err := svc.ADKTools()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != len(Names()) {
		t.Fatalf("expected %d tools, got %d", len(Names()), len(tools))
	}
	for _, tl := range tools {
		if Description(tl.Name()) == "" {
			t.Errorf("unexpected tool %q", tl.Name())
		}
	}
}

func TestMCPServer(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir("web"), "a.jpg", "b.png")
	svc := NewService(cfg, &fakeGenerator{})
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := svc.NewMCPServer("test").Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(listed.Tools) != len(Names()) {
		t.Errorf("expected %d tools, got %d", len(Names()), len(listed.Tools))
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolListImages,
		Arguments: map[string]any{"platform": "web"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool reported error: %+v", res)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatal(err)
	}
	var list ListImagesResult
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
	if list.Status != StatusSuccess || list.Count != 2 {
		t.Errorf("unexpected result %+v", list)
	}
}
