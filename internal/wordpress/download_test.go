package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://x.com/wp-content/uploads/2024/05/dress.jpg", "dress.jpg"},
		{"https://x.com/wp-content/uploads/dress.jpg?ver=2", "dress.jpg"},
		{"https://x.com/uploads/dress.png#top", "dress.png"},
		{"https://x.com/uploads/vestido%20novia.jpg", "vestido novia.jpg"},
		{"https://x.com/", ""},
		{"https://x.com/uploads/", ""},
		{"https://x.com/uploads/..%2Fescape.jpg", "escape.jpg"},
		{"https://x.com/uploads/a%2525b.jpg", "a%25b.jpg"},
		{"https://x.com/uploads/50%25-off.jpg", "50%-off.jpg"},
	}
	for _, tt := range tests {
		if got := FilenameFromURL(tt.in); got != tt.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDownloadImages(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/uploads/a.jpg":
			w.Write([]byte("image-a"))
		case "/uploads/b.jpg":
			w.Write([]byte("image-b"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "images", "web")
	c := newTestClient(t, server)

	urls := []string{
		server.URL + "/uploads/a.jpg",
		server.URL + "/uploads/missing.jpg",
		server.URL + "/uploads/b.jpg",
	}
	report, err := c.DownloadImages(context.Background(), urls, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Downloaded) != 2 {
		t.Errorf("expected 2 downloads, got %v", report.Downloaded)
	}
	if len(report.Failed) != 1 {
		t.Errorf("expected 1 failure, got %v", report.Failed)
	}
	if _, ok := report.Failed[server.URL+"/uploads/missing.jpg"]; !ok {
		t.Errorf("missing.jpg should be recorded as failed: %v", report.Failed)
	}

	data, err := os.ReadFile(filepath.Join(dest, "b.jpg"))
	if err != nil {
		t.Fatalf("b.jpg not written: %v", err)
	}
	if string(data) != "image-b" {
		t.Errorf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dest, "missing.jpg")); !os.IsNotExist(err) {
		t.Error("failed download must not leave a file behind")
	}

	entries, _ := os.ReadDir(dest)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".download-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestDownloadImagesSkipsExisting(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dest := t.TempDir()
	existing := filepath.Join(dest, "a.jpg")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := newTestClient(t, server).DownloadImages(context.Background(), []string{server.URL + "/a.jpg"}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no HTTP requests for an existing file, got %d", hits)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != existing {
		t.Errorf("unexpected skipped list: %v", report.Skipped)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "old" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestDownloadImagesEmpty(t *testing.T) {
	c, err := NewClient("https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "never-created")
	report, err := c.DownloadImages(context.Background(), nil, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Downloaded) != 0 {
		t.Errorf("expected nothing downloaded")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not be created for an empty URL list")
	}
}

func TestRunAppliesLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == mediaPath {
			if r.URL.Query().Get("page") != "1" {
				w.Write([]byte("[]"))
				return
			}
			var items []MediaItem
			for _, name := range []string{"a", "b", "c", "d"} {
				items = append(items, image(server.URL+"/uploads/"+name+".jpg", 800, 800))
			}
			json.NewEncoder(w).Encode(items)
			return
		}
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	dest := t.TempDir()
	result, err := newTestClient(t, server).Run(context.Background(), dest, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found != 4 {
		t.Errorf("expected 4 candidates, got %d", result.Found)
	}
	if len(result.Report.Downloaded) != 2 {
		t.Fatalf("expected 2 downloads, got %v", result.Report.Downloaded)
	}
	if filepath.Base(result.Report.Downloaded[0]) != "a.jpg" || filepath.Base(result.Report.Downloaded[1]) != "b.jpg" {
		t.Errorf("expected the first two candidates, got %v", result.Report.Downloaded)
	}
}

func TestRunNothingFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	result, err := newTestClient(t, server).Run(context.Background(), t.TempDir(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found != 0 || len(result.Report.Downloaded) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}
