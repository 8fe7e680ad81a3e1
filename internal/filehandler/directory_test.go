package filehandler

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

func TestListImagesWithOptions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.jpg", "b.WEBP", "notes.txt", "clip.mp4", "d.gif"} {
		touch(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListImagesWithOptions(dir, ScanOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("expected absolute path, got %q", p)
		}
		names = append(names, filepath.Base(p))
	}
	want := []string{"a.jpg", "b.WEBP", "c.png", "d.gif"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ListImages names = %v, want %v", names, want)
	}

	limited, err := ListImagesWithOptions(dir, ScanOptions{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 || filepath.Base(limited[1]) != "b.WEBP" {
		t.Errorf("unexpected limited result: %v", limited)
	}
}

func TestListImagesMissingDirectory(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "directory not found") {
		t.Errorf("expected directory not found error, got %v", err)
	}
}

func TestListImagesNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.jpg")
	touch(t, file)
	if _, err := ListImages(file); err == nil {
		t.Error("expected error for file path")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mp4", "c.jpg"} {
		touch(t, filepath.Join(dir, name))
	}
	names, err := ListFiles(dir, IsVideo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a.mp4", "b.mp4"}) {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestListDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"web", "instagram", ".cache"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	touch(t, filepath.Join(dir, "file.jpg"))

	names, err := ListDirs(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"instagram", "web"}) {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestImageReferenceResolve(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		ref     ImageReference
		want    string
		wantErr bool
	}{
		{"bare filename", ImageReference{Filename: "dress.jpg", Platform: "web"}, filepath.Join(root, "web", "dress.jpg"), false},
		{"no platform", ImageReference{Filename: "dress.jpg"}, filepath.Join(root, "dress.jpg"), false},
		{"dotdot filename", ImageReference{Filename: "..", Platform: "web"}, "", true},
		{"traversal filename", ImageReference{Filename: "../../etc/passwd", Platform: "web"}, "", true},
		{"nested filename", ImageReference{Filename: "sub/dress.jpg"}, "", true},
		{"backslash filename", ImageReference{Filename: `..\dress.jpg`}, "", true},
		{"traversal platform", ImageReference{Filename: "dress.jpg", Platform: ".."}, "", true},
		{"absolute filename", ImageReference{Filename: "/etc/passwd"}, "", true},
		{"empty", ImageReference{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.Resolve(root)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got path %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageReferenceTraversalIsTyped(t *testing.T) {
	_, err := ImageReference{Filename: "../x.jpg"}.Resolve(t.TempDir())
	if !errors.Is(err, ErrPathTraversal) {
		t.Errorf("expected ErrPathTraversal, got %v", err)
	}
}

func TestImageReferenceExplicitPath(t *testing.T) {
	got, err := ImageReference{Path: "relative/dress.jpg"}.Resolve("/ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) || !strings.HasSuffix(got, filepath.Join("relative", "dress.jpg")) {
		t.Errorf("unexpected resolved path %q", got)
	}
}

func TestResolveFilenames(t *testing.T) {
	root := t.TempDir()
	paths, err := ResolveFilenames(root, "web", []string{"a.jpg", "b.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paths[1] != filepath.Join(root, "web", "b.png") {
		t.Errorf("unexpected path %q", paths[1])
	}
	if _, err := ResolveFilenames(root, "web", []string{"a.jpg", "../b.png"}); err == nil {
		t.Error("expected traversal error")
	}
}

func TestContainsPathTraversal(t *testing.T) {
	if !ContainsPathTraversal("/tmp/../etc") {
		t.Error("expected traversal to be detected")
	}
	if ContainsPathTraversal("/tmp/images/web") {
		t.Error("unexpected traversal detection")
	}
}

func TestConfinePath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"relative", "images/web/a.jpg", filepath.Join(root, "images", "web", "a.jpg"), false},
		{"absolute inside", filepath.Join(root, "images", "a.jpg"), filepath.Join(root, "images", "a.jpg"), false},
		{"absolute outside", "/etc/passwd", "", true},
		{"dot-dot", "images/../../secret.jpg", "", true},
		{"dot-dot inside", "images/../a.jpg", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfinePath(root, tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrPathTraversal) {
					t.Errorf("expected ErrPathTraversal, got %q, %v", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ConfinePath(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestInspectImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dress.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 320, 480))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	info, err := InspectImage(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Width != 320 || info.Height != 480 {
		t.Errorf("unexpected dimensions %dx%d", info.Width, info.Height)
	}
	if info.Format != "png" || info.MIMEType != "image/png" {
		t.Errorf("unexpected format %q / %q", info.Format, info.MIMEType)
	}
}

func TestInspectImageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	touch(t, path)
	if _, err := InspectImage(path); err == nil {
		t.Error("expected decode error for corrupt image")
	}
}
