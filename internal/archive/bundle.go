// Package archive packs generated videos into Zstandard-compressed ZIP files.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fpang/media-video-agent/internal/filehandler"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// MethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const MethodZstd uint16 = 93

// DefaultMaxBundleBytes caps the input size of one bundle.
const DefaultMaxBundleBytes int64 = 375 * 1024 * 1024

func init() {
	// Level 12 maps to SpeedBestCompression in klauspost/compress.
	zip.RegisterCompressor(MethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})
	zip.RegisterDecompressor(MethodZstd, func(r io.Reader) io.ReadCloser {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return dec.IOReadCloser()
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// Options control BundleVideos.
type Options struct {
	// Name prefixes each bundle file: <Name>-videos-<n>.zip. Defaults to "media".
	Name string
	// MaxBundleBytes caps the summed input size per bundle. A single larger
	// video gets a bundle of its own.
	MaxBundleBytes int64
}

// Bundle describes one ZIP written by BundleVideos.
type Bundle struct {
	Path      string   `json:"path"`
	Files     []string `json:"files"`
	InputSize int64    `json:"input_size"`
	ZipSize   int64    `json:"zip_size"`
}

type fileWithSize struct {
	path string
	size int64
}

// BundleVideos packs every video in videosDir into one or more ZIPs in outDir.
// An empty videosDir yields no bundles and no error.
func BundleVideos(videosDir, outDir string, opts Options) ([]Bundle, error) {
	if opts.Name == "" {
		opts.Name = "media"
	}
	if opts.MaxBundleBytes <= 0 {
		opts.MaxBundleBytes = DefaultMaxBundleBytes
	}

	names, err := filehandler.ListFiles(videosDir, filehandler.IsVideo)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		log.Info().Str("dir", videosDir).Msg("No videos to bundle")
		return nil, nil
	}

	files := make([]fileWithSize, 0, len(names))
	for _, name := range names {
		p := filepath.Join(videosDir, name)
		info, err := os.Stat(p)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Cannot stat video, skipping")
			continue
		}
		files = append(files, fileWithSize{path: p, size: info.Size()})
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle folder: %w", err)
	}

	groups := groupBySize(files, opts.MaxBundleBytes)
	bundles := make([]Bundle, 0, len(groups))
	for i, group := range groups {
		zipPath := filepath.Join(outDir, fmt.Sprintf("%s-videos-%d.zip", opts.Name, i+1))
		b, err := writeZip(zipPath, group)
		if err != nil {
			return bundles, err
		}
		bundles = append(bundles, b)
		log.Info().
			Str("zip", zipPath).
			Int("files", len(b.Files)).
			Int64("inputBytes", b.InputSize).
			Int64("zipBytes", b.ZipSize).
			Msg("Video bundle written")
	}
	return bundles, nil
}

// groupBySize packs files into groups whose total size stays within maxBytes,
// first-fit-decreasing. Files larger than maxBytes get their own group.
func groupBySize(files []fileWithSize, maxBytes int64) [][]fileWithSize {
	if len(files) == 0 {
		return nil
	}

	sorted := make([]fileWithSize, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].size > sorted[j].size
	})

	var groups [][]fileWithSize
	var sizes []int64
	for _, f := range sorted {
		placed := false
		if f.size <= maxBytes {
			for i := range sizes {
				if sizes[i]+f.size <= maxBytes {
					groups[i] = append(groups[i], f)
					sizes[i] += f.size
					placed = true
					break
				}
			}
		}
		if !placed {
			groups = append(groups, []fileWithSize{f})
			sizes = append(sizes, f.size)
		}
	}
	return groups
}

// writeZip writes files into zipPath through a temp file in the same folder.
func writeZip(zipPath string, files []fileWithSize) (Bundle, error) {
	b := Bundle{Path: zipPath}

	tmp, err := os.CreateTemp(filepath.Dir(zipPath), ".bundle-*.zip")
	if err != nil {
		return b, fmt.Errorf("create temp ZIP: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmp)
	for _, f := range files {
		if err := addFile(zw, f.path); err != nil {
			tmp.Close()
			return b, err
		}
		b.Files = append(b.Files, filepath.Base(f.path))
		b.InputSize += f.size
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return b, fmt.Errorf("close ZIP writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return b, fmt.Errorf("close temp ZIP: %w", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return b, fmt.Errorf("stat ZIP file: %w", err)
	}
	b.ZipSize = info.Size()

	if err := os.Rename(tmpPath, zipPath); err != nil {
		return b, fmt.Errorf("rename ZIP into place: %w", err)
	}
	return b, nil
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}

	header := &zip.FileHeader{
		Name:   filepath.Base(path),
		Method: MethodZstd,
	}
	header.Modified = info.ModTime()

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create ZIP entry for %s: %w", header.Name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write to ZIP for %s: %w", header.Name, err)
	}
	return nil
}
