package filehandler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScanOptions configures directory listing behavior.
type ScanOptions struct {
	// Limit caps the number of images returned. 0 = unlimited.
	Limit int
}

// ListImages lists the supported images directly inside dirPath (no recursion).
// Results are absolute paths sorted lexicographically by filename.
// This is a convenience wrapper that calls ListImagesWithOptions with default options.
func ListImages(dirPath string) ([]string, error) {
	return ListImagesWithOptions(dirPath, ScanOptions{})
}

// ListImagesWithOptions lists supported images in dirPath, sorted by filename,
// and truncates the result to opts.Limit when it is positive.
// Subdirectories are ignored; symlinks to files are followed.
func ListImagesWithOptions(dirPath string, opts ScanOptions) ([]string, error) {
	log.Debug().
		Str("path", dirPath).
		Int("limit", opts.Limit).
		Msg("Listing images")

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsImage(filepath.Ext(e.Name())) {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(absPath, e.Name()))
			if err != nil || target.IsDir() {
				log.Debug().Str("file", e.Name()).Msg("Skipping unresolvable or directory symlink")
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	limitReached := false
	if opts.Limit > 0 && len(names) > opts.Limit {
		names = names[:opts.Limit]
		limitReached = true
	}

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(absPath, n)
	}

	logEvent := log.Info().
		Int("total_images", len(paths)).
		Str("directory", absPath)
	if limitReached {
		logEvent.Bool("limit_reached", true)
	}
	logEvent.Msg("Directory scan complete")

	return paths, nil
}

// ListFiles returns the names of the regular files directly inside dirPath,
// sorted, filtered to the given extension predicate.
func ListFiles(dirPath string, keep func(ext string) bool) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if keep == nil || keep(strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListDirs returns the names of the subdirectories of dirPath, sorted.
// Hidden directories are ignored.
func ListDirs(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
