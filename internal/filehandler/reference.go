package filehandler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a bare filename or folder name would
// resolve outside the images root.
var ErrPathTraversal = errors.New("image reference escapes the images root")

// ImageReference identifies a source image either by an explicit filesystem
// path or by a bare filename inside a named platform folder of the images root
// (<root>/<Platform>/<Filename>).
type ImageReference struct {
	Path     string
	Filename string
	Platform string
}

// Resolve returns the absolute path of the referenced image. Explicit paths
// are trusted as given; bare filenames and platform names are untrusted input
// and must stay inside imagesRoot.
func (r ImageReference) Resolve(imagesRoot string) (string, error) {
	if r.Path != "" {
		abs, err := filepath.Abs(r.Path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path %q: %w", r.Path, err)
		}
		return abs, nil
	}

	if r.Filename == "" {
		return "", fmt.Errorf("image reference has neither path nor filename")
	}
	if !isSafeSegment(r.Filename) {
		return "", fmt.Errorf("%w: filename %q", ErrPathTraversal, r.Filename)
	}
	if r.Platform != "" && !isSafeSegment(r.Platform) {
		return "", fmt.Errorf("%w: folder %q", ErrPathTraversal, r.Platform)
	}

	root, err := filepath.Abs(imagesRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve images root: %w", err)
	}
	resolved := filepath.Join(root, r.Platform, r.Filename)

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, r.Filename)
	}
	return resolved, nil
}

// ResolveFilenames resolves bare filenames inside <imagesRoot>/<platform>.
// The first invalid name aborts resolution.
func ResolveFilenames(imagesRoot, platform string, filenames []string) ([]string, error) {
	paths := make([]string, 0, len(filenames))
	for _, name := range filenames {
		p, err := ImageReference{Filename: name, Platform: platform}.Resolve(imagesRoot)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ContainsPathTraversal returns true if the path contains ".." segments.
// Raw segments are checked before filepath.Clean can silently resolve them.
func ContainsPathTraversal(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// ConfinePath resolves p against root and rejects any result outside root.
// Relative paths are taken relative to root, not the working directory.
func ConfinePath(root, p string) (string, error) {
	if ContainsPathTraversal(p) {
		return "", fmt.Errorf("%w: path %q", ErrPathTraversal, p)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	resolved := p
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q is outside %s", ErrPathTraversal, p, absRoot)
	}
	return resolved, nil
}

// isSafeSegment reports whether s is a single path element with no traversal.
func isSafeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return false
	}
	return !filepath.IsAbs(s) && filepath.VolumeName(s) == ""
}
