// Package filehandler provides local media file handling for the video pipeline:
// supported extensions, MIME inference, folder listing, image reference
// resolution and lightweight image inspection.
//
// Only the source formats accepted by the image-to-video model are treated as
// images here (JPEG, PNG, GIF, WebP). Generated videos are always MP4.
package filehandler

import (
	"mime"
	"path/filepath"
	"strings"
	"sync"
)

// SupportedImageExtensions defines the source image extensions accepted by the
// video pipeline, mapped to the MIME type sent to the model.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// SupportedVideoExtensions defines the extensions recognised as generated video output.
var SupportedVideoExtensions = map[string]string{
	".mp4": "video/mp4",
}

// VideoExtension is the container extension used for generated videos.
const VideoExtension = ".mp4"

// DefaultImageMIMEType is used when the extension is not recognised.
const DefaultImageMIMEType = "image/jpeg"

var webpOnce sync.Once

// EnsureWebPMIMEType registers image/webp for .webp when the process-wide
// type table does not already know it. Some system mime.types files omit it.
func EnsureWebPMIMEType() {
	webpOnce.Do(func() {
		if mime.TypeByExtension(".webp") == "" {
			_ = mime.AddExtensionType(".webp", "image/webp")
		}
	})
}

// GuessMIMEType infers the image MIME type of path from its extension.
// The registered type table is consulted first (image/* only), then the
// explicit SupportedImageExtensions mapping, and finally DefaultImageMIMEType.
func GuessMIMEType(path string) string {
	EnsureWebPMIMEType()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultImageMIMEType
	}

	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil && strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}

	if t, ok := SupportedImageExtensions[ext]; ok {
		return t
	}
	return DefaultImageMIMEType
}

// IsImage returns true if the file extension corresponds to a supported source image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideo returns true if the file extension corresponds to a generated video.
func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}

// VideoFilename returns the output video filename for a source image path:
// the basename with its extension replaced by VideoExtension.
func VideoFilename(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + VideoExtension
}
