package filehandler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes a local source image before it is sent to the model.
type ImageInfo struct {
	Path     string
	MIMEType string
	Format   string // decoder name: jpeg, png, gif, webp
	Width    int
	Height   int
	Size     int64

	// EXIF fields, populated when the file carries them.
	CameraMake  string
	CameraModel string
	DateTaken   time.Time
}

// InspectImage reads only the image header to get format and dimensions, then
// makes a best-effort pass for EXIF camera/date fields. A file that cannot be
// decoded as an image is an error; missing EXIF is not.
func InspectImage(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	info := &ImageInfo{
		Path:     path,
		MIMEType: GuessMIMEType(path),
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Size:     st.Size(),
	}

	if format == "jpeg" || format == "webp" {
		if _, err := f.Seek(0, 0); err == nil {
			extractEXIF(f, info)
		}
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", info.Width).
		Int("height", info.Height).
		Str("camera", strings.TrimSpace(info.CameraMake+" "+info.CameraModel)).
		Msg("Image inspected")

	return info, nil
}

func extractEXIF(f *os.File, info *ImageInfo) {
	exifData, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Err(err).Str("path", info.Path).Msg("No EXIF metadata, continuing without it")
		return
	}
	info.CameraMake = strings.TrimSpace(exifData.Make)
	info.CameraModel = strings.TrimSpace(exifData.Model)
	if t := exifData.DateTimeOriginal(); !t.IsZero() {
		info.DateTaken = t
	}
}
