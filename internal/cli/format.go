package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fpang/media-video-agent/internal/batch"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PrintSummary writes a per-image table followed by the totals.
func PrintSummary(w io.Writer, s *batch.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tSTATUS\tDETAIL")
	for _, o := range s.Results {
		detail := o.Message
		if o.Status == batch.StatusProcessed {
			detail = filepath.Base(o.VideoPath)
			if o.PublishedKey != "" {
				detail += " -> " + o.PublishedKey
			}
			if o.PublishError != "" {
				detail += " (publish failed: " + o.PublishError + ")"
			}
		}
		status := string(o.Status)
		if o.TimedOut {
			status += " (timeout)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", filepath.Base(o.Image), status, detail)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nRun %s: %d processed, %d skipped, %d failed in %s\n",
		s.RunID, s.Processed, s.Skipped, s.Failed, FormatDurationShort(s.Duration))
	fmt.Fprintf(w, "Videos: %s\n", s.VideosDir)
}
