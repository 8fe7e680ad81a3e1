package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/media-video-agent/internal/filehandler"
)

var detailsFlag bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported images of a platform folder",
	Args:  cobra.NoArgs,
	Run:   runList,
}

func init() {
	listCmd.Flags().BoolVar(&detailsFlag, "details", false, "Show dimensions and capture date")
}

func runList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	dir := cfg.ImagesDir("")

	paths, err := filehandler.ListImages(dir)
	if err != nil {
		if dirs, derr := filehandler.ListDirs(cfg.ImagesRoot()); derr == nil && len(dirs) > 0 {
			fmt.Printf("Available platforms: %v\n", dirs)
		}
		log.Fatal().Err(err).Msg("Cannot list images")
	}

	for _, p := range paths {
		if !detailsFlag {
			fmt.Println(filepath.Base(p))
			continue
		}
		info, err := filehandler.InspectImage(p)
		if err != nil {
			fmt.Printf("%-40s  (unreadable: %v)\n", filepath.Base(p), err)
			continue
		}
		taken := ""
		if !info.DateTaken.IsZero() {
			taken = info.DateTaken.Format("2006-01-02")
		}
		fmt.Printf("%-40s  %5dx%-5d  %s\n", filepath.Base(p), info.Width, info.Height, taken)
	}
	fmt.Printf("\n%d images in %s\n", len(paths), dir)
}
