package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Tool names shared by every transport.
const (
	ToolExtractCatalog         = "extract_catalog"
	ToolGenerateVideo          = "generate_video"
	ToolGenerateVideosForFiles = "generate_videos_for_files"
	ToolGenerateVideosInFolder = "generate_videos_in_folder"
	ToolListImages             = "list_images"
	ToolBundleVideos           = "bundle_videos"
)

var descriptions = map[string]string{
	ToolExtractCatalog: "Discover product images in a WordPress media library and download them into " +
		"the images folder of a platform. Logos, icons, banners, screenshots and images smaller than " +
		"300x300 are ignored. Files that already exist are not downloaded again.",
	ToolGenerateVideo: "Generate a short video from one image with the Veo model. Reference the image by " +
		"filename inside a platform folder, or by a path inside the project root. An existing video is kept unless overwrite is true.",
	ToolGenerateVideosForFiles: "Generate videos for a list of image filenames inside a platform folder. " +
		"Returns processed, skipped and failed counts plus one result per image.",
	ToolGenerateVideosInFolder: "Generate videos for every supported image (jpg, png, gif, webp) in a platform " +
		"folder, in filename order, optionally limited to the first max_videos images.",
	ToolListImages:   "List the supported image files of a platform folder.",
	ToolBundleVideos: "Pack all generated videos into zstd-compressed ZIP files for hand-off.",
}

// Description returns the agent-facing description of a tool.
func Description(name string) string {
	return descriptions[name]
}

// Request is the JSON envelope accepted by Dispatch.
type Request struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type invoker func(ctx context.Context, args json.RawMessage) (any, error)

func bind[In, Out any](fn func(context.Context, In) Out) invoker {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in In
		if len(args) > 0 && string(args) != "null" {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return fn(ctx, in), nil
	}
}

func (s *Service) invokers() map[string]invoker {
	return map[string]invoker{
		ToolExtractCatalog:         bind(s.ExtractCatalog),
		ToolGenerateVideo:          bind(s.GenerateVideo),
		ToolGenerateVideosForFiles: bind(s.GenerateVideosForFiles),
		ToolGenerateVideosInFolder: bind(s.GenerateVideosInFolder),
		ToolListImages:             bind(s.ListImages),
		ToolBundleVideos:           bind(s.BundleVideos),
	}
}

// Names lists the tool names in sorted order.
func Names() []string {
	names := make([]string, 0, len(descriptions))
	for n := range descriptions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a JSON request to the named tool. Only an unknown tool or
// undecodable arguments produce an error; tool failures are in the result.
func (s *Service) Dispatch(ctx context.Context, req Request) (any, error) {
	inv, ok := s.invokers()[req.Tool]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", req.Tool)
	}
	return inv(ctx, req.Arguments)
}
