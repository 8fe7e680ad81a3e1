package tools

import (
	"context"
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

func adkTool[In, Out any](name string, fn func(context.Context, In) Out) (tool.Tool, error) {
	handler := func(ctx tool.Context, in In) (Out, error) {
		return fn(ctx, in), nil
	}
	return functiontool.New(functiontool.Config{Name: name, Description: Description(name)}, handler)
}

// ADKTools returns the operations as ADK function tools.
func (s *Service) ADKTools() ([]tool.Tool, error) {
	builders := []func() (tool.Tool, error){
		func() (tool.Tool, error) { return adkTool(ToolExtractCatalog, s.ExtractCatalog) },
		func() (tool.Tool, error) { return adkTool(ToolGenerateVideo, s.GenerateVideo) },
		func() (tool.Tool, error) { return adkTool(ToolGenerateVideosForFiles, s.GenerateVideosForFiles) },
		func() (tool.Tool, error) { return adkTool(ToolGenerateVideosInFolder, s.GenerateVideosInFolder) },
		func() (tool.Tool, error) { return adkTool(ToolListImages, s.ListImages) },
		func() (tool.Tool, error) { return adkTool(ToolBundleVideos, s.BundleVideos) },
	}

	out := make([]tool.Tool, 0, len(builders))
	for _, build := range builders {
		t, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build tool: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
