package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName identifies the MCP server to clients.
const ServerName = "media-video-agent"

func addMCPTool[In, Out any](server *mcp.Server, name string, fn func(context.Context, In) Out) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: Description(name)},
		func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
			log.Debug().Str("tool", name).Msg("MCP tool call")
			return nil, fn(ctx, in), nil
		})
}

// NewMCPServer registers every operation on a new MCP server.
func (s *Service) NewMCPServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	addMCPTool(server, ToolExtractCatalog, s.ExtractCatalog)
	addMCPTool(server, ToolGenerateVideo, s.GenerateVideo)
	addMCPTool(server, ToolGenerateVideosForFiles, s.GenerateVideosForFiles)
	addMCPTool(server, ToolGenerateVideosInFolder, s.GenerateVideosInFolder)
	addMCPTool(server, ToolListImages, s.ListImages)
	addMCPTool(server, ToolBundleVideos, s.BundleVideos)
	return server
}

// ServeStdio runs the MCP server over stdin/stdout until the client disconnects.
func (s *Service) ServeStdio(ctx context.Context, version string) error {
	log.Info().Int("tools", len(descriptions)).Msg("Starting MCP server on stdio")
	return s.NewMCPServer(version).Run(ctx, &mcp.StdioTransport{})
}
