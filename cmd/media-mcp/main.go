// Package main serves the media video tools over the Model Context Protocol
// on stdin/stdout, for desktop agents and IDEs.
//
// Logs go to stderr; stdout carries only protocol traffic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/logging"
	"github.com/fpang/media-video-agent/internal/tools"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	initStart := time.Now()
	logging.InitWithWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	gen := cli.NewGenerator(ctx, cfg, false)
	var opts []tools.Option
	if pub := cli.InitPublisher(ctx, cfg); pub != nil {
		opts = append(opts, tools.WithPublisher(pub))
	}
	svc := tools.NewService(cfg, gen, opts...)

	logging.NewStartupLogger("media-mcp").
		Endpoint("wordpress", cfg.WordPress.URL).
		Directory("projectRoot", cfg.ProjectRoot).
		Config("model", cfg.Video.Model).
		Config("version", version).
		Feature("vertexAI", cfg.UseVertex()).
		Feature("s3Publish", cfg.S3.Bucket != "").
		InitDuration(time.Since(initStart)).
		Log()

	if err := svc.ServeStdio(ctx, version); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}
