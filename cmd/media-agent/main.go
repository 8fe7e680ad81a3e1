// Package main hosts an ADK agent that can build a product catalog from a
// WordPress site and turn its images into videos. Run with "console" for an
// interactive session or "web api" to serve the ADK REST API.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/session"

	"github.com/fpang/media-video-agent/internal/assets"
	"github.com/fpang/media-video-agent/internal/auth"
	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/logging"
	"github.com/fpang/media-video-agent/internal/tools"
)

func main() {
	logging.Init()
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	gen := cli.NewGenerator(ctx, cfg, false)
	var opts []tools.Option
	if pub := cli.InitPublisher(ctx, cfg); pub != nil {
		opts = append(opts, tools.WithPublisher(pub))
	}
	agentTools, err := tools.NewService(cfg, gen, opts...).ADKTools()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build tools")
	}

	clientCfg, err := auth.ClientConfig(cli.SettingsFromConfig(cfg))
	if err != nil {
		cli.HandleValidationError(err)
	}
	modelName := logging.EnvOrDefault("AGENT_MODEL", "gemini-2.5-flash")
	model, err := gemini.NewModel(ctx, modelName, clientCfg)
	if err != nil {
		log.Fatal().Err(err).Str("model", modelName).Msg("Failed to create agent model")
	}

	a, err := llmagent.New(llmagent.Config{
		Name:        "media_video_agent",
		Model:       model,
		Description: "Downloads catalog images from WordPress and generates product videos with Veo.",
		Instruction: assets.AgentInstructionPrompt,
		Tools:       agentTools,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create agent")
	}

	logging.NewStartupLogger("media-agent").
		Directory("projectRoot", cfg.ProjectRoot).
		Config("agentModel", modelName).
		Config("videoModel", cfg.Video.Model).
		Feature("vertexAI", cfg.UseVertex()).
		Log()

	l := full.NewLauncher()
	launchCfg := &launcher.Config{
		AgentLoader:    agent.NewSingleLoader(a),
		SessionService: session.InMemoryService(),
	}
	if err := l.Execute(ctx, launchCfg, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msgf("Run failed\n\n%s", l.CommandLineSyntax())
	}
}
