package cli

import (
	"context"

	"google.golang.org/genai"

	"github.com/fpang/media-video-agent/internal/auth"
	"github.com/fpang/media-video-agent/internal/config"
)

// SettingsFromConfig maps the resolved configuration to auth settings.
func SettingsFromConfig(cfg *config.Config) auth.Settings {
	return auth.Settings{
		ProjectID:       cfg.GCP.ProjectID,
		Location:        cfg.GCP.Location,
		CredentialsFile: cfg.GCP.CredentialsFile,
		APIKey:          cfg.GCP.APIKey,
	}
}

// InitVideoClient creates the genai client for the configured backend and
// optionally validates access to the video model. Exits fatally on failure.
func InitVideoClient(ctx context.Context, cfg *config.Config, validate bool) *genai.Client {
	client, err := auth.NewVideoClient(ctx, SettingsFromConfig(cfg))
	if err != nil {
		HandleValidationError(err)
	}

	if validate {
		if err := auth.ValidateModel(ctx, client.Models, cfg.Video.Model); err != nil {
			HandleValidationError(err)
		}
	}
	return client
}
