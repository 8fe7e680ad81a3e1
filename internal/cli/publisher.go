package cli

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-video-agent/internal/batch"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/s3util"
	"github.com/fpang/media-video-agent/internal/veo"
)

// NewGenerator builds the Veo generator around the configured client.
func NewGenerator(ctx context.Context, cfg *config.Config, validate bool) *veo.Generator {
	client := InitVideoClient(ctx, cfg, validate)
	return veo.NewGenerator(
		veo.NewGenaiProvider(client),
		veo.WithModel(cfg.Video.Model),
		veo.WithPollInterval(cfg.PollInterval()),
	)
}

// InitPublisher returns an S3 video publisher when a bucket is configured,
// or nil. Exits fatally if AWS configuration cannot be loaded.
func InitPublisher(ctx context.Context, cfg *config.Config) batch.Publisher {
	if cfg.S3.Bucket == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Info().Str("bucket", cfg.S3.Bucket).Str("prefix", cfg.S3.Prefix).Msg("Publishing videos to S3")
	return s3util.NewVideoPublisher(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Prefix)
}
