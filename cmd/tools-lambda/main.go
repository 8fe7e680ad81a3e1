// Package main provides a Lambda entry point that dispatches agent tool calls.
//
// The event names a tool and its JSON arguments, e.g.
//
//	{"tool": "generate_videos_in_folder", "arguments": {"platform": "web", "max_videos": 2}}
//
// Images and videos live under /tmp (MEDIA_PROJECT_ROOT). Generated videos are
// published to VIDEO_S3_BUCKET when set, and single-video results carry a
// presigned download URL. Batch and per-invocation metrics are written to
// stdout in CloudWatch Embedded Metric Format; logs are JSON on stderr.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-video-agent/internal/cli"
	"github.com/fpang/media-video-agent/internal/config"
	"github.com/fpang/media-video-agent/internal/lambdaboot"
	"github.com/fpang/media-video-agent/internal/logging"
	"github.com/fpang/media-video-agent/internal/metrics"
	"github.com/fpang/media-video-agent/internal/s3util"
	"github.com/fpang/media-video-agent/internal/tools"
)

const (
	defaultProjectRoot = "/tmp/media"
	presignExpiry      = 24 * time.Hour
)

// Initialized at cold start.
var (
	svc       *tools.Service
	presigner *s3.PresignClient
	bucket    string
)

func init() {
	initStart := time.Now()
	if os.Getenv("MEDIA_LOG_FORMAT") == "" {
		os.Setenv("MEDIA_LOG_FORMAT", "json")
	}
	logging.InitWithWriter(os.Stderr)

	if os.Getenv(config.EnvProjectRoot) == "" {
		os.Setenv(config.EnvProjectRoot, defaultProjectRoot)
	}

	ctx := context.Background()
	awsClients := lambdaboot.InitAWS()
	if err := lambdaboot.LoadGeminiKey(ctx, awsClients.SSM); err != nil {
		log.Fatal().Err(err).Msg("Failed to load Gemini API key")
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := os.MkdirAll(cfg.ProjectRoot, 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProjectRoot).Msg("Failed to create project root")
	}

	opts := []tools.Option{tools.WithMetrics(os.Stdout)}
	if s3c := lambdaboot.InitS3Optional(awsClients.Config, config.EnvVideoBucket); s3c != nil {
		bucket = s3c.Bucket
		presigner = s3c.Presigner
		opts = append(opts, tools.WithPublisher(s3util.NewVideoPublisher(s3c.Client, s3c.Bucket, cfg.S3.Prefix)))
	}

	gen := cli.NewGenerator(ctx, cfg, false)
	svc = tools.NewService(cfg, gen, opts...)

	lambdaboot.StartupLog("tools-lambda", initStart).
		Endpoint("wordpress", cfg.WordPress.URL).
		Directory("projectRoot", cfg.ProjectRoot).
		Config("model", cfg.Video.Model).
		Config("bucket", bucket).
		Feature("vertexAI", cfg.UseVertex()).
		Feature("s3Publish", bucket != "").
		Log()
}

// Response wraps the tool result.
type Response struct {
	Tool     string `json:"tool"`
	Result   any    `json:"result,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

func handler(ctx context.Context, req tools.Request) (Response, error) {
	logger := log.With().Str("tool", req.Tool).Logger()
	logger.Info().Msg("Tool invocation")
	start := time.Now()

	result, err := svc.Dispatch(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected tool invocation")
		recordInvocation(req.Tool, start, true)
		return Response{Tool: req.Tool, Error: err.Error()}, nil
	}

	resp := Response{Tool: req.Tool, Result: result}
	if v, ok := result.(tools.VideoResult); ok && v.PublishedKey != "" && presigner != nil {
		url, err := s3util.GeneratePresignedURL(ctx, presigner, bucket, v.PublishedKey, presignExpiry)
		if err != nil {
			logger.Warn().Err(err).Str("key", v.PublishedKey).Msg("Failed to presign video URL")
		} else {
			resp.VideoURL = url
		}
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("Tool invocation complete")
	recordInvocation(req.Tool, start, false)
	return resp, nil
}

func recordInvocation(tool string, start time.Time, rejected bool) {
	m := metrics.New(metrics.Namespace).
		Dimension("Tool", tool).
		Count("ToolInvocations").
		Metric("ToolDurationMs", float64(time.Since(start).Milliseconds()), metrics.UnitMilliseconds)
	if rejected {
		m.Count("ToolRejected")
	}
	m.Flush()
}

func main() {
	lambda.Start(handler)
}
