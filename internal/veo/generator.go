package veo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/media-video-agent/internal/filehandler"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPollInterval is the pause between operation refreshes.
	DefaultPollInterval = 15 * time.Second

	// DefaultTimeout bounds the local wait for one generation.
	DefaultTimeout = 20 * time.Minute

	// StyleSuffix is appended to prompts by WithStyleSuffix.
	StyleSuffix = " Duration: 5 seconds. Smooth camera movement, elegant and professional style."
)

// WithStyleSuffix appends the fixed duration and style hint to a prompt.
func WithStyleSuffix(prompt string) string {
	return prompt + StyleSuffix
}

// Generator runs generation jobs against a Provider.
type Generator struct {
	provider     Provider
	model        string
	pollInterval time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithModel overrides the video model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithPollInterval overrides the pause between refreshes.
func WithPollInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// NewGenerator creates a Generator backed by p.
func NewGenerator(p Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:     p,
		model:        DefaultModel,
		pollInterval: DefaultPollInterval,
		sleep:        sleepCtx,
		now:          time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// GenerateFromImage animates the image at imagePath following prompt and
// returns the video bytes. A timeout <= 0 uses DefaultTimeout. On timeout the
// remote operation is left running.
func (g *Generator) GenerateFromImage(ctx context.Context, imagePath, prompt string, timeout time.Duration) ([]byte, error) {
	filehandler.EnsureWebPMIMEType()
	mimeType := filehandler.GuessMIMEType(imagePath)

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, wrapError("", "failed to read image", err)
	}

	log.Info().
		Str("image", filepath.Base(imagePath)).
		Str("mimeType", mimeType).
		Int("bytes", len(data)).
		Str("model", g.model).
		Msg("Starting video generation from image")

	return g.generate(ctx, GenerationRequest{
		Model:    g.model,
		Prompt:   prompt,
		Image:    data,
		MIMEType: mimeType,
	}, timeout)
}

// GenerateFromPrompt generates a video from text alone.
func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string, timeout time.Duration) ([]byte, error) {
	log.Info().Str("model", g.model).Msg("Starting text-only video generation")
	return g.generate(ctx, GenerationRequest{Model: g.model, Prompt: prompt}, timeout)
}

func (g *Generator) generate(ctx context.Context, req GenerationRequest, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	op, err := g.provider.Submit(ctx, req)
	if err != nil {
		genErr := wrapError("", "failed to start video generation", err)
		log.Error().Err(err).Str("cause", string(genErr.Cause)).Msg("Video generation submit failed")
		return nil, genErr
	}
	log.Info().Str("operation", op.Name).Msg("Video generation operation started")

	op, err = g.wait(ctx, op, timeout)
	if err != nil {
		return nil, err
	}
	return g.extract(ctx, op)
}

// wait polls op until it is done. The elapsed check runs before every sleep,
// so an operation still pending once timeout has passed is abandoned locally.
func (g *Generator) wait(ctx context.Context, op *Operation, timeout time.Duration) (*Operation, error) {
	start := g.now()
	lastMinute := -1

	for !op.Done {
		elapsed := g.now().Sub(start)
		if minute := int(elapsed / time.Minute); minute != lastMinute {
			log.Info().Str("operation", op.Name).Int("elapsedMin", minute).Msg("Waiting for video generation")
			lastMinute = minute
		}
		if elapsed >= timeout {
			log.Warn().Str("operation", op.Name).Dur("timeout", timeout).Msg("Video generation timed out")
			return nil, &GenerationError{
				Cause:     CauseTimeout,
				Operation: op.Name,
				Message:   fmt.Sprintf("timed out after %v waiting for operation %s", timeout, op.Name),
			}
		}

		if err := g.sleep(ctx, g.pollInterval); err != nil {
			return nil, &GenerationError{
				Cause:     CauseUnknown,
				Operation: op.Name,
				Message:   "wait for video generation interrupted",
				Err:       err,
			}
		}

		refreshed, err := g.provider.Refresh(ctx, op)
		if err != nil {
			log.Warn().Err(err).Str("operation", op.Name).Msg("Failed to refresh operation, will retry")
			continue
		}
		if refreshed.Name == "" {
			refreshed.Name = op.Name
		}
		op = refreshed
	}

	log.Info().Str("operation", op.Name).Dur("duration", g.now().Sub(start)).Msg("Video generation operation completed")
	return op, nil
}

// extract returns the bytes of the first video of a done operation.
func (g *Generator) extract(ctx context.Context, op *Operation) ([]byte, error) {
	if op.Err != nil {
		return nil, wrapError(op.Name, "video generation failed", op.Err)
	}
	if !op.HasResponse {
		return nil, emptyResult(op.Name, "operation finished without a response")
	}
	if len(op.Videos) == 0 {
		return nil, emptyResult(op.Name, "operation finished without generated videos")
	}

	video := op.Videos[0]
	if video == nil {
		return nil, emptyResult(op.Name, "response has no video object")
	}

	data := video.Data
	if len(data) == 0 && video.URI != "" {
		log.Info().Str("uri", video.URI).Msg("Downloading generated video by URI")
		downloaded, err := g.provider.Download(ctx, video)
		if err != nil {
			log.Warn().Err(err).Str("uri", video.URI).Msg("Failed to download video by URI")
		} else {
			data = downloaded
		}
	}
	if len(data) == 0 {
		return nil, emptyResult(op.Name, "video has no bytes or retrievable URI")
	}

	log.Info().
		Str("operation", op.Name).
		Float64("sizeMB", float64(len(data))/(1024*1024)).
		Msg("Video generated")
	return data, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
