package veo

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenaiProvider runs generations through the Google Gen AI SDK (Vertex AI or
// Gemini API backend, depending on how the client was created).
type GenaiProvider struct {
	client *genai.Client
}

// NewGenaiProvider wraps an initialized client.
func NewGenaiProvider(client *genai.Client) *GenaiProvider {
	return &GenaiProvider{client: client}
}

// Submit starts a GenerateVideos operation with prompt enhancement enabled.
func (p *GenaiProvider) Submit(ctx context.Context, req GenerationRequest) (*Operation, error) {
	var image *genai.Image
	if len(req.Image) > 0 {
		image = &genai.Image{
			ImageBytes: req.Image,
			MIMEType:   req.MIMEType,
		}
	}

	op, err := p.client.Models.GenerateVideos(ctx, req.Model, req.Prompt, image, &genai.GenerateVideosConfig{
		EnhancePrompt: true,
	})
	if err != nil {
		return nil, err
	}
	return fromGenaiOperation(op), nil
}

// Refresh reloads op from the Operations API using the live SDK operation.
func (p *GenaiProvider) Refresh(ctx context.Context, op *Operation) (*Operation, error) {
	live, ok := op.Handle.(*genai.GenerateVideosOperation)
	if !ok || live == nil {
		return nil, fmt.Errorf("operation %s has no SDK handle", op.Name)
	}
	refreshed, err := p.client.Operations.GetVideosOperation(ctx, live, nil)
	if err != nil {
		return nil, err
	}
	return fromGenaiOperation(refreshed), nil
}

// Download fetches the bytes of a URI-only video through the Files API.
func (p *GenaiProvider) Download(ctx context.Context, v *Video) ([]byte, error) {
	video, ok := v.Handle.(*genai.Video)
	if !ok || video == nil {
		video = &genai.Video{URI: v.URI, MIMEType: v.MIMEType}
	}
	return p.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
}

func fromGenaiOperation(op *genai.GenerateVideosOperation) *Operation {
	if op == nil {
		return &Operation{}
	}
	out := &Operation{
		Name:   op.Name,
		Done:   op.Done,
		Handle: op,
	}
	if len(op.Error) > 0 {
		out.Err = fmt.Errorf("remote operation error: %v", op.Error)
	}
	if op.Response != nil {
		out.HasResponse = true
		for _, gv := range op.Response.GeneratedVideos {
			if gv == nil || gv.Video == nil {
				out.Videos = append(out.Videos, nil)
				continue
			}
			out.Videos = append(out.Videos, &Video{
				URI:      gv.Video.URI,
				Data:     gv.Video.VideoBytes,
				MIMEType: gv.Video.MIMEType,
				Handle:   gv.Video,
			})
		}
	}
	return out
}
