// Package veo generates short videos from still images (or a text prompt)
// with a long-running remote video model.
//
// A Generator submits one request through a Provider, polls the returned
// Operation until it is done or the caller's timeout elapses, and returns the
// bytes of the first generated video. All failures are reported as
// *GenerationError values carrying a Cause.
package veo

import "context"

// DefaultModel is the video model used when none is configured.
const DefaultModel = "veo-2.0-generate-001"

// GenerationRequest is one submission to the video model. Image is nil for
// text-only generation.
type GenerationRequest struct {
	Model    string
	Prompt   string
	Image    []byte
	MIMEType string
}

// Video is one generated video. Data is set when the provider returned the
// bytes inline; otherwise URI points to a downloadable copy.
type Video struct {
	URI      string
	Data     []byte
	MIMEType string

	// Handle is the provider's own representation of the video.
	Handle any
}

// Operation is a snapshot of a remote long-running generation.
type Operation struct {
	Name string
	Done bool

	// HasResponse reports whether a done operation carried a response
	// payload at all. Videos may still be empty when it is true.
	HasResponse bool
	Videos      []*Video

	// Err is the remote failure reported by a done operation.
	Err error

	// Handle is owned by the Provider and must be passed back unchanged
	// on Refresh.
	Handle any
}

// Provider is the remote side of a generation job.
type Provider interface {
	// Submit starts a generation and returns the initial operation.
	Submit(ctx context.Context, req GenerationRequest) (*Operation, error)
	// Refresh fetches the latest state of op.
	Refresh(ctx context.Context, op *Operation) (*Operation, error)
	// Download fetches the bytes of a video that was returned by URI only.
	Download(ctx context.Context, v *Video) ([]byte, error)
}
