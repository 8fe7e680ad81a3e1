// Package s3util publishes generated videos and bundles to S3.
package s3util

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// projectTagging is the URL-encoded cost-allocation tag set on every upload.
const projectTagging = "Project=media-video-agent"

// ObjectPutter is the subset of *s3.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// VideoPublisher uploads saved videos under <prefix>/<runID>/<filename>.
type VideoPublisher struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewVideoPublisher creates a publisher for bucket. An empty prefix uploads
// under "videos".
func NewVideoPublisher(client ObjectPutter, bucket, prefix string) *VideoPublisher {
	if prefix == "" {
		prefix = "videos"
	}
	return &VideoPublisher{client: client, bucket: bucket, prefix: prefix}
}

// Bucket returns the target bucket.
func (p *VideoPublisher) Bucket() string {
	return p.bucket
}

// ObjectKey returns the key a file is published under.
func ObjectKey(prefix, runID, filename string) string {
	return path.Join(prefix, runID, filename)
}

// Publish uploads videoPath and returns its key.
func (p *VideoPublisher) Publish(ctx context.Context, runID, videoPath string) (string, error) {
	key := ObjectKey(p.prefix, runID, filepath.Base(videoPath))
	if err := p.Upload(ctx, key, videoPath, contentTypeFor(videoPath)); err != nil {
		return "", err
	}
	return key, nil
}

// Upload puts the file at localPath under key.
func (p *VideoPublisher) Upload(ctx context.Context, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(localPath), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	start := time.Now()
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
		Tagging:       aws.String(projectTagging),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	log.Info().
		Str("bucket", p.bucket).
		Str("key", key).
		Int64("bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("Uploaded to S3")
	return nil
}

func contentTypeFor(p string) string {
	switch filepath.Ext(p) {
	case ".mp4":
		return "video/mp4"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// GeneratePresignedURL creates a pre-signed GET URL for an object.
func GeneratePresignedURL(ctx context.Context, presignClient *s3.PresignClient, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
