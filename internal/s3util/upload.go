// Package s3util publishes enhanced images to S3.
package s3util

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fpang/batch-enhance/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// projectTag is the URL-encoded object tagging string applied to every upload.
const projectTag = "Project=batch-enhance"

// PutObjectAPI is the subset of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts enhanced images under Prefix in Bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewUploader loads the default AWS configuration (environment, shared
// config, instance role) and returns an Uploader for bucket. region
// overrides the configured region when non-empty.
func NewUploader(ctx context.Context, bucket, prefix, region string) (*Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewUploaderWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewUploaderWithClient returns an Uploader using client.
func NewUploaderWithClient(client PutObjectAPI, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a local file.
func (u *Uploader) Key(localPath string) string {
	return path.Join(u.prefix, filepath.Base(localPath))
}

// Publish uploads localPath and returns its s3:// URI.
func (u *Uploader) Publish(ctx context.Context, localPath string) (string, error) {
	key := u.Key(localPath)

	contentType, err := filehandler.GetMIMEType(filepath.Ext(localPath))
	if err != nil {
		contentType = "application/octet-stream"
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open enhanced image: %w", err)
	}
	defer f.Close()

	log.Debug().
		Str("bucket", u.bucket).
		Str("key", key).
		Str("path", localPath).
		Msg("Uploading enhanced image to S3")

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Tagging:     aws.String(projectTag),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
