// Package blobstore uploads captured screenshots to S3-compatible
// object storage and hands back publicly servable URLs.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/preview-pipeline/internal/resilience"
)

// Config contains S3 storage configuration.
type Config struct {
	Endpoint        string // optional; set for MinIO or DigitalOcean Spaces
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // base for returned URLs; defaults to virtual-hosted S3
	UsePathStyle    bool   // required for MinIO
}

// BlobStore uploads objects to an S3-compatible bucket.
type BlobStore struct {
	client *s3.Client
	cfg    Config
	retry  resilience.RetryConfig
}

// New creates a BlobStore.
func New(ctx context.Context, cfg Config) (*BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, eris.New("blobstore: bucket is required")
	}
	if cfg.Region == "" {
		return nil, eris.New("blobstore: region is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, eris.New("blobstore: credentials are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, eris.Wrap(err, "blobstore: load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &BlobStore{
		client: client,
		cfg:    cfg,
		retry:  resilience.DefaultRetryConfig(),
	}, nil
}

// SaveScreenshot uploads screenshot bytes keyed by the preview cache key
// and returns the public URL. Uploads retry on transient failures.
func (b *BlobStore) SaveScreenshot(ctx context.Context, cacheKey string, data []byte, contentType string) (string, error) {
	ext := extensionFor(contentType)
	now := time.Now().UTC()
	key := fmt.Sprintf("screenshots/%04d/%02d/%s%s", now.Year(), int(now.Month()), cacheKey, ext)

	err := resilience.Do(ctx, b.retry, func(ctx context.Context) error {
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		return nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "blobstore: save screenshot %s", key)
	}

	return b.publicURL(key), nil
}

func (b *BlobStore) publicURL(key string) string {
	if b.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(b.cfg.PublicBaseURL, "/") + "/" + key
	}
	if b.cfg.Endpoint != "" {
		return strings.TrimSuffix(b.cfg.Endpoint, "/") + "/" + b.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.Bucket, b.cfg.Region, key)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
