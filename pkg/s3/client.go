package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"docsearch/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3_config "github.com/aws/aws-sdk-go-v2/config"
	s3_credentials "github.com/aws/aws-sdk-go-v2/credentials"
	s3_provider "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const scheme = "s3://"

// Client wraps the S3 API for document sources and stored originals.
type Client struct {
	api *s3_provider.Client
}

// NewClient builds an S3 client. A custom endpoint (MinIO and friends) switches to path-style addressing.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*s3_config.LoadOptions) error{
		s3_config.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, s3_config.WithCredentialsProvider(
			s3_credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		))
	}

	awsCfg, err := s3_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%v: load aws config: %w", config.ModuleS3, err)
	}

	endpoint := cfg.Endpoint
	api := s3_provider.NewFromConfig(awsCfg, func(o *s3_provider.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint) // e.g., http://localhost:9000
		}
	})
	return &Client{api: api}, nil
}

// IsURI reports whether s names an S3 object (s3://bucket/key).
func IsURI(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs bucket and key: %q", uri)
	}
	return bucket, key, nil
}

// Download copies the object at uri into a temp file that keeps the key's
// base name. cleanup removes it.
func (c *Client) Download(ctx context.Context, uri string) (localPath string, cleanup func(), err error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}

	out, err := c.api.GetObject(ctx, &s3_provider.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("get object %s: %w", uri, err)
	}
	defer out.Body.Close()

	dir, err := os.MkdirTemp("", "docsearch-s3-*")
	if err != nil {
		return "", nil, fmt.Errorf("tempdir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	localPath = filepath.Join(dir, path.Base(key))
	f, err := os.Create(localPath)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("stream copy: %w", err)
	}
	return localPath, cleanup, nil
}

// Put stores body under bucket/key, creating the bucket when missing, and returns its s3:// uri.
func (c *Client) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	if _, err := c.api.HeadBucket(ctx, &s3_provider.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		_, crtErr := c.api.CreateBucket(ctx, &s3_provider.CreateBucketInput{Bucket: aws.String(bucket)})
		if crtErr != nil {
			var owned *s3types.BucketAlreadyOwnedByYou
			if !errors.As(crtErr, &owned) {
				return "", fmt.Errorf("create bucket: %w", crtErr)
			}
		}
	}

	_, err := c.api.PutObject(ctx, &s3_provider.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return scheme + bucket + "/" + key, nil
}

// Ping checks that bucket is reachable.
func (c *Client) Ping(ctx context.Context, bucket string) error {
	_, err := c.api.HeadBucket(ctx, &s3_provider.HeadBucketInput{Bucket: aws.String(bucket)})
	return err
}
