package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	s3client "docsearch/pkg/s3"
)

// Store keeps uploaded originals.
type Store interface {
	// Save stores data and returns where it was put.
	Save(ctx context.Context, filename string, data []byte) (string, error)
	Ping(ctx context.Context) error
	Name() string
}

// storedName derives a content-addressed name, keeping the original extension.
func storedName(filename string, data []byte) string {
	sum := sha256.Sum256(data)
	ext := strings.ToLower(filepath.Ext(filename))
	return hex.EncodeToString(sum[:]) + ext
}

// LocalStore writes originals under a directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, "upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	finalPath := filepath.Join(s.dir, storedName(filename, data))
	if err := os.Rename(tmpFile.Name(), finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}
	return finalPath, nil
}

func (s *LocalStore) Ping(context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// S3Store writes originals to a bucket.
type S3Store struct {
	client *s3client.Client
	bucket string
}

func NewS3Store(client *s3client.Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	key := "documents/" + storedName(filename, data)
	return s.client.Put(ctx, s.bucket, key, bytes.NewReader(data), contentType(filename))
}

func (s *S3Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.bucket)
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	}
	return "text/plain"
}
