package upload

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"docsearch/config"
	"docsearch/internal/httpclient"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"
	s3client "docsearch/pkg/s3"

	"github.com/ledongthuc/pdf"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const path = "/upload"

// Downloader fetches remote sources to a local temp file.
type Downloader interface {
	Download(ctx context.Context, uri string) (localPath string, cleanup func(), err error)
}

// Service sends documents to the backend for indexing.
type Service struct {
	client     *httpclient.Client
	upload     config.UploadConfig
	timeout    config.ClientConfig
	downloader Downloader
}

// NewService creates the upload service. downloader may be nil, in which case
// s3:// sources are rejected.
func NewService(client *httpclient.Client, cfg *config.Config, downloader Downloader) *Service {
	return &Service{
		client:     client,
		upload:     cfg.Upload,
		timeout:    cfg.Client,
		downloader: downloader,
	}
}

// Upload validates the file at source (a local path or s3://bucket/key) and
// posts it as multipart "file". Uploads are never retried.
func (s *Service) Upload(ctx context.Context, source string) (*Response, error) {
	if strings.TrimSpace(source) == "" {
		return nil, apperror.NewUpload("No file selected", "unknown", apperror.ReasonUploadFailed, -1, "")
	}
	name := filepath.Base(source)

	localPath := source
	if s3client.IsURI(source) {
		if s.downloader == nil {
			return nil, apperror.NewUpload("S3 sources are not configured", name, apperror.ReasonUploadFailed, -1, "")
		}
		p, cleanup, err := s.downloader.Download(ctx, source)
		if err != nil {
			logger.Error(err, "%v: download %s failed", config.ModuleUpload, source)
			return nil, apperror.NewUpload("Could not fetch the file from storage", name, apperror.ReasonUploadFailed, -1, "").
				WithDetail("cause", err.Error())
		}
		defer cleanup()
		localPath = p
	}

	data, err := s.preflight(localPath, name)
	if err != nil {
		return nil, err
	}

	log := logger.WithFields(logrus.Fields{
		"module":   config.ModuleUpload,
		"filename": name,
		"size":     len(data),
	})
	log.Info("uploading document")

	form := httpclient.NewFormData().AddFile("file", name, data)
	resp, err := httpclient.Post[Response](ctx, s.client, path, form,
		httpclient.WithTimeout(s.timeout.UploadTimeout),
		httpclient.WithoutRetry(),
	)
	if err != nil {
		return nil, apperror.Wrap(err, func(cause error) *apperror.AppError {
			return apperror.NewUpload("Upload failed due to an unexpected error", name, apperror.ReasonUploadFailed, int64(len(data)), "")
		})
	}

	if resp.Data.Status == StatusFailure {
		msg := resp.Data.Message
		if msg == "" {
			msg = "Document processing failed"
		}
		return nil, apperror.NewUpload(msg, name, apperror.ReasonProcessingFailed, int64(len(data)), fileType(name))
	}

	log.WithField("chunks", resp.Data.ChunksCreated).Info("document indexed")
	return &resp.Data, nil
}

// preflight checks size and type before anything is read or sent.
func (s *Service) preflight(localPath, name string) ([]byte, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		msg := "Could not read the selected file"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "File not found"
		}
		return nil, apperror.NewUpload(msg, name, apperror.ReasonUploadFailed, -1, "").WithDetail("cause", err.Error())
	}
	if info.IsDir() {
		return nil, apperror.NewUpload("Please select a file, not a directory", name, apperror.ReasonInvalidType, -1, "")
	}

	ft := fileType(name)
	if info.Size() > s.upload.MaxFileSize {
		return nil, apperror.NewUpload("File is too large", name, apperror.ReasonFileTooLarge, info.Size(), ft).
			WithDetail("max_file_size", s.upload.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !lo.Contains(s.upload.SupportedTypes, ext) {
		return nil, apperror.NewUpload(
			"Invalid file type. Please select one of: "+strings.Join(s.upload.SupportedTypes, ", "),
			name, apperror.ReasonInvalidType, info.Size(), ft,
		)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, apperror.NewUpload("Could not read the selected file", name, apperror.ReasonUploadFailed, info.Size(), ft).
			WithDetail("cause", err.Error())
	}

	if ext == ".pdf" {
		if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, apperror.NewUpload("File is not a readable PDF", name, apperror.ReasonInvalidType, info.Size(), ft).
				WithDetail("cause", err.Error())
		}
	}
	return data, nil
}

func fileType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return "text/markdown"
	}
	return "application/octet-stream"
}
