package server

import (
	"context"
	"fmt"
	"strings"

	"docsearch/config"
	"docsearch/internal/api/healthcheck"
	"docsearch/internal/api/query"
	"docsearch/internal/api/upload"
	"docsearch/internal/core/retriever"
	"docsearch/internal/middleware"
	"docsearch/internal/services/ingest"
	s3client "docsearch/pkg/s3"

	"github.com/gofiber/fiber/v3"
)

// NewStore picks S3 when a bucket is configured and local disk otherwise.
func NewStore(ctx context.Context, cfg *config.Config) (ingest.Store, error) {
	if strings.TrimSpace(cfg.S3.Bucket) == "" {
		return ingest.NewLocalStore(cfg.Server.StorageDir), nil
	}
	client, err := s3client.NewClient(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("%v: s3 client: %w", config.ModuleServer, err)
	}
	return ingest.NewS3Store(client, cfg.S3.Bucket), nil
}

// New assembles the development backend.
func New(cfg *config.Config, store ingest.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   cfg.Server.AppName,
		BodyLimit: cfg.Server.BodyLimit,
	})
	middleware.Register(app, cfg.Server)

	index := retriever.NewIndex()
	ingestSvc := ingest.NewService(index, store, cfg.Ingest)

	// routes
	healthcheck.RegisterRoutes(app, healthcheck.NewHandler(index, store))
	upload.RegisterRoutes(app, upload.NewHandler(ingestSvc, cfg.Upload))
	query.RegisterRoutes(app, query.NewHandler(index))
	return app
}
