package upload

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"docsearch/config"
	"docsearch/internal/services/ingest"
	"docsearch/pkg/apperror"
	"docsearch/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/lo"
)

type Handler struct {
	ingest    *ingest.Service
	supported []string
}

func NewHandler(svc *ingest.Service, cfg config.UploadConfig) *Handler {
	return &Handler{ingest: svc, supported: cfg.SupportedTypes}
}

func (h *Handler) HandleUpload(c fiber.Ctx) error {
	// Parse multipart file
	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.BadRequest(config.ModuleUpload, c, status.BadRequestMissingParams, "file is required")
	}
	if fh == nil || fh.Size == 0 {
		return apperror.BadRequest(config.ModuleUpload, c, status.BadRequestMissingParams, "empty file")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !lo.Contains(h.supported, ext) {
		return apperror.BadRequest(config.ModuleUpload, c, status.BadRequestUnsupportedFile,
			"unsupported file type "+ext)
	}

	file, err := fh.Open()
	if err != nil {
		return apperror.BadRequest(config.ModuleUpload, c, status.BadRequestMissingParams, "cannot open file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperror.InternalError(config.ModuleUpload, c, err)
	}

	resp, err := h.ingest.Ingest(c.Context(), filepath.Base(fh.Filename), data)
	if errors.Is(err, ingest.ErrUnsupported) {
		return apperror.BadRequest(config.ModuleUpload, c, status.BadRequestUnsupportedFile, err.Error())
	}
	if err != nil {
		return apperror.InternalError(config.ModuleUpload, c, err)
	}
	return apperror.Success(config.ModuleUpload, c, resp)
}
