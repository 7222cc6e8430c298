package healthcheck

import (
	"context"
	"time"

	"docsearch/config"
	corehealth "docsearch/internal/core/healthcheck"
	"docsearch/internal/core/retriever"
	"docsearch/internal/services/ingest"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

type Handler struct {
	index   *retriever.Index
	store   ingest.Store
	started time.Time
}

func NewHandler(index *retriever.Index, store ingest.Store) *Handler {
	return &Handler{index: index, store: store, started: time.Now()}
}

// ApiHealthCheck reports the index and storage state.
func (h *Handler) ApiHealthCheck(c fiber.Ctx) error {
	resp := corehealth.Response{
		Status:        corehealth.StatusHealthy,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Services: map[string]string{
			"index":   corehealth.StatusHealthy,
			"storage": corehealth.StatusHealthy,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		logger.Error(err, "%v: %s storage unreachable", config.ModuleHealth, h.store.Name())
		resp.Services["storage"] = corehealth.StatusUnhealthy
		resp.Status = corehealth.StatusDegraded
	}
	return apperror.Success(config.ModuleHealth, c, resp)
}

// Probe answers HEAD requests from connectivity monitors.
func (h *Handler) Probe(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}
