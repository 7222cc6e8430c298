package healthcheck

import (
	"github.com/gofiber/fiber/v3"
)

func RegisterRoutes(r fiber.Router, h *Handler) {
	r.Head("/health", h.Probe)
	r.Get("/health", h.ApiHealthCheck)
}
