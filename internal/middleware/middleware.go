package middleware

import (
	"runtime/debug"
	"sync/atomic"

	"docsearch/config"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Register installs the dev backend middleware chain on app.
func Register(app *fiber.App, cfg config.ServerConfig) {
	app.Use(panicRecoveryMiddleware())
	app.Use(requestIDMiddleware())
	app.Use(connectionLimiterMiddleware(NewConnectionLimiter(cfg.Concurrency)))
	if cfg.FailFirst > 0 {
		app.Use(failFirstMiddleware(cfg.FailFirst))
	}
}

// ConnectionLimiter limits the number of concurrent connections
type ConnectionLimiter struct {
	limit    int
	waitlist chan struct{}
}

func NewConnectionLimiter(limit int) *ConnectionLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &ConnectionLimiter{
		limit:    limit,
		waitlist: make(chan struct{}, limit),
	}
}

func (cl *ConnectionLimiter) Acquire() bool {
	select {
	case cl.waitlist <- struct{}{}:
		return true
	default:
		return false
	}
}

func (cl *ConnectionLimiter) Release() {
	select {
	case <-cl.waitlist:
	default:
	}
}

// connectionLimiterMiddleware creates a middleware for connection limiting
func connectionLimiterMiddleware(limiter *ConnectionLimiter) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !limiter.Acquire() {
			return apperror.Unavailable(config.ModuleServer, c, "Server is at maximum capacity")
		}
		defer limiter.Release()
		return c.Next()
	}
}

// requestIDMiddleware echoes the caller's X-Request-ID, minting one when absent.
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request().Header.Set(requestIDHeader, id)
		}
		c.Set(requestIDHeader, id)
		return c.Next()
	}
}

// failFirstMiddleware answers the first n requests with 503 so clients can rehearse retries.
func failFirstMiddleware(n int) fiber.Handler {
	var seen atomic.Int64
	return func(c fiber.Ctx) error {
		if seen.Add(1) <= int64(n) {
			return apperror.Unavailable(config.ModuleServer, c, "Injected failure")
		}
		return c.Next()
	}
}

// panicRecoveryMiddleware creates a middleware for panic recovery
func panicRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				// Log the panic with stack trace
				stack := debug.Stack()
				logger.WithFields(map[string]interface{}{
					"panic":      r,
					"method":     c.Method(),
					"path":       c.Path(),
					"ip":         c.IP(),
					"user_agent": c.Get("User-Agent"),
					"stack":      string(stack),
				}).Errorf("Panic recovered")

				// Return 500 Internal Server Error
				err := c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Internal Server Error",
					"message": "An unexpected error occurred",
				})
				if err != nil {
					logger.WithField("error", err).Errorf("Failed to send error response")
				}
			}
		}()
		return c.Next()
	}
}
