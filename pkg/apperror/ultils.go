package apperror

import (
	"net/http"
	"time"

	"docsearch/config"
	"docsearch/pkg/apperror/status"
	"docsearch/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

// ErrorResponse is the standardized HTTP error payload written by the dev backend
// and decoded by the client.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// WriteError logs a structured warning and returns a standardized JSON error
func WriteError(module config.Module, c fiber.Ctx, httpStatus int, code string, message string) error {
	logger.WithFields(map[string]interface{}{
		"module":        module,
		"status_code":   httpStatus,
		"error_code":    code,
		"error_message": message,
		"http_method":   c.Method(),
		"path":          c.Path(),
		"request_id":    c.Get("X-Request-ID"),
		"ip":            c.IP(),
	}).Warnf("http error")

	return c.Status(httpStatus).JSON(ErrorResponse{
		Error:     http.StatusText(httpStatus),
		ErrorCode: code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// BadRequest writes a 400 with a backend request code.
func BadRequest(module config.Module, c fiber.Ctx, code status.ErrorCode, message string) error {
	return WriteError(module, c, fiber.StatusBadRequest, status.Format(code), message)
}

// InternalError writes a 500 carrying err's message.
func InternalError(module config.Module, c fiber.Ctx, err error) error {
	return WriteError(module, c, fiber.StatusInternalServerError, status.Format(status.ErrorCodeInternal), err.Error())
}

// Unavailable writes a 503; used by fault injection and the connection limiter.
func Unavailable(module config.Module, c fiber.Ctx, message string) error {
	return WriteError(module, c, fiber.StatusServiceUnavailable, status.Format(status.ErrorCodeInternal), message)
}

// Success writes a JSON success response
func Success(module config.Module, c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(data)
}
