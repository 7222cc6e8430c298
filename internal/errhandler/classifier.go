package errhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"docsearch/internal/connectivity"
	"docsearch/pkg/apperror"
)

// maxErrorBody bounds how much of a failed response body is read for the message.
const maxErrorBody = 64 << 10

// RequestInfo describes the request a failure belongs to.
type RequestInfo struct {
	Endpoint string
	Method   string
	Timeout  time.Duration
}

// Classifier turns raw failures into *apperror.AppError.
type Classifier struct {
	probe connectivity.Probe
}

// NewClassifier returns a classifier consulting probe for offline detection.
// A nil probe means always online.
func NewClassifier(probe connectivity.Probe) *Classifier {
	if probe == nil {
		probe = connectivity.Static(true)
	}
	return &Classifier{probe: probe}
}

func (c *Classifier) Online() bool { return c.probe.Online() }

// Classify maps err to the taxonomy. Rules are applied in priority order:
// existing app error, offline, timeout, cancellation, transport failure, unknown.
func (c *Classifier) Classify(err error, info RequestInfo) *apperror.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}

	if !c.probe.Online() {
		return apperror.NewNetwork(
			"You are currently offline. Please check your internet connection.",
			info.Endpoint, info.Method, err,
		)
	}

	if isTimeout(err) {
		return apperror.NewTimeout("Request timed out", info.Endpoint, info.Method, info.Timeout, err)
	}

	if errors.Is(err, context.Canceled) {
		return apperror.NewUnknown("Request was cancelled", err)
	}

	if isTransport(err) {
		return apperror.NewNetwork("Network connection failed", info.Endpoint, info.Method, err)
	}

	return apperror.NewUnknown("An unexpected error occurred", err)
}

// errorBody covers both the backend's error payload and the common {"message": ...} shape.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   any    `json:"details"`
}

// FromResponse builds an api_error from a non-2xx response. The body is consumed.
func (c *Classifier) FromResponse(resp *http.Response, info RequestInfo) *apperror.AppError {
	var body *errorBody
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded errorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&decoded); err == nil {
			body = &decoded
		}
	}

	statusText := http.StatusText(resp.StatusCode)
	message := "API request failed"
	switch {
	case body != nil && body.Message != "":
		message = body.Message
	case body != nil && body.Error != "":
		message = body.Error
	case statusText != "":
		message = statusText
	}

	appErr := apperror.NewAPI(message, resp.StatusCode, info.Endpoint, info.Method).
		WithDetail("status_text", statusText)
	if body != nil {
		appErr = appErr.WithDetail("error_data", body)
	}
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		appErr = appErr.WithDetail("request_id", id)
	}
	return appErr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransport(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr), errors.As(err, &urlErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return true
	}
	return false
}
