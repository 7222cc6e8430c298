package errhandler

import (
	"sync"

	"docsearch/config"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"

	"github.com/sirupsen/logrus"
)

const defaultLogCapacity = 100

// ErrorContext is everything the presentation layer needs about one handled error.
// It is immutable; accessors return copies.
type ErrorContext struct {
	err              *apperror.AppError
	recoveryOptions  []ErrorRecovery
	userMessage      string
	technicalMessage string
}

func (c ErrorContext) AppError() *apperror.AppError { return c.err }
func (c ErrorContext) UserMessage() string          { return c.userMessage }
func (c ErrorContext) TechnicalMessage() string     { return c.technicalMessage }

func (c ErrorContext) RecoveryOptions() []ErrorRecovery {
	out := make([]ErrorRecovery, len(c.recoveryOptions))
	copy(out, c.recoveryOptions)
	return out
}

// Handler classifies, logs and explains errors. It keeps a bounded,
// most-recent-first log of everything it has seen.
type Handler struct {
	classifier *Classifier
	hooks      Hooks
	capacity   int

	mu      sync.Mutex
	log     []*apperror.AppError
	current *ErrorContext
}

// NewHandler creates a handler. capacity <= 0 selects the default of 100 entries.
func NewHandler(classifier *Classifier, capacity int, hooks Hooks) *Handler {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &Handler{
		classifier: classifier,
		hooks:      hooks,
		capacity:   capacity,
	}
}

func (h *Handler) Classifier() *Classifier { return h.classifier }

func (h *Handler) IsOnline() bool { return h.classifier.Online() }

// Handle normalizes err, records it and builds its ErrorContext.
// retry, when non-nil, is offered as the retry action for retryable errors.
func (h *Handler) Handle(err error, retry func() error) ErrorContext {
	appErr := h.classifier.Classify(err, RequestInfo{})
	if appErr == nil {
		appErr = apperror.NewUnknown("Unknown error", nil)
	}
	h.Report(appErr)

	hooks := h.hooks
	dismiss := orNoop(h.hooks.Dismiss)
	hooks.Dismiss = func() error {
		h.clearCurrent()
		return dismiss()
	}

	ctx := ErrorContext{
		err:              appErr,
		recoveryOptions:  RecoveryOptions(appErr, retry, hooks),
		userMessage:      UserMessage(appErr),
		technicalMessage: appErr.Error(),
	}

	if appErr.Severity() == apperror.SeverityCritical {
		h.mu.Lock()
		h.current = &ctx
		h.mu.Unlock()
	}
	return ctx
}

// Report records err in the error log without building presentation data.
func (h *Handler) Report(err *apperror.AppError) {
	if err == nil {
		return
	}

	h.mu.Lock()
	h.log = append([]*apperror.AppError{err}, h.log...)
	if len(h.log) > h.capacity {
		h.log = h.log[:h.capacity]
	}
	h.mu.Unlock()

	entry := logger.WithFields(logrus.Fields{
		"module":    config.ModuleErrors,
		"type":      err.Type(),
		"code":      err.Code(),
		"severity":  err.Severity(),
		"retryable": err.Retryable(),
	})
	if err.StatusCode() != 0 {
		entry = entry.WithField("status_code", err.StatusCode())
	}
	if err.Endpoint() != "" {
		entry = entry.WithField("endpoint", err.Method()+" "+err.Endpoint())
	}
	switch err.Severity() {
	case apperror.SeverityLow:
		entry.Info(err.Error())
	case apperror.SeverityMedium:
		entry.Warn(err.Error())
	default:
		entry.Error(err.Error())
	}
}

// Log returns the error log, most recent first.
func (h *Handler) Log() []*apperror.AppError {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*apperror.AppError, len(h.log))
	copy(out, h.log)
	return out
}

func (h *Handler) ClearLog() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = nil
}

// Current returns the outstanding critical error, if any.
func (h *Handler) Current() (ErrorContext, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return ErrorContext{}, false
	}
	return *h.current, true
}

func (h *Handler) clearCurrent() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}
