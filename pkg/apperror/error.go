package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docsearch/pkg/apperror/status"
)

// Type is the closed taxonomy every failure is normalized into.
type Type string

const (
	TypeNetwork    Type = "network_error"
	TypeValidation Type = "validation_error"
	TypeAPI        Type = "api_error"
	TypeUpload     Type = "upload_error"
	TypeSearch     Type = "search_error"
	TypeAuth       Type = "authentication_error"
	TypePermission Type = "permission_error"
	TypeTimeout    Type = "timeout_error"
	TypeUnknown    Type = "unknown_error"
)

// Severity is a coarse urgency ranking.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Reason enumerates the sub-cases of upload and search errors.
type Reason string

const (
	ReasonFileTooLarge     Reason = "file_too_large"
	ReasonInvalidType      Reason = "invalid_type"
	ReasonUploadFailed     Reason = "upload_failed"
	ReasonProcessingFailed Reason = "processing_failed"

	ReasonNoResults          Reason = "no_results"
	ReasonQueryTooShort      Reason = "query_too_short"
	ReasonQueryTooLong       Reason = "query_too_long"
	ReasonServiceUnavailable Reason = "service_unavailable"
)

// AppError is the canonical representation of any failure surfaced by the client.
//
// Retryable and severity are derived from (type, reason, status code) at construction;
// there is no way to set them from outside this package.
type AppError struct {
	errType   Type
	message   string
	details   map[string]any
	retryable bool
	severity  Severity
	timestamp time.Time
	code      string

	reason     Reason
	statusCode int
	endpoint   string
	method     string
	filename   string
	fileSize   int64
	fileType   string
	query      string
	field      string

	err error
}

func (e *AppError) Error() string {
	if e.err != nil && e.err.Error() != e.message {
		return fmt.Sprintf("[%s] %s: %v", e.errType, e.message, e.err)
	}
	return fmt.Sprintf("[%s] %s", e.errType, e.message)
}

func (e *AppError) Unwrap() error { return e.err }

func (e *AppError) Type() Type           { return e.errType }
func (e *AppError) Message() string      { return e.message }
func (e *AppError) Retryable() bool      { return e.retryable }
func (e *AppError) Severity() Severity   { return e.severity }
func (e *AppError) Timestamp() time.Time { return e.timestamp }
func (e *AppError) Code() string         { return e.code }
func (e *AppError) Reason() Reason       { return e.reason }
func (e *AppError) StatusCode() int      { return e.statusCode }
func (e *AppError) Endpoint() string     { return e.endpoint }
func (e *AppError) Method() string       { return e.method }
func (e *AppError) Filename() string     { return e.filename }
func (e *AppError) FileSize() int64      { return e.fileSize }
func (e *AppError) FileType() string     { return e.fileType }
func (e *AppError) Query() string        { return e.query }
func (e *AppError) Field() string        { return e.field }

// Details returns a copy of the diagnostic details.
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	out := make(map[string]any, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// WithDetail returns a copy of the error carrying one more diagnostic key.
func (e *AppError) WithDetail(key string, value any) *AppError {
	cp := *e
	cp.details = e.Details()
	if cp.details == nil {
		cp.details = map[string]any{}
	}
	cp.details[key] = value
	return &cp
}

// MarshalJSON renders the error for logs and error reports.
func (e *AppError) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":      e.errType,
		"message":   e.message,
		"retryable": e.retryable,
		"severity":  e.severity,
		"timestamp": e.timestamp.Format(time.RFC3339Nano),
	}
	if e.code != "" {
		out["code"] = e.code
	}
	if len(e.details) > 0 {
		out["details"] = e.details
	}
	if e.reason != "" {
		out["reason"] = e.reason
	}
	if e.statusCode != 0 {
		out["status_code"] = e.statusCode
	}
	if e.endpoint != "" {
		out["endpoint"] = e.endpoint
		out["method"] = e.method
	}
	if e.filename != "" {
		out["filename"] = e.filename
	}
	if e.field != "" {
		out["field"] = e.field
	}
	return json.Marshal(out)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an *AppError of type t.
func IsType(err error, t Type) bool {
	appErr, ok := As(err)
	return ok && appErr.errType == t
}

func newError(t Type, message string, cause error) *AppError {
	e := &AppError{
		errType:   t,
		message:   message,
		timestamp: time.Now(),
		err:       cause,
	}
	return e
}

// derive fills the fields that must never be chosen by call sites.
func (e *AppError) derive() *AppError {
	e.retryable = retryableFor(e.errType, e.reason, e.statusCode)
	e.severity = severityFor(e.errType, e.reason, e.statusCode)
	e.code = status.Format(codeFor(e.errType, e.reason))
	return e
}

func retryableFor(t Type, reason Reason, statusCode int) bool {
	switch t {
	case TypeNetwork, TypeTimeout:
		return true
	case TypeAPI:
		return statusCode >= 500 && statusCode < 600
	case TypeUpload:
		return reason == ReasonUploadFailed || reason == ReasonProcessingFailed
	case TypeSearch:
		return reason == ReasonServiceUnavailable
	default:
		return false
	}
}

func severityFor(t Type, reason Reason, statusCode int) Severity {
	switch t {
	case TypeNetwork, TypeUnknown, TypePermission:
		return SeverityHigh
	case TypeAuth:
		return SeverityCritical
	case TypeTimeout, TypeUpload:
		return SeverityMedium
	case TypeAPI:
		if statusCode >= 500 {
			return SeverityHigh
		}
		return SeverityMedium
	case TypeSearch:
		if reason == ReasonServiceUnavailable {
			return SeverityHigh
		}
		return SeverityLow
	default:
		return SeverityLow
	}
}

func codeFor(t Type, reason Reason) status.ErrorCode {
	switch t {
	case TypeUpload:
		switch reason {
		case ReasonFileTooLarge:
			return status.UploadFileTooLarge
		case ReasonInvalidType:
			return status.UploadInvalidType
		case ReasonProcessingFailed:
			return status.UploadProcessingFailed
		default:
			return status.UploadFailed
		}
	case TypeSearch:
		switch reason {
		case ReasonQueryTooShort:
			return status.SearchQueryTooShort
		case ReasonQueryTooLong:
			return status.SearchQueryTooLong
		case ReasonNoResults:
			return status.SearchNoResults
		default:
			return status.SearchServiceUnavailable
		}
	case TypeNetwork:
		return status.TransportNetwork
	case TypeTimeout:
		return status.TransportTimeout
	case TypeAPI:
		return status.TransportAPI
	case TypeValidation:
		return status.ValidationFailed
	case TypeAuth:
		return status.AuthRequired
	case TypePermission:
		return status.PermissionDenied
	default:
		return status.ErrorCodeInternal
	}
}

// NewNetwork creates a network error. Network errors are always retryable.
func NewNetwork(message, endpoint, method string, cause error) *AppError {
	e := newError(TypeNetwork, message, cause)
	e.endpoint = endpoint
	e.method = method
	return e.derive()
}

// NewTimeout creates a timeout error for a request aborted after timeout.
func NewTimeout(message, endpoint, method string, timeout time.Duration, cause error) *AppError {
	e := newError(TypeTimeout, message, cause)
	e.endpoint = endpoint
	e.method = method
	e.details = map[string]any{"timeout": timeout.String()}
	return e.derive()
}

// NewAPI creates an error for a non-2xx HTTP response.
func NewAPI(message string, statusCode int, endpoint, method string) *AppError {
	e := newError(TypeAPI, message, nil)
	e.statusCode = statusCode
	e.endpoint = endpoint
	e.method = method
	return e.derive()
}

// NewUpload creates an upload error. fileSize < 0 means unknown.
func NewUpload(message, filename string, reason Reason, fileSize int64, fileType string) *AppError {
	e := newError(TypeUpload, message, nil)
	e.filename = filename
	e.reason = reason
	if fileSize >= 0 {
		e.fileSize = fileSize
	}
	e.fileType = fileType
	return e.derive()
}

// NewSearch creates a search error for query.
func NewSearch(message, query string, reason Reason) *AppError {
	e := newError(TypeSearch, message, nil)
	e.query = query
	e.reason = reason
	return e.derive()
}

// NewValidation creates a validation error on field.
func NewValidation(message, field string, cause error) *AppError {
	e := newError(TypeValidation, message, cause)
	e.field = field
	return e.derive()
}

func NewAuth(message string, cause error) *AppError {
	return newError(TypeAuth, message, cause).derive()
}

func NewPermission(message string, cause error) *AppError {
	return newError(TypePermission, message, cause).derive()
}

// NewUnknown wraps anything that fits no other bucket.
func NewUnknown(message string, cause error) *AppError {
	return newError(TypeUnknown, message, cause).derive()
}

// Wrap returns err unchanged if it already is an *AppError, and
// wraps it with fallback otherwise.
func Wrap(err error, fallback func(error) *AppError) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	return fallback(err)
}
