package apperror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRetryableDerivedFromTypeAndReason(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		want bool
	}{
		{"network", NewNetwork("down", "/query", "POST", nil), true},
		{"timeout", NewTimeout("Request timed out", "/query", "POST", time.Second, context.DeadlineExceeded), true},
		{"api 503", NewAPI("Service Unavailable", 503, "/query", "POST"), true},
		{"api 599", NewAPI("odd", 599, "/query", "POST"), true},
		{"api 404", NewAPI("Not Found", 404, "/query", "POST"), false},
		{"api 600", NewAPI("odd", 600, "/query", "POST"), false},
		{"upload failed", NewUpload("x", "a.pdf", ReasonUploadFailed, 1, ""), true},
		{"upload processing", NewUpload("x", "a.pdf", ReasonProcessingFailed, 1, ""), true},
		{"upload too large", NewUpload("x", "a.pdf", ReasonFileTooLarge, 1, ""), false},
		{"upload invalid type", NewUpload("x", "a.exe", ReasonInvalidType, 1, ""), false},
		{"search unavailable", NewSearch("x", "q", ReasonServiceUnavailable), true},
		{"search too short", NewSearch("x", "q", ReasonQueryTooShort), false},
		{"search no results", NewSearch("x", "q", ReasonNoResults), false},
		{"validation", NewValidation("x", "config.max_chunks", nil), false},
		{"auth", NewAuth("x", nil), false},
		{"permission", NewPermission("x", nil), false},
		{"unknown", NewUnknown("x", nil), false},
	}
	for _, tc := range cases {
		if got := tc.err.Retryable(); got != tc.want {
			t.Fatalf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSeverity(t *testing.T) {
	if got := NewAPI("x", 500, "/", "GET").Severity(); got != SeverityHigh {
		t.Fatalf("expected high for 500, got %s", got)
	}
	if got := NewAPI("x", 422, "/", "GET").Severity(); got != SeverityMedium {
		t.Fatalf("expected medium for 422, got %s", got)
	}
	if got := NewNetwork("x", "/", "GET", nil).Severity(); got != SeverityHigh {
		t.Fatalf("expected high for network, got %s", got)
	}
	if got := NewTimeout("x", "/", "GET", time.Second, nil).Severity(); got != SeverityMedium {
		t.Fatalf("expected medium for timeout, got %s", got)
	}
	if got := NewSearch("x", "q", ReasonQueryTooShort).Severity(); got != SeverityLow {
		t.Fatalf("expected low for short query, got %s", got)
	}
	if got := NewAuth("x", nil).Severity(); got != SeverityCritical {
		t.Fatalf("expected critical for auth, got %s", got)
	}
}

func TestCodes(t *testing.T) {
	if got := NewUpload("x", "a", ReasonFileTooLarge, 0, "").Code(); got != "AI-1001" {
		t.Fatalf("unexpected code: %q", got)
	}
	if got := NewSearch("x", "q", ReasonQueryTooShort).Code(); got != "AI-2001" {
		t.Fatalf("unexpected code: %q", got)
	}
	if got := NewUnknown("x", nil).Code(); got != "AI-9000" {
		t.Fatalf("unexpected code: %q", got)
	}
}

func TestAsAndUnwrap(t *testing.T) {
	root := errors.New("dial tcp: connection refused")
	appErr := NewNetwork("Network connection failed", "/health", "GET", root)
	wrapped := fmt.Errorf("health: %w", appErr)

	got, ok := As(wrapped)
	if !ok || got != appErr {
		t.Fatalf("expected As to find the app error")
	}
	if !errors.Is(wrapped, root) {
		t.Fatalf("expected cause to be reachable")
	}
	if !IsType(wrapped, TypeNetwork) {
		t.Fatalf("expected network type")
	}
	if _, ok := As(root); ok {
		t.Fatalf("plain error is not an app error")
	}
	if !strings.Contains(appErr.Error(), "connection refused") {
		t.Fatalf("expected cause in message: %q", appErr.Error())
	}
}

func TestWrap(t *testing.T) {
	appErr := NewSearch("x", "q", ReasonNoResults)
	if got := Wrap(appErr, nil); got != appErr {
		t.Fatalf("expected app error returned unchanged")
	}
	got := Wrap(errors.New("boom"), func(err error) *AppError {
		return NewUnknown("wrapped", err)
	})
	if got.Type() != TypeUnknown || got.Message() != "wrapped" {
		t.Fatalf("unexpected wrap result: %v", got)
	}
	if Wrap(nil, nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestWithDetailCopies(t *testing.T) {
	base := NewTimeout("x", "/q", "POST", 2*time.Second, nil)
	withURL := base.WithDetail("url", "http://x/q")
	if _, ok := base.Details()["url"]; ok {
		t.Fatalf("original must not change")
	}
	if withURL.Details()["url"] != "http://x/q" || withURL.Details()["timeout"] != "2s" {
		t.Fatalf("unexpected details: %v", withURL.Details())
	}
	if withURL.Retryable() != base.Retryable() {
		t.Fatalf("derived fields must carry over")
	}
}

func TestMarshalJSON(t *testing.T) {
	raw, err := json.Marshal(NewAPI("Internal Server Error", 500, "/query", "POST"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != "api_error" || out["retryable"] != true || out["status_code"] != float64(500) {
		t.Fatalf("unexpected json: %s", raw)
	}
}
