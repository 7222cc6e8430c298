package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Upload.MaxFileSize != 10*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.Upload.MaxFileSize)
	}
	if cfg.ErrorLog.Capacity != 100 {
		t.Fatalf("unexpected error log capacity: %d", cfg.ErrorLog.Capacity)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
client:
  base_url: http://backend.internal:9000
  timeout: 5s
retry:
  max_attempts: 4
  base_delay: 250ms
  max_delay: 2s
search:
  min_query_length: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_RETRY__MAX_ATTEMPTS", "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Client.BaseURL != "http://backend.internal:9000" {
		t.Fatalf("unexpected base url: %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Client.Timeout)
	}
	if cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected base delay: %v", cfg.Retry.BaseDelay)
	}
	if cfg.Retry.MaxAttempts != 6 {
		t.Fatalf("env should override file, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Search.MinQueryLength != 5 || cfg.Search.MaxQueryLength != 1000 {
		t.Fatalf("unexpected search config: %+v", cfg.Search)
	}
	// untouched sections keep defaults
	if cfg.Client.UploadTimeout != 60*time.Second {
		t.Fatalf("unexpected upload timeout: %v", cfg.Client.UploadTimeout)
	}
}

func TestValidate_CollectsViolations(t *testing.T) {
	cfg := Default()
	cfg.Retry.MaxAttempts = 0
	cfg.Retry.MaxDelay = time.Millisecond
	cfg.Retry.RetryableErrors = []string{"bogus_error"}

	err := Validate(&cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"MaxAttempts", "MaxDelay", "RetryableErrors[0]"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestValidate_Default(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
