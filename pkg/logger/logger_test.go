package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"docsearch/config"

	"github.com/sirupsen/logrus"
)

func TestInit_Level(t *testing.T) {
	defer Init(config.Info)

	Init(config.Debug)
	if got := GetLogger().GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", got)
	}
	Init(config.LogLevel("nonsense"))
	if got := GetLogger().GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected fallback to info, got %v", got)
	}
}

func TestError_PrefixesCallerAndError(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Error(errors.New("boom"), "%v: request failed", config.ModuleClient)

	out := buf.String()
	if !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("expected caller prefix in %q", out)
	}
	if !strings.Contains(out, "client: request failed") {
		t.Fatalf("expected message in %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error field in %q", out)
	}
}

func TestSetLevel_Invalid(t *testing.T) {
	if err := SetLevel("loud"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
