package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"docsearch/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// run executes the command tree against a backend at baseURL and returns output and exit code.
func run(t *testing.T, baseURL string, args ...string) (string, int) {
	t.Helper()
	t.Setenv("APP_CLIENT__BASE_URL", baseURL)
	t.Setenv("APP_RETRY__BASE_DELAY", "1ms")
	t.Setenv("APP_RETRY__MAX_DELAY", "2ms")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return out.String(), ExitOK
	}
	var exit *exitError
	if !errors.As(err, &exit) {
		t.Fatalf("unexpected error: %v", err)
	}
	return out.String(), exit.code
}

func TestQuery_TooShortExitsWithFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	out, code := run(t, srv.URL, "query", "hi")
	if code != ExitFailure {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if calls.Load() != 0 {
		t.Fatalf("backend called %d times", calls.Load())
	}
	if !strings.Contains(out, "Error:") || !strings.Contains(out, "Options:") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestQuery_UnavailableBackendExitsRetryable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, code := run(t, srv.URL, "query", "how do I install it?")
	if code != ExitRetryable {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if calls.Load() != 3 {
		t.Fatalf("backend called %d times, want 3", calls.Load())
	}
}

func TestQuery_SendsOnlyChangedFlags(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"answer":"Run the installer.","sources":[{"document_id":"d1","source_file":"guide.md","chunk_index":0,"headers":["Install"],"relevance_score":0.9,"content_preview":"Run the installer."}],"confidence":0.9,"query":"how do I install it?","response_time_ms":3}`)
	}))
	defer srv.Close()

	out, code := run(t, srv.URL, "query", "how do I install it?", "--max-chunks", "8")
	if code != ExitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(body, `"max_chunks":8`) || strings.Contains(body, "similarity_threshold") {
		t.Fatalf("unexpected request body: %s", body)
	}
	if !strings.Contains(out, "Run the installer.") || !strings.Contains(out, "guide.md") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestHealth_PrintsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"healthy","timestamp":"2026-01-02T03:04:05Z","services":{"storage":"healthy","index":"healthy"},"uptime_seconds":42}`)
	}))
	defer srv.Close()

	out, code := run(t, srv.URL, "health")
	if code != ExitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "Status: healthy (up 42s)") || !strings.Contains(out, "storage") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestUpload_UnsupportedTypeExitsWithFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	doc := filepath.Join(t.TempDir(), "notes.docx")
	if err := os.WriteFile(doc, []byte("binary"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, code := run(t, srv.URL, "upload", doc)
	if code != ExitFailure {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
}
