package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"docsearch/config"
	"docsearch/internal/httpclient"
	"docsearch/pkg/apperror"
)

func newService(t *testing.T, handler http.HandlerFunc) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Client.BaseURL = srv.URL
	client := httpclient.New(httpclient.ConfigFrom(&cfg),
		httpclient.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	return NewService(client, &cfg), &calls
}

func respond(resp Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestQuery_TooShort(t *testing.T) {
	svc, calls := newService(t, respond(Response{}))

	_, err := svc.Query(context.Background(), Request{Question: " hi "})
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected *AppError, got %v", err)
	}
	if appErr.Type() != apperror.TypeSearch || appErr.Reason() != apperror.ReasonQueryTooShort {
		t.Fatalf("unexpected error: %v (%s)", appErr, appErr.Reason())
	}
	if appErr.Severity() != apperror.SeverityLow || appErr.Retryable() {
		t.Fatalf("severity %s retryable %v", appErr.Severity(), appErr.Retryable())
	}
	if calls.Load() != 0 {
		t.Fatalf("no request expected")
	}
}

func TestQuery_TooLong(t *testing.T) {
	svc, calls := newService(t, respond(Response{}))

	_, err := svc.Query(context.Background(), Request{Question: strings.Repeat("a", 1001)})
	if appErr, ok := apperror.As(err); !ok || appErr.Reason() != apperror.ReasonQueryTooLong {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("no request expected")
	}
}

func TestQuery_ConfigRanges(t *testing.T) {
	svc, calls := newService(t, respond(Response{}))
	cases := []struct {
		cfg   Config
		field string
	}{
		{Config{MaxChunks: intPtr(0)}, "max_chunks"},
		{Config{MaxChunks: intPtr(21)}, "max_chunks"},
		{Config{SimilarityThreshold: floatPtr(1.5)}, "similarity_threshold"},
		{Config{MaxResponseTokens: intPtr(10)}, "max_response_tokens"},
		{Config{Temperature: floatPtr(-0.1)}, "temperature"},
	}
	for _, tc := range cases {
		cfg := tc.cfg
		_, err := svc.Query(context.Background(), Request{Question: "how do I install?", Config: &cfg})
		appErr, ok := apperror.As(err)
		if !ok || appErr.Type() != apperror.TypeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.field, err)
		}
		if appErr.Field() != tc.field {
			t.Fatalf("field = %q, want %q", appErr.Field(), tc.field)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("no request expected")
	}
}

func TestQuery_Success(t *testing.T) {
	var got Request
	svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		respond(Response{
			Answer:     "Run the installer.",
			Confidence: 0.8,
			Sources:    []SourceReference{{DocumentID: "doc-1", ChunkID: "doc-1:0", RelevanceScore: 0.9}},
		})(w, r)
	})

	resp, err := svc.Query(context.Background(), Request{
		Question: "  how do I install?  ",
		Config:   &Config{MaxChunks: intPtr(5)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "Run the installer." || len(resp.Sources) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.Question != "how do I install?" || got.Config == nil || *got.Config.MaxChunks != 5 {
		t.Fatalf("backend saw %+v", got)
	}
}

func TestQuery_NoResults(t *testing.T) {
	svc, _ := newService(t, respond(Response{Answer: "", Sources: []SourceReference{}}))

	_, err := svc.Query(context.Background(), Request{Question: "unknown topic"})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Reason() != apperror.ReasonNoResults {
		t.Fatalf("unexpected error: %v", err)
	}
	if appErr.Query() != "unknown topic" {
		t.Fatalf("query = %q", appErr.Query())
	}
}

func TestQuery_ServerErrorIsRetried(t *testing.T) {
	svc, calls := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Query(context.Background(), Request{Question: "how do I install?"})
	if !apperror.IsType(err, apperror.TypeAPI) {
		t.Fatalf("expected api error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("attempts = %d, want 3", calls.Load())
	}
}
