package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docsearch/config"
	"docsearch/internal/errhandler"
	"docsearch/pkg/apperror"
	"docsearch/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Config is the transport configuration of a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	Retry     RetryConfig
}

// ConfigFrom builds a client Config from the application settings.
func ConfigFrom(cfg *config.Config) Config {
	retry := RetryConfig{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		BaseDelay:         cfg.Retry.BaseDelay,
		MaxDelay:          cfg.Retry.MaxDelay,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		RetryableErrorTypes: lo.Map(cfg.Retry.RetryableErrors, func(t string, _ int) apperror.Type {
			return apperror.Type(t)
		}),
	}
	return Config{
		BaseURL:   cfg.Client.BaseURL,
		Timeout:   cfg.Client.Timeout,
		AuthToken: cfg.Client.AuthToken,
		Retry:     retry,
	}
}

// Reporter receives every error a call finally fails with.
type Reporter interface {
	Report(err *apperror.AppError)
}

// RequestInterceptor may modify an outgoing request. A returned error aborts the attempt.
type RequestInterceptor func(*http.Request) error

// ResponseInterceptor sees every response before it is decoded.
type ResponseInterceptor func(*http.Response) error

// Client is a JSON API client with per-attempt timeouts and exponential-backoff retry.
// It is safe for concurrent use.
type Client struct {
	cfg           Config
	http          *http.Client
	classifier    *errhandler.Classifier
	reporter      Reporter
	requestHooks  []RequestInterceptor
	responseHooks []ResponseInterceptor
	sleep         Sleeper
	metrics       *Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithClassifier(cl *errhandler.Classifier) Option {
	return func(c *Client) { c.classifier = cl }
}

func WithReporter(r Reporter) Option {
	return func(c *Client) { c.reporter = r }
}

func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.requestHooks = append(c.requestHooks, i) }
}

func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.responseHooks = append(c.responseHooks, i) }
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client. Zero retry settings fall back to DefaultRetryConfig.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.Retry.BackoffMultiplier <= 0 {
		cfg.Retry.BackoffMultiplier = DefaultRetryConfig.BackoffMultiplier
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	if cfg.Retry.RetryableErrorTypes == nil {
		cfg.Retry.RetryableErrorTypes = DefaultRetryConfig.RetryableErrorTypes
	}

	c := &Client{
		cfg:   cfg,
		http:  &http.Client{},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = errhandler.NewClassifier(nil)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

func (c *Client) Config() Config { return c.cfg }

// Get issues a GET request.
func Get[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (*Response[T], error) {
	return Do[T](ctx, c, newRequest(http.MethodGet, path, nil, opts))
}

// Post issues a POST request with a JSON or *FormData body.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...CallOption) (*Response[T], error) {
	return Do[T](ctx, c, newRequest(http.MethodPost, path, body, opts))
}

// Put issues a PUT request with a JSON or *FormData body.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...CallOption) (*Response[T], error) {
	return Do[T](ctx, c, newRequest(http.MethodPut, path, body, opts))
}

// Delete issues a DELETE request.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (*Response[T], error) {
	return Do[T](ctx, c, newRequest(http.MethodDelete, path, nil, opts))
}

func newRequest(method, path string, body any, opts []CallOption) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Do executes req with retry. Any 2xx response is decoded into T; every
// failure is returned as *apperror.AppError.
func Do[T any](ctx context.Context, c *Client, req Request) (*Response[T], error) {
	if req.Timeout <= 0 {
		req.Timeout = c.cfg.Timeout
	}
	maxAttempts := c.cfg.Retry.MaxAttempts
	if req.NoRetry {
		maxAttempts = 1
	}
	info := errhandler.RequestInfo{
		Endpoint: c.url(req.Path),
		Method:   req.Method,
		Timeout:  req.Timeout,
	}
	log := logger.WithFields(logrus.Fields{
		"module": config.ModuleClient,
		"method": req.Method,
		"path":   req.Path,
	})

	start := time.Now()
	var lastErr *apperror.AppError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.metrics.AttemptsTotal.WithLabelValues(req.Method).Inc()

		raw, appErr := c.attempt(ctx, req, info)
		if appErr == nil {
			resp, decodeErr := decode[T](raw)
			if decodeErr != nil {
				appErr = decodeErr
			} else {
				resp.Retries = attempt - 1
				c.metrics.RequestsTotal.WithLabelValues(req.Method, "success").Inc()
				c.metrics.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
				return resp, nil
			}
		}
		lastErr = appErr

		if attempt >= maxAttempts || !c.cfg.Retry.ShouldRetry(appErr) {
			break
		}

		delay := c.cfg.Retry.Delay(attempt)
		log.WithField("error_type", appErr.Type()).
			Warnf("attempt %d/%d failed, retrying in %s: %s", attempt, maxAttempts, delay, appErr.Message())
		c.metrics.RetriesTotal.WithLabelValues(string(appErr.Type())).Inc()

		if err := c.sleep(ctx, delay); err != nil {
			lastErr = c.classifier.Classify(err, info)
			break
		}
	}

	c.metrics.RequestsTotal.WithLabelValues(req.Method, string(lastErr.Type())).Inc()
	c.metrics.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if c.reporter != nil {
		c.reporter.Report(lastErr)
	}
	return nil, lastErr
}

// rawResponse is a 2xx response whose body has been read inside the attempt.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) attempt(ctx context.Context, req Request, info errhandler.RequestInfo) (*rawResponse, *apperror.AppError) {
	if err := ctx.Err(); err != nil {
		return nil, c.classifier.Classify(err, info)
	}

	attemptCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := c.build(attemptCtx, req, info.Endpoint)
	if err != nil {
		return nil, apperror.NewUnknown("Failed to build request", err)
	}
	for _, hook := range c.requestHooks {
		if err := hook(httpReq); err != nil {
			return nil, c.classifier.Classify(err, info)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.classifier.Classify(err, info)
	}
	defer resp.Body.Close()

	for _, hook := range c.responseHooks {
		if err := hook(resp); err != nil {
			return nil, c.classifier.Classify(err, info)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classifier.FromResponse(resp, info)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifier.Classify(err, info)
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func (c *Client) build(ctx context.Context, req Request, endpoint string) (*http.Request, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("X-Requested-With", "XMLHttpRequest")
	header.Set("X-Request-ID", uuid.NewString())
	if c.cfg.AuthToken != "" {
		header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	var body io.Reader
	if req.Body != nil && req.Method != http.MethodGet && req.Method != http.MethodHead {
		switch b := req.Body.(type) {
		case *FormData:
			data, contentType, err := b.encode()
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(data)
			header.Set("Content-Type", contentType)
		case []byte:
			body = bytes.NewReader(b)
			header.Set("Content-Type", "application/json")
		default:
			data, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("encode body: %w", err)
			}
			body = bytes.NewReader(data)
			header.Set("Content-Type", "application/json")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		httpReq.Header[k] = v
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}
	return httpReq, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func decode[T any](raw *rawResponse) (*Response[T], *apperror.AppError) {
	resp := &Response[T]{
		Status:     raw.status,
		StatusText: http.StatusText(raw.status),
		Header:     raw.header,
	}
	if len(bytes.TrimSpace(raw.body)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(raw.body, &resp.Data); err != nil {
		return nil, apperror.NewUnknown("Failed to parse response", err).
			WithDetail("status", raw.status)
	}
	return resp, nil
}
