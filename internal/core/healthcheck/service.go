package healthcheck

import (
	"context"
	"time"

	"docsearch/config"
	"docsearch/internal/httpclient"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Response is the backend's health report.
type Response struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Services      map[string]string `json:"services"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

type Service struct {
	client  *httpclient.Client
	timeout time.Duration
	path    string
}

func NewService(client *httpclient.Client, cfg *config.Config) *Service {
	return &Service{
		client:  client,
		timeout: cfg.Client.HealthTimeout,
		path:    cfg.Connectivity.HealthPath,
	}
}

// Check fetches the backend health report.
func (s *Service) Check(ctx context.Context) (*Response, error) {
	resp, err := httpclient.Get[Response](ctx, s.client, s.path, httpclient.WithTimeout(s.timeout))
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
