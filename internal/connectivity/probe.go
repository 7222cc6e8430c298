package connectivity

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"docsearch/config"
	"docsearch/pkg/logger"
)

// Probe reports whether the backend is believed reachable.
type Probe interface {
	Online() bool
}

// Static is a Probe with a fixed answer.
type Static bool

func (s Static) Online() bool { return bool(s) }

// Listener is notified on every online/offline transition.
type Listener func(online bool)

// Monitor tracks reachability by probing the backend health endpoint.
type Monitor struct {
	url        string
	interval   time.Duration
	httpClient *http.Client

	online atomic.Bool

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewMonitor creates a monitor for baseURL + healthPath. It starts optimistic (online).
func NewMonitor(baseURL, healthPath string, interval time.Duration, httpClient *http.Client) *Monitor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	m := &Monitor{
		url:        strings.TrimRight(baseURL, "/") + healthPath,
		interval:   interval,
		httpClient: httpClient,
		listeners:  make(map[int]Listener),
	}
	m.online.Store(true)
	return m
}

func (m *Monitor) Online() bool { return m.online.Load() }

// AddListener registers l and returns a function that removes it.
func (m *Monitor) AddListener(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Check probes once, updates the state and returns it.
func (m *Monitor) Check(ctx context.Context) bool {
	ok := m.probe(ctx)
	m.set(ok)
	return ok
}

// Run probes every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (m *Monitor) set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	if online {
		logger.Info("%v: connection restored", config.ModuleConnectivity)
	} else {
		logger.Warn("%v: backend unreachable, switching to offline mode", config.ModuleConnectivity)
	}

	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(online)
	}
}
