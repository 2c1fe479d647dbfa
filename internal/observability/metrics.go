package observability

import (
	"sync"
	"time"
)

type requestKey struct {
	path   string
	method string
	status int
}

type errorKey struct {
	path   string
	method string
	code   string
}

// Metrics counts finished requests and failures by error code. A nil *Metrics is a no-op.
type Metrics struct {
	mu       sync.Mutex
	requests map[requestKey]int64
	latency  map[requestKey]time.Duration
	errors   map[errorKey]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[requestKey]int64),
		latency:  make(map[requestKey]time.Duration),
		errors:   make(map[errorKey]int64),
	}
}

func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{path, method, status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.latency[key] += duration
}

// RecordError counts a failed request under its domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{path, method, code}]++
}

// Requests returns how many requests finished with status on path and method.
func (m *Metrics) Requests(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey{path, method, status}]
}

// MeanLatency is zero when nothing was recorded for the key.
func (m *Metrics) MeanLatency(path, method string, status int) time.Duration {
	if m == nil {
		return 0
	}
	key := requestKey{path, method, status}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests[key] == 0 {
		return 0
	}
	return m.latency[key] / time.Duration(m.requests[key])
}

// Errors returns how many requests on path and method failed with code.
func (m *Metrics) Errors(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{path, method, code}]
}
