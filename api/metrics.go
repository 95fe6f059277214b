package api

import (
	"sort"
	"sync"
	"time"
)

// slowRequest is the duration above which a request is logged as slow
const slowRequest = time.Second

// RouteMetrics aggregates the requests served by one route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsSummary is the process wide view of the collected requests
type MetricsSummary struct {
	TotalRequests int64          `json:"totalRequests"`
	TotalErrors   int64          `json:"totalErrors"`
	ErrorRate     float64        `json:"errorRate"`
	Since         time.Time      `json:"since"`
	Routes        []RouteMetrics `json:"routes"`
}

// Metrics collects request timings per route template
type Metrics struct {
	mu            sync.Mutex
	routes        map[string]*RouteMetrics
	since         time.Time
	totalRequests int64
	totalErrors   int64
}

// NewMetrics returns an empty collector
func NewMetrics() *Metrics {
	return &Metrics{routes: make(map[string]*RouteMetrics), since: time.Now()}
}

// Record adds one served request. Statuses of 400 and above count as errors.
func (m *Metrics) Record(method, path string, status int, duration time.Duration, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := method + " " + path
	rm, ok := m.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path, MinTime: duration}
		m.routes[key] = rm
	}
	rm.Count++
	rm.TotalTime += duration
	rm.AvgTime = rm.TotalTime / time.Duration(rm.Count)
	if duration < rm.MinTime {
		rm.MinTime = duration
	}
	if duration > rm.MaxTime {
		rm.MaxTime = duration
	}
	rm.LastRequest = at

	m.totalRequests++
	if status >= 400 {
		rm.ErrorCount++
		m.totalErrors++
	}
}

// Summary returns the totals and the routes, slowest average first
func (m *Metrics) Summary() MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSummary{
		TotalRequests: m.totalRequests,
		TotalErrors:   m.totalErrors,
		Since:         m.since,
		Routes:        make([]RouteMetrics, 0, len(m.routes)),
	}
	if m.totalRequests > 0 {
		s.ErrorRate = float64(m.totalErrors) / float64(m.totalRequests)
	}
	for _, rm := range m.routes {
		s.Routes = append(s.Routes, *rm)
	}
	sort.Slice(s.Routes, func(i, j int) bool {
		if s.Routes[i].AvgTime == s.Routes[j].AvgTime {
			return s.Routes[i].Method+s.Routes[i].Path < s.Routes[j].Method+s.Routes[j].Path
		}
		return s.Routes[i].AvgTime > s.Routes[j].AvgTime
	})
	return s
}
