// Package performance provides lightweight operation tracking for Magnetiq
// request handlers and background workers.
package performance

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Marker tracks a single operation from start to completion.
type Marker struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	tracker *Tracker
}

// Complete finalizes the marker and records its duration.
func (m *Marker) Complete() {
	m.EndTime = time.Now().UTC()
	m.Duration = m.EndTime.Sub(m.StartTime)
	if m.tracker != nil {
		m.tracker.record(m)
	}
}

// SetSuccess marks the operation as successful or failed.
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError records an error and marks the operation as failed.
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata attaches an arbitrary key/value pair to the marker.
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// Tracker aggregates completed operation markers.
type Tracker struct {
	mu         sync.RWMutex
	completed  []*Marker
	maxMarkers int
	started    time.Time
}

// NewTracker creates a new performance tracker.
func NewTracker() *Tracker {
	return &Tracker{
		maxMarkers: 1000,
		started:    time.Now().UTC(),
	}
}

// StartOperation begins tracking a named operation.
func (t *Tracker) StartOperation(operation string) *Marker {
	return &Marker{
		ID:        ulid.Make().String(),
		Operation: operation,
		StartTime: time.Now().UTC(),
		Success:   true,
		tracker:   t,
	}
}

func (t *Tracker) record(m *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed = append(t.completed, m)
	if len(t.completed) > t.maxMarkers {
		t.completed = t.completed[len(t.completed)-t.maxMarkers:]
	}
}

// Stats summarizes completed operations since startup.
type Stats struct {
	Uptime     time.Duration            `json:"uptime"`
	Operations map[string]OperationStat `json:"operations"`
}

// OperationStat aggregates per-operation counts and latency.
type OperationStat struct {
	Count       int           `json:"count"`
	Failures    int           `json:"failures"`
	AvgDuration time.Duration `json:"avgDuration"`
	MaxDuration time.Duration `json:"maxDuration"`
}

// GetStats returns aggregated statistics for all tracked operations.
func (t *Tracker) GetStats() *Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ops := make(map[string]OperationStat)
	totals := make(map[string]time.Duration)

	for _, m := range t.completed {
		stat := ops[m.Operation]
		stat.Count++
		if !m.Success {
			stat.Failures++
		}
		totals[m.Operation] += m.Duration
		if m.Duration > stat.MaxDuration {
			stat.MaxDuration = m.Duration
		}
		ops[m.Operation] = stat
	}

	for op, stat := range ops {
		stat.AvgDuration = totals[op] / time.Duration(stat.Count)
		ops[op] = stat
	}

	return &Stats{
		Uptime:     time.Since(t.started),
		Operations: ops,
	}
}
