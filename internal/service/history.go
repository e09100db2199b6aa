package service

import (
	"sync"

	"etlapi/internal/etl"
)

// DefaultHistorySize is the number of run logs kept when none is configured.
const DefaultHistorySize = 50

// RunHistory is a fixed-size, concurrency-safe ring of run logs.
type RunHistory struct {
	mu    sync.Mutex
	logs  []*etl.RunLog
	next  int
	count int
}

// NewRunHistory returns a history retaining the last size logs.
func NewRunHistory(size int) *RunHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RunHistory{logs: make([]*etl.RunLog, size)}
}

// Add records l, evicting the oldest log when full.
func (h *RunHistory) Add(l *etl.RunLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs[h.next] = l
	h.next = (h.next + 1) % len(h.logs)
	if h.count < len(h.logs) {
		h.count++
	}
}

// List returns the retained logs, newest first.
func (h *RunHistory) List() []*etl.RunLog {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*etl.RunLog, 0, h.count)
	for i := 1; i <= h.count; i++ {
		idx := (h.next - i + len(h.logs)) % len(h.logs)
		out = append(out, h.logs[idx])
	}
	return out
}
