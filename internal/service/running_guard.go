package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningJobsGuard

// ─────────────────────────────────────────────────────────────
// runningJobsGuard: one in-flight run per key
// ─────────────────────────────────────────────────────────────

// runningJobsGuard ensures only one run per key (scheduled job id, or the
// unique run id of an ad-hoc request) is in flight, and lets shutdown wait
// for every run to finish.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	idle    chan struct{} // closed when the last run finishes
}

// TryLock marks key as running. It returns false if key is already running.
func (g *runningJobsGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[key]; ok {
		return false
	}
	if len(g.running) == 0 {
		g.idle = make(chan struct{})
	}
	g.running[key] = struct{}{}
	return true
}

// Unlock releases key. Must be called once after TryLock returns true.
func (g *runningJobsGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[key]; !ok {
		return
	}
	delete(g.running, key)
	if len(g.running) == 0 {
		close(g.idle)
	}
}

// Active returns the number of runs in flight.
func (g *runningJobsGuard) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}

// WaitAll blocks until all in-flight runs complete or ctx is cancelled.
// Runs started while it waits extend the wait.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	for {
		g.mu.Lock()
		if len(g.running) == 0 {
			g.mu.Unlock()
			return
		}
		idle := g.idle
		g.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return
		}
	}
}
