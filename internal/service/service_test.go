package service_test

import (
	"context"
	"testing"
	"time"

	"etlapi/internal/etl"
	"etlapi/internal/service"
)

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("job-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("job-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	if n := g.Active(); n != 2 {
		t.Fatalf("expected 2 active runs, got %d", n)
	}
	g.Unlock("job-1")
	g.Unlock("job-2")

	if !g.TryLock("job-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("job-1")
	g.Unlock("job-1") // releasing twice is a no-op
	if n := g.Active(); n != 0 {
		t.Fatalf("expected 0 active runs, got %d", n)
	}
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

func TestRunningGuard_WaitAllCancelledThenReused(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.WaitAll(ctx) // returns at once with job-a still running

	g.Unlock("job-a")
	if !g.TryLock("job-b") {
		t.Fatal("expected lock to succeed after the previous run finished")
	}

	done := make(chan struct{})
	go func() {
		g.WaitAll(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitAll returned while job-b was running")
	case <-time.After(50 * time.Millisecond):
	}

	g.Unlock("job-b")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAll did not return after the last run finished")
	}

	// Idle guard: no wait at all.
	g.WaitAll(context.Background())
}

// ─────────────────────────────────────────────────────────────
// MockEmitter / RunHistory tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	events := m.Recorded()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", events[0].Event)
	}
	if events[1].Event != "test:event2" {
		t.Errorf("expected 'test:event2', got %q", events[1].Event)
	}
}

func TestRunHistory_NewestFirstAndBounded(t *testing.T) {
	h := service.NewRunHistory(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Add(&etl.RunLog{ID: id})
	}

	logs := h.List()
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	for i, want := range []string{"d", "c", "b"} {
		if logs[i].ID != want {
			t.Errorf("logs[%d] = %q, want %q", i, logs[i].ID, want)
		}
	}
}

func TestRunHistory_Empty(t *testing.T) {
	h := service.NewRunHistory(0)
	if logs := h.List(); len(logs) != 0 {
		t.Fatalf("expected no logs, got %d", len(logs))
	}
}
