package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ── Job ────────────────────────────────────────────────────
// Orchestrates: resolve → extract → transform → load.

// Trigger types for scheduled jobs.
const (
	TriggerManual    = "manual"
	TriggerSchedule  = "schedule"
	TriggerFileWatch = "file_watch"
)

// Job holds the configuration for a single pipeline run or scheduled job.
type Job struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	DBName        string `json:"dbname,omitempty"`
	TriggerType   string `json:"trigger_type,omitempty"`   // "manual" | "schedule" | "file_watch"
	TriggerConfig string `json:"trigger_config,omitempty"` // cron expression or watched path
}

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SyncResult is the outcome of running a job.
type SyncResult struct {
	JobID       string        `json:"job_id,omitempty"`
	Status      string        `json:"status"` // "success" | "error"
	Target      string        `json:"target,omitempty"`
	RowsRead    int           `json:"rows_read"`
	RowsWritten int           `json:"rows_written"`
	Multiplier  float64       `json:"multiplier"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunLog is a historical record of a run.
type RunLog struct {
	ID          string    `json:"id"`
	Job         string    `json:"job,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	DBName      string    `json:"dbname,omitempty"`
	Target      string    `json:"target,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rows_read"`
	RowsWritten int       `json:"rows_written"`
	Multiplier  float64   `json:"multiplier"`
	Error       string    `json:"error,omitempty"`
}

// NewRunLog records the outcome of job. A nil result marks a run that failed
// before the engine produced one.
func NewRunLog(id string, job *Job, result *SyncResult, started, finished time.Time) *RunLog {
	l := &RunLog{
		ID:          id,
		Job:         job.Name,
		Source:      job.Source,
		Destination: job.Destination,
		DBName:      job.DBName,
		StartedAt:   started,
		FinishedAt:  finished,
		DurationMS:  finished.Sub(started).Milliseconds(),
		Status:      StatusError,
	}
	if result != nil {
		l.Target = result.Target
		l.Status = result.Status
		l.RowsRead = result.RowsRead
		l.RowsWritten = result.RowsWritten
		l.Multiplier = result.Multiplier
		l.Error = result.Error
	}
	return l
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs jobs against a source registry and a destination resolver.
type Engine struct {
	Sources      *Registry
	Destinations DestinationResolver
	Transform    *ScaleTransform
	Logger       *slog.Logger
}

// Run executes a job end-to-end. Both the source and the destination are
// resolved before anything is extracted, so an unsupported pair never
// touches the target.
func (e *Engine) Run(ctx context.Context, job *Job) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{JobID: job.ID}
	fail := func(stage string, err error) (*SyncResult, error) {
		result.Status = StatusError
		result.Error = fmt.Sprintf("%s: %s", stage, err)
		result.Duration = time.Since(start)
		return result, err
	}

	// 1. Resolve source and destination.
	source, err := e.Sources.Get(job.Source)
	if err != nil {
		return fail("extract", err)
	}
	dest, err := e.Destinations.Resolve(job.Destination, job.DBName)
	if err != nil {
		return fail("load", err)
	}
	result.Target = dest.Target()

	// 2. Extract.
	data, err := source.Extract(ctx)
	if err != nil {
		return fail("extract", err)
	}
	result.RowsRead = data.Len()

	// 3. Transform.
	transform := e.Transform
	if transform == nil {
		transform = NewScaleTransform(nil)
	}
	k, err := transform.Transform(data)
	if err != nil {
		return fail("transform", err)
	}
	result.Multiplier = k

	// 4. Load.
	written, err := dest.Write(ctx, data)
	if err != nil {
		return fail("load", err)
	}

	result.Status = StatusSuccess
	result.RowsWritten = written
	result.Duration = time.Since(start)
	e.logger().Info("etl run completed",
		"job", job.ID,
		"source", job.Source,
		"target", result.Target,
		"rows", written,
		"duration", result.Duration,
	)
	return result, nil
}

// Preview extracts a source and returns at most maxRows rows of it.
// Nothing is transformed or written.
func (e *Engine) Preview(ctx context.Context, sourceType string, maxRows int) (*Dataset, error) {
	source, err := e.Sources.Get(sourceType)
	if err != nil {
		return nil, err
	}
	data, err := source.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if maxRows < 0 || data.Len() <= maxRows {
		return data, nil
	}
	return data.Head(maxRows), nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
