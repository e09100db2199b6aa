package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// ETL Service: business logic for pipeline runs
// ─────────────────────────────────────────────────────────────

// Preview limits.
const (
	DefaultPreviewLimit = 10
	MaxPreviewLimit     = 100
)

// Options configures an ETLService. Zero values select defaults.
type Options struct {
	DefaultDBName string        // dbname used for "database" requests without one
	RunTimeout    time.Duration // per-run deadline (default 5m)
	HistorySize   int           // run logs kept in memory (default 50)
	Logger        *slog.Logger
	Emitter       EventEmitter
}

// ETLService runs pipeline requests, keeps their history and drives
// scheduled jobs. Every entry point (HTTP, CLI, MCP, triggers) goes
// through it.
type ETLService struct {
	engine        *etl.Engine
	defaultDBName string
	runTimeout    time.Duration
	logger        *slog.Logger
	emitter       EventEmitter
	history       *RunHistory
	runningJobs   runningJobsGuard

	// scheduled jobs and their watcher / cron lifecycle
	mu          sync.Mutex
	jobs        map[string]*etl.Job
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewETLService creates an ETLService ready for use.
func NewETLService(engine *etl.Engine, opts Options) *ETLService {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Emitter == nil {
		opts.Emitter = &LogEmitter{Logger: opts.Logger}
	}
	return &ETLService{
		engine:        engine,
		defaultDBName: opts.DefaultDBName,
		runTimeout:    opts.RunTimeout,
		logger:        opts.Logger,
		emitter:       opts.Emitter,
		history:       NewRunHistory(opts.HistorySize),
		jobs:          make(map[string]*etl.Job),
	}
}

// ── Run ────────────────────────────────────────────────────

// Run executes one ad-hoc request synchronously. The returned RunLog is
// non-nil even when the run fails.
func (s *ETLService) Run(ctx context.Context, req domain.JobRequest, requestID string) (*etl.RunLog, error) {
	if req.Source == "" {
		return nil, domain.ErrValidation("source is required")
	}
	if req.Destination == "" {
		return nil, domain.ErrValidation("destination is required")
	}
	req.DBName = s.dbNameFor(req.Destination, req.DBName)

	runID := uuid.NewString()
	// Ad-hoc runs are tracked by the guard under their unique id so that
	// WaitRunning drains them on shutdown.
	s.runningJobs.TryLock(runID)
	defer s.runningJobs.Unlock(runID)

	job := &etl.Job{
		ID:          runID,
		Source:      req.Source,
		Destination: req.Destination,
		DBName:      req.DBName,
		TriggerType: etl.TriggerManual,
	}
	return s.execute(ctx, runID, requestID, job)
}

// dbNameFor applies the default dbname to a database destination that
// names none.
func (s *ETLService) dbNameFor(destination, dbname string) string {
	if destination == etl.DestinationDatabase && dbname == "" {
		return s.defaultDBName
	}
	return dbname
}

// RunJob executes a registered scheduled job. A job that is still running
// is not started again.
func (s *ETLService) RunJob(ctx context.Context, id string) (*etl.RunLog, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}

	// Prevent concurrent execution of the same job.
	if !s.runningJobs.TryLock(id) {
		return nil, fmt.Errorf("job %s is already running", id)
	}
	defer s.runningJobs.Unlock(id)

	return s.execute(ctx, uuid.NewString(), "", job)
}

func (s *ETLService) execute(ctx context.Context, runID, requestID string, job *etl.Job) (*etl.RunLog, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()
	result, runErr := s.engine.Run(runCtx, job)
	runLog := etl.NewRunLog(runID, job, result, start, time.Now())
	runLog.RequestID = requestID
	if runErr != nil && runLog.Error == "" {
		runLog.Error = runErr.Error()
	}
	s.history.Add(runLog)

	if runErr != nil {
		s.logger.Warn("etl run failed",
			"run", runID,
			"job", job.Name,
			"source", job.Source,
			"destination", job.Destination,
			"dbname", job.DBName,
			"error", runErr,
		)
	}
	s.emitter.Emit(ctx, "etl:run-completed", runLog)
	return runLog, runErr
}

// ListSources returns the available ETL source descriptors.
func (s *ETLService) ListSources() []etl.SourceSpec {
	return s.engine.Sources.List()
}

// ListRuns returns the retained run logs, newest first.
func (s *ETLService) ListRuns() []*etl.RunLog {
	return s.history.List()
}

// ListJobs returns the registered scheduled jobs.
func (s *ETLService) ListJobs() []*etl.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*etl.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// ── Preview / Schema Discovery ─────────────────────────────

// PreviewResult is the response from Preview.
type PreviewResult struct {
	Source    string      `json:"source"`
	Schema    *etl.Schema `json:"schema"`
	Rows      [][]any     `json:"rows"`
	TotalRows int         `json:"total_rows"`
}

// Preview extracts sourceType and returns its schema and first rows. limit
// defaults to DefaultPreviewLimit and is capped at MaxPreviewLimit.
func (s *ETLService) Preview(ctx context.Context, sourceType string, limit int) (*PreviewResult, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		limit = MaxPreviewLimit
	}

	previewCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	full, err := s.engine.Preview(previewCtx, sourceType, -1)
	if err != nil {
		return nil, err
	}
	head := full.Head(limit)
	rows := head.Rows(-1)
	for _, row := range rows {
		for i, v := range row {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				row[i] = etl.FormatValue(f)
			}
		}
	}
	return &PreviewResult{
		Source:    sourceType,
		Schema:    head.Schema(),
		Rows:      rows,
		TotalRows: full.Len(),
	}, nil
}

// WaitRunning blocks until all running jobs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *ETLService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}
