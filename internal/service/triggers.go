package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"etlapi/internal/domain"
	"etlapi/internal/etl"
)

// ── Watchers (cron + file_watch) ──────────────────────────

// fileWatchDebounce collapses bursts of write events into a single run.
const fileWatchDebounce = 500 * time.Millisecond

// SetJobs replaces the registered scheduled jobs and rebuilds their triggers.
// ctx bounds the runs the triggers start.
func (s *ETLService) SetJobs(ctx context.Context, jobs []*etl.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*etl.Job, len(jobs))
	for _, j := range jobs {
		if _, dup := next[j.ID]; dup {
			return fmt.Errorf("duplicate job id %q", j.ID)
		}
		resolved, err := s.resolveJob(j)
		if err != nil {
			return err
		}
		next[j.ID] = resolved
	}
	s.jobs = next
	return s.restartWatchersLocked(ctx)
}

// resolveJob returns a copy of j with the default dbname applied. Its source
// and destination must resolve against the engine.
func (s *ETLService) resolveJob(j *etl.Job) (*etl.Job, error) {
	resolved := *j
	resolved.DBName = s.dbNameFor(j.Destination, j.DBName)
	if _, err := s.engine.Sources.Get(resolved.Source); err != nil {
		return nil, domain.ErrValidation("job %q: %v", j.ID, err)
	}
	if _, err := s.engine.Destinations.Resolve(resolved.Destination, resolved.DBName); err != nil {
		return nil, domain.ErrValidation("job %q: %v", j.ID, err)
	}
	return &resolved, nil
}

// restartWatchersLocked tears down the current watcher/cron and rebuilds them
// from s.jobs. s.mu must be held.
func (s *ETLService) restartWatchersLocked(ctx context.Context) error {
	s.stopWatchersLocked()

	// ── Cron jobs ──
	var c *cron.Cron
	for _, j := range s.jobs {
		if j.TriggerType != etl.TriggerSchedule {
			continue
		}
		if c == nil {
			c = cron.New()
		}
		jid := j.ID
		if _, err := c.AddFunc(j.TriggerConfig, func() {
			s.logger.Info("etl cron: running job", "job", jid)
			if _, err := s.RunJob(ctx, jid); err != nil {
				s.logger.Error("etl cron: job failed", "job", jid, "error", err)
			}
		}); err != nil {
			return fmt.Errorf("job %s: invalid cron expression %q: %w", jid, j.TriggerConfig, err)
		}
	}
	if c != nil {
		c.Start()
		s.cronSched = c
		s.logger.Info("etl cron: scheduled jobs", "count", len(c.Entries()))
	}

	// ── File watchers ──
	pathToJob := make(map[string]string)
	for _, j := range s.jobs {
		if j.TriggerType != etl.TriggerFileWatch {
			continue
		}
		absPath, err := filepath.Abs(j.TriggerConfig)
		if err != nil {
			return fmt.Errorf("job %s: bad path %q: %w", j.ID, j.TriggerConfig, err)
		}
		pathToJob[absPath] = j.ID
	}
	if len(pathToJob) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher

	// Directories are watched rather than files so that editors that
	// replace files by rename keep triggering.
	watchedDirs := make(map[string]bool)
	for absPath := range pathToJob {
		dir := filepath.Dir(absPath)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.logger.Warn("etl watcher: failed to watch dir", "dir", dir, "error", err)
			continue
		}
		watchedDirs[dir] = true
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	go s.watchLoop(watchCtx, watcher, pathToJob)

	s.logger.Info("etl watcher: watching files", "count", len(pathToJob))
	return nil
}

func (s *ETLService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pathToJob map[string]string) {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			jobID, ok := pathToJob[absPath]
			if !ok {
				continue
			}
			if t, exists := timers[jobID]; exists {
				t.Stop()
			}
			jid := jobID
			timers[jobID] = time.AfterFunc(fileWatchDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				s.logger.Info("etl watcher: file changed, running job", "path", absPath, "job", jid)
				if _, err := s.RunJob(ctx, jid); err != nil {
					s.logger.Error("etl watcher: run failed", "job", jid, "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("etl watcher: error", "error", err)
		}
	}
}

// Stop tears down all watchers and schedulers. Runs already in flight are
// not interrupted; use WaitRunning to drain them.
func (s *ETLService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchersLocked()
}

func (s *ETLService) stopWatchersLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
