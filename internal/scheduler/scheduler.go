package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/XavierBriggs/Augur/adapters/tabular"
	"github.com/XavierBriggs/Augur/internal/board"
	"github.com/XavierBriggs/Augur/internal/delta"
	"github.com/XavierBriggs/Augur/internal/processor"
	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a refresh is requested while one is running
var ErrRunInProgress = errors.New("refresh already running")

// HistoryWriter persists snapshots and publishes movement
type HistoryWriter interface {
	WriteSnapshots(ctx context.Context, runID string, records []models.GameOddsRecord, capturedAt time.Time) (int, error)
	PublishMovements(ctx context.Context, runID string, moves []models.LineMovement) error
}

// MissFlusher persists the team miss ledger
type MissFlusher interface {
	FlushAndLog(ctx context.Context)
}

// Config controls job timing and the feed shape
type Config struct {
	Schedule           string // cron spec for refresh, e.g. "@every 60s"
	MissReportInterval time.Duration
	Tabular            bool // feed serves the flat positional export
}

// Deps are the pipeline stages a run drives. Writer and Misses may be nil.
type Deps struct {
	Feed      contracts.FeedSource
	Adapter   *tabular.Adapter
	Processor *processor.Processor
	Delta     *delta.Engine
	Writer    HistoryWriter
	Boards    *board.Store
	Misses    MissFlusher
	Now       func() time.Time
}

// RunResult summarizes one refresh
type RunResult struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Games     int              `json:"games"`
	Rows      int              `json:"rows"`
	Moves     int              `json:"moves"`
	Report    processor.Report `json:"report"`
	Error     string           `json:"error,omitempty"`
}

// Scheduler runs the refresh pipeline: fetch → adapt → process → delta → write → cache
type Scheduler struct {
	cfg     Config
	deps    Deps
	cron    *cron.Cron
	running atomic.Bool
	logger  *logrus.Entry

	mu      sync.RWMutex
	lastRun RunResult
}

// NewScheduler creates a new refresh scheduler
func NewScheduler(cfg Config, deps Deps, logger *logrus.Entry) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Scheduler{
		cfg:    cfg,
		deps:   deps,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the cron jobs and kicks off an initial refresh
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.runAndLog(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.cfg.Schedule, err)
	}

	if s.deps.Misses != nil && s.cfg.MissReportInterval > 0 {
		spec := "@every " + s.cfg.MissReportInterval.String()
		if _, err := s.cron.AddFunc(spec, func() { s.deps.Misses.FlushAndLog(ctx) }); err != nil {
			return fmt.Errorf("schedule miss report %q: %w", spec, err)
		}
	}

	s.cron.Start()

	// Initial refresh immediately
	go s.runAndLog(ctx)

	s.logger.WithField("schedule", s.cfg.Schedule).Info("scheduler started")
	return nil
}

// Stop waits for running jobs and flushes the miss ledger one last time
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	if s.deps.Misses != nil {
		s.deps.Misses.FlushAndLog(context.Background())
	}
	s.logger.Info("scheduler stopped")
}

// LastRun returns the most recent refresh result
func (s *Scheduler) LastRun() RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Running reports whether a refresh is in flight
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.logger.WithError(err).Error("refresh failed")
	}
}

// RunOnce executes one refresh. Only one run is active at a time; a
// concurrent call returns ErrRunInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) (RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := s.deps.Now()
	result := RunResult{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}

	err := s.run(ctx, &result)
	result.Duration = s.deps.Now().Sub(start)
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	return result, err
}

func (s *Scheduler) run(ctx context.Context, result *RunResult) error {
	log := s.logger.WithField("run_id", result.RunID)

	// Step 1: Fetch the payload
	payload, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	// Step 2: Validate, filter, build and sort
	records, report, err := s.deps.Processor.ProcessPayload(payload)
	if err != nil {
		return fmt.Errorf("process payload: %w", err)
	}
	result.Report = report
	result.Games = len(records)

	now := s.deps.Now()

	// Step 3: Detect line movement against the last run
	lines := delta.Lines(records)
	deltas, err := s.deps.Delta.DetectChanges(ctx, lines)
	if err != nil {
		return fmt.Errorf("detect changes: %w", err)
	}
	moves := delta.Movements(deltas, now)
	result.Moves = len(moves)

	// Step 4: Persist history
	if s.deps.Writer != nil {
		rows, err := s.deps.Writer.WriteSnapshots(ctx, result.RunID, records, now)
		if err != nil {
			return fmt.Errorf("write snapshots: %w", err)
		}
		result.Rows = rows

		if err := s.deps.Writer.PublishMovements(ctx, result.RunID, moves); err != nil {
			log.WithError(err).Warn("publish movements failed")
		}
	}

	// Step 5: Update the line cache (write-through)
	if err := s.deps.Delta.UpdateCache(ctx, lines, now); err != nil {
		// Log but don't fail - cache will rebuild
		log.WithError(err).Warn("update line cache failed")
	}
	if err := s.deps.Delta.RecordMovements(ctx, moves); err != nil {
		log.WithError(err).Warn("record movements failed")
	}

	// Step 6: Publish the board
	if err := s.deps.Boards.Save(ctx, &models.Board{
		RunID:       result.RunID,
		GeneratedAt: payload.GeneratedAt,
		BuiltAt:     now,
		Games:       records,
	}); err != nil {
		return fmt.Errorf("save board: %w", err)
	}

	log.WithFields(logrus.Fields{
		"games":    result.Games,
		"rows":     result.Rows,
		"deltas":   len(deltas),
		"moves":    result.Moves,
		"failed":   report.Total.Failed,
		"duration": s.deps.Now().Sub(result.StartedAt).String(),
	}).Info("refresh complete")

	return nil
}

func (s *Scheduler) fetch(ctx context.Context) (*models.Payload, error) {
	if !s.cfg.Tabular {
		payload, err := s.deps.Feed.FetchPayload(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch payload: %w", err)
		}
		return payload, nil
	}

	raw, err := s.deps.Feed.FetchTabular(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tabular: %w", err)
	}
	payload, err := s.deps.Adapter.Adapt(raw)
	if err != nil {
		return nil, fmt.Errorf("adapt tabular: %w", err)
	}
	return payload, nil
}
