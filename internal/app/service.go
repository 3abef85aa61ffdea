// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"

	repository "github.com/okian/calcio/internal/adapters/repository"
	"github.com/okian/calcio/internal/domain/dedupe"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/internal/domain/stats"
	"github.com/okian/calcio/pkg/logger"
	"github.com/okian/calcio/pkg/metrics"
)

// Default configuration constants.
const (
	defaultDedupeSize  = 50000
	defaultRecentLimit = 6
)

// Service implements the API dependencies for the training tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper

	// Configuration
	driver      string
	sqlitePath  string
	postgresDSN string
	dedupeSize  int
	recentLimit int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects an already-open store, bypassing driver selection.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDriver selects the store backend: sqlite or postgres.
func WithDriver(driver string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithSQLitePath sets the SQLite database file location.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithPostgresDSN sets the Postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(s *Service) {
		s.postgresDSN = dsn
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRecentLimit sets the default page size for recent-event reads.
func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:      repository.DriverSQLite,
		sqlitePath:  "calcio.db",
		dedupeSize:  defaultDedupeSize,
		recentLimit: defaultRecentLimit,
		logger:      nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting training tracker service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.driver, s.sqlitePath, s.postgresDSN)
		if err != nil {
			return err
		}
		s.store = store
		s.logger.Info(ctx, "store opened", logger.String("driver", s.driver))
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	s.started = true
	s.logger.Info(ctx, "training tracker service started",
		logger.String("driver", s.driver),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("recentLimit", s.recentLimit),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping training tracker service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "training tracker service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes a submission id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// RecordEvent validates and persists one training event. The returned event
// carries the store-assigned id and timestamp.
func (s *Service) RecordEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if err := e.Validate(); err != nil {
		metrics.RecordEventRejected()
		return model.Event{}, err
	}
	// Notes are best-effort: over-long text is truncated, not rejected.
	if runes := []rune(e.Notes); len(runes) > model.MaxNotesLength {
		e.Notes = string(runes[:model.MaxNotesLength])
	}

	stored, err := s.store.InsertEvent(ctx, e)
	if err != nil {
		metrics.RecordStoreError()
		return model.Event{}, err
	}
	metrics.RecordEventRecorded(string(stored.Position), string(stored.Type))
	s.logger.Debug(ctx, "event recorded",
		logger.String("id", stored.ID),
		logger.String("position", string(stored.Position)),
		logger.String("eventType", string(stored.Type)),
	)
	return stored, nil
}

// Recent returns up to n events, newest first. A non-positive n falls back
// to the configured default page size.
func (s *Service) Recent(ctx context.Context, n int) ([]model.Event, error) {
	if n <= 0 {
		n = s.recentLimit
	}
	return s.store.RecentEvents(ctx, n)
}

// Report computes the full statistics report from one scan of the store.
func (s *Service) Report(ctx context.Context) (stats.Report, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		metrics.RecordStoreError()
		return stats.Report{}, err
	}
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		metrics.RecordStoreError()
		return stats.Report{}, err
	}
	metrics.RecordReportRequest()
	metrics.UpdateTotalEvents(len(events))
	metrics.UpdateTotalGoals(len(goals))
	return stats.Compute(events, goals), nil
}

// Summary computes the compact machine-readable summary.
func (s *Service) Summary(ctx context.Context) (stats.Summary, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		metrics.RecordStoreError()
		return stats.Summary{}, err
	}
	return stats.Summarize(events), nil
}

// AddGoal persists a new training goal.
func (s *Service) AddGoal(ctx context.Context, metric string, target float64) (model.TrainingGoal, error) {
	goal, err := s.store.InsertGoal(ctx, model.TrainingGoal{Metric: metric, Target: target})
	if err != nil {
		metrics.RecordStoreError()
		return model.TrainingGoal{}, err
	}
	metrics.RecordGoalCreated()
	return goal, nil
}

// Goals returns every training goal, newest-created first.
func (s *Service) Goals(ctx context.Context) ([]model.TrainingGoal, error) {
	return s.store.ListGoals(ctx)
}

// RemoveGoal deletes a single training goal.
func (s *Service) RemoveGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	metrics.RecordGoalDeleted()
	return nil
}

// Clear removes every event and training goal.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		metrics.RecordStoreError()
		return err
	}
	metrics.RecordStoreClear()
	s.logger.Warn(ctx, "all events and training goals cleared")
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"driver":      s.driver,
		"dedupeSize":  s.dedupeSize,
		"recentLimit": s.recentLimit,
	}

	if s.started {
		dedupeEntries := s.deduper.Size()
		stats["dedupeEntries"] = dedupeEntries
		metrics.UpdateDedupeSize(dedupeEntries)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
