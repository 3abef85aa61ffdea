package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/pkg/metrics"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to the database named by dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	s := &PostgresStore{pool: pool, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ready verifies database connectivity.
func (s *PostgresStore) Ready(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			position TEXT NOT NULL,
			event_type TEXT NOT NULL,
			on_target BOOLEAN NOT NULL DEFAULT FALSE,
			scored BOOLEAN NOT NULL DEFAULT FALSE,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS training_goals (
			id UUID PRIMARY KEY,
			metric TEXT NOT NULL,
			target DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_training_goals_created_at ON training_goals(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// InsertEvent persists an event, assigning its ID and defaulting TS to now.
func (s *PostgresStore) InsertEvent(ctx context.Context, e model.Event) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	e.ID = uuid.NewString()
	if e.TS.IsZero() {
		e.TS = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, ts, position, event_type, on_target, scored, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.TS, string(e.Position), string(e.Type), e.OnTarget, e.Scored, e.Notes,
	)
	if err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// ListEvents returns every stored event.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, ts, position, event_type, on_target, scored, notes FROM events`)
}

// RecentEvents returns up to n events, newest first.
func (s *PostgresStore) RecentEvents(ctx context.Context, n int) ([]model.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.queryEvents(ctx,
		`SELECT id, ts, position, event_type, on_target, scored, notes
		 FROM events ORDER BY ts DESC LIMIT $1`, n)
}

func (s *PostgresStore) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e                   model.Event
			position, eventType string
		)
		if err := rows.Scan(&e.ID, &e.TS, &position, &eventType, &e.OnTarget, &e.Scored, &e.Notes); err != nil {
			return nil, err
		}
		e.Position = model.Position(position)
		e.Type = model.EventType(eventType)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// InsertGoal persists a training goal, assigning its ID and CreatedAt.
func (s *PostgresStore) InsertGoal(ctx context.Context, g model.TrainingGoal) (model.TrainingGoal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO training_goals (id, metric, target, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, g.Metric, g.Target, g.CreatedAt,
	)
	if err != nil {
		return model.TrainingGoal{}, err
	}
	return g, nil
}

// ListGoals returns every training goal, newest-created first.
func (s *PostgresStore) ListGoals(ctx context.Context) ([]model.TrainingGoal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.pool.Query(ctx,
		`SELECT id, metric, target, created_at FROM training_goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []model.TrainingGoal
	for rows.Next() {
		var g model.TrainingGoal
		if err := rows.Scan(&g.ID, &g.Metric, &g.Target, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

// DeleteGoal removes one training goal by id. A malformed id cannot match
// any stored goal; it is reported as not found rather than failing the
// UUID cast in the database.
func (s *PostgresStore) DeleteGoal(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrGoalNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM training_goals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// ClearAll removes every event and every training goal in one transaction.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM events`, `DELETE FROM training_goals`} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}
