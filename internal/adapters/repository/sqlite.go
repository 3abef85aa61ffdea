package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/pkg/metrics"

	_ "modernc.org/sqlite" // SQLite driver.
)

// sqliteTimeLayout is RFC3339 with fixed-width nanoseconds. Timestamps are
// normalized to UTC before formatting so that the TEXT columns sort
// lexicographically in chronological order (RFC3339Nano trims trailing
// zeros, which breaks ORDER BY for same-second rows).
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a file-backed SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the SQLite database at path and applies
// migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			position TEXT NOT NULL,
			event_type TEXT NOT NULL,
			on_target INTEGER NOT NULL DEFAULT 0,
			scored INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS training_goals (
			id TEXT PRIMARY KEY,
			metric TEXT NOT NULL,
			target REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_training_goals_created_at ON training_goals(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertEvent persists an event, assigning its ID and defaulting TS to now.
func (s *SQLiteStore) InsertEvent(ctx context.Context, e model.Event) (model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	e.ID = uuid.NewString()
	if e.TS.IsZero() {
		e.TS = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, ts, position, event_type, on_target, scored, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.TS.UTC().Format(sqliteTimeLayout),
		string(e.Position),
		string(e.Type),
		boolToInt(e.OnTarget),
		boolToInt(e.Scored),
		e.Notes,
	)
	if err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// ListEvents returns every stored event.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT id, ts, position, event_type, on_target, scored, notes FROM events`)
}

// RecentEvents returns up to n events, newest first.
func (s *SQLiteStore) RecentEvents(ctx context.Context, n int) ([]model.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.queryEvents(ctx,
		`SELECT id, ts, position, event_type, on_target, scored, notes
		 FROM events ORDER BY ts DESC LIMIT ?`, n)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []model.Event
	for rows.Next() {
		var (
			id, ts, position, eventType, notes string
			onTarget, scored                   int
		)
		if err := rows.Scan(&id, &ts, &position, &eventType, &onTarget, &scored, &notes); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, err
		}
		events = append(events, model.Event{
			ID:       id,
			TS:       parsed,
			Position: model.Position(position),
			Type:     model.EventType(eventType),
			OnTarget: onTarget != 0,
			Scored:   scored != 0,
			Notes:    notes,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// InsertGoal persists a training goal, assigning its ID and CreatedAt.
func (s *SQLiteStore) InsertGoal(ctx context.Context, g model.TrainingGoal) (model.TrainingGoal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_goals (id, metric, target, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Metric, g.Target, g.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return model.TrainingGoal{}, err
	}
	return g, nil
}

// ListGoals returns every training goal, newest-created first.
func (s *SQLiteStore) ListGoals(ctx context.Context) ([]model.TrainingGoal, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, metric, target, created_at FROM training_goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var goals []model.TrainingGoal
	for rows.Next() {
		var (
			g         model.TrainingGoal
			createdAt string
		)
		if err := rows.Scan(&g.ID, &g.Metric, &g.Target, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		g.CreatedAt = parsed
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

// DeleteGoal removes one training goal by id.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM training_goals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// ClearAll removes every event and every training goal in one transaction.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM events`, `DELETE FROM training_goals`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
