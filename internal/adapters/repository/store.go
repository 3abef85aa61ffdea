// Package repository defines the persistent event store interface and its
// SQL-backed implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/calcio/internal/domain/model"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides durable access to recorded events and training goals.
// Inserts assign the record ID (and a default timestamp where applicable);
// records are immutable once written.
type Store interface {
	// InsertEvent persists an event and returns it with ID and TS filled in.
	InsertEvent(ctx context.Context, e model.Event) (model.Event, error)

	// ListEvents returns every stored event. Order is unspecified.
	ListEvents(ctx context.Context) ([]model.Event, error)

	// RecentEvents returns up to n events, newest first.
	RecentEvents(ctx context.Context, n int) ([]model.Event, error)

	// InsertGoal persists a training goal and returns it with ID and
	// CreatedAt filled in.
	InsertGoal(ctx context.Context, g model.TrainingGoal) (model.TrainingGoal, error)

	// ListGoals returns every training goal, newest-created first.
	ListGoals(ctx context.Context) ([]model.TrainingGoal, error)

	// DeleteGoal removes one training goal.
	// Returns ErrGoalNotFound if the id is unknown.
	DeleteGoal(ctx context.Context, id string) error

	// ClearAll removes every event and every training goal.
	ClearAll(ctx context.Context) error

	// Close releases the underlying database resources.
	Close() error
}

// Open opens a store for the configured driver.
func Open(ctx context.Context, driver, sqlitePath, postgresDSN string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, sqlitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, postgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
