// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the event store backend: sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// SQLitePath locates the SQLite database file (sqlite driver only).
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RecentEventsLimit is the default page size for GET /events.
	RecentEventsLimit int `koanf:"recent_events_limit"`

	// MaxRecentLimit caps GET /events?limit.
	MaxRecentLimit int `koanf:"max_recent_limit"`

	// DedupeSize bounds the idempotency cache for replayed submissions.
	DedupeSize int `koanf:"dedupe_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		DBDriver:          "sqlite",
		SQLitePath:        "calcio.db",
		PostgresDSN:       "",
		RecentEventsLimit: 6,
		MaxRecentLimit:    100,
		DedupeSize:        50_000,
	}
}
