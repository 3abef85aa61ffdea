package seeder

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of events to generate
	Days       int           // Spread event timestamps over the past N days
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for events
	LogFile    string        // Log file for seeder output
	Verbose    bool          // Enable verbose logging
}

// Event represents an event to be submitted.
type Event struct {
	EventID  string `json:"event_id"`
	Position string `json:"position"`
	Type     string `json:"event_type"`
	OnTarget bool   `json:"on_target"`
	Scored   bool   `json:"scored"`
	Notes    string `json:"notes,omitempty"`
	TS       string `json:"ts"`
}

// AckResponse represents the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Summary mirrors the machine-readable counters served at /api/stats.
type Summary struct {
	TotalShots   int `json:"total_shots"`
	TotalGoals   int `json:"total_goals"`
	TotalAssists int `json:"total_assists"`
	KeeperSaves  int `json:"keeper_saves"`
}

// Stats holds seeding run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
