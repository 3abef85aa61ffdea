// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/calcio/internal/domain/dedupe"
	"github.com/okian/calcio/internal/domain/model"
	"github.com/okian/calcio/internal/domain/stats"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Write operations.
	RecordEvent(ctx context.Context, e model.Event) (model.Event, error)
	AddGoal(ctx context.Context, metric string, target float64) (model.TrainingGoal, error)
	RemoveGoal(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	// Read operations.
	Recent(ctx context.Context, n int) ([]model.Event, error)
	Report(ctx context.Context) (stats.Report, error)
	Summary(ctx context.Context) (stats.Summary, error)
	Goals(ctx context.Context) ([]model.TrainingGoal, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	reportHandler    *ReportHandler
	summaryHandler   *SummaryHandler
	goalsHandler     *GoalsHandler
	adminHandler     *AdminHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRecentLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps, maxRecentLimit),
		reportHandler:    NewReportHandler(deps),
		summaryHandler:   NewSummaryHandler(deps),
		goalsHandler:     NewGoalsHandler(deps),
		adminHandler:     NewAdminHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "api_stats"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleGetReport, "report"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/goals", MetricsMiddleware(s.goalsHandler.HandleGoals, "goals"))
	mux.HandleFunc("/goals/", MetricsMiddleware(s.goalsHandler.HandleDeleteGoal, "goals_id"))
	mux.HandleFunc("/admin/clear", MetricsMiddleware(s.adminHandler.HandleClear, "admin_clear"))
}

// eventRequest mirrors the JSON schema for POST /events.
type eventRequest struct {
	EventID  string `json:"event_id"` // optional client idempotency key
	Position string `json:"position"`
	Type     string `json:"event_type"`
	OnTarget bool   `json:"on_target"`
	Scored   bool   `json:"scored"`
	Notes    string `json:"notes"`
	TS       string `json:"ts"` // optional RFC3339; defaults to server time
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Position) == "":
		return errors.New("missing position")
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing event_type")
	}
	if e.TS != "" {
		if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// toModel converts the request to a domain event. validate must pass first.
func (e eventRequest) toModel() model.Event {
	ev := model.Event{
		Position: model.Position(e.Position),
		Type:     model.EventType(e.Type),
		OnTarget: e.OnTarget,
		Scored:   e.Scored,
		Notes:    strings.TrimSpace(e.Notes),
	}
	if e.TS != "" {
		ev.TS, _ = time.Parse(time.RFC3339, e.TS)
	}
	return ev
}

// eventResponse is the stored-event shape returned by reads and creates.
type eventResponse struct {
	ID       string `json:"id"`
	TS       string `json:"ts"`
	Position string `json:"position"`
	Type     string `json:"event_type"`
	OnTarget bool   `json:"on_target"`
	Scored   bool   `json:"scored"`
	Notes    string `json:"notes,omitempty"`
}

func toEventResponse(e model.Event) eventResponse {
	return eventResponse{
		ID:       e.ID,
		TS:       e.TS.Format(time.RFC3339Nano),
		Position: string(e.Position),
		Type:     string(e.Type),
		OnTarget: e.OnTarget,
		Scored:   e.Scored,
		Notes:    e.Notes,
	}
}

// goalRequest mirrors the JSON schema for POST /goals.
type goalRequest struct {
	Metric string  `json:"metric"`
	Target float64 `json:"target"`
}

func (g goalRequest) validate() error {
	if strings.TrimSpace(g.Metric) == "" {
		return errors.New("missing metric")
	}
	return nil
}

// goalResponse is the stored-goal shape.
type goalResponse struct {
	ID        string  `json:"id"`
	Metric    string  `json:"metric"`
	Target    float64 `json:"target"`
	CreatedAt string  `json:"created_at"`
}

func toGoalResponse(g model.TrainingGoal) goalResponse {
	return goalResponse{
		ID:        g.ID,
		Metric:    g.Metric,
		Target:    g.Target,
		CreatedAt: g.CreatedAt.Format(time.RFC3339Nano),
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isValidationError maps vocabulary violations to 400 responses.
func isValidationError(err error) bool {
	return errors.Is(err, model.ErrInvalidPosition) || errors.Is(err, model.ErrInvalidEventType)
}
