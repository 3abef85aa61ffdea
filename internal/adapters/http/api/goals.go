// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/okian/calcio/internal/adapters/repository"
	"github.com/okian/calcio/internal/domain/model"
)

// GoalDependencies defines the interface for training goal operations.
type GoalDependencies interface {
	AddGoal(ctx context.Context, metric string, target float64) (model.TrainingGoal, error)
	Goals(ctx context.Context) ([]model.TrainingGoal, error)
	RemoveGoal(ctx context.Context, id string) error
}

// GoalsHandler handles training goal requests.
type GoalsHandler struct {
	deps GoalDependencies
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(deps GoalDependencies) *GoalsHandler {
	return &GoalsHandler{deps: deps}
}

// HandleGoals dispatches POST (create) and GET (list) on /goals.
func (h *GoalsHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateGoal(w, r)
	case http.MethodGet:
		h.handleListGoals(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleCreateGoal handles POST /goals requests.
func (h *GoalsHandler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_goal"
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	goal, err := h.deps.AddGoal(r.Context(), strings.TrimSpace(req.Metric), req.Target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(goal))
}

// handleListGoals handles GET /goals requests.
func (h *GoalsHandler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_goals"
	goals, err := h.deps.Goals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]goalResponse, len(goals))
	for i, g := range goals {
		out[i] = toGoalResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDeleteGoal handles DELETE /goals/{id} requests.
func (h *GoalsHandler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_goal"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/goals/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.RemoveGoal(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}
