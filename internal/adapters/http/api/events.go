// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/calcio/internal/domain/dedupe"
	"github.com/okian/calcio/internal/domain/model"
)

// EventDependencies defines the interface for event recording and reads.
type EventDependencies interface {
	dedupe.Deduper
	RecordEvent(ctx context.Context, e model.Event) (model.Event, error)
	Recent(ctx context.Context, n int) ([]model.Event, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps     EventDependencies
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleEvents dispatches POST (record) and GET (recent) on /events.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostEvent(w, r)
	case http.MethodGet:
		h.handleGetRecent(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handlePostEvent handles POST /events requests.
func (h *EventsHandler) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check when the client supplies a submission id.
	if req.EventID != "" && h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	stored, err := h.deps.RecordEvent(r.Context(), req.toModel())
	if err != nil {
		// Roll back the "seen" status so the client can retry.
		if req.EventID != "" {
			h.deps.Unrecord(r.Context(), req.EventID)
		}
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(stored))
}

// handleGetRecent handles GET /events?limit=N requests.
func (h *EventsHandler) handleGetRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recent_events"
	n := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if parsed > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	events, err := h.deps.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}
