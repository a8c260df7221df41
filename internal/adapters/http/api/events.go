// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mobilecsp/activityscores/internal/adapters/eventstore"
	"github.com/mobilecsp/activityscores/internal/domain/model"
)

// EventDependencies defines the interface for event recording dependencies.
type EventDependencies interface {
	Record(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the wire shape for POST /events.
type eventRequest struct {
	UserID     string          `json:"user_id"`
	Source     string          `json:"source"`
	RecordedOn string          `json:"recorded_on,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(e.Source) == "":
		return errors.New("missing source")
	case len(e.Data) == 0:
		return errors.New("missing data")
	}
	if e.RecordedOn != "" {
		if _, err := time.Parse(time.RFC3339, e.RecordedOn); err != nil {
			return errors.New("invalid recorded_on; must be RFC3339")
		}
	}
	return nil
}

type ackResponse struct {
	Status     string `json:"status"`
	EventID    string `json:"event_id"`
	RecordedOn int64  `json:"recorded_on"`
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	event := model.AttemptEvent{
		UserID: req.UserID,
		Source: req.Source,
		Data:   string(req.Data),
	}
	if req.RecordedOn != "" {
		recordedOn, _ := time.Parse(time.RFC3339, req.RecordedOn)
		event.RecordedOn = recordedOn
	}

	stored, err := h.deps.Record(r.Context(), event)
	if err != nil {
		if errors.Is(err, eventstore.ErrUnavailable) {
			w.Header().Set("Retry-After", "30")
			writeError(w, http.StatusServiceUnavailable, "event_source_unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{
		Status:     "accepted",
		EventID:    stored.ID,
		RecordedOn: stored.RecordedOn.Unix(),
	})
}
