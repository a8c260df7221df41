// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mobilecsp/activityscores/internal/adapters/eventstore"
	service "github.com/mobilecsp/activityscores/internal/app"
	"github.com/mobilecsp/activityscores/internal/domain/model"
)

// ScoresDependencies defines the interface for score report operations.
type ScoresDependencies interface {
	Aggregate(ctx context.Context, userIDs []string, forceRefresh bool) (service.Report, error)
	Record(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error)
	Invalidate(ctx context.Context, studentEmail string)
}

// ScoresHandler handles score report requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleScores dispatches /activity-scores requests:
//
//	GET    /activity-scores?students=a,b&force=true  -> score report
//	DELETE /activity-scores?student=a                -> drop cached entry
func (h *ScoresHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ScoresHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_activity_scores"

	students := splitStudents(r.URL.Query().Get("students"))
	if len(students) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing students")))
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errors.New("invalid force flag")))
			return
		}
		force = parsed
	}

	report, err := h.deps.Aggregate(r.Context(), students, force)
	switch {
	case errors.Is(err, service.ErrTooManyStudents):
		writeError(w, http.StatusBadRequest, "too_many_students", WrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, eventstore.ErrUnavailable):
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "event_source_unavailable", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ScoresHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_activity_scores"

	student := strings.TrimSpace(r.URL.Query().Get("student"))
	if student == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing student")))
		return
	}
	h.deps.Invalidate(r.Context(), student)
	w.WriteHeader(http.StatusNoContent)
}

func splitStudents(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
