/*
handlers.go - HTTP API handlers for the points award engine

PURPOSE:
  Exposes the award engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the award rules.

ENDPOINTS:
  Events:
    POST   /api/events/email           Evaluate an outbound email
    POST   /api/events/kudos           Evaluate an approved kudo
    POST   /api/events/milestone       Evaluate an approved milestone
    POST   /api/events/standup         Evaluate a standup submission
    POST   /api/events/task            Evaluate a completed task
    POST   /api/events/email-received  Register an inbound email

  Ledger:
    GET    /api/ledger                 List entries (filterable)
    GET    /api/users/{id}/points      Paid-points total for a user

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the award rule via the service facade
  3. Serialize recorded entries
  4. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON
  - 422: Event fails validation (missing identity or instant)
  - 500: Ledger recording failures
  Duplicate submissions are not errors: the rules record an audit entry
  and the handler returns it with 200. A rule that does not apply to the
  event returns 204 with no body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - award/service.go: The facade handlers delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// FactStore records supporting facts that later rule evaluations consult:
// standup submissions (task rule) and inbound emails (email rule).
type FactStore interface {
	LogStandup(ctx context.Context, rec award.StandupRecord) error
	RecordReceived(ctx context.Context, project engine.ProjectID, receivedAt time.Time) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *award.Service
	Reader  engine.LedgerReader
	Facts   FactStore
}

// NewHandler creates a new handler around the award service.
func NewHandler(svc *award.Service, reader engine.LedgerReader, facts FactStore) *Handler {
	return &Handler{Service: svc, Reader: reader, Facts: facts}
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// SubmitEmail evaluates an outbound email for the timely-reply award.
func (h *Handler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	observeEvent(engine.KindEmail)
	entries, err := h.Service.AwardEmail(r.Context(), req.toEvent())
	h.respondEntries(w, entries, err)
}

// SubmitKudos evaluates an approved kudo.
func (h *Handler) SubmitKudos(w http.ResponseWriter, r *http.Request) {
	var req KudosEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	observeEvent(engine.KindKudos)
	entries, err := h.Service.AwardKudos(r.Context(), req.toEvent())
	h.respondEntries(w, entries, err)
}

// SubmitMilestone evaluates an approved milestone, fanning awards out to
// its assignees.
func (h *Handler) SubmitMilestone(w http.ResponseWriter, r *http.Request) {
	var req MilestoneEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	observeEvent(engine.KindMilestone)
	entries, err := h.Service.AwardMilestone(r.Context(), req.toEvent())
	h.respondEntries(w, entries, err)
}

// SubmitStandup evaluates a standup submission. The submission fact is
// logged regardless of the award outcome so the task rule can find it.
func (h *Handler) SubmitStandup(w http.ResponseWriter, r *http.Request) {
	var req StandupEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event := req.toEvent()
	if event.UserID != "" && !event.CreatedAt.IsZero() {
		rec := award.StandupRecord{
			UserID:    event.UserID,
			ProjectID: event.ProjectID,
			CreatedAt: event.CreatedAt,
		}
		if err := h.Facts.LogStandup(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to log standup", err)
			return
		}
	}

	observeEvent(engine.KindStandup)
	entries, err := h.Service.AwardStandup(r.Context(), event)
	h.respondEntries(w, entries, err)
}

// SubmitTask evaluates a completed task.
func (h *Handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req TaskEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	observeEvent(engine.KindTask)
	entries, err := h.Service.AwardTask(r.Context(), req.toEvent())
	h.respondEntries(w, entries, err)
}

// RegisterReceivedEmail stores an inbound email timestamp. It earns no
// points itself; it anchors the reply window for later outbound emails.
func (h *Handler) RegisterReceivedEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailReceivedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ProjectID == "" || req.ReceivedAt.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "project_id and received_at are required", nil)
		return
	}

	if err := h.Facts.RecordReceived(r.Context(), engine.ProjectID(req.ProjectID), req.ReceivedAt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record received email", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedger returns ledger entries newest-first. Supports ?user=, ?kind=,
// ?project=, ?status= and ?limit= filters.
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	var filter engine.ListFilter

	q := r.URL.Query()
	if v := q.Get("user"); v != "" {
		user := engine.UserID(v)
		filter.User = &user
	}
	if v := q.Get("kind"); v != "" {
		kind := engine.EntityKind(v)
		if !kind.Valid() {
			writeError(w, http.StatusUnprocessableEntity, "Unknown entity kind: "+v, nil)
			return
		}
		filter.Kind = &kind
	}
	if v := q.Get("project"); v != "" {
		project := engine.ProjectID(v)
		filter.Project = &project
	}
	if v := q.Get("status"); v != "" {
		status := engine.Status(v)
		if status != engine.StatusPaid && status != engine.StatusDenied {
			writeError(w, http.StatusUnprocessableEntity, "Unknown status: "+v, nil)
			return
		}
		filter.Status = &status
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusUnprocessableEntity, "Invalid limit: "+v, nil)
			return
		}
		filter.Limit = limit
	}

	entries, err := h.Reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// GetUserPoints returns the user's paid-points total.
func (h *Handler) GetUserPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing user id", nil)
		return
	}

	total, err := h.Reader.TotalPointsFor(r.Context(), engine.UserID(userID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute points total", err)
		return
	}
	writeJSON(w, http.StatusOK, PointsSummaryDTO{UserID: userID, Total: total.String()})
}

// =============================================================================
// HELPERS
// =============================================================================

// respondEntries maps an award outcome to HTTP: recorded entries are 200,
// a not-applicable event is 204, validation failures are 422, everything
// else is 500.
func (h *Handler) respondEntries(w http.ResponseWriter, entries []engine.Entry, err error) {
	if err != nil {
		if engine.IsCallerBug(err) {
			writeError(w, http.StatusUnprocessableEntity, "Invalid event", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record award", err)
		return
	}

	observeEntries(entries)
	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
