/*
handlers.go - HTTP API handlers for the contract scheduling engine

PURPOSE:
  Exposes the contract event engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine. The
  handlers never alter engine output; they only parse input, apply the
  draft's overrides and render the result.

ENDPOINTS:
  Timeline:
    POST   /api/timeline                         Compute a timeline (stateless)

  Drafts:
    GET    /api/drafts                           List drafts
    POST   /api/drafts                           Create draft
    GET    /api/drafts/{id}                      Get draft
    PUT    /api/drafts/{id}                      Replace draft definition
    DELETE /api/drafts/{id}                      Delete draft
    GET    /api/drafts/{id}/timeline             Draft timeline with overrides
    PUT    /api/drafts/{id}/overrides/{eventID}  Move one event
    DELETE /api/drafts/{id}/overrides/{eventID}  Reset one event
    POST   /api/drafts/{id}/confirm              Freeze the timeline

  Schedules:
    GET    /api/schedules/{id}                   Confirmed schedule

  Scenarios:
    GET    /api/scenarios                        List demo contracts
    GET    /api/scenarios/{id}/timeline          Demo contract timeline

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Drafts/Schedules: Persistence seams (SQLite or in-memory)
  - Factory: JSON to Configuration conversion
  - Log, Metrics: Observability

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid contract definition or date
  - 404: Draft, schedule, scenario or event not found
  - 409: Draft already confirmed
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo contract definitions
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
	"github.com/warp/contract-engine/factory"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Drafts    contract.DraftStore
	Schedules contract.ScheduleStore
	Factory   *factory.ContractFactory

	Log     *zap.Logger
	Metrics *Metrics
}

// NewHandler creates a new handler. A nil logger discards output and nil
// metrics disables instrumentation.
func NewHandler(drafts contract.DraftStore, schedules contract.ScheduleStore, log *zap.Logger, metrics *Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Drafts:    drafts,
		Schedules: schedules,
		Factory:   factory.NewContractFactory(),
		Log:       log.Named("api"),
		Metrics:   metrics,
	}
}

// compute runs the engine and applies overrides on top of the result.
func (h *Handler) compute(source string, cfg contract.Configuration, overrides contract.Overrides) []contract.ContractEvent {
	events := contract.ComputeEvents(cfg)
	if len(overrides) > 0 {
		events = contract.ApplyOverrides(events, overrides)
	}
	h.Metrics.observeTimeline(source, len(events))
	h.Log.Debug("timeline computed",
		zap.String("source", source),
		zap.Int("events", len(events)),
		zap.Int("overrides", len(overrides)),
	)
	return events
}

// =============================================================================
// TIMELINE
// =============================================================================

// ComputeTimeline renders a timeline for an unsaved contract definition.
func (h *Handler) ComputeTimeline(w http.ResponseWriter, r *http.Request) {
	var req TimelineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.Factory.FromJSON(req.Config)
	if err != nil {
		h.writeDomainError(w, "Invalid contract configuration", err)
		return
	}

	overrides, skipped := contract.ParseOverrides(req.Overrides)
	events := h.compute("adhoc", cfg, overrides)
	writeJSON(w, http.StatusOK, toTimelineResponse(events, skipped))
}

// =============================================================================
// DRAFTS
// =============================================================================

// ListDrafts returns all drafts, most recently updated first.
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.Drafts.ListDrafts(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list drafts", err)
		return
	}

	dtos := make([]DraftDTO, 0, len(drafts))
	for _, d := range drafts {
		dto, err := toDraftDTO(h.Factory, d)
		if err != nil {
			h.Log.Warn("skipping unreadable draft", zap.String("draft_id", d.ID), zap.Error(err))
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDraft stores a new draft under a generated id.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Overrides == nil {
		req.Overrides = map[string]string{}
	}
	h.saveDraft(w, r, uuid.NewString(), req, http.StatusCreated)
}

// UpdateDraft replaces a draft's definition. Overrides are replaced only
// when the request carries them.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Drafts.GetDraft(r.Context(), id); err != nil {
		h.writeDomainError(w, "Draft not found", err)
		return
	}

	var req DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.saveDraft(w, r, id, req, http.StatusOK)
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request, id string, req DraftRequest, status int) {
	ctx := r.Context()

	cfg, err := h.Factory.FromJSON(req.Config)
	if err != nil {
		h.writeDomainError(w, "Invalid contract configuration", err)
		return
	}
	raw, err := h.Factory.Marshal(cfg)
	if err != nil {
		h.writeDomainError(w, "Failed to encode contract", err)
		return
	}

	draft := contract.Draft{ID: id, ConfigJSON: raw}
	var skipped []string
	if req.Overrides != nil {
		draft.Overrides, skipped = contract.ParseOverrides(req.Overrides)
	}

	if err := h.Drafts.SaveDraft(ctx, draft); err != nil {
		h.writeDomainError(w, "Failed to save draft", err)
		return
	}

	stored, err := h.Drafts.GetDraft(ctx, id)
	if err != nil {
		h.writeDomainError(w, "Failed to load draft", err)
		return
	}
	dto, err := toDraftDTO(h.Factory, *stored)
	if err != nil {
		h.writeDomainError(w, "Failed to render draft", err)
		return
	}

	h.Log.Info("draft saved", zap.String("draft_id", id), zap.Int("blocks", len(cfg.Blocks)))
	writeJSON(w, status, DraftResponse{Draft: dto, SkippedOverrides: skipped})
}

// GetDraft returns one draft.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drafts.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Draft not found", err)
		return
	}

	dto, err := toDraftDTO(h.Factory, *d)
	if err != nil {
		h.writeDomainError(w, "Failed to render draft", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteDraft discards a draft and its overrides.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Drafts.DeleteDraft(r.Context(), id); err != nil {
		h.writeDomainError(w, "Draft not found", err)
		return
	}
	h.Log.Info("draft deleted", zap.String("draft_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetDraftTimeline renders the draft's timeline with its overrides applied.
func (h *Handler) GetDraftTimeline(w http.ResponseWriter, r *http.Request) {
	events, _, err := h.draftTimeline(r.Context(), chi.URLParam(r, "id"), "draft")
	if err != nil {
		h.writeDomainError(w, "Failed to compute draft timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(events, nil))
}

func (h *Handler) draftTimeline(ctx context.Context, id, source string) ([]contract.ContractEvent, *contract.Draft, error) {
	d, err := h.Drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := h.Factory.ParseContract(d.ConfigJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("draft %s: %w", id, err)
	}
	return h.compute(source, cfg, d.Overrides), d, nil
}

// =============================================================================
// OVERRIDES
// =============================================================================

// SetOverride moves one event of a draft to a new date and returns the
// re-sorted timeline.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	eventID := chi.URLParam(r, "eventID")

	var req OverrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil || date.IsZero() {
		h.writeDomainError(w, "Invalid override date", fmt.Errorf("%w: %q", contract.ErrInvalidDate, req.Date))
		return
	}

	events, _, err := h.draftTimeline(ctx, id, "draft")
	if err != nil {
		h.writeDomainError(w, "Failed to compute draft timeline", err)
		return
	}
	if !hasEvent(events, eventID) {
		h.writeDomainError(w, "Event not found", fmt.Errorf("%w: %s", contract.ErrUnknownEvent, eventID))
		return
	}

	if err := h.Drafts.SetOverride(ctx, id, eventID, date); err != nil {
		h.writeDomainError(w, "Failed to save override", err)
		return
	}
	h.writeDraftTimeline(w, r, id)
}

// ResetOverride restores one event to its computed date.
func (h *Handler) ResetOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Drafts.ResetOverride(r.Context(), id, chi.URLParam(r, "eventID")); err != nil {
		h.writeDomainError(w, "Failed to reset override", err)
		return
	}
	h.writeDraftTimeline(w, r, id)
}

func (h *Handler) writeDraftTimeline(w http.ResponseWriter, r *http.Request, id string) {
	events, _, err := h.draftTimeline(r.Context(), id, "draft")
	if err != nil {
		h.writeDomainError(w, "Failed to compute draft timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineResponse(events, nil))
}

func hasEvent(events []contract.ContractEvent, id string) bool {
	for _, e := range events {
		if e.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// ConfirmDraft bakes the draft's overrides into a final, immutable event
// list.
func (h *Handler) ConfirmDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	events, d, err := h.draftTimeline(ctx, id, "confirm")
	if err != nil {
		h.writeDomainError(w, "Failed to compute draft timeline", err)
		return
	}

	schedule := contract.ConfirmedSchedule{
		ID:         uuid.NewString(),
		DraftID:    d.ID,
		ConfigJSON: d.ConfigJSON,
		Events:     events,
	}
	if err := h.Schedules.SaveConfirmed(ctx, schedule); err != nil {
		h.writeDomainError(w, "Failed to confirm draft", err)
		return
	}

	stored, err := h.Schedules.GetConfirmed(ctx, schedule.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to load schedule", err)
		return
	}
	dto, err := h.toScheduleDTO(*stored)
	if err != nil {
		h.writeDomainError(w, "Failed to render schedule", err)
		return
	}

	h.Log.Info("draft confirmed",
		zap.String("draft_id", d.ID),
		zap.String("schedule_id", schedule.ID),
		zap.Int("events", len(events)),
	)
	writeJSON(w, http.StatusCreated, dto)
}

// GetSchedule returns a confirmed schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.Schedules.GetConfirmed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Schedule not found", err)
		return
	}

	dto, err := h.toScheduleDTO(*s)
	if err != nil {
		h.writeDomainError(w, "Failed to render schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) toScheduleDTO(s contract.ConfirmedSchedule) (ScheduleDTO, error) {
	cfg, err := h.Factory.ParseContract(s.ConfigJSON)
	if err != nil {
		return ScheduleDTO{}, err
	}
	return ScheduleDTO{
		ID:          s.ID,
		DraftID:     s.DraftID,
		Config:      h.Factory.ToJSON(cfg),
		Events:      toEventDTOs(s.Events),
		Summary:     toSummaryDTO(contract.Summarize(s.Events)),
		ConfirmedAt: s.ConfirmedAt.UTC().Format(time.RFC3339),
	}, nil
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports liveness and, when the store supports it, database
// reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Drafts.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(status)}
	var fe *contract.FieldError
	switch {
	case errors.As(err, &fe):
		resp.Details = map[string]string{"field": fe.Field, "message": fe.Message}
	case err != nil:
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps contract errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case contract.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case contract.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case contract.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
