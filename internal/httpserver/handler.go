package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lumina/orca/internal/apierr"
	"lumina/orca/internal/domain"
	"lumina/orca/internal/engine"
	"lumina/orca/internal/store"
)

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	engine *engine.Engine
	log    *store.Store // nil disables the entity/report endpoints
}

// NewHandler creates a Handler wired to the given Decision Orchestrator. log
// may be nil, in which case EntitySummary and DecisionPatterns respond 422.
func NewHandler(e *engine.Engine, log *store.Store) *Handler {
	return &Handler{engine: e, log: log}
}

// ─── POST /api/v1/decisions ────────────────────────────────────────────────

// Decide accepts a DecisionRequest payload, runs the full pipeline, and
// returns the AP2 decision contract synchronously.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req domain.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, apierr.New(apierr.CodeValidation, "request body must be valid JSON"))
		return
	}

	out, err := h.engine.Decide(r.Context(), &req)
	if err != nil {
		if apiErr, ok := err.(*apierr.Error); ok {
			writeAPIError(w, apiErr)
			return
		}
		internalError(w, "an unexpected error occurred")
		return
	}

	ok(w, out.Contract)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]string{"status": "ok", "service": "orca-decision-engine"})
}

// ─── GET /api/v1/entities/{type}/{value} ───────────────────────────────────

var validEntityTypes = map[string]domain.EntityType{
	"card_bin": domain.EntityCardBIN,
	"ip":       domain.EntityIP,
	"customer": domain.EntityCustomer,
}

// EntitySummary returns aggregate decision activity for one tracked entity
// over a lookback window (default 24h, overridable with ?hours=N).
func (h *Handler) EntitySummary(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeAPIError(w, apierr.New(apierr.CodeValidation, "entity reporting is not enabled"))
		return
	}

	entityType, known := validEntityTypes[chi.URLParam(r, "type")]
	if !known {
		writeAPIError(w, apierr.Newf(apierr.CodeValidation, "unknown entity type %q", chi.URLParam(r, "type")))
		return
	}
	value := chi.URLParam(r, "value")

	summary := h.log.EntitySummary(entityType, value, lookbackSince(r))
	ok(w, summary)
}

// ─── GET /api/v1/reports/decision-patterns ─────────────────────────────────

// DecisionPatterns returns a rolling summary of decision outcomes and
// repeated-signal clusters over a lookback window (default 24h).
func (h *Handler) DecisionPatterns(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeAPIError(w, apierr.New(apierr.CodeValidation, "decision pattern reporting is not enabled"))
		return
	}
	report := h.log.PatternReport(lookbackSince(r), time.Now().UTC())
	ok(w, report)
}

func lookbackSince(r *http.Request) time.Time {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}
